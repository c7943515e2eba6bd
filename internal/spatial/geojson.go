package spatial

import (
	"encoding/json"
	"fmt"
	"strings"
)

// geoJSONObject covers the three shapes we accept: a bare geometry, a
// Feature wrapper, or (for loaders) a FeatureCollection element.
type geoJSONObject struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
}

// ParseGeometry decodes a GeoJSON Point, Polygon or MultiPolygon (optionally
// wrapped in a Feature) into a Geometry.
func ParseGeometry(raw []byte) (*Geometry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}
	var obj geoJSONObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	switch strings.ToLower(obj.Type) {
	case "feature":
		if len(obj.Geometry) == 0 {
			return nil, fmt.Errorf("feature without geometry")
		}
		return ParseGeometry(obj.Geometry)
	case "point":
		var coords []float64
		if err := json.Unmarshal(obj.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode point coordinates: %w", err)
		}
		if len(coords) < 2 {
			return nil, fmt.Errorf("point needs lon and lat, got %d values", len(coords))
		}
		return &Geometry{Point: &Point{Lon: coords[0], Lat: coords[1]}}, nil
	case "polygon":
		var coords [][][]float64
		if err := json.Unmarshal(obj.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		poly, err := buildPolygon(coords)
		if err != nil {
			return nil, err
		}
		return &Geometry{Polygons: []Polygon{poly}}, nil
	case "multipolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(obj.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		geom := &Geometry{}
		for i, part := range coords {
			poly, err := buildPolygon(part)
			if err != nil {
				return nil, fmt.Errorf("multipolygon part %d: %w", i, err)
			}
			geom.Polygons = append(geom.Polygons, poly)
		}
		if len(geom.Polygons) == 0 {
			return nil, fmt.Errorf("multipolygon with no parts")
		}
		return geom, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", obj.Type)
	}
}

// buildPolygon converts GeoJSON ring coordinates ([ring][vertex][lon,lat])
// into a Polygon with its bounding box.
func buildPolygon(coords [][][]float64) (Polygon, error) {
	if len(coords) == 0 {
		return Polygon{}, fmt.Errorf("polygon with no rings")
	}
	rings := make([]Ring, 0, len(coords))
	for ri, rawRing := range coords {
		ring := make(Ring, 0, len(rawRing))
		for _, v := range rawRing {
			if len(v) < 2 {
				continue
			}
			ring = append(ring, Point{Lon: v[0], Lat: v[1]})
		}
		if len(ring) < 3 {
			if ri == 0 {
				return Polygon{}, fmt.Errorf("outer ring has %d vertices", len(ring))
			}
			// degenerate hole, drop it
			continue
		}
		rings = append(rings, ring)
	}
	return NewPolygon(rings), nil
}
