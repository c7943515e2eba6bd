package spatial

import "math"

// Point is a WGS84 coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Ring is a closed loop of vertices. The closing vertex may repeat the first
// one or not; both forms are handled.
type Ring []Point

// Polygon is a GeoJSON-style ring set: the first ring is the outer boundary,
// any further rings are holes. BBox is [minLon, minLat, maxLon, maxLat].
type Polygon struct {
	Rings []Ring
	BBox  [4]float64
}

// Geometry is one decoded feature geometry. Settlements carry a point,
// administrative units carry one or more polygons.
type Geometry struct {
	Point    *Point
	Polygons []Polygon
}

// NewPolygon builds a polygon from rings and computes its bounding box.
func NewPolygon(rings []Ring) Polygon {
	return Polygon{Rings: rings, BBox: ComputeBBox(rings)}
}

// Contains reports whether pt lies inside the polygon, counting the boundary
// as inside. A point inside a hole is outside unless it sits exactly on the
// hole's edge.
func (p Polygon) Contains(pt Point) bool {
	if len(p.Rings) == 0 || len(p.Rings[0]) < 3 || !inBBox(pt, p.BBox) {
		return false
	}
	outer := p.Rings[0]
	if onRing(pt, outer) {
		return true
	}
	if !inRing(pt, outer) {
		return false
	}
	for _, hole := range p.Rings[1:] {
		if onRing(pt, hole) {
			return true
		}
		if inRing(pt, hole) {
			return false
		}
	}
	return true
}

// inRing runs an even-odd ray cast against one ring. The tiny epsilon keeps
// the division stable when an edge is nearly horizontal.
func inRing(pt Point, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if ((yi > pt.Lat) != (yj > pt.Lat)) &&
			pt.Lon < (xj-xi)*(pt.Lat-yi)/(yj-yi+1e-12)+xi {
			inside = !inside
		}
	}
	return inside
}

const boundaryEps = 1e-9

// onRing reports whether pt lies on one of the ring's edges.
func onRing(pt Point, ring Ring) bool {
	n := len(ring)
	if n < 2 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(pt, ring[j], ring[i]) {
			return true
		}
	}
	return false
}

// onSegment checks collinearity via the cross product, then that pt falls
// within the segment's extent.
func onSegment(pt, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lon-a.Lon)
	if math.Abs(cross) > boundaryEps {
		return false
	}
	if pt.Lon < math.Min(a.Lon, b.Lon)-boundaryEps || pt.Lon > math.Max(a.Lon, b.Lon)+boundaryEps {
		return false
	}
	if pt.Lat < math.Min(a.Lat, b.Lat)-boundaryEps || pt.Lat > math.Max(a.Lat, b.Lat)+boundaryEps {
		return false
	}
	return true
}

// inBBox is the cheap prefilter run before any ray casting.
func inBBox(pt Point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}

// ComputeBBox returns [minLon, minLat, maxLon, maxLat] over all rings.
// An empty ring set yields an inverted box that contains nothing.
func ComputeBBox(rings []Ring) [4]float64 {
	b := [4]float64{180, 90, -180, -90}
	for _, r := range rings {
		for _, pt := range r {
			if pt.Lon < b[0] {
				b[0] = pt.Lon
			}
			if pt.Lat < b[1] {
				b[1] = pt.Lat
			}
			if pt.Lon > b[2] {
				b[2] = pt.Lon
			}
			if pt.Lat > b[3] {
				b[3] = pt.Lat
			}
		}
	}
	return b
}

// Centroid returns a representative coordinate for the geometry: the point
// itself, or the area-weighted centroid of the polygon outer rings. ok is
// false when the geometry is empty or degenerate.
func (g *Geometry) Centroid() (Point, bool) {
	if g == nil {
		return Point{}, false
	}
	if g.Point != nil {
		return *g.Point, true
	}
	var cx, cy, totalArea float64
	for _, poly := range g.Polygons {
		if len(poly.Rings) == 0 {
			continue
		}
		x, y, a := ringCentroid(poly.Rings[0])
		cx += x * a
		cy += y * a
		totalArea += a
	}
	if totalArea > 0 {
		return Point{Lon: cx / totalArea, Lat: cy / totalArea}, true
	}
	// zero-area fallback: plain vertex average
	var sx, sy float64
	n := 0
	for _, poly := range g.Polygons {
		for _, r := range poly.Rings {
			for _, pt := range r {
				sx += pt.Lon
				sy += pt.Lat
				n++
			}
		}
	}
	if n == 0 {
		return Point{}, false
	}
	return Point{Lon: sx / float64(n), Lat: sy / float64(n)}, true
}

// ringCentroid computes the shoelace centroid and absolute area of one ring.
func ringCentroid(ring Ring) (cx, cy, area float64) {
	n := len(ring)
	if n < 3 {
		return 0, 0, 0
	}
	var a, sx, sy float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		cross := ring[j].Lon*ring[i].Lat - ring[i].Lon*ring[j].Lat
		a += cross
		sx += (ring[j].Lon + ring[i].Lon) * cross
		sy += (ring[j].Lat + ring[i].Lat) * cross
	}
	a /= 2
	if math.Abs(a) < 1e-12 {
		return 0, 0, 0
	}
	return sx / (6 * a), sy / (6 * a), math.Abs(a)
}
