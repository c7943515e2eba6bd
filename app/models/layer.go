package models

// Layer identifies one gazetteer layer. The string values double as the
// Meilisearch index names and the Mongo collection suffixes.
type Layer string

// Layer constants, most specific first
const (
	LayerSettlement Layer = "settlements"
	LayerBoma       Layer = "admin4_boma"
	LayerPayam      Layer = "admin3_payam"
	LayerCounty     Layer = "admin2_county"
	LayerState      Layer = "admin1_state"
)

// allLayers in cascade order (most specific first)
var allLayers = []Layer{
	LayerSettlement,
	LayerBoma,
	LayerPayam,
	LayerCounty,
	LayerState,
}

// specificityByLayer ranks layers for tie-breaking; higher wins
var specificityByLayer = map[Layer]int{
	LayerSettlement: 5,
	LayerBoma:       4,
	LayerPayam:      3,
	LayerCounty:     2,
	LayerState:      1,
}

// hierarchyFieldByLayer maps a layer to the hierarchy field its name fills
var hierarchyFieldByLayer = map[Layer]string{
	LayerSettlement: "village",
	LayerBoma:       "boma",
	LayerPayam:      "payam",
	LayerCounty:     "county",
	LayerState:      "state",
}

// ParseLayer returns the Layer for s and whether s named a known layer.
func ParseLayer(s string) (Layer, bool) {
	l := Layer(s)
	if _, ok := specificityByLayer[l]; ok {
		return l, true
	}
	return "", false
}

// CascadeLayers returns the resolution order: settlement, boma, payam, county, state.
func CascadeLayers() []Layer {
	out := make([]Layer, len(allLayers))
	copy(out, allLayers)
	return out
}

// PolygonLayers returns the layers carrying boundary polygons, most specific first.
func PolygonLayers() []Layer {
	return []Layer{LayerBoma, LayerPayam, LayerCounty, LayerState}
}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	_, ok := specificityByLayer[l]
	return ok
}

// Specificity returns the layer rank: settlements 5 down to states 1, 0 for unknown.
func (l Layer) Specificity() int {
	return specificityByLayer[l]
}

// HierarchyField returns the AdminHierarchy field this layer's name fills.
func (l Layer) HierarchyField() string {
	return hierarchyFieldByLayer[l]
}

// HasCoordinates reports whether a resolution at this layer carries lon/lat.
// County and state results are deliberately too coarse for point output.
func (l Layer) HasCoordinates() bool {
	switch l {
	case LayerSettlement, LayerBoma, LayerPayam:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (l Layer) String() string {
	return string(l)
}
