package models

// StreetGeometry is the raw geometry for one named street as delivered by
// the geometry source. Coordinates is left untyped because the external
// service and the static fallback dataset use different array shapes; the
// geo package normalizes it before anything is emitted.
type StreetGeometry struct {
	Coordinates interface{} `json:"coordinates"`
}

// FeatureProperties carries the per-street attributes the map renderer
// styles with.
type FeatureProperties struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	HighImpact  int    `json:"highImpact"`
	LowImpact   int    `json:"lowImpact"`
	Color       string `json:"color"`
	ImpactLevel string `json:"impactLevel"`
}

// Geometry is a GeoJSON-shaped geometry object.
//
// Coordinates are emitted in [lat, lng] order, NOT the [lng, lat] order
// canonical GeoJSON prescribes, because the front-end renders with Leaflet
// which expects [lat, lng]. Consumers other than the bundled front-end must
// account for this inversion.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature is one street with its geometry and risk properties.
type Feature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   Geometry          `json:"geometry"`
}

// FeatureCollection is the map-data payload: one feature per known street.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
