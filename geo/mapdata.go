package geo

import (
	"sort"

	"github.com/tlatelolco/crime-incidence-api/models"
)

// Impact levels for a street, bucketed by incident count.
const (
	ImpactGreen  = "GREEN"
	ImpactYellow = "YELLOW"
	ImpactRed    = "RED"
)

var impactColors = map[string]string{
	ImpactGreen:  "#4CAF50",
	ImpactYellow: "#FFC107",
	ImpactRed:    "#F44336",
}

// CalculateImpactLevel buckets an incident count: fewer than 3 GREEN,
// fewer than 7 YELLOW, otherwise RED.
func CalculateImpactLevel(count int) string {
	switch {
	case count < 3:
		return ImpactGreen
	case count < 7:
		return ImpactYellow
	default:
		return ImpactRed
	}
}

// ImpactColor returns the render color for an impact level, defaulting
// to green.
func ImpactColor(level string) string {
	if c, ok := impactColors[level]; ok {
		return c
	}
	return impactColors[ImpactGreen]
}

// GroupByStreet indexes incidents by their street name.
func GroupByStreet(incidents []models.Incident) map[string][]models.Incident {
	grouped := make(map[string][]models.Incident)
	for _, incident := range incidents {
		grouped[incident.Location.Street] = append(grouped[incident.Location.Street], incident)
	}
	return grouped
}

// BuildMapData assembles the FeatureCollection for the map: one feature
// per street with known geometry, including zero-incident streets in
// green. Incident streets without geometry are omitted. Features are
// sorted by street name so the payload is stable.
func BuildMapData(incidents []models.Incident, streets map[string]models.StreetGeometry) models.FeatureCollection {
	grouped := GroupByStreet(incidents)

	features := make([]models.Feature, 0, len(streets))
	for name, geometry := range streets {
		features = append(features, buildFeature(name, grouped[name], geometry))
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].Properties.Name < features[j].Properties.Name
	})

	return models.FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func buildFeature(name string, incidents []models.Incident, geometry models.StreetGeometry) models.Feature {
	level := CalculateImpactLevel(len(incidents))

	highImpact, lowImpact := 0, 0
	for _, incident := range incidents {
		switch incident.CrimeImpact {
		case models.CrimeImpactHigh:
			highImpact++
		case models.CrimeImpactLow:
			lowImpact++
		}
	}

	return models.Feature{
		Type: "Feature",
		Properties: models.FeatureProperties{
			Name:        name,
			Count:       len(incidents),
			HighImpact:  highImpact,
			LowImpact:   lowImpact,
			Color:       ImpactColor(level),
			ImpactLevel: level,
		},
		Geometry: models.Geometry{
			Type:        "LineString",
			Coordinates: NormalizeCoordinates(geometry.Coordinates),
		},
	}
}
