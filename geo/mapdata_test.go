package geo_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlatelolco/crime-incidence-api/geo"
	"github.com/tlatelolco/crime-incidence-api/models"
)

func incidentsOn(street string, n int) []models.Incident {
	incidents := make([]models.Incident, n)
	for i := range incidents {
		incidents[i] = models.Incident{
			Type:        models.IncidentTypeCrime,
			Description: fmt.Sprintf("incidente %d", i),
			Location:    models.Location{Street: street},
		}
	}
	return incidents
}

func TestCalculateImpactLevel_Buckets(t *testing.T) {
	tests := []struct {
		count    int
		expected string
	}{
		{0, geo.ImpactGreen},
		{2, geo.ImpactGreen},
		{3, geo.ImpactYellow},
		{6, geo.ImpactYellow},
		{7, geo.ImpactRed},
		{25, geo.ImpactRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, geo.CalculateImpactLevel(tt.count), "count %d", tt.count)
	}
}

func TestImpactColor(t *testing.T) {
	assert.Equal(t, "#4CAF50", geo.ImpactColor(geo.ImpactGreen))
	assert.Equal(t, "#FFC107", geo.ImpactColor(geo.ImpactYellow))
	assert.Equal(t, "#F44336", geo.ImpactColor(geo.ImpactRed))
	assert.Equal(t, "#4CAF50", geo.ImpactColor("PURPLE"))
}

func TestBuildMapData(t *testing.T) {
	streets := map[string]models.StreetGeometry{
		"Av. Manuel González":      {Coordinates: [][][]float64{{{19.449, -99.141}, {19.450, -99.140}}}},
		"Av. Ricardo Flores Magón": {Coordinates: [][][]float64{{{19.450, -99.140}, {19.451, -99.139}}}},
	}
	incidents := append(
		incidentsOn("Av. Ricardo Flores Magón", 4),
		incidentsOn("Calle Sin Geometría", 9)...,
	)

	collection := geo.BuildMapData(incidents, streets)

	assert.Equal(t, "FeatureCollection", collection.Type)
	// one feature per geometry street; the street without geometry is dropped
	if !assert.Len(t, collection.Features, 2) {
		return
	}

	// sorted by name: González before Ricardo
	quiet := collection.Features[0]
	busy := collection.Features[1]

	assert.Equal(t, "Av. Manuel González", quiet.Properties.Name)
	assert.Equal(t, 0, quiet.Properties.Count)
	assert.Equal(t, geo.ImpactGreen, quiet.Properties.ImpactLevel)
	assert.Equal(t, "#4CAF50", quiet.Properties.Color)

	assert.Equal(t, "Av. Ricardo Flores Magón", busy.Properties.Name)
	assert.Equal(t, 4, busy.Properties.Count)
	assert.Equal(t, geo.ImpactYellow, busy.Properties.ImpactLevel)
	assert.Equal(t, "#FFC107", busy.Properties.Color)

	assert.Equal(t, "Feature", busy.Type)
	assert.Equal(t, "LineString", busy.Geometry.Type)
	assert.Equal(t, [][][]float64{{{19.450, -99.140}, {19.451, -99.139}}}, busy.Geometry.Coordinates)
}

func TestBuildMapData_ImpactCountsFromClassification(t *testing.T) {
	street := "Av. Insurgentes Norte"
	streets := map[string]models.StreetGeometry{
		street: {Coordinates: [][][]float64{{{19.448, -99.142}}}},
	}
	incidents := []models.Incident{
		{Location: models.Location{Street: street}, CrimeImpact: models.CrimeImpactHigh},
		{Location: models.Location{Street: street}, CrimeImpact: models.CrimeImpactHigh},
		{Location: models.Location{Street: street}, CrimeImpact: models.CrimeImpactLow},
		// non-crime incidents count toward the total only
		{Location: models.Location{Street: street}},
	}

	collection := geo.BuildMapData(incidents, streets)

	if !assert.Len(t, collection.Features, 1) {
		return
	}
	props := collection.Features[0].Properties
	assert.Equal(t, 4, props.Count)
	assert.Equal(t, 2, props.HighImpact)
	assert.Equal(t, 1, props.LowImpact)
}

func TestGroupByStreet(t *testing.T) {
	incidents := append(
		incidentsOn("Av. Manuel González", 2),
		incidentsOn("Av. Insurgentes Norte", 1)...,
	)

	grouped := geo.GroupByStreet(incidents)

	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["Av. Manuel González"], 2)
	assert.Len(t, grouped["Av. Insurgentes Norte"], 1)
}
