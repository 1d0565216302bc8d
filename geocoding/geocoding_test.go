package geocoding_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlatelolco/crime-incidence-api/geocoding"
	"github.com/tlatelolco/crime-incidence-api/models"
	"github.com/tlatelolco/crime-incidence-api/observability"
)

type lookupFunc func(ctx context.Context, query string) (*models.Coordinates, error)

func (f lookupFunc) Search(ctx context.Context, query string) (*models.Coordinates, error) {
	return f(ctx, query)
}

func TestNominatimLookup_Search(t *testing.T) {
	var gotQuery map[string]string
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":               q.Get("q"),
			"format":          q.Get("format"),
			"limit":           q.Get("limit"),
			"countrycodes":    q.Get("countrycodes"),
			"accept-language": q.Get("accept-language"),
		}
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"19.4512","lon":"-99.1421"}]`))
	}))
	defer server.Close()

	lookup := geocoding.NewNominatimLookup(server.URL)
	coords, err := lookup.Search(context.Background(), "Av. Manuel González 100, Tlatelolco, Ciudad de México, México")

	assert.NoError(t, err)
	if assert.NotNil(t, coords) {
		assert.Equal(t, 19.4512, coords.Lat)
		assert.Equal(t, -99.1421, coords.Lng)
	}
	assert.Equal(t, "Av. Manuel González 100, Tlatelolco, Ciudad de México, México", gotQuery["q"])
	assert.Equal(t, "json", gotQuery["format"])
	assert.Equal(t, "1", gotQuery["limit"])
	assert.Equal(t, "mx", gotQuery["countrycodes"])
	assert.Equal(t, "es", gotQuery["accept-language"])
	assert.Equal(t, "TlatelolcoCrimeMap/1.0", gotUserAgent)
}

func TestNominatimLookup_SearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	coords, err := geocoding.NewNominatimLookup(server.URL).Search(context.Background(), "nowhere")

	assert.NoError(t, err)
	assert.Nil(t, coords)
}

func TestNominatimLookup_SearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	coords, err := geocoding.NewNominatimLookup(server.URL).Search(context.Background(), "anywhere")

	assert.Error(t, err)
	assert.Nil(t, coords)
}

func TestResolver_FullAddressHit(t *testing.T) {
	var queries []string
	want := models.Coordinates{Lat: 19.4521, Lng: -99.1432}
	resolver := geocoding.NewResolver(lookupFunc(func(_ context.Context, query string) (*models.Coordinates, error) {
		queries = append(queries, query)
		return &want, nil
	}), observability.NewMetricsForTesting())

	got := resolver.Resolve(context.Background(), "Av. Ricardo Flores Magón", "25")

	assert.Equal(t, want, got)
	if assert.Len(t, queries, 1) {
		assert.Equal(t, "Av. Ricardo Flores Magón 25, Tlatelolco, Ciudad de México, México", queries[0])
	}
}

func TestResolver_NumberOmitted(t *testing.T) {
	var queries []string
	resolver := geocoding.NewResolver(lookupFunc(func(_ context.Context, query string) (*models.Coordinates, error) {
		queries = append(queries, query)
		return &models.Coordinates{Lat: 19.45, Lng: -99.14}, nil
	}), observability.NewMetricsForTesting())

	resolver.Resolve(context.Background(), "Av. Insurgentes Norte", "")

	if assert.Len(t, queries, 1) {
		assert.Equal(t, "Av. Insurgentes Norte, Tlatelolco, Ciudad de México, México", queries[0])
	}
}

func TestResolver_StreetOnlyRetry(t *testing.T) {
	var queries []string
	want := models.Coordinates{Lat: 19.4499, Lng: -99.1388}
	resolver := geocoding.NewResolver(lookupFunc(func(_ context.Context, query string) (*models.Coordinates, error) {
		queries = append(queries, query)
		if len(queries) == 1 {
			return nil, nil
		}
		return &want, nil
	}), observability.NewMetricsForTesting())

	got := resolver.Resolve(context.Background(), "Av. Manuel González", "999")

	assert.Equal(t, want, got)
	if assert.Len(t, queries, 2) {
		assert.Equal(t, "Av. Manuel González 999, Tlatelolco, Ciudad de México, México", queries[0])
		assert.Equal(t, "Av. Manuel González, Tlatelolco, Ciudad de México, México", queries[1])
	}
}

func TestResolver_CentroidWhenNothingMatches(t *testing.T) {
	resolver := geocoding.NewResolver(lookupFunc(func(_ context.Context, _ string) (*models.Coordinates, error) {
		return nil, nil
	}), observability.NewMetricsForTesting())

	got := resolver.Resolve(context.Background(), "Calle Inexistente", "")

	assert.Equal(t, geocoding.DefaultCoordinates, got)
}

func TestResolver_CentroidOnError(t *testing.T) {
	var calls int
	resolver := geocoding.NewResolver(lookupFunc(func(_ context.Context, _ string) (*models.Coordinates, error) {
		calls++
		return nil, errors.New("network down")
	}), observability.NewMetricsForTesting())

	got := resolver.Resolve(context.Background(), "Av. Ricardo Flores Magón", "25")

	assert.Equal(t, geocoding.DefaultCoordinates, got)
	// upstream errors do not trigger the street-only retry
	assert.Equal(t, 1, calls)
}
