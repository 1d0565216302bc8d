// Package geocoding resolves Tlatelolco street addresses to coordinates
// through Nominatim, degrading to the neighborhood centroid instead of
// failing.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/models"
	"github.com/tlatelolco/crime-incidence-api/observability"
)

const (
	// DefaultNominatimURL is the public Nominatim instance used when no
	// override is configured.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"

	userAgent     = "TlatelolcoCrimeMap/1.0"
	lookupTimeout = 10 * time.Second

	addressSuffix = ", Tlatelolco, Ciudad de México, México"
)

// DefaultCoordinates is the Tlatelolco centroid, returned whenever an
// address cannot be resolved.
var DefaultCoordinates = models.Coordinates{Lat: 19.4500, Lng: -99.1400}

// AddressLookup searches a free-form address query and returns its best
// match, or nil when the query produced no results.
type AddressLookup interface {
	Search(ctx context.Context, query string) (*models.Coordinates, error)
}

// NominatimLookup is the production AddressLookup backed by a Nominatim
// search endpoint.
type NominatimLookup struct {
	BaseURL string
	Client  *http.Client
}

// NewNominatimLookup returns a lookup against the given base URL, or the
// public instance when empty.
func NewNominatimLookup(baseURL string) *NominatimLookup {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimLookup{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: lookupTimeout},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search queries Nominatim restricted to Mexico, Spanish labels, single
// best match.
func (n *NominatimLookup) Search(ctx context.Context, query string) (*models.Coordinates, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "mx")
	params.Set("accept-language", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, err
	}
	return &models.Coordinates{Lat: lat, Lng: lng}, nil
}

// Resolver turns a street and optional number into coordinates. Resolve
// never fails: a full-address lookup, then a street-only lookup, then the
// centroid.
type Resolver struct {
	Lookup  AddressLookup
	Metrics *observability.Metrics
}

// NewResolver wires a Resolver over the given lookup.
func NewResolver(lookup AddressLookup, metrics *observability.Metrics) *Resolver {
	return &Resolver{Lookup: lookup, Metrics: metrics}
}

// Resolve returns the coordinates for street/number. Any upstream error
// short-circuits to the centroid; a clean miss retries with the street
// alone before giving up.
func (r *Resolver) Resolve(ctx context.Context, street, number string) models.Coordinates {
	address := strings.TrimSpace(street+" "+number) + addressSuffix

	coords, err := r.Lookup.Search(ctx, address)
	if err != nil {
		r.Metrics.GeocodeRequests.WithLabelValues("address", "error").Inc()
		zap.S().Warnw("geocoding failed, using centroid", "address", address, "error", err)
		r.Metrics.GeocodeFallbacks.Inc()
		return DefaultCoordinates
	}
	if coords != nil {
		r.Metrics.GeocodeRequests.WithLabelValues("address", "hit").Inc()
		return *coords
	}
	r.Metrics.GeocodeRequests.WithLabelValues("address", "miss").Inc()

	coords, err = r.Lookup.Search(ctx, street+addressSuffix)
	if err != nil {
		r.Metrics.GeocodeRequests.WithLabelValues("street", "error").Inc()
		zap.S().Warnw("street geocoding failed, using centroid", "street", street, "error", err)
		r.Metrics.GeocodeFallbacks.Inc()
		return DefaultCoordinates
	}
	if coords != nil {
		r.Metrics.GeocodeRequests.WithLabelValues("street", "hit").Inc()
		return *coords
	}
	r.Metrics.GeocodeRequests.WithLabelValues("street", "miss").Inc()

	zap.S().Warnw("address could not be geocoded, using centroid", "address", address)
	r.Metrics.GeocodeFallbacks.Inc()
	return DefaultCoordinates
}
