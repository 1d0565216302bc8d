package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tlatelolco/crime-incidence-api/models"
	"github.com/tlatelolco/crime-incidence-api/observability"
)

const (
	// DefaultOverpassURL is the public Overpass interpreter used when no
	// override is configured.
	DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

	fetchTimeout = 30 * time.Second

	// Tlatelolco centroid and search radius for named streets.
	centroidLat = 19.4500
	centroidLng = -99.1400
	radiusM     = 1000
)

// Source produces the street-name to geometry map for the neighborhood.
type Source interface {
	Fetch(ctx context.Context) (map[string]models.StreetGeometry, error)
}

// OverpassSource fetches named highway ways around the Tlatelolco
// centroid from an Overpass interpreter.
type OverpassSource struct {
	BaseURL string
	Client  *http.Client
}

// NewOverpassSource returns a source against the given interpreter URL,
// or the public one when empty.
func NewOverpassSource(baseURL string) *OverpassSource {
	if baseURL == "" {
		baseURL = DefaultOverpassURL
	}
	return &OverpassSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: fetchTimeout},
	}
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Tags  map[string]string `json:"tags"`
	Nodes []int64           `json:"nodes"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// Fetch queries named highway ways and relations within the radius,
// resolves each way's node ids to [lat, lng] pairs and returns one
// geometry per street name.
func (o *OverpassSource) Fetch(ctx context.Context) (map[string]models.StreetGeometry, error) {
	query := fmt.Sprintf(`
      [out:json][timeout:25];
      (
        way["highway"]["name"](around:%d,%.4f,%.4f);
        relation["highway"]["name"](around:%d,%.4f,%.4f);
      );
      out body;
      >;
      out skel qt;
    `, radiusM, centroidLat, centroidLng, radiusM, centroidLat, centroidLng)

	body := "data=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	nodes := make(map[int64][]float64)
	for _, el := range decoded.Elements {
		if el.Type == "node" {
			nodes[el.ID] = []float64{el.Lat, el.Lon}
		}
	}

	streets := make(map[string]models.StreetGeometry)
	for _, el := range decoded.Elements {
		if el.Type != "way" || el.Tags["name"] == "" {
			continue
		}
		line := make([][]float64, 0, len(el.Nodes))
		for _, id := range el.Nodes {
			if coord, ok := nodes[id]; ok {
				line = append(line, coord)
			}
		}
		if len(line) > 0 {
			streets[el.Tags["name"]] = models.StreetGeometry{
				Coordinates: [][][]float64{line},
			}
		}
	}
	return streets, nil
}

// FallbackStreets returns the static dataset served when Overpass is
// unreachable.
func FallbackStreets() map[string]models.StreetGeometry {
	return map[string]models.StreetGeometry{
		"Av. Ricardo Flores Magón": {
			Coordinates: [][][]float64{{
				{19.4500, -99.1400},
				{19.4510, -99.1390},
				{19.4520, -99.1380},
			}},
		},
		"Av. Manuel González": {
			Coordinates: [][][]float64{{
				{19.4490, -99.1410},
				{19.4500, -99.1400},
				{19.4510, -99.1390},
			}},
		},
		"Av. Insurgentes Norte": {
			Coordinates: [][][]float64{{
				{19.4480, -99.1420},
				{19.4490, -99.1410},
				{19.4500, -99.1400},
			}},
		},
	}
}

// CachedSource serves the last successful fetch and falls back to the
// static dataset while none has succeeded yet. Safe for concurrent use.
type CachedSource struct {
	Source  Source
	Metrics *observability.Metrics

	mu      sync.RWMutex
	streets map[string]models.StreetGeometry
}

// NewCachedSource wraps source with a cache.
func NewCachedSource(source Source, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{Source: source, Metrics: metrics}
}

// Refresh fetches the geometry and replaces the cached copy on success.
// A failed refresh leaves the previous copy in place.
func (c *CachedSource) Refresh(ctx context.Context) error {
	streets, err := c.Source.Fetch(ctx)
	if err != nil {
		c.Metrics.StreetFetches.WithLabelValues("error").Inc()
		zap.S().Warnw("street geometry refresh failed", "error", err)
		return err
	}
	c.Metrics.StreetFetches.WithLabelValues("success").Inc()

	c.mu.Lock()
	c.streets = streets
	c.mu.Unlock()
	return nil
}

// Streets returns the cached geometry, fetching once when the cache is
// empty and serving the static dataset when that fetch fails. The
// returned map is shared and must not be mutated.
func (c *CachedSource) Streets(ctx context.Context) map[string]models.StreetGeometry {
	c.mu.RLock()
	cached := c.streets
	c.mu.RUnlock()
	if cached != nil {
		return cached
	}

	if err := c.Refresh(ctx); err != nil {
		c.Metrics.StreetFallbacks.Inc()
		return FallbackStreets()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streets
}
