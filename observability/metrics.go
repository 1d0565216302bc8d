// Package observability defines the Prometheus instrumentation shared by
// the API and the upstream clients.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec // labels: method, path, code

	// Geocoding metrics.
	GeocodeRequests  *prometheus.CounterVec // labels: step={address,street}, outcome={hit,miss,error}
	GeocodeFallbacks prometheus.Counter

	// Street geometry metrics.
	StreetFetches   *prometheus.CounterVec // labels: outcome={success,error}
	StreetFallbacks prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crime_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "code"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crime_api",
			Name:      "geocode_requests_total",
			Help:      "Nominatim lookups by step and outcome.",
		}, []string{"step", "outcome"}),
		GeocodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crime_api",
			Name:      "geocode_fallbacks_total",
			Help:      "Addresses resolved to the Tlatelolco centroid.",
		}),
		StreetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crime_api",
			Name:      "street_fetches_total",
			Help:      "Overpass street geometry fetches by outcome.",
		}, []string{"outcome"}),
		StreetFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crime_api",
			Name:      "street_fallbacks_total",
			Help:      "Map data served from the static street dataset.",
		}),
	}
}

// NewMetrics creates the service metrics and registers them with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestDuration,
		m.GeocodeRequests,
		m.GeocodeFallbacks,
		m.StreetFetches,
		m.StreetFallbacks,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry to avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
