// Package metrics registers the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nfact_selection_events_total",
		Help: "Selection events applied, by event type",
	}, []string{"type"})
	SelectionMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nfact_selection_misses_total",
		Help: "Selection events that fell back to a default, by event type",
	}, []string{"type"})
	FormatGapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nfact_format_gaps_total",
		Help: "Record metrics dropped because the catalog does not describe them",
	})
	RenderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nfact_render_duration_ms",
		Help:    "Derive and build duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nfact_sessions_active",
		Help: "Dashboard sessions currently held in memory",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nfact_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(SelectionMissesTotal)
	prometheus.MustRegister(FormatGapsTotal)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
