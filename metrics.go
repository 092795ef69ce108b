package hxnav

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Navigation sides.
const (
	SideClient = "client"
	SideServer = "server"
)

// Navigation outcomes reported to metrics and spans.
const (
	OutcomeRendered    = "rendered"
	OutcomeErrorView   = "error_view"
	OutcomeSuperseded  = "superseded"
	OutcomeCanceled    = "canceled"
	OutcomeInterrupted = "interrupted"
	OutcomeFailed      = "failed"
)

// Metrics records navigation counters. A nil *Metrics records nothing.
type Metrics struct {
	navigations *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		navigations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hxnav_navigations_total",
			Help: "Navigations by side and outcome.",
		}, []string{"side", "outcome"}),
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hxnav_layout_fetches_total",
			Help: "Layout data fetches started, by layout kind.",
		}, []string{"layout"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hxnav_navigation_duration_seconds",
			Help:    "Navigation duration from dispatch to cleanup.",
			Buckets: prometheus.DefBuckets,
		}, []string{"side"}),
	}
}

// ObserveNavigation counts a finished navigation.
func (m *Metrics) ObserveNavigation(side, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(side, outcome).Inc()
	m.duration.WithLabelValues(side).Observe(d.Seconds())
}

// LayoutFetch counts a layout data fetch.
func (m *Metrics) LayoutFetch(layout string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(layout).Inc()
}
