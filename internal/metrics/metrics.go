// Package metrics holds the Prometheus collectors of the schedule engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"daycheck/internal/model"
)

const namespace = "daycheck"

// Metrics groups the engine collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	toggles         *prometheus.CounterVec
	materialized    prometheus.Counter
	skipped         prometheus.Counter
	listingDuration *prometheus.HistogramVec
}

// MustNew creates the collectors and registers them with reg, panicking on
// duplicate registration. A nil reg uses the default registerer.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "completion",
				Name:      "toggles_total",
				Help:      "Completion toggles by schedule source and resulting state.",
			},
			[]string{"source", "completed"},
		),
		materialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recurrence",
			Name:      "occurrences_materialized_total",
			Help:      "Occurrences computed from recurrence patterns.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recurrence",
			Name:      "occurrences_skipped_total",
			Help:      "Matching occurrences removed by a SKIP exception.",
		}),
		listingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "listing_duration_seconds",
				Help:      "Time spent building schedule listings.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.toggles, m.materialized, m.skipped, m.listingDuration)
	return m
}

func (m *Metrics) ObserveToggle(id model.LogicalID, completed bool) {
	if m == nil {
		return
	}
	state := "false"
	if completed {
		state = "true"
	}
	m.toggles.WithLabelValues(id.Source.String(), state).Inc()
}

func (m *Metrics) ObserveMaterialized() {
	if m == nil {
		return
	}
	m.materialized.Inc()
}

func (m *Metrics) ObserveSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

// ObserveListing records the time since started under operation.
func (m *Metrics) ObserveListing(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.listingDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
