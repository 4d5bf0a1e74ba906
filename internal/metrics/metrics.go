// Package metrics exports registry lifecycle and update metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/svclocator/internal/services"
)

// Metrics holds Prometheus metrics for a service registry. It implements
// services.Observer.
type Metrics struct {
	// Registry population
	ServicesRegistered prometheus.Gauge
	ServicesRunning    prometheus.Gauge

	// Lifecycle
	LifecycleEventsTotal *prometheus.CounterVec
	GuardViolationsTotal *prometheus.CounterVec

	// Update dispatch
	UpdateDuration        prometheus.Histogram
	UpdateDispatchedTotal prometheus.Counter
	UpdatePanicsTotal     prometheus.Counter
}

var _ services.Observer = (*Metrics)(nil)

// New creates the registry metrics and registers them with reg.
//
// Metrics:
//   - svcloc_services_registered - Services currently registered
//   - svcloc_services_running - Services currently running
//   - svcloc_lifecycle_events_total{kind} - Lifecycle events by kind
//   - svcloc_guard_violations_total{kind} - Rejected operations by violation
//   - svcloc_update_duration_seconds - Duration of one Update pass
//   - svcloc_update_dispatched_total - Update hooks invoked
//   - svcloc_update_panics_total - Update hooks that panicked
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ServicesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "svcloc_services_registered",
			Help: "Number of services currently registered",
		}),
		ServicesRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "svcloc_services_running",
			Help: "Number of services currently running",
		}),

		LifecycleEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcloc_lifecycle_events_total",
				Help: "Total number of registry lifecycle events",
			},
			[]string{"kind"}, // "registered", "started", "paused", ...
		),
		GuardViolationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svcloc_guard_violations_total",
				Help: "Total number of rejected registry operations",
			},
			[]string{"kind"}, // "already_started", "never_started", ...
		),

		UpdateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "svcloc_update_duration_seconds",
			Help: "Duration of one registry update pass in seconds",
			// Frame budgets: 1ms up to a 60 Hz frame and beyond.
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.0166, 0.033, 0.1},
		}),
		UpdateDispatchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "svcloc_update_dispatched_total",
			Help: "Total number of service update hooks invoked",
		}),
		UpdatePanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "svcloc_update_panics_total",
			Help: "Total number of service update hooks that panicked",
		}),
	}
}

// LifecycleEvent implements services.Observer.
func (m *Metrics) LifecycleEvent(ev services.Event) {
	m.LifecycleEventsTotal.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case services.EventViolation:
		m.GuardViolationsTotal.WithLabelValues(string(ev.Violation)).Inc()
	case services.EventRegistered:
		m.ServicesRegistered.Inc()
	case services.EventUnregistered:
		m.ServicesRegistered.Dec()
	case services.EventCleared:
		m.ServicesRegistered.Set(0)
		m.ServicesRunning.Set(0)
	}
}

// UpdateCompleted implements services.Observer.
func (m *Metrics) UpdateCompleted(stats services.UpdateStats) {
	m.ServicesRegistered.Set(float64(stats.Registered))
	m.ServicesRunning.Set(float64(stats.Running))
	m.UpdateDuration.Observe(stats.Duration.Seconds())
	m.UpdateDispatchedTotal.Add(float64(stats.Dispatched))
	m.UpdatePanicsTotal.Add(float64(stats.Panics))
}
