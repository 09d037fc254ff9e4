package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all engine metrics
type Metrics struct {
	// Consultation lifecycle metrics
	Transitions    *prometheus.CounterVec
	SlotConflicts  prometheus.Counter
	SessionGuards  prometheus.Counter
	Consultations  prometheus.Gauge

	// Telemedicine session metrics
	ActiveSessions prometheus.Gauge
	AcquireLatency prometheus.Histogram
	SessionReverts prometheus.Counter

	// Record metrics
	RecordsCreated prometheus.Counter
	RecordsAmended prometheus.Counter

	// Persistence metrics
	SnapshotOps *prometheus.CounterVec
}

// NewMetrics creates and registers all engine metrics on the given registerer.
// A nil registerer keeps the metrics unregistered, which tests rely on to
// avoid duplicate registration across engine instances.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_transitions_total",
			Help:      "Total number of consultation lifecycle transitions",
		}, []string{"from", "to"}),
		SlotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_slot_conflicts_total",
			Help:      "Total number of scheduling attempts rejected for slot conflicts",
		}),
		SessionGuards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrent_session_rejections_total",
			Help:      "Total number of start attempts rejected by the one-live-session guard",
		}),
		Consultations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consultations",
			Help:      "Current number of consultations held by the store",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_telemedicine_sessions",
			Help:      "Current number of live telemedicine sessions (0 or 1)",
		}),
		AcquireLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "media_acquire_duration_seconds",
			Help:      "Time spent acquiring the media session resource",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		SessionReverts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_start_reverts_total",
			Help:      "Total number of consultations reverted to scheduled after a failed media acquisition",
		}),
		RecordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medical_records_created_total",
			Help:      "Total number of medical records created",
		}),
		RecordsAmended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medical_records_amended_total",
			Help:      "Total number of medical record amendments",
		}),
		SnapshotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_operations_total",
			Help:      "Total number of snapshot save/load operations",
		}, []string{"operation", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Transitions,
			m.SlotConflicts,
			m.SessionGuards,
			m.Consultations,
			m.ActiveSessions,
			m.AcquireLatency,
			m.SessionReverts,
			m.RecordsCreated,
			m.RecordsAmended,
			m.SnapshotOps,
		)
	}
	return m
}
