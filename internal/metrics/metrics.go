package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mr1hm/go-community-alerts/internal/board"
)

const namespace = "alert_board"

// Metrics holds the Prometheus collectors for the board.
type Metrics struct {
	AlertsSubmitted     prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec // labels: field, reason
	FilterUpdates       prometheus.Counter
	AlertsStored        prometheus.Gauge
	StreamSubscribers   *prometheus.GaugeVec   // labels: transport={sse,ws}
	LocationLookups     *prometheus.CounterVec // labels: outcome={success,unavailable}
}

func build() *Metrics {
	return &Metrics{
		AlertsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_submitted_total",
			Help:      "Alerts admitted to the board.",
		}),
		SubmissionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Rejected submissions by offending field and reason.",
		}, []string{"field", "reason"}),
		FilterUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_updates_total",
			Help:      "Changes to the active filter criteria.",
		}),
		AlertsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_stored",
			Help:      "Alerts currently on the board.",
		}),
		StreamSubscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Connected live-update clients by transport.",
		}, []string{"transport"}),
		LocationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_lookups_total",
			Help:      "Caller location lookups by outcome.",
		}, []string{"outcome"}),
	}
}

// New creates the board metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := build()
	reg.MustRegister(
		m.AlertsSubmitted,
		m.SubmissionsRejected,
		m.FilterUpdates,
		m.AlertsStored,
		m.StreamSubscribers,
		m.LocationLookups,
	)
	return m
}

// NewForTesting creates unregistered metrics so tests can build as many as
// they like.
func NewForTesting() *Metrics {
	return build()
}

// Observer keeps the board gauges and counters in step with store events.
func (m *Metrics) Observer(store *board.Store) board.Observer {
	m.AlertsStored.Set(float64(store.Len()))
	return func(ev board.Event) {
		switch ev.Kind {
		case board.EventAlertAdded:
			m.AlertsSubmitted.Inc()
			m.AlertsStored.Inc()
		case board.EventFiltersUpdated:
			m.FilterUpdates.Inc()
		}
	}
}

// RecordRejection counts each offending field of a rejected submission.
func (m *Metrics) RecordRejection(err error) {
	var ve *board.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	for _, f := range ve.Fields {
		m.SubmissionsRejected.WithLabelValues(f.Field, f.Reason).Inc()
	}
}
