package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "deckchat"

// Turn outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Recorder collects turn and stream statistics. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	turns        *prometheus.CounterVec
	events       *prometheus.CounterVec
	dropped      prometheus.Counter
	fallbacks    prometheus.Counter
	turnDuration prometheus.Histogram
}

// NewRecorder creates a Recorder registered on its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Generation turns by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Decoded stream events by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_records_dropped_total",
			Help:      "Stream records dropped because they could not be decoded.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_fallbacks_total",
			Help:      "Times the live transport was abandoned for polling.",
		}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time from send to terminal event.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}

	r.registry.MustRegister(r.turns, r.events, r.dropped, r.fallbacks, r.turnDuration)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// TurnFinished records a turn outcome and its duration
func (r *Recorder) TurnFinished(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
	r.turnDuration.Observe(elapsed.Seconds())
}

// EventReceived counts one decoded event
func (r *Recorder) EventReceived(kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	r.events.WithLabelValues(kind).Inc()
}

// RecordDropped counts one undecodable record
func (r *Recorder) RecordDropped() {
	if r == nil {
		return
	}
	r.dropped.Inc()
}

// TransportFallback counts a switch from streaming to polling
func (r *Recorder) TransportFallback() {
	if r == nil {
		return
	}
	r.fallbacks.Inc()
}

// WriteText writes every collected metric in the Prometheus text format
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
