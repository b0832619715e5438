// Package metrics provides Prometheus metrics for conversational turns.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lara"

// Metrics holds every turn metric on its own registry. There is no HTTP
// listener; metrics leave the process through WriteTextfile.
type Metrics struct {
	registry *prometheus.Registry

	TurnsTotal       *prometheus.CounterVec
	PhaseDuration    *prometheus.HistogramVec
	InferenceLatency *prometheus.HistogramVec
	StaleResults     *prometheus.CounterVec
	AudioBytes       prometheus.Counter
	Segments         *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns finished, by outcome (completed, empty, error, reset)",
		}, []string{"outcome"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each turn phase",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"phase"}),
		InferenceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_seconds",
			Help:      "Inference round trip latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"result"}),
		StaleResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Asynchronous results discarded because their turn was abandoned",
		}, []string{"kind"}),
		AudioBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_captured_total",
			Help:      "PCM bytes captured from the microphone",
		}),
		Segments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_segments_total",
			Help:      "Recognition segments received, by kind (interim, final)",
		}, []string{"kind"}),
	}
}

// Registry exposes the gatherer backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TurnFinished counts one finished turn.
func (m *Metrics) TurnFinished(outcome string) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// PhaseObserved records how long the controller stayed in phase.
func (m *Metrics) PhaseObserved(phase string, d time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// InferenceObserved records one inference round trip.
func (m *Metrics) InferenceObserved(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.InferenceLatency.WithLabelValues(result).Observe(d.Seconds())
}

// StaleResult counts one discarded late result.
func (m *Metrics) StaleResult(kind string) {
	m.StaleResults.WithLabelValues(kind).Inc()
}

// AudioCaptured counts captured PCM bytes.
func (m *Metrics) AudioCaptured(n int) {
	m.AudioBytes.Add(float64(n))
}

// SegmentReceived counts one recognition segment.
func (m *Metrics) SegmentReceived(final bool) {
	kind := "interim"
	if final {
		kind = "final"
	}
	m.Segments.WithLabelValues(kind).Inc()
}

// WriteTextfile writes the registry in text exposition format for a node
// exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
