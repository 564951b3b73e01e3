// Package metrics exports coordinator activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/transcript"
)

const namespace = "hark"

var phases = []fsm.Phase{fsm.PhaseIdle, fsm.PhaseWaitingForWake, fsm.PhaseTranscribing}

// Metrics holds the coordinator collectors and implements the coordinator observer.
type Metrics struct {
	Phase            *prometheus.GaugeVec
	PhaseChanges     *prometheus.CounterVec
	SegmentsMerged   prometheus.Counter
	SegmentsDropped  prometheus.Counter
	SegmentChars     prometheus.Histogram
	RecognitionError *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		Phase: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "1 for the current coordinator phase, 0 otherwise",
		}, []string{"phase"}),
		PhaseChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_changes_total",
			Help:      "Total number of coordinator phase changes by target phase",
		}, []string{"to"}),
		SegmentsMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_merged_total",
			Help:      "Total number of transcript segments merged into history",
		}),
		SegmentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_dropped_total",
			Help:      "Total number of duplicate transcript segments dropped",
		}),
		SegmentChars: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_chars",
			Help:      "Length of merged transcript segments in characters",
			Buckets:   []float64{8, 16, 32, 64, 128, 256, 512},
		}),
		RecognitionError: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_errors_total",
			Help:      "Total number of recognition errors by adapter",
		}, []string{"adapter"}),
	}
	m.setPhase(fsm.PhaseIdle)
	return m
}

func (m *Metrics) setPhase(current fsm.Phase) {
	for _, p := range phases {
		value := 0.0
		if p == current {
			value = 1
		}
		m.Phase.WithLabelValues(string(p)).Set(value)
	}
}

func (m *Metrics) PhaseChanged(_ fsm.Phase, to fsm.Phase) {
	m.PhaseChanges.WithLabelValues(string(to)).Inc()
	m.setPhase(to)
}

func (m *Metrics) SegmentMerged(seg transcript.Segment) {
	m.SegmentsMerged.Inc()
	m.SegmentChars.Observe(float64(len(seg.Text)))
}

func (m *Metrics) SegmentDropped(transcript.Segment) {
	m.SegmentsDropped.Inc()
}

func (m *Metrics) AdapterError(adapter string, _ string) {
	m.RecognitionError.WithLabelValues(adapter).Inc()
}
