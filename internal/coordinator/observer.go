package coordinator

import (
	"log/slog"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/transcript"
)

// Observer is notified of coordinator activity. Calls happen on the coordinator loop
// and must not block.
type Observer interface {
	PhaseChanged(from, to fsm.Phase)
	SegmentMerged(transcript.Segment)
	SegmentDropped(transcript.Segment)
	AdapterError(adapter string, reason string)
}

// noopObserver is used when no observer is wired.
type noopObserver struct{}

func (noopObserver) PhaseChanged(fsm.Phase, fsm.Phase) {}
func (noopObserver) SegmentMerged(transcript.Segment)  {}
func (noopObserver) SegmentDropped(transcript.Segment) {}
func (noopObserver) AdapterError(string, string)       {}

type multiObserver []Observer

// Observers fans notifications out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return noopObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiObserver) PhaseChanged(from, to fsm.Phase) {
	for _, o := range m {
		o.PhaseChanged(from, to)
	}
}

func (m multiObserver) SegmentMerged(seg transcript.Segment) {
	for _, o := range m {
		o.SegmentMerged(seg)
	}
}

func (m multiObserver) SegmentDropped(seg transcript.Segment) {
	for _, o := range m {
		o.SegmentDropped(seg)
	}
}

func (m multiObserver) AdapterError(adapter string, reason string) {
	for _, o := range m {
		o.AdapterError(adapter, reason)
	}
}

// LogObserver writes coordinator activity to a structured logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns an observer that logs through logger, or discards when logger is nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogObserver{logger: logger}
}

func (l *LogObserver) PhaseChanged(from, to fsm.Phase) {
	l.logger.Info("phase changed", "from", string(from), "to", string(to))
}

func (l *LogObserver) SegmentMerged(seg transcript.Segment) {
	l.logger.Info("segment merged",
		"id", seg.ID,
		"timestamp", seg.Timestamp,
		"final", seg.IsFinal,
		"chars", len(seg.Text),
	)
}

func (l *LogObserver) SegmentDropped(seg transcript.Segment) {
	l.logger.Warn("duplicate segment dropped", "id", seg.ID)
}

func (l *LogObserver) AdapterError(adapter string, reason string) {
	l.logger.Error("recognition error", "adapter", adapter, "reason", reason)
}
