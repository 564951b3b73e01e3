// Package indicator renders coordinator activity as console status lines.
package indicator

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/transcript"
)

// Console writes one line per phase change, merged segment, and recognition error.
type Console struct {
	messages messages

	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a presenter writing to out with messages for $LANG.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{messages: indicatorMessagesFromEnv(), out: out}
}

func (c *Console) PhaseChanged(_ fsm.Phase, to fsm.Phase) {
	switch to {
	case fsm.PhaseWaitingForWake:
		c.printf("[waiting] %s\n", c.messages.waiting)
	case fsm.PhaseTranscribing:
		c.printf("[active] %s\n", c.messages.active)
	default:
		c.printf("[idle] %s\n", c.messages.idle)
	}
}

func (c *Console) SegmentMerged(seg transcript.Segment) {
	marker := ">"
	if !seg.IsFinal {
		marker = "~"
	}
	c.printf("%s %s\n", marker, seg.Text)
}

func (c *Console) SegmentDropped(transcript.Segment) {}

func (c *Console) AdapterError(adapter string, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		c.printf("! %s (%s)\n", c.messages.errorText, adapter)
		return
	}
	c.printf("! %s (%s): %s\n", c.messages.errorText, adapter, reason)
}

// Printf writes a free-form line through the same serialized writer.
func (c *Console) Printf(format string, args ...any) {
	c.printf(format, args...)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}
