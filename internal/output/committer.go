// Package output hands each finished transcription burst to an external command.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/transcript"
)

const queueSize = 16

// Committer collects the segments merged while transcribing and, once the phase
// leaves Transcribing, pipes the burst text to argv on stdin.
//
// Committer is an observer: notifications only queue work. Run executes it.
type Committer struct {
	argv    []string
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	burst []string

	queue chan string
}

// NewCommitter returns a committer for argv. An empty argv makes every method a no-op.
func NewCommitter(argv []string, timeout time.Duration, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Committer{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
		logger:  logger,
		queue:   make(chan string, queueSize),
	}
}

// Enabled reports whether a command is configured.
func (c *Committer) Enabled() bool {
	return len(c.argv) > 0
}

func (c *Committer) PhaseChanged(from fsm.Phase, to fsm.Phase) {
	if !c.Enabled() {
		return
	}
	if to == fsm.PhaseTranscribing {
		c.takeBurst()
		return
	}
	if from != fsm.PhaseTranscribing {
		return
	}

	text := transcript.Assemble(c.takeBurst())
	if text == "" {
		return
	}
	select {
	case c.queue <- text:
	default:
		c.logger.Warn("output queue full; dropping burst", "chars", len(text))
	}
}

func (c *Committer) SegmentMerged(seg transcript.Segment) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.burst = append(c.burst, seg.Text)
	c.mu.Unlock()
}

func (c *Committer) SegmentDropped(transcript.Segment) {}

func (c *Committer) AdapterError(string, string) {}

func (c *Committer) takeBurst() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	burst := c.burst
	c.burst = nil
	return burst
}

// Run commits queued bursts until ctx is done. A commit already running when ctx
// ends is allowed to finish within the command timeout.
func (c *Committer) Run(ctx context.Context) error {
	commitCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-c.queue:
			c.commitLogged(commitCtx, text)
		}
	}
}

// Drain commits whatever is still queued, using ctx only for the command runs.
// It is meant for shutdown, after Run has returned.
func (c *Committer) Drain(ctx context.Context) {
	for {
		select {
		case text := <-c.queue:
			c.commitLogged(ctx, text)
		default:
			return
		}
	}
}

func (c *Committer) commitLogged(ctx context.Context, text string) {
	if err := c.Commit(ctx, text); err != nil {
		c.logger.Error("output command failed", "error", err.Error())
		return
	}
	c.logger.Info("burst committed", "chars", len(text))
}

// Commit runs the command once with text on stdin.
func (c *Committer) Commit(ctx context.Context, text string) error {
	if !c.Enabled() || strings.TrimSpace(text) == "" {
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := runCommandWithInput(runCtx, c.argv, text); err != nil {
		return fmt.Errorf("commit transcript: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and writes input to its stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)

	if out, err := cmd.CombinedOutput(); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("run %s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}
