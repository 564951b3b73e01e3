// Package coordinator switches between wake-phrase listening and continuous transcription.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/recognizer"
	"github.com/rbright/hark/internal/schedule"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/transcript"
)

// Status is the simplified state exposed to presentation layers.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWaiting Status = "waiting-for-wake-word"
	StatusActive  Status = "active-transcription"
	StatusError   Status = "error"
)

const (
	DefaultLanguage     = "en-US"
	DefaultHandoffDelay = 500 * time.Millisecond
	DefaultRestartDelay = time.Second

	activationName    = "activation"
	transcriptionName = "transcription"

	// startKey is shared by every deferred adapter start; at most one is pending.
	startKey = "start"
)

var (
	// ErrClosed is returned by commands issued after Run has returned.
	ErrClosed = errors.New("coordinator is closed")
	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("coordinator is already running")
)

// Options is the immutable coordinator configuration.
type Options struct {
	ActivationPhrase string
	StopPhrase       string
	Language         string

	// HandoffDelay separates stopping one adapter from starting the other.
	HandoffDelay time.Duration
	// RestartDelay paces restarts of an adapter whose session ended on its own.
	RestartDelay time.Duration

	FlushInterimOnEnd   bool
	ErrorOverridesPhase bool

	Clock *transcript.Clock
	NewID func() string
}

// DefaultOptions returns the stock delays and language.
func DefaultOptions() Options {
	return Options{
		Language:     DefaultLanguage,
		HandoffDelay: DefaultHandoffDelay,
		RestartDelay: DefaultRestartDelay,
	}
}

// Coordinator owns the activation and transcription adapters and the phase machine
// that hands recognition between them.
//
// All phase changes run on the goroutine executing Run. Public commands post onto
// that loop and wait for it.
type Coordinator struct {
	opts          Options
	observer      Observer
	activation    *session.Adapter
	transcription *session.Adapter
	merged        *transcript.History

	mu    sync.RWMutex
	phase fsm.Phase

	mailbox *mailbox
	started atomic.Bool
	done    chan struct{}

	// loop-owned
	runCtx    context.Context
	scheduler *schedule.Scheduler
}

// New builds a coordinator over provider. Run must be called to process commands.
func New(provider recognizer.Provider, opts Options, observer Observer) *Coordinator {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.HandoffDelay < 0 {
		opts.HandoffDelay = 0
	}
	if opts.RestartDelay < 0 {
		opts.RestartDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = transcript.NewClock(nil)
	}
	if observer == nil {
		observer = noopObserver{}
	}

	c := &Coordinator{
		opts:     opts,
		observer: observer,
		merged:   transcript.NewHistory(),
		phase:    fsm.PhaseIdle,
		mailbox:  newMailbox(),
		done:     make(chan struct{}),
	}

	c.activation = session.New(provider, session.Options{
		Name: activationName,
		Recognition: recognizer.Options{
			Language:       opts.Language,
			Continuous:     false,
			InterimResults: false,
		},
		Clock:    opts.Clock,
		NewID:    opts.NewID,
		Listener: func(u session.Update) { c.mailbox.post(func() { c.onActivation(u) }) },
	})
	c.transcription = session.New(provider, session.Options{
		Name: transcriptionName,
		Recognition: recognizer.Options{
			Language:       opts.Language,
			Continuous:     true,
			InterimResults: true,
		},
		FlushInterimOnEnd: opts.FlushInterimOnEnd,
		Clock:             opts.Clock,
		NewID:             opts.NewID,
		Listener:          func(u session.Update) { c.mailbox.post(func() { c.onTranscription(u) }) },
	})
	return c
}

// Run processes commands and recognition events until ctx is done, then stops both
// adapters, cancels pending deferred starts, and returns to Idle.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	c.runCtx = ctx
	c.scheduler = schedule.New(ctx, c.mailbox.post)
	defer c.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.mailbox.signal:
			for _, fn := range c.mailbox.drain() {
				if ctx.Err() != nil {
					return nil
				}
				fn()
			}
		}
	}
}

func (c *Coordinator) teardown() {
	c.scheduler.Close()

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = c.activation.Close(closeCtx)
	_ = c.transcription.Close(closeCtx)

	c.setPhase(fsm.PhaseIdle)
	close(c.done)
}

// Done is closed once Run has torn the coordinator down.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Start moves Idle to WaitingForWake and starts the activation adapter. It is a
// no-op in any other phase. The phase changes even when the adapter fails to start;
// the failure is also reported through Error.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.do(ctx, c.start)
}

// Stop returns to Idle from any phase, cancels deferred starts, and stops both adapters.
func (c *Coordinator) Stop(ctx context.Context) error {
	return c.do(ctx, c.stop)
}

// Reset clears the merged history without touching the phase or either adapter.
func (c *Coordinator) Reset(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.merged.Clear()
		return nil
	})
}

// Settle returns once every event posted before the call has been handled.
func (c *Coordinator) Settle(ctx context.Context) error {
	return c.do(ctx, func() error { return nil })
}

// Phase returns the current phase.
func (c *Coordinator) Phase() fsm.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// IsActive reports whether content transcription is the current phase.
func (c *Coordinator) IsActive() bool {
	return c.Phase() == fsm.PhaseTranscribing
}

// CurrentTranscript returns the transcription adapter's interim text.
func (c *Coordinator) CurrentTranscript() string {
	return c.transcription.LiveText()
}

// AllTranscripts returns a copy of the merged transcription history.
func (c *Coordinator) AllTranscripts() []transcript.Segment {
	return c.merged.Segments()
}

// MergedText assembles the merged history into one string.
func (c *Coordinator) MergedText() string {
	return c.merged.Text()
}

// MergedCount returns the number of merged segments.
func (c *Coordinator) MergedCount() int {
	return c.merged.Len()
}

// Error returns the first non-empty adapter error, activation first.
func (c *Coordinator) Error() string {
	if reason := c.activation.LastError(); reason != "" {
		return reason
	}
	return c.transcription.LastError()
}

// Status maps the phase to a presentation status. An adapter error only forces
// StatusError when ErrorOverridesPhase is set.
func (c *Coordinator) Status() Status {
	if c.opts.ErrorOverridesPhase && c.Error() != "" {
		return StatusError
	}
	switch c.Phase() {
	case fsm.PhaseWaitingForWake:
		return StatusWaiting
	case fsm.PhaseTranscribing:
		return StatusActive
	default:
		return StatusIdle
	}
}

// Listening reports the listening flag of each adapter.
func (c *Coordinator) Listening() (activation bool, transcription bool) {
	return c.activation.Listening(), c.transcription.Listening()
}

// do runs fn on the loop and waits for its result.
func (c *Coordinator) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	c.mailbox.post(func() { result <- fn() })

	select {
	case err := <-result:
		return err
	case <-c.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) setPhase(next fsm.Phase) {
	c.mu.Lock()
	prev := c.phase
	c.phase = next
	c.mu.Unlock()

	if prev != next {
		c.observer.PhaseChanged(prev, next)
	}
}

func (c *Coordinator) transition(event fsm.Event) error {
	next, err := fsm.Transition(c.Phase(), event)
	if err != nil {
		return err
	}
	c.setPhase(next)
	return nil
}

func (c *Coordinator) start() error {
	if c.Phase() != fsm.PhaseIdle {
		return nil
	}
	if err := c.transition(fsm.EventStart); err != nil {
		return err
	}
	return c.activation.Start(c.runCtx)
}

func (c *Coordinator) stop() error {
	c.scheduler.CancelAll()
	if err := c.transition(fsm.EventStop); err != nil {
		return err
	}
	return errors.Join(
		c.activation.Stop(c.runCtx),
		c.transcription.Stop(c.runCtx),
	)
}

func (c *Coordinator) onActivation(u session.Update) {
	switch u.Kind {
	case session.UpdateResult:
		if u.Segment == nil || !u.Segment.IsFinal {
			return
		}
		if c.Phase() != fsm.PhaseWaitingForWake || c.transcription.Listening() {
			return
		}
		if transcript.ContainsPhrase(u.Segment.Text, c.opts.ActivationPhrase) {
			c.wake()
		}
	case session.UpdateError:
		c.observer.AdapterError(activationName, u.Reason)
		c.reconcile()
	case session.UpdateEnded:
		c.reconcile()
	}
}

func (c *Coordinator) onTranscription(u session.Update) {
	switch u.Kind {
	case session.UpdateResult:
		if u.Segment == nil || c.Phase() != fsm.PhaseTranscribing {
			return
		}
		seg := *u.Segment
		if !c.merged.Add(seg) {
			c.observer.SegmentDropped(seg)
			return
		}
		c.observer.SegmentMerged(seg)
		if seg.IsFinal && transcript.ContainsPhrase(seg.Text, c.opts.StopPhrase) {
			c.sleep()
		}
	case session.UpdateError:
		c.observer.AdapterError(transcriptionName, u.Reason)
		c.reconcile()
	case session.UpdateEnded:
		c.reconcile()
	}
}

// wake hands recognition from the activation adapter to the transcription adapter.
func (c *Coordinator) wake() {
	_ = c.activation.Stop(c.runCtx)
	if err := c.transition(fsm.EventWake); err != nil {
		return
	}
	c.scheduler.Schedule(startKey, c.opts.HandoffDelay, c.deferredStart)
}

// sleep hands recognition from the transcription adapter back to the activation adapter.
func (c *Coordinator) sleep() {
	_ = c.transcription.Stop(c.runCtx)
	if err := c.transition(fsm.EventSleep); err != nil {
		return
	}
	c.scheduler.Schedule(startKey, c.opts.HandoffDelay, c.deferredStart)
}

// reconcile schedules a restart when the phase calls for an adapter that is no
// longer listening and nothing is already pending.
func (c *Coordinator) reconcile() {
	if c.scheduler.Pending(startKey) {
		return
	}

	switch c.Phase() {
	case fsm.PhaseWaitingForWake:
		if !c.activation.Supported() || c.activation.Listening() || c.transcription.Listening() {
			return
		}
	case fsm.PhaseTranscribing:
		if !c.transcription.Supported() || c.transcription.Listening() {
			return
		}
	default:
		return
	}
	c.scheduler.Schedule(startKey, c.opts.RestartDelay, c.deferredStart)
}

// deferredStart starts whichever adapter the phase calls for at the time it fires.
func (c *Coordinator) deferredStart() {
	switch c.Phase() {
	case fsm.PhaseWaitingForWake:
		if c.activation.Listening() || c.transcription.Listening() {
			return
		}
		_ = c.activation.Start(c.runCtx)
	case fsm.PhaseTranscribing:
		if c.activation.Listening() || c.transcription.Listening() {
			return
		}
		_ = c.transcription.Start(c.runCtx)
	}
}
