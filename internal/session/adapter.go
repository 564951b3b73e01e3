// Package session wraps one recognition capability as a listening session with transcript history.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rbright/hark/internal/recognizer"
	"github.com/rbright/hark/internal/transcript"
)

type UpdateKind int

const (
	UpdateStarted UpdateKind = iota + 1
	UpdateResult
	UpdateEnded
	UpdateError
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateStarted:
		return "started"
	case UpdateResult:
		return "result"
	case UpdateEnded:
		return "ended"
	case UpdateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Update describes one adapter state change.
//
// Segment is set on UpdateResult when the event appended a segment to history.
type Update struct {
	Kind    UpdateKind
	Segment *transcript.Segment
	Reason  string
}

// Listener observes adapter updates. It is called outside the adapter lock.
type Listener func(Update)

// Options configures an Adapter.
type Options struct {
	Name        string
	Recognition recognizer.Options

	// FlushInterimOnEnd keeps unfinalized interim text as a non-final segment when a
	// session ends on its own. Otherwise that text is discarded.
	FlushInterimOnEnd bool
	Clock             *transcript.Clock
	NewID             func() string
	Listener          Listener
}

// Adapter owns one recognition capability and exposes its listening state.
type Adapter struct {
	name        string
	provider    recognizer.Provider
	recognition recognizer.Options
	flush       bool
	clock       *transcript.Clock
	newID       func() string
	listener    Listener
	supported   bool

	mu        sync.Mutex
	run       uint64
	current   recognizer.Session
	listening bool
	liveText  string
	history   []transcript.Segment
	lastError string
}

// New constructs an adapter and probes provider support once.
func New(provider recognizer.Provider, opts Options) *Adapter {
	if provider == nil {
		provider = recognizer.Unsupported{}
	}
	if opts.Clock == nil {
		opts.Clock = transcript.NewClock(nil)
	}
	if opts.NewID == nil {
		opts.NewID = transcript.NewID
	}
	if opts.Listener == nil {
		opts.Listener = func(Update) {}
	}
	if opts.Name == "" {
		opts.Name = "recognition"
	}

	a := &Adapter{
		name:        opts.Name,
		provider:    provider,
		recognition: opts.Recognition,
		flush:       opts.FlushInterimOnEnd,
		clock:       opts.Clock,
		newID:       opts.NewID,
		listener:    opts.Listener,
		supported:   provider.Supported(),
	}
	if !a.supported {
		a.lastError = recognizer.ErrUnsupported.Error()
	}
	return a
}

// Name returns the adapter label used in logs and errors.
func (a *Adapter) Name() string {
	return a.name
}

// Supported reports the capability probe result taken at construction.
func (a *Adapter) Supported() bool {
	return a.supported
}

// Listening reports whether a recognition run is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// LiveText returns interim text not yet superseded by a finalized segment.
func (a *Adapter) LiveText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveText
}

// History returns a copy of every segment produced by this adapter.
func (a *Adapter) History() []transcript.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]transcript.Segment(nil), a.history...)
}

// LastError returns the most recent error reason, or "" when none.
func (a *Adapter) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

// Start opens a fresh recognition run. It is a no-op while already listening.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if !a.supported {
		a.lastError = recognizer.ErrUnsupported.Error()
		a.mu.Unlock()
		return recognizer.ErrUnsupported
	}
	if a.listening {
		a.mu.Unlock()
		return nil
	}
	a.run++
	run := a.run
	a.listening = true
	a.liveText = ""
	a.lastError = ""
	a.current = nil
	a.mu.Unlock()

	rec, err := a.provider.Open(a.recognition, &runHandler{adapter: a, run: run})
	if err != nil {
		return a.failStart(run, err)
	}

	a.mu.Lock()
	if a.run != run || !a.listening {
		a.mu.Unlock()
		return nil
	}
	a.current = rec
	a.mu.Unlock()

	if err := rec.Start(ctx); err != nil {
		return a.failStart(run, err)
	}
	return nil
}

// Stop requests the active run to halt. It is a no-op when not listening.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return nil
	}
	a.listening = false
	a.liveText = ""
	rec := a.current
	a.mu.Unlock()

	if rec == nil {
		return nil
	}
	if err := rec.Stop(ctx); err != nil {
		return fmt.Errorf("stop %s recognition: %w", a.name, err)
	}
	return nil
}

// Close stops the adapter and ignores any later events from its runs.
func (a *Adapter) Close(ctx context.Context) error {
	err := a.Stop(ctx)

	a.mu.Lock()
	a.run++
	a.current = nil
	a.mu.Unlock()
	return err
}

// failStart records a start failure for run and reports it.
func (a *Adapter) failStart(run uint64, err error) error {
	a.mu.Lock()
	if a.run == run {
		a.listening = false
		a.current = nil
		a.lastError = err.Error()
	}
	a.mu.Unlock()

	a.listener(Update{Kind: UpdateError, Reason: err.Error()})
	return fmt.Errorf("start %s recognition: %w", a.name, err)
}

func (a *Adapter) handleStart(run uint64) {
	a.mu.Lock()
	stale := run != a.run
	a.mu.Unlock()
	if stale {
		return
	}
	a.listener(Update{Kind: UpdateStarted})
}

// handleResult applies one result batch: interim pieces become live text and
// final pieces become exactly one new segment. Live text only moves while listening;
// finals that arrive after Stop still land in history.
func (a *Adapter) handleResult(run uint64, batch recognizer.Batch) {
	var interim strings.Builder
	finals := make([]string, 0, len(batch.Pieces))
	for _, piece := range batch.Changed() {
		if piece.Final {
			finals = append(finals, piece.Text)
			continue
		}
		interim.WriteString(piece.Text)
	}
	text := transcript.Assemble(finals)

	a.mu.Lock()
	if run != a.run {
		a.mu.Unlock()
		return
	}
	var seg *transcript.Segment
	if text != "" {
		s := transcript.Segment{
			ID:        a.newID(),
			Text:      text,
			Timestamp: a.clock.Stamp(),
			IsFinal:   true,
		}
		a.history = append(a.history, s)
		a.liveText = ""
		seg = &s
	} else if a.listening {
		a.liveText = interim.String()
	}
	a.mu.Unlock()

	a.listener(Update{Kind: UpdateResult, Segment: seg})
}

func (a *Adapter) handleEnd(run uint64) {
	a.mu.Lock()
	if run != a.run {
		a.mu.Unlock()
		return
	}
	var flushed *transcript.Segment
	if a.flush {
		if text := transcript.Assemble([]string{a.liveText}); text != "" {
			s := transcript.Segment{
				ID:        a.newID(),
				Text:      text,
				Timestamp: a.clock.Stamp(),
				IsFinal:   false,
			}
			a.history = append(a.history, s)
			flushed = &s
		}
	}
	a.listening = false
	a.liveText = ""
	a.mu.Unlock()

	if flushed != nil {
		a.listener(Update{Kind: UpdateResult, Segment: flushed})
	}
	a.listener(Update{Kind: UpdateEnded})
}

func (a *Adapter) handleError(run uint64, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown recognition error"
	}

	a.mu.Lock()
	if run != a.run {
		a.mu.Unlock()
		return
	}
	a.lastError = reason
	a.listening = false
	a.mu.Unlock()

	a.listener(Update{Kind: UpdateError, Reason: reason})
}

// runHandler binds capability events to the run that produced them.
type runHandler struct {
	adapter *Adapter
	run     uint64
}

func (h *runHandler) HandleStart()                    { h.adapter.handleStart(h.run) }
func (h *runHandler) HandleResult(b recognizer.Batch) { h.adapter.handleResult(h.run, b) }
func (h *runHandler) HandleEnd()                      { h.adapter.handleEnd(h.run) }
func (h *runHandler) HandleError(reason string)       { h.adapter.handleError(h.run, reason) }
