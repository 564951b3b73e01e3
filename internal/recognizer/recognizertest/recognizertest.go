// Package recognizertest provides a scriptable in-memory recognition backend for tests.
package recognizertest

import (
	"context"
	"sync"

	"github.com/rbright/hark/internal/recognizer"
)

// Provider records every opened session and lets tests drive their events.
type Provider struct {
	mu          sync.Mutex
	unsupported bool
	startErr    error
	endOnStop   bool
	sessions    []*Session
}

// NewProvider returns a supported provider.
func NewProvider() *Provider {
	return &Provider{}
}

// SetUnsupported toggles the capability probe result.
func (p *Provider) SetUnsupported(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsupported = v
}

// SetStartError makes subsequent Session.Start calls fail with err.
func (p *Provider) SetStartError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startErr = err
}

// SetEndOnStop makes Session.Stop emit HandleEnd synchronously, like most engines do.
func (p *Provider) SetEndOnStop(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endOnStop = v
}

func (p *Provider) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.unsupported
}

func (p *Provider) Open(opts recognizer.Options, h recognizer.Handler) (recognizer.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsupported {
		return nil, recognizer.ErrUnsupported
	}
	s := &Session{provider: p, opts: opts, handler: h}
	p.sessions = append(p.sessions, s)
	return s, nil
}

// Sessions returns every session opened so far.
func (p *Provider) Sessions() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Session(nil), p.sessions...)
}

// Latest returns the newest session opened with the given continuous mode.
func (p *Provider) Latest(continuous bool) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.sessions) - 1; i >= 0; i-- {
		if p.sessions[i].opts.Continuous == continuous {
			return p.sessions[i]
		}
	}
	return nil
}

// Running counts sessions with the given continuous mode that are started and not stopped.
func (p *Provider) Running(continuous bool) int {
	count := 0
	for _, s := range p.Sessions() {
		if s.opts.Continuous == continuous && s.Running() {
			count++
		}
	}
	return count
}

// Session is one scripted recognition run.
type Session struct {
	provider *Provider
	opts     recognizer.Options
	handler  recognizer.Handler

	mu      sync.Mutex
	started bool
	stopped bool
	results []recognizer.Piece
}

// Options returns the options the session was opened with.
func (s *Session) Options() recognizer.Options {
	return s.opts
}

func (s *Session) Start(context.Context) error {
	s.provider.mu.Lock()
	err := s.provider.startErr
	s.provider.mu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.handler.HandleStart()
	return nil
}

func (s *Session) Stop(context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.provider.mu.Lock()
	endOnStop := s.provider.endOnStop
	s.provider.mu.Unlock()
	if endOnStop {
		s.handler.HandleEnd()
	}
	return nil
}

// Running reports whether the session was started and not yet stopped.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

// Stopped reports whether Stop was called.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Interim delivers a revisable result that replaces any trailing interim result.
func (s *Session) Interim(text string) {
	s.deliver(recognizer.Piece{Text: text})
}

// Final delivers a finalized result that replaces any trailing interim result.
func (s *Session) Final(text string) {
	s.deliver(recognizer.Piece{Text: text, Final: true})
}

// Batch delivers a raw batch unchanged.
func (s *Session) Batch(batch recognizer.Batch) {
	s.handler.HandleResult(batch)
}

// End emits an unsolicited end-of-session event.
func (s *Session) End() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.handler.HandleEnd()
}

// Fail emits an error event followed by end-of-session, as browser engines do.
func (s *Session) Fail(reason string) {
	s.handler.HandleError(reason)
	s.End()
}

func (s *Session) deliver(piece recognizer.Piece) {
	s.mu.Lock()
	idx := len(s.results)
	if idx > 0 && !s.results[idx-1].Final {
		idx--
		s.results[idx] = piece
	} else {
		s.results = append(s.results, piece)
	}
	batch := recognizer.Batch{
		ResultIndex: idx,
		Pieces:      append([]recognizer.Piece(nil), s.results...),
	}
	s.mu.Unlock()

	s.handler.HandleResult(batch)
}
