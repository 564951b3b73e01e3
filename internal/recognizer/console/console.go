// Package console is a line-driven recognition backend: text typed or piped in stands
// in for recognized speech.
package console

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rbright/hark/internal/recognizer"
)

// InterimPrefix marks an input line as a revisable interim result.
const InterimPrefix = "~"

var errAlreadyStarted = errors.New("console session already started")

// Provider routes fed text to every running session.
type Provider struct {
	mu       sync.Mutex
	sessions map[*session]struct{}
	closed   bool
	// ready is closed while at least one session is running.
	ready    chan struct{}
}

// New returns an open console provider.
func New() *Provider {
	return &Provider{
		sessions: make(map[*session]struct{}),
		ready:    make(chan struct{}),
	}
}

func (p *Provider) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *Provider) Open(opts recognizer.Options, h recognizer.Handler) (recognizer.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, recognizer.ErrUnsupported
	}
	return &session{provider: p, opts: opts, handler: h}, nil
}

// Feed delivers one input line and returns how many sessions received it. Lines
// starting with InterimPrefix are interim results; anything else is final. Blank
// lines are ignored.
func (p *Provider) Feed(line string) int {
	if strings.HasPrefix(line, InterimPrefix) {
		return p.Interim(strings.TrimPrefix(line, InterimPrefix))
	}
	return p.Final(line)
}

// Interim delivers revisable text to running sessions that asked for interim results.
func (p *Provider) Interim(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	delivered := 0
	for _, s := range p.running() {
		if s.opts.InterimResults {
			s.deliver(recognizer.Piece{Text: text})
			delivered++
		}
	}
	return delivered
}

// Final delivers finalized text to every running session. Non-continuous sessions
// end after their first final result.
func (p *Provider) Final(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	sessions := p.running()
	for _, s := range sessions {
		s.deliver(recognizer.Piece{Text: text, Final: true})
		if !s.opts.Continuous {
			s.end()
		}
	}
	return len(sessions)
}

// Close ends every running session and makes the provider report unsupported.
func (p *Provider) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for _, s := range p.running() {
		s.end()
	}
}

// Running returns the number of sessions currently receiving input.
func (p *Provider) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Ready returns a channel that is closed once a session is running. A fresh channel
// is handed out after the last running session ends.
func (p *Provider) Ready() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *Provider) running() []*session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*session, 0, len(p.sessions))
	for s := range p.sessions {
		out = append(out, s)
	}
	return out
}

func (p *Provider) attach(s *session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return recognizer.ErrUnsupported
	}
	if _, ok := p.sessions[s]; ok {
		return errAlreadyStarted
	}
	p.sessions[s] = struct{}{}
	if len(p.sessions) == 1 {
		close(p.ready)
	}
	return nil
}

// detach unregisters s; it reports false when s was not attached.
func (p *Provider) detach(s *session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[s]; !ok {
		return false
	}
	delete(p.sessions, s)
	if len(p.sessions) == 0 {
		p.ready = make(chan struct{})
	}
	return true
}

type session struct {
	provider *Provider
	opts     recognizer.Options
	handler  recognizer.Handler

	mu      sync.Mutex
	results []recognizer.Piece
}

func (s *session) Start(context.Context) error {
	if err := s.provider.attach(s); err != nil {
		return err
	}
	s.handler.HandleStart()
	return nil
}

func (s *session) Stop(context.Context) error {
	s.end()
	return nil
}

func (s *session) end() {
	if s.provider.detach(s) {
		s.handler.HandleEnd()
	}
}

// deliver replaces a trailing interim piece or appends a new one, then reports the
// batch starting at the changed piece.
func (s *session) deliver(piece recognizer.Piece) {
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
