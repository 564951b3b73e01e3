// Package recognizer defines the continuous speech-recognition capability consumed by hark.
package recognizer

import (
	"context"
	"errors"
)

// ErrUnsupported indicates the runtime cannot provide a recognition capability.
var ErrUnsupported = errors.New("speech recognition is not supported in this runtime")

// Options configures one recognition session.
type Options struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Piece is one recognized result inside a batch.
type Piece struct {
	Text  string
	Final bool
}

// Batch is one result event. Pieces before ResultIndex are unchanged since the previous batch.
type Batch struct {
	ResultIndex int
	Pieces      []Piece
}

// Changed returns the pieces at or after the result-index cursor.
func (b Batch) Changed() []Piece {
	idx := b.ResultIndex
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.Pieces) {
		return nil
	}
	return b.Pieces[idx:]
}

// Handler receives events from one recognition session.
//
// Events may arrive on any goroutine, including synchronously from Start or Stop.
type Handler interface {
	HandleStart()
	HandleResult(Batch)
	HandleEnd()
	HandleError(reason string)
}

// Session is one recognition run produced by a Provider.
type Session interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// Provider detects capability support and produces recognition sessions.
type Provider interface {
	Supported() bool
	Open(Options, Handler) (Session, error)
}

// Unsupported is the Provider used when no recognition backend is wired.
type Unsupported struct{}

func (Unsupported) Supported() bool {
	return false
}

func (Unsupported) Open(Options, Handler) (Session, error) {
	return nil, ErrUnsupported
}
