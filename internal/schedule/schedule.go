// Package schedule runs keyed, cancellable delayed tasks on an owner's event loop.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Dispatcher runs fn on the owner's event loop.
type Dispatcher func(fn func())

type task struct {
	id    uint64
	timer *time.Timer
}

// Scheduler tracks at most one pending task per key.
//
// Timers fire on their own goroutine and hand the task to the Dispatcher; the task
// is re-checked on the loop, so a task cancelled or replaced after its timer fired
// never runs.
type Scheduler struct {
	dispatch Dispatcher

	mu     sync.Mutex
	nextID uint64
	tasks  map[string]task
	closed bool
	stop   func() bool
}

// New returns a Scheduler that is closed when ctx is done.
func New(ctx context.Context, dispatch Dispatcher) *Scheduler {
	s := &Scheduler{
		dispatch: dispatch,
		tasks:    make(map[string]task),
	}
	s.stop = context.AfterFunc(ctx, s.Close)
	return s
}

// Schedule runs fn on the loop after delay, replacing any pending task with the same key.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if existing, ok := s.tasks[key]; ok {
		existing.timer.Stop()
	}

	s.nextID++
	id := s.nextID
	timer := time.AfterFunc(delay, func() {
		s.dispatch(func() {
			if s.claim(key, id) {
				fn()
			}
		})
	})
	s.tasks[key] = task{id: id, timer: timer}
	return true
}

// claim removes the task if it is still the current one for key.
func (s *Scheduler) claim(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	current, ok := s.tasks[key]
	if !ok || current.id != id {
		return false
	}
	delete(s.tasks, key)
	return true
}

// Pending reports whether a task is scheduled for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// CancelAll drops every pending task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
}

// Close cancels pending tasks and rejects new ones.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancelAllLocked()
	if s.stop != nil {
		s.stop()
	}
}

func (s *Scheduler) cancelAllLocked() {
	for key, existing := range s.tasks {
		existing.timer.Stop()
		delete(s.tasks, key)
	}
}
