// Package operation tracks the lifecycle of long-running backend calls.
//
// A Slot holds one operation's state (idle, loading, success, failure).
// Each Begin starts a new generation and cancels the one before it, so
// completions from superseded calls are discarded and the newest call wins.
// A Probe is the connectivity variant with a timed return to idle.
package operation

import (
	"context"
	"sync"
	"time"
)

// Status is the phase of an operation.
type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Success Status = "success"
	Failure Status = "failure"
)

// State is a consistent copy of a Slot. Payload is set only on Success and
// Error only on Failure.
type State[T any] struct {
	Status     Status    `json:"status"`
	Payload    *T        `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Busy reports whether the operation is waiting on a call.
func (s State[T]) Busy() bool {
	return s.Status == Loading
}

// Slot is a mutex-guarded operation state with last-write-wins semantics.
// The zero value is an idle slot.
type Slot[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State[T]
}

// Begin moves the slot to Loading, discards any previous payload or error,
// and cancels the call currently in flight. The returned context is derived
// from parent and is cancelled when a later call supersedes this one; the
// returned generation identifies the call on completion.
func (s *Slot[T]) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersede()
	s.cancel = cancel
	s.state = State[T]{Status: Loading, StartedAt: time.Now()}
	return ctx, s.gen
}

// Succeed stores payload if gen is still the current call. It reports
// whether the result was applied.
func (s *Slot[T]) Succeed(gen uint64, payload T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.finish()
	s.state.Status = Success
	s.state.Payload = &payload
	return true
}

// Fail stores message if gen is still the current call. It reports whether
// the failure was applied.
func (s *Slot[T]) Fail(gen uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(gen) {
		return false
	}
	s.finish()
	s.state.Status = Failure
	s.state.Error = message
	return true
}

// Reject records a failure that never reached the network, such as a local
// validation error. It supersedes any call in flight.
func (s *Slot[T]) Reject(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersede()
	now := time.Now()
	s.state = State[T]{Status: Failure, Error: message, StartedAt: now, FinishedAt: now}
}

// Reset returns the slot to Idle and cancels any call in flight.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersede()
	s.state = State[T]{Status: Idle}
}

// Snapshot returns a copy of the current state.
func (s *Slot[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the identifier of the most recent call.
func (s *Slot[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Slot[T]) supersede() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Slot[T]) current(gen uint64) bool {
	return gen == s.gen && s.state.Status == Loading
}

func (s *Slot[T]) finish() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.FinishedAt = time.Now()
}
