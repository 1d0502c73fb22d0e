// Package dispatch provides action dispatchers for publish nodes. The
// NATS publisher hands alerts to the action queue; the Recorder captures
// dispatches in memory for tests.
package dispatch

import (
	"context"
	"sync"
)

// Dispatch is a single action handed to a dispatcher.
type Dispatch struct {
	Action string
	Data   map[string]any
}

// Recorder is an in-memory dispatcher that records every dispatch it
// receives. Safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	dispatched []Dispatch
	err        error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every subsequent Dispatch call return err. Pass nil to
// clear the failure.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Dispatch records the action, or returns the configured failure.
func (r *Recorder) Dispatch(_ context.Context, action string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.dispatched = append(r.dispatched, Dispatch{Action: action, Data: data})
	return nil
}

// Dispatched returns a copy of everything recorded so far.
func (r *Recorder) Dispatched() []Dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Dispatch, len(r.dispatched))
	copy(out, r.dispatched)
	return out
}
