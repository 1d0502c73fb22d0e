// Package source provides data source adapters that resolve a named topic to
// its most recent value. The engine depends only on the Fetch contract; the
// transport behind it (a NATS KV bucket fed by an external ingestor in the
// standard deployment) stays outside the core.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/alertflow/errors"
)

// Static is an in-memory source for tests and local development
type Static struct {
	mu       sync.RWMutex
	values   map[string]any
	failures map[string]error
}

// NewStatic creates an empty static source
func NewStatic() *Static {
	return &Static{
		values:   make(map[string]any),
		failures: make(map[string]error),
	}
}

// Set records the current value for a topic
func (s *Static) Set(topic string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[topic] = value
	delete(s.failures, topic)
}

// Fail makes subsequent fetches for topic return err
func (s *Static) Fail(topic string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, topic)
		return
	}
	s.failures[topic] = err
}

// Fetch returns the recorded value for topic
func (s *Static) Fetch(_ context.Context, topic string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.failures[topic]; ok {
		return nil, err
	}
	v, ok := s.values[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrTopicNotFound, topic)
	}
	return v, nil
}
