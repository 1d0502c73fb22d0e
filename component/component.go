// Package component defines the lifecycle contract shared by the long-running
// pieces of the service and a manager that starts and stops them in order.
package component

import (
	"context"
	"time"
)

// State represents the lifecycle state of a component
type State int

// Component lifecycle states
const (
	StateCreated State = iota
	StateInitialized
	StateRunning
	StateStopped
	StateFailed
)

// String returns a string representation of the component state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Component is a long-running piece of the service. Initialize acquires
// resources, Start runs until ctx is cancelled or Stop is called, Stop
// shuts down within the given timeout.
type Component interface {
	Name() string
	Initialize(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
	State() State
}
