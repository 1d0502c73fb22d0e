package component

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/metric"
)

// Manager owns a set of components, starting them in registration order and
// stopping them in reverse.
type Manager struct {
	mu         sync.Mutex
	components []Component
	started    bool
	logger     *slog.Logger
	metrics    *metric.CoreMetrics

	wg      sync.WaitGroup
	runErrs chan error
}

// NewManager creates an empty manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:  slog.Default().With("component", "manager"),
		runErrs: make(chan error, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger.With("component", "manager")
		}
	}
}

// WithMetrics wires component status into the core metrics
func WithMetrics(cm *metric.CoreMetrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = cm
	}
}

// Register adds a component. Must be called before Start.
func (m *Manager) Register(c Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "Register", "register "+c.Name())
	}
	m.components = append(m.components, c)
	return nil
}

// Start initializes and starts every registered component in order. Each
// component's Start runs on its own goroutine; a component returning an error
// surfaces on Errors.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "Start", "start components")
	}

	for _, c := range m.components {
		if err := c.Initialize(ctx); err != nil {
			m.setStatus(c, StateFailed)
			return fmt.Errorf("Manager.Start: initialize %s: %w", c.Name(), err)
		}
	}

	for _, c := range m.components {
		c := c
		m.logger.Info("Starting component", "name", c.Name())
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := c.Start(ctx); err != nil {
				m.setStatus(c, StateFailed)
				m.logger.Error("Component exited with error", "name", c.Name(), "error", err)
				select {
				case m.runErrs <- fmt.Errorf("%s: %w", c.Name(), err):
				default:
				}
				return
			}
			m.setStatus(c, StateStopped)
		}()
		m.setStatus(c, StateRunning)
	}

	m.started = true
	return nil
}

// Errors exposes component failures observed after Start
func (m *Manager) Errors() <-chan error {
	return m.runErrs
}

// Stop stops components in reverse registration order, then waits for their
// Start goroutines to return.
func (m *Manager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return errors.WrapInvalid(errors.ErrNotStarted, "Manager", "Stop", "stop components")
	}

	var firstErr error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		m.logger.Info("Stopping component", "name", c.Name())
		if err := c.Stop(timeout); err != nil {
			m.logger.Error("Component stop failed", "name", c.Name(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("Manager.Stop: stop %s: %w", c.Name(), err)
			}
		}
		m.setStatus(c, StateStopped)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		if firstErr == nil {
			firstErr = errors.WrapTransient(
				context.DeadlineExceeded, "Manager", "Stop", "wait for components")
		}
	}

	m.started = false
	return firstErr
}

func (m *Manager) setStatus(c Component, s State) {
	if m.metrics == nil {
		return
	}
	m.metrics.ComponentStatus.WithLabelValues(c.Name()).Set(float64(s))
}
