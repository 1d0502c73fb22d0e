package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/graph"
)

// State represents the lifecycle state of a run
type State int

const (
	// StateReady indicates the run has not started yet
	StateReady State = iota
	// StateRunning indicates the run is traversing the graph
	StateRunning
	// StateCompleted indicates the run reached a terminal node
	StateCompleted
	// StateFailed indicates the run aborted on an unrecovered error
	StateFailed
)

// String returns a string representation of the run state
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultMaxSteps bounds node evaluations per run. The format permits cycles,
// so the bound is what prevents runaway execution.
const DefaultMaxSteps = 100

// RunError reports a failed run with enough context to diagnose it without
// replaying internals: the rule, the failing node, and the error class.
type RunError struct {
	RuleID string
	NodeID string
	Class  errors.ErrorClass
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("rule %s failed at node %s (%s): %v", e.RuleID, e.NodeID, e.Class, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Report summarizes one completed or failed run
type Report struct {
	RunID    string
	RuleID   string
	State    State
	Steps    int
	Path     []string
	Values   map[string]any
	Duration time.Duration
}

// Triggered reports whether any publish node dispatched during the run
func (r *Report) Triggered() bool {
	for _, v := range r.Values {
		if v == "published" {
			return true
		}
	}
	return false
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxSteps overrides the per-run step bound
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry replaces the default node registry
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithMetrics attaches engine metrics
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine executes one rule graph. It holds no per-run state: every Run call
// builds a fresh RunState, so a single Engine may serve concurrent runs.
type Engine struct {
	graph    *graph.Graph
	registry *Registry
	adapters Adapters
	maxSteps int
	logger   *slog.Logger
	metrics  *Metrics
}

// New creates an engine for the given graph and adapters
func New(g *graph.Graph, adapters Adapters, opts ...Option) *Engine {
	e := &Engine{
		graph:    g,
		registry: NewRegistry(),
		adapters: adapters,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default().With("component", "engine", "rule_id", g.ID()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run traverses the graph from its start node until a terminal node, an
// error, cancellation, or the step bound. Cancellation is cooperative: it is
// checked before each node, and adapter calls receive ctx so in-flight
// fetches and dispatches are bounded too.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:  uuid.NewString(),
		RuleID: e.graph.ID(),
		State:  StateRunning,
	}

	state := &RunState{
		Graph:    e.graph,
		Context:  NewContext(),
		Adapters: e.adapters,
	}

	logger := e.logger.With("run_id", report.RunID)
	logger.Debug("Run started", "start_node", e.graph.Definition().StartNode)

	current := e.graph.Start()
	for {
		if err := ctx.Err(); err != nil {
			return e.fail(report, state, current.ID, started,
				errors.WrapTransient(err, "Engine", "Run", "run cancelled"))
		}

		if report.Steps >= e.maxSteps {
			return e.fail(report, state, current.ID, started,
				errors.WrapFatal(
					fmt.Errorf("%w: %d evaluations", errors.ErrStepLimitExceeded, report.Steps),
					"Engine", "Run", "enforce step bound"))
		}

		result, err := e.registry.Evaluate(ctx, current, state)
		report.Steps++
		report.Path = append(report.Path, current.ID)
		if e.metrics != nil {
			e.metrics.nodeEvaluations.WithLabelValues(string(current.Type)).Inc()
		}
		if err != nil {
			return e.fail(report, state, current.ID, started, err)
		}

		logger.Debug("Node evaluated",
			"node_id", current.ID,
			"node_type", current.Type,
			"value", result.Value)

		if result.Terminal {
			break
		}

		// First entry wins: the format allows plural next lists, but a run
		// follows exactly one live path.
		next := firstSuccessor(result.Next)
		if next == "" {
			break
		}

		node, ok := e.graph.Node(next)
		if !ok {
			// Loader validates successor refs; reaching this is a graph bug.
			return e.fail(report, state, current.ID, started,
				errors.WrapFatal(
					fmt.Errorf("%w: %q", errors.ErrUnknownNodeID, next),
					"Engine", "Run", "resolve successor"))
		}
		current = node
	}

	report.State = StateCompleted
	report.Values = state.Context.Snapshot()
	report.Duration = time.Since(started)

	logger.Debug("Run completed",
		"steps", report.Steps,
		"triggered", report.Triggered(),
		"duration", report.Duration)

	return report, nil
}

func firstSuccessor(next []string) string {
	if len(next) == 0 {
		return ""
	}
	return next[0]
}

func (e *Engine) fail(report *Report, state *RunState, nodeID string, started time.Time, err error) (*Report, error) {
	report.State = StateFailed
	report.Values = state.Context.Snapshot()
	report.Duration = time.Since(started)

	runErr := &RunError{
		RuleID: e.graph.ID(),
		NodeID: nodeID,
		Class:  errors.Classify(err),
		Err:    err,
	}

	e.logger.Error("Run failed",
		"run_id", report.RunID,
		"node_id", nodeID,
		"class", runErr.Class.String(),
		"error", err)

	return report, runErr
}
