// Package runner schedules rule evaluation. It loads rule definitions,
// builds one engine per rule, and walks a ticker: on each tick every enabled
// rule whose interval has elapsed is submitted to a worker pool. At most one
// run per rule is in flight at a time.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/alertflow/component"
	"github.com/c360/alertflow/engine"
	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/graph"
	"github.com/c360/alertflow/pkg/worker"
)

// Options configures a Runner
type Options struct {
	// TickInterval is how often the scheduler checks rule due times
	TickInterval time.Duration
	// DefaultInterval applies to rules that declare no interval
	DefaultInterval time.Duration
	// RunTimeout bounds one rule run end to end
	RunTimeout time.Duration
	// MaxSteps bounds node evaluations per run
	MaxSteps int
	// Workers and QueueSize shape the evaluation pool
	Workers   int
	QueueSize int
}

func (o *Options) applyDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.DefaultInterval <= 0 {
		o.DefaultInterval = 10 * time.Second
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 30 * time.Second
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = engine.DefaultMaxSteps
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
}

// rule is one scheduled rule with its engine and run bookkeeping
type rule struct {
	graph  *graph.Graph
	engine *engine.Engine

	mu       sync.Mutex
	lastRun  time.Time
	inFlight bool
}

// due reports whether the rule should run at now, and claims the run slot
// when it should. The claim is released by release().
func (r *rule) due(now time.Time, defaultInterval time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return false
	}
	def := r.graph.Definition()
	interval := def.EvalInterval(defaultInterval)
	if !r.lastRun.IsZero() && now.Sub(r.lastRun) < interval {
		return false
	}
	r.inFlight = true
	return true
}

// claim takes the run slot for an on-demand run
func (r *rule) claim() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return errors.ErrRunInFlight
	}
	r.inFlight = true
	return nil
}

func (r *rule) release(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	r.lastRun = at
}

// unclaim drops the run slot without recording a run
func (r *rule) unclaim() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
}

// Runner is the scheduling component
type Runner struct {
	opts     Options
	adapters engine.Adapters
	engOpts  []engine.Option
	logger   *slog.Logger
	metrics  *Metrics

	mu    sync.RWMutex
	rules map[string]*rule

	pool  *worker.Pool[*rule]
	state atomic.Int32
	done  chan struct{}
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the runner logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger.With("component", "runner")
		}
	}
}

// WithMetrics attaches runner metrics
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithEngineOptions passes extra options to every rule engine
func WithEngineOptions(opts ...engine.Option) RunnerOption {
	return func(r *Runner) {
		r.engOpts = append(r.engOpts, opts...)
	}
}

// New creates a runner with the given adapters
func New(adapters engine.Adapters, opts Options, ropts ...RunnerOption) *Runner {
	opts.applyDefaults()
	r := &Runner{
		opts:     opts,
		adapters: adapters,
		logger:   slog.Default().With("component", "runner"),
		rules:    make(map[string]*rule),
		done:     make(chan struct{}),
	}
	for _, opt := range ropts {
		opt(r)
	}
	r.pool = worker.NewPool(opts.Workers, opts.QueueSize, r.process)
	return r
}

// LoadFiles loads every definition from the given rule files. Disabled rules
// are loaded but never scheduled; they can still be run on demand.
func (r *Runner) LoadFiles(paths ...string) error {
	for _, path := range paths {
		graphs, err := graph.LoadFile(path)
		if err != nil {
			return fmt.Errorf("Runner.LoadFiles: load %s: %w", path, err)
		}
		for _, g := range graphs {
			r.AddRule(g)
		}
	}
	return nil
}

// AddRule registers a compiled graph, replacing any rule with the same id
func (r *Runner) AddRule(g *graph.Graph) {
	engOpts := append([]engine.Option{engine.WithMaxSteps(r.opts.MaxSteps)}, r.engOpts...)
	ru := &rule{
		graph:  g,
		engine: engine.New(g, r.adapters, engOpts...),
	}

	r.mu.Lock()
	r.rules[g.ID()] = ru
	count := len(r.rules)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ActiveRules.Set(float64(count))
	}
	r.logger.Info("Rule loaded", "rule_id", g.ID(), "enabled", g.Enabled(), "nodes", g.Len())
}

// RemoveRule unregisters a rule by id
func (r *Runner) RemoveRule(id string) bool {
	r.mu.Lock()
	_, ok := r.rules[id]
	delete(r.rules, id)
	count := len(r.rules)
	r.mu.Unlock()

	if ok && r.metrics != nil {
		r.metrics.ActiveRules.Set(float64(count))
	}
	return ok
}

// Rules returns the ids of all registered rules
func (r *Runner) Rules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	return ids
}

// RunOnce evaluates one rule immediately, bypassing the schedule but not the
// single-run lock. Disabled rules return ErrRuleDisabled.
func (r *Runner) RunOnce(ctx context.Context, id string) (*engine.Report, error) {
	r.mu.RLock()
	ru, ok := r.rules[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownRule, id),
			"Runner", "RunOnce", "resolve rule")
	}
	if !ru.graph.Enabled() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrRuleDisabled, id),
			"Runner", "RunOnce", "check rule")
	}
	if err := ru.claim(); err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %q", err, id),
			"Runner", "RunOnce", "claim run slot")
	}
	return r.run(ctx, ru)
}

// Name implements component.Component
func (r *Runner) Name() string { return "rule-runner" }

// State implements component.Component
func (r *Runner) State() component.State {
	return component.State(r.state.Load())
}

// Initialize implements component.Component
func (r *Runner) Initialize(context.Context) error {
	r.state.Store(int32(component.StateInitialized))
	return nil
}

// Start runs the scheduling loop until Stop or cancellation
func (r *Runner) Start(ctx context.Context) error {
	if err := r.pool.Start(ctx); err != nil {
		r.state.Store(int32(component.StateFailed))
		return fmt.Errorf("Runner.Start: start pool: %w", err)
	}
	r.state.Store(int32(component.StateRunning))
	r.logger.Info("Runner started",
		"tick", r.opts.TickInterval,
		"default_interval", r.opts.DefaultInterval,
		"workers", r.opts.Workers)

	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case now := <-ticker.C:
			r.tick(now)
		}
	}
}

// tick submits every due rule to the pool
func (r *Runner) tick(now time.Time) {
	r.mu.RLock()
	due := make([]*rule, 0, len(r.rules))
	for _, ru := range r.rules {
		if !ru.graph.Enabled() {
			continue
		}
		if ru.due(now, r.opts.DefaultInterval) {
			due = append(due, ru)
		}
	}
	r.mu.RUnlock()

	for _, ru := range due {
		if err := r.pool.Submit(ru); err != nil {
			// Queue full: drop the claim so the next tick retries.
			ru.unclaim()
			if stderrors.Is(err, worker.ErrQueueFull) {
				r.logger.Warn("Evaluation queue full, rule deferred", "rule_id", ru.graph.ID())
				continue
			}
			r.logger.Error("Rule submission failed", "rule_id", ru.graph.ID(), "error", err)
		}
	}
}

// process is the pool processor: it runs one claimed rule
func (r *Runner) process(ctx context.Context, ru *rule) error {
	_, err := r.run(ctx, ru)
	return err
}

// run executes one claimed rule and records the outcome. The claim is always
// released.
func (r *Runner) run(ctx context.Context, ru *rule) (*engine.Report, error) {
	defer ru.release(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.opts.RunTimeout)
	defer cancel()

	report, err := ru.engine.Run(ctx)
	if r.metrics != nil {
		r.metrics.RunDuration.WithLabelValues(ru.graph.ID()).Observe(report.Duration.Seconds())
		outcome := "completed"
		if err != nil {
			outcome = "failed_" + errors.Classify(err).String()
		} else if report.Triggered() {
			outcome = "triggered"
		}
		r.metrics.RunsTotal.WithLabelValues(ru.graph.ID(), outcome).Inc()
	}
	return report, err
}

// Stop stops the scheduler and drains the pool
func (r *Runner) Stop(timeout time.Duration) error {
	select {
	case <-r.done:
		return nil
	default:
	}
	close(r.done)

	if err := r.pool.Stop(timeout); err != nil {
		return fmt.Errorf("Runner.Stop: stop pool: %w", err)
	}
	r.state.Store(int32(component.StateStopped))
	return nil
}
