package engine

import (
	"context"
	"fmt"

	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/graph"
)

// Source resolves a named topic to its current value. Implementations are
// external collaborators (a NATS KV bucket in this deployment); the engine
// only depends on this contract.
type Source interface {
	Fetch(ctx context.Context, topic string) (any, error)
}

// Dispatcher executes a named action with structured parameters. The dispatch
// call is the engine's sole observable external effect besides data fetches.
type Dispatcher interface {
	Dispatch(ctx context.Context, action string, data map[string]any) error
}

// Adapters bundles the external collaborators a run needs
type Adapters struct {
	Source     Source
	Dispatcher Dispatcher
}

// RunState is everything one run's evaluators may touch: the graph being
// walked, the run-scoped memo context, and the adapters. Owned by a single
// run, never shared.
type RunState struct {
	Graph    *graph.Graph
	Context  *Context
	Adapters Adapters
}

// Result is the outcome of evaluating one node: the value it produced, the
// successor list to follow, and whether the run terminates here.
type Result struct {
	Value    any
	Next     []string
	Terminal bool
}

// EvalFunc evaluates one node against the run's state
type EvalFunc func(ctx context.Context, node *graph.Node, state *RunState) (Result, error)

// Registry maps node types to their evaluation behavior
type Registry struct {
	evaluators map[graph.NodeType]EvalFunc
}

// NewRegistry creates a registry with all built-in node kinds registered
func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[graph.NodeType]EvalFunc)}
	r.evaluators[graph.NodeGetData] = evalGetData
	r.evaluators[graph.NodeCompare] = evalCompare
	r.evaluators[graph.NodeAnd] = evalLogical
	r.evaluators[graph.NodeOr] = evalLogical
	r.evaluators[graph.NodePublish] = evalPublish
	r.evaluators[graph.NodeEnd] = evalEnd
	return r
}

// Register adds or replaces the evaluator for a node type. Custom types must
// also be accepted by the loader to be usable in definitions.
func (r *Registry) Register(t graph.NodeType, fn EvalFunc) {
	r.evaluators[t] = fn
}

// Evaluate dispatches node to its type's evaluator
func (r *Registry) Evaluate(ctx context.Context, node *graph.Node, state *RunState) (Result, error) {
	fn, ok := r.evaluators[node.Type]
	if !ok {
		// Loader guarantees registered types; reaching this is a graph bug.
		return Result{}, errors.WrapFatal(
			fmt.Errorf("%w: %q", errors.ErrUnknownNodeType, node.Type),
			"NodeRegistry", "Evaluate", "dispatch node")
	}
	return fn(ctx, node, state)
}
