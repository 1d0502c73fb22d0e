package engine

import (
	"context"
	"fmt"

	"github.com/c360/alertflow/errors"
	"github.com/c360/alertflow/graph"
)

// evalGetData fetches the current value for the node's topic and memoizes it
func evalGetData(ctx context.Context, node *graph.Node, state *RunState) (Result, error) {
	topic, _ := node.StringProperty("topic")

	value, err := state.Adapters.Source.Fetch(ctx, topic)
	if err != nil {
		return Result{}, errors.WrapTransient(
			fmt.Errorf("%w: topic %q: %v", errors.ErrFetchFailed, topic, err),
			"Engine", "evalGetData", "fetch topic value")
	}

	state.Context.Set(node.ID, value)
	return Result{Value: value, Next: node.Next}, nil
}

// evalCompare resolves both operands and applies the node's operator
func evalCompare(_ context.Context, node *graph.Node, state *RunState) (Result, error) {
	input1, err := resolveOperand(node, "input1", state)
	if err != nil {
		return Result{}, err
	}
	input2, err := resolveOperand(node, "input2", state)
	if err != nil {
		return Result{}, err
	}
	operator, _ := node.StringProperty("operator")

	outcome, err := Compare(operator, input1, input2)
	if err != nil {
		return Result{}, errors.WrapInvalid(
			fmt.Errorf("compare %v %s %v: %w", input1, operator, input2, err),
			"Engine", "evalCompare", "apply operator")
	}

	state.Context.Set(node.ID, outcome)
	return Result{Value: outcome, Next: node.Successors(outcome)}, nil
}

// resolveOperand resolves a compare operand. A string that names a node in
// the graph refers to that node's memoized value; referring to a node that
// has not been evaluated yet is an ordering bug in the rule and fails the
// run. Any other value is a literal (a fixed threshold).
func resolveOperand(node *graph.Node, key string, state *RunState) (any, error) {
	prop := node.Properties[key]

	ref, isString := prop.(string)
	if !isString {
		return prop, nil
	}

	if v, evaluated := state.Context.Get(ref); evaluated {
		return v, nil
	}

	if _, existsInGraph := state.Graph.Node(ref); existsInGraph {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %s of node %s references %q", errors.ErrMissingContextValue, key, node.ID, ref),
			"Engine", "resolveOperand", "resolve operand")
	}

	return ref, nil
}

// evalLogical folds the truthiness of previously produced values. Every
// input must already have been evaluated in this run; a missing entry is a
// structural bug in the rule, not a transient condition.
func evalLogical(_ context.Context, node *graph.Node, state *RunState) (Result, error) {
	refs, err := inputRefs(node)
	if err != nil {
		return Result{}, err
	}

	outcome := node.Type == graph.NodeAnd
	for _, ref := range refs {
		v, ok := state.Context.Get(ref)
		if !ok {
			return Result{}, errors.WrapFatal(
				fmt.Errorf("%w: input %q of node %s", errors.ErrMissingContextValue, ref, node.ID),
				"Engine", "evalLogical", "resolve input")
		}
		if node.Type == graph.NodeAnd {
			outcome = outcome && truthy(v)
		} else {
			outcome = outcome || truthy(v)
		}
	}

	state.Context.Set(node.ID, outcome)
	return Result{Value: outcome, Next: node.Successors(outcome)}, nil
}

func inputRefs(node *graph.Node) ([]string, error) {
	// []string appears when definitions are built in code; JSON decodes to []any
	if refs, ok := node.Properties["inputs"].([]string); ok && len(refs) > 0 {
		return refs, nil
	}
	raw, _ := node.Properties["inputs"].([]any)
	if len(raw) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: node %s has no inputs", errors.ErrMalformedDefinition, node.ID),
			"Engine", "inputRefs", "read inputs")
	}
	refs := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: node %s input %v is not a node id", errors.ErrMalformedDefinition, node.ID, v),
				"Engine", "inputRefs", "read inputs")
		}
		refs = append(refs, s)
	}
	return refs, nil
}

// evalPublish dispatches the node's action. action_data values pass through
// verbatim; references are not resolved from context.
func evalPublish(ctx context.Context, node *graph.Node, state *RunState) (Result, error) {
	action, _ := node.StringProperty("action")
	data, _ := node.Properties["action_data"].(map[string]any)

	if err := state.Adapters.Dispatcher.Dispatch(ctx, action, data); err != nil {
		return Result{}, errors.WrapTransient(
			fmt.Errorf("%w: action %q: %v", errors.ErrDispatchFailed, action, err),
			"Engine", "evalPublish", "dispatch action")
	}

	state.Context.Set(node.ID, "published")
	return Result{Value: "published", Next: node.Next}, nil
}

// evalEnd signals end-of-run; it produces no value and has no successor
func evalEnd(context.Context, *graph.Node, *RunState) (Result, error) {
	return Result{Terminal: true}, nil
}
