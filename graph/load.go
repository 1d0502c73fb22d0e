package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/c360/alertflow/errors"
)

// Load parses raw JSON into validated graphs. Three layouts are accepted:
// a single rule object, an array of rule objects, or a mapping from rule id
// to rule object. Loading is all-or-nothing: one bad definition rejects the
// whole input.
func Load(raw []byte) ([]*Graph, error) {
	defs, err := decode(raw)
	if err != nil {
		return nil, err
	}

	graphs := make([]*Graph, 0, len(defs))
	for _, def := range defs {
		g, err := Compile(def)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}

	return graphs, nil
}

// LoadFile reads and loads rule definitions from a JSON file
func LoadFile(path string) ([]*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "GraphLoader", "LoadFile", fmt.Sprintf("read %s", path))
	}
	graphs, err := Load(data)
	if err != nil {
		return nil, errors.Wrap(err, "GraphLoader", "LoadFile", fmt.Sprintf("load %s", path))
	}
	return graphs, nil
}

// decode splits raw JSON into individual definition documents and validates
// each against the definition schema before unmarshaling.
func decode(raw []byte) ([]RuleDefinition, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMalformedDefinition, "GraphLoader", "decode", "empty input")
	}

	var rawDefs []json.RawMessage

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(raw, &rawDefs); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrMalformedDefinition, err),
				"GraphLoader", "decode", "parse definition array")
		}
	case '{':
		// Either a single definition or a rule-id → definition mapping.
		// A single definition is recognized by its required "nodes" field.
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrMalformedDefinition, err),
				"GraphLoader", "decode", "parse definition object")
		}
		if _, isSingle := probe["nodes"]; isSingle {
			rawDefs = []json.RawMessage{json.RawMessage(raw)}
		} else {
			// Sort keys so load order is deterministic
			ids := make([]string, 0, len(probe))
			for id := range probe {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				rawDefs = append(rawDefs, probe[id])
			}
		}
	default:
		return nil, errors.WrapInvalid(errors.ErrMalformedDefinition, "GraphLoader", "decode", "parse input")
	}

	defs := make([]RuleDefinition, 0, len(rawDefs))
	for _, rd := range rawDefs {
		if err := validateSchema(rd); err != nil {
			return nil, err
		}
		var def RuleDefinition
		if err := json.Unmarshal(rd, &def); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrMalformedDefinition, err),
				"GraphLoader", "decode", "unmarshal definition")
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// Compile validates the structural invariants of a definition and produces an
// executable graph. The definition is copied; callers cannot mutate the
// compiled graph afterwards.
func Compile(def RuleDefinition) (*Graph, error) {
	if len(def.Nodes) == 0 {
		return nil, loadErr(def.ID, "", errors.ErrMalformedDefinition, "definition has no nodes")
	}

	// Unique node ids, build the index
	index := make(map[string]int, len(def.Nodes))
	for i, n := range def.Nodes {
		if n.ID == "" {
			return nil, loadErr(def.ID, "", errors.ErrMalformedDefinition, "node with empty id")
		}
		if _, dup := index[n.ID]; dup {
			return nil, loadErr(def.ID, n.ID, errors.ErrDuplicateNodeID, "node id declared twice")
		}
		index[n.ID] = i
	}

	hasTerminal := false
	for i := range def.Nodes {
		n := &def.Nodes[i]

		if !n.Type.Valid() {
			return nil, loadErr(def.ID, n.ID, errors.ErrUnknownNodeType, fmt.Sprintf("type %q", n.Type))
		}

		if err := validateProperties(def.ID, n); err != nil {
			return nil, err
		}

		// Every successor reference must resolve inside this definition
		for _, succ := range [][]string{n.Next, n.NextTrue, n.NextFalse} {
			for _, id := range succ {
				if _, ok := index[id]; !ok {
					return nil, loadErr(def.ID, n.ID, errors.ErrUnknownNodeID,
						fmt.Sprintf("successor %q does not exist", id))
				}
			}
		}

		switch {
		case n.Type == NodeEnd:
			hasTerminal = true
		case n.Type.Branching():
			if len(n.NextTrue) == 0 || len(n.NextFalse) == 0 {
				return nil, loadErr(def.ID, n.ID, errors.ErrMalformedDefinition,
					"branching node requires next_true and next_false")
			}
		default:
			if len(n.Next) == 0 {
				return nil, loadErr(def.ID, n.ID, errors.ErrMalformedDefinition,
					"non-terminal node has no successor")
			}
		}
	}

	if !hasTerminal {
		return nil, loadErr(def.ID, "", errors.ErrNoTerminalNode, "at least one end node required")
	}

	if _, ok := index[def.StartNode]; !ok {
		return nil, loadErr(def.ID, def.StartNode, errors.ErrUnresolvedStart,
			fmt.Sprintf("start_node %q does not exist", def.StartNode))
	}

	return &Graph{def: def, index: index}, nil
}

// validateProperties checks the per-type required properties
func validateProperties(ruleID string, n *Node) error {
	switch n.Type {
	case NodeGetData:
		if topic, ok := n.StringProperty("topic"); !ok || topic == "" {
			return loadErr(ruleID, n.ID, errors.ErrMalformedDefinition, "get_data requires a topic property")
		}
	case NodeCompare:
		for _, key := range []string{"input1", "input2", "operator"} {
			if _, ok := n.Properties[key]; !ok {
				return loadErr(ruleID, n.ID, errors.ErrMalformedDefinition,
					fmt.Sprintf("compare requires a %s property", key))
			}
		}
	case NodeAnd, NodeOr:
		if _, ok := n.Properties["inputs"]; !ok {
			return loadErr(ruleID, n.ID, errors.ErrMalformedDefinition,
				fmt.Sprintf("%s requires an inputs property", n.Type))
		}
	case NodePublish:
		if action, ok := n.StringProperty("action"); !ok || action == "" {
			return loadErr(ruleID, n.ID, errors.ErrMalformedDefinition, "publish requires an action property")
		}
	}
	return nil
}

func loadErr(ruleID, nodeID string, base error, detail string) error {
	where := ruleID
	if nodeID != "" {
		where = fmt.Sprintf("%s node %s", ruleID, nodeID)
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", base, detail),
		"GraphLoader", "Compile", where)
}
