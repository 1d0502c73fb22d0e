// Package graph defines the rule definition format and the loader that turns
// raw JSON definitions into validated, immutable executable graphs.
//
// Nodes reference each other by string id rather than by pointer so that
// definitions stay serializable and can be validated in full before any
// evaluation happens. The loader builds an id index once at load time; the
// engine resolves successors through it in O(1) during traversal.
package graph

import "time"

// NodeType identifies the evaluation behavior of a node. The set is closed:
// the loader rejects definitions containing any other type.
type NodeType string

// Supported node types
const (
	// NodeGetData fetches the current value for a topic from the data source
	NodeGetData NodeType = "get_data"
	// NodeCompare applies a comparison operator to two operands
	NodeCompare NodeType = "compare"
	// NodeAnd is true when every referenced input value is truthy
	NodeAnd NodeType = "and"
	// NodeOr is true when any referenced input value is truthy
	NodeOr NodeType = "or"
	// NodePublish dispatches an action with structured parameters
	NodePublish NodeType = "publish"
	// NodeEnd terminates the run
	NodeEnd NodeType = "end"
)

// Valid reports whether t is a registered node type
func (t NodeType) Valid() bool {
	switch t {
	case NodeGetData, NodeCompare, NodeAnd, NodeOr, NodePublish, NodeEnd:
		return true
	default:
		return false
	}
}

// Branching reports whether the node type selects its successor by boolean
// outcome (next_true/next_false) instead of the plain next list.
func (t NodeType) Branching() bool {
	return t == NodeCompare || t == NodeAnd || t == NodeOr
}

// Node is one step in a rule graph
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Next       []string       `json:"next,omitempty"`
	NextTrue   []string       `json:"next_true,omitempty"`
	NextFalse  []string       `json:"next_false,omitempty"`
}

// StringProperty returns the named property as a string
func (n *Node) StringProperty(key string) (string, bool) {
	v, ok := n.Properties[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Successors returns the successor list for a boolean outcome. Non-branching
// node types always return the plain next list.
func (n *Node) Successors(outcome bool) []string {
	if !n.Type.Branching() {
		return n.Next
	}
	if outcome {
		return n.NextTrue
	}
	return n.NextFalse
}

// RuleDefinition is a named directed graph describing how to evaluate sensor
// conditions and trigger actions. Immutable after loading; reloading produces
// a new instance.
type RuleDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	// Interval is the minimum number of seconds between scheduled runs.
	// Zero means the runner's default applies.
	Interval  int    `json:"interval,omitempty"`
	StartNode string `json:"start_node"`
	Nodes     []Node `json:"nodes"`
}

// EvalInterval returns the rule's scheduling interval, falling back to def
// when the definition does not declare one.
func (rd *RuleDefinition) EvalInterval(def time.Duration) time.Duration {
	if rd.Interval <= 0 {
		return def
	}
	return time.Duration(rd.Interval) * time.Second
}

// Graph is a validated, executable rule definition with an id index for O(1)
// node resolution.
type Graph struct {
	def   RuleDefinition
	index map[string]int
}

// Definition returns the underlying rule definition
func (g *Graph) Definition() RuleDefinition {
	return g.def
}

// ID returns the rule id
func (g *Graph) ID() string {
	return g.def.ID
}

// Enabled reports whether the rule is enabled
func (g *Graph) Enabled() bool {
	return g.def.Enabled
}

// Node resolves a node by id
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.def.Nodes[i], true
}

// Start returns the declared start node
func (g *Graph) Start() *Node {
	n, _ := g.Node(g.def.StartNode)
	return n
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	return len(g.def.Nodes)
}
