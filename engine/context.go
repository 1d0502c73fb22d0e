package engine

// Context is the per-run memo table mapping node id to the value that node
// produced when evaluated. It is owned by exactly one run and discarded at
// run end, so no locking is needed.
type Context struct {
	values map[string]any
}

// NewContext creates an empty run context
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set records the value produced by a node
func (c *Context) Set(nodeID string, value any) {
	c.values[nodeID] = value
}

// Get returns the value produced by a node, if it has been evaluated
func (c *Context) Get(nodeID string) (any, bool) {
	v, ok := c.values[nodeID]
	return v, ok
}

// Len returns the number of recorded values
func (c *Context) Len() int {
	return len(c.values)
}

// Snapshot returns a copy of all recorded values for reporting
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
