// Package engine executes validated rule graphs.
//
// # Execution model
//
// A run walks the graph from its declared start node. Each node type has one
// evaluation function registered in the Registry; the engine invokes it,
// memoizes the produced value in the run's Context, and follows the chosen
// successor. The format allows plural successor lists but the engine follows
// a single live path: the first entry of the selected list wins, so runs are
// deterministic given identical fetched values.
//
// Runs are sequential: compare nodes read values produced earlier
// in the same run, so node evaluation cannot be reordered or parallelized.
// Concurrency happens one level up, across runs, each owning an independent
// Context.
//
// # Failure semantics
//
// There is no partial success. Any node-evaluation error transitions the run
// to Failed and surfaces a RunError carrying the rule id, the failing node id
// and the error classification. Adapter failures (fetch, dispatch) are
// transient; graph inconsistencies (missing context value, type mismatch)
// are fatal to the run and indicate a bug in the rule. Cycles are tolerated
// in the format and guarded at runtime by a configurable step limit.
package engine
