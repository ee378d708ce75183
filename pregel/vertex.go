package pregel

import "hash/fnv"

// VID is a vertex identity. The engine treats it as opaque, hashable and
// totally ordered (spec §3); a string satisfies all three without forcing
// user types through a custom comparable constraint.
type VID = string

// Edge is a single out-edge owned exclusively by its source vertex: a
// target vertex id and an opaque, serializable edge value (spec §3).
type Edge struct {
	Target VID
	Value  any
}

// Owner computes the partition that owns vid under P partitions:
// hash(vid) mod P (spec §3 invariant, §4.4). It is the single source of
// truth both for routing outbound messages and for determining whether a
// given worker is responsible for a vertex's state.
func Owner(vid VID, numPartitions int) int {
	if numPartitions <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(vid))
	return int(h.Sum64() % uint64(numPartitions))
}

// Msg is a single message addressed to a destination vertex, queued for
// delivery in the following superstep (spec §3, §4.4).
type Msg struct {
	Source VID
	Dest   VID
	Value  any
}

// Combiner reduces messages bound for the same destination vertex into a
// single value (spec §4.4). It must be associative and commutative; a
// combiner must never be used when the algorithm depends on message
// multiplicity (spec §4.6).
type Combiner interface {
	Combine(a, b any) any
}

// CombinerFunc adapts a plain function to the Combiner interface.
type CombinerFunc func(a, b any) any

func (f CombinerFunc) Combine(a, b any) any { return f(a, b) }

// VertexView is the read-only snapshot of a vertex's state handed to a
// compute callback. Edges is a stable slice: staged edge mutations issued
// during compute are applied atomically at the end of the SEND phase and
// never observed mid-compute (spec §4.5).
type VertexView struct {
	ID     VID
	Value  any
	Halted bool
	Edges  []Edge
}

// VertexProgram is the single required capability a user algorithm must
// implement: the per-vertex compute callback. Init, PreSuperstep,
// PostSuperstep and MasterCompute are optional hooks detected via type
// assertion (Initializer, PreSuperstepHook, PostSuperstepHook,
// MasterProgram below) rather than forcing every implementation to carry
// no-op methods — the Go analogue of the source's deep ComputeFunction
// subclass hierarchy (init/user/item/generic), collapsed to one interface
// plus optional capabilities (see DESIGN.md).
type VertexProgram interface {
	// Compute runs once per active vertex per superstep. messages holds
	// everything sent to this vertex in the previous superstep; edges is
	// a stable snapshot for this call only. cb is used to emit every
	// side effect: value updates, outbound messages, edge mutations,
	// aggregator contributions and the halt vote (spec §6).
	Compute(superstep int32, vertex VertexView, messages []Msg, edges []Edge, cb *ComputeCallback) error
}

// Initializer is an optional hook run once per worker before the first
// superstep (spec §6 "init(configs, cb)").
type Initializer interface {
	Init(configs map[string]string, cb *InitCallback) error
}

// PreSuperstepHook runs before each superstep's compute pass.
type PreSuperstepHook interface {
	PreSuperstep(superstep int32, agg *AggregatorRegistry)
}

// PostSuperstepHook runs after each superstep's compute pass completes.
type PostSuperstepHook interface {
	PostSuperstep(superstep int32, agg *AggregatorRegistry)
}

// MasterProgram is the optional hook that runs once per superstep on the
// elected leader only, between the RECEIVE and next SEND phases (spec
// §4.6 step 7).
type MasterProgram interface {
	MasterCompute(superstep int32, cb *MasterCallback) error
}

// InitCallback is handed to Initializer.Init.
type InitCallback struct {
	registry *AggregatorRegistry
}

// RegisterAggregator registers a named reducer, idempotently (spec §6
// "cb.registerAggregator").
func (c *InitCallback) RegisterAggregator(name string, reducer Reducer, persistent bool) {
	c.registry.Register(name, reducer, persistent)
}

// MasterCallback is handed to MasterProgram.MasterCompute.
type MasterCallback struct {
	registry *AggregatorRegistry
	halt     *bool
}

// GetAggregatedValue reads a named aggregator's previous (committed) value.
func (c *MasterCallback) GetAggregatedValue(name string) (any, error) {
	return c.registry.GetAggregatedValue(name)
}

// SetAggregatedValue overrides a named aggregator's previous value; all
// workers observe the override starting with the next superstep (spec
// §4.3).
func (c *MasterCallback) SetAggregatedValue(name string, value any) error {
	return c.registry.SetAggregatedValue(name, value)
}

// HaltComputation forces global termination regardless of pending work
// (spec §4.6 step 7b, §7 kind 6).
func (c *MasterCallback) HaltComputation() {
	*c.halt = true
}
