package pregel

import (
	"fmt"
	"sync"
)

// Reducer is an associative, commutative merge function with an identity
// element, the shape every aggregator in spec §3 requires.
type Reducer interface {
	// Identity returns a fresh zero accumulator.
	Identity() any

	// Merge combines acc with delta and returns the new accumulator.
	// Must be associative and commutative so contributions from any
	// number of workers, merged in any order, produce the same result.
	Merge(acc, delta any) any
}

// ReducerFunc adapts a pair of plain functions to the Reducer interface.
type ReducerFunc struct {
	IdentityFn func() any
	MergeFn    func(acc, delta any) any
}

func (r ReducerFunc) Identity() any                  { return r.IdentityFn() }
func (r ReducerFunc) Merge(acc, delta any) any       { return r.MergeFn(acc, delta) }

// SumInt64Reducer is a ready-made reducer for integer counters, the
// canonical example used throughout spec §8 (scenario 4, 6).
var SumInt64Reducer = ReducerFunc{
	IdentityFn: func() any { return int64(0) },
	MergeFn: func(acc, delta any) any {
		return acc.(int64) + delta.(int64)
	},
}

// aggregatorCell holds a single named aggregator's current (in-progress)
// and previous (committed, user-visible) accumulators.
type aggregatorCell struct {
	reducer    Reducer
	persistent bool
	current    any
	previous   any
}

// AggregatorRegistry (C3) is a named, typed reducer registry that
// separates the in-progress "current" accumulator for the ongoing
// superstep from the committed "previous" value readable by user code
// during that superstep (spec §3, §4.3).
//
// register must be called once per name during init, mirroring the
// user-facing contract in spec §6 ("cb.registerAggregator(...)").
type AggregatorRegistry struct {
	mu    sync.Mutex
	cells map[string]*aggregatorCell
}

// NewAggregatorRegistry returns an empty registry.
func NewAggregatorRegistry() *AggregatorRegistry {
	return &AggregatorRegistry{cells: make(map[string]*aggregatorCell)}
}

// Register adds a named aggregator. It is idempotent: registering the same
// name with the same reducer type and persistence flag more than once is a
// no-op, matching "idempotent, must be called in init" (spec §4.3).
func (r *AggregatorRegistry) Register(name string, reducer Reducer, persistent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cells[name]; ok {
		return
	}
	r.cells[name] = &aggregatorCell{
		reducer:    reducer,
		persistent: persistent,
		current:    reducer.Identity(),
		previous:   reducer.Identity(),
	}
}

// Aggregate merges delta into the named aggregator's current accumulator.
// Called from vertex compute via the callback object (spec §6
// "cb.aggregate").
func (r *AggregatorRegistry) Aggregate(name string, delta any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.cells[name]
	if !ok {
		return fmt.Errorf("pregel: aggregator %q not registered", name)
	}
	cell.current = cell.reducer.Merge(cell.current, delta)
	return nil
}

// GetAggregatedValue returns the previous (committed) value of a named
// aggregator: the value merged from all contributions in the prior
// superstep, or the reducer's identity for superstep 0 (property P4).
func (r *AggregatorRegistry) GetAggregatedValue(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.cells[name]
	if !ok {
		return nil, fmt.Errorf("pregel: aggregator %q not registered", name)
	}
	return cell.previous, nil
}

// SetAggregatedValue overrides a named aggregator's previous value,
// exposed to the master program between supersteps (spec §4.3, §6
// "cb.setAggregatedValue"). The override is observed by all workers in
// the following superstep once the merged value is distributed.
func (r *AggregatorRegistry) SetAggregatedValue(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.cells[name]
	if !ok {
		return fmt.Errorf("pregel: aggregator %q not registered", name)
	}
	cell.previous = value
	return nil
}

// CurrentSnapshot returns a copy of every aggregator's current (in-progress)
// accumulator, to be written to aggregates/<N>/<wid> at the end of a
// worker's SEND phase (spec §4.3 step a).
func (r *AggregatorRegistry) CurrentSnapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]any, len(r.cells))
	for name, cell := range r.cells {
		out[name] = cell.current
	}
	return out
}

// CommitMerged applies the master's globally-reduced values as the new
// previous snapshot for every named aggregator (spec §4.3 step c), and
// resets non-persistent current cells back to identity (step d).
func (r *AggregatorRegistry) CommitMerged(merged map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, cell := range r.cells {
		if v, ok := merged[name]; ok {
			cell.previous = v
		}
		if !cell.persistent {
			cell.current = cell.reducer.Identity()
		}
	}
}

// Names returns every registered aggregator name, used by the master
// program to know which names to reduce each superstep.
func (r *AggregatorRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.cells))
	for name := range r.cells {
		names = append(names, name)
	}
	return names
}

// ReducerFor returns the reducer registered under name, used by the master
// to fold per-worker contributions together.
func (r *AggregatorRegistry) ReducerFor(name string) (Reducer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.cells[name]
	if !ok {
		return nil, false
	}
	return cell.reducer, true
}
