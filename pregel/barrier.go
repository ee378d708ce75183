package pregel

import "fmt"

// Phase names the two barrier subtrees under barriers/, matching the
// bit-exact path layout in spec §3 ("snd-<N>" / "rcv-<N>").
type Phase string

const (
	PhaseSend    Phase = "snd"
	PhaseReceive Phase = "rcv"
)

// BarrierPath returns the subtree path for a given phase and superstep,
// e.g. "barriers/snd-3".
func BarrierPath(phase Phase, step int32) string {
	return fmt.Sprintf("barriers/%s-%d", phase, step)
}

// ReadyPath returns the path of a phase's "may begin" marker.
func ReadyPath(phase Phase, step int32) string {
	return BarrierPath(phase, step) + "/ready"
}

// AggregatesPath returns the per-superstep aggregate contribution subtree.
func AggregatesPath(step int32) string {
	return fmt.Sprintf("aggregates/%d", step)
}

// IdlePath returns the subtree under a RECEIVE phase where a worker
// reports having no active vertex and no pending message anywhere in its
// local store once that phase finishes. All groupSize workers reporting
// idle for the same superstep is this module's global termination signal
// (spec §4.6 step 6, property P5), checked here rather than by inspecting
// the next SEND phase's barrier subtree, which has no entries until a
// worker actually enters it.
func IdlePath(step int32) string {
	return BarrierPath(PhaseReceive, step) + "/idle"
}

// TreeView is a read-only snapshot of the barrier-relevant portion of the
// coordination tree, expressed purely in terms of "what children does this
// path have". The barrier protocol (C2) is defined as pure functions over
// TreeView rather than over a live CoordinationStore so that:
//   - maybeReadyToSend/maybeReadyToReceive are trivially unit-testable,
//   - a watch callback can re-evaluate the barrier on every tree change
//     without performing its own I/O,
//   - the §8 property tests can feed synthetic trees directly.
type TreeView interface {
	// Exists reports whether path has been created at all (distinct from
	// having zero children).
	Exists(path string) bool

	// Children returns the immediate child names of path, or nil if path
	// does not exist.
	Children(path string) []string
}

// MapTreeView is an in-memory TreeView backed by a plain map, used by
// tests and by the in-process coordination mock (pregel/coord).
type MapTreeView map[string][]string

func (m MapTreeView) Exists(path string) bool {
	_, ok := m[path]
	return ok
}

func (m MapTreeView) Children(path string) []string {
	return m[path]
}

// nonReadyChildren returns the children of path excluding the "ready"
// marker itself, which lives alongside the per-worker markers in the same
// subtree (spec §3 barrier tree layout).
func nonReadyChildren(view TreeView, path string) []string {
	children := view.Children(path)
	out := make([]string, 0, len(children))
	for _, c := range children {
		if c != "ready" {
			out = append(out, c)
		}
	}
	return out
}

// ActionKind enumerates the single idempotent tree write the barrier
// functions may request of the caller. Keeping MaybeReadyToSend/Receive
// free of direct I/O is what makes them pure and safe to call repeatedly
// from a watch callback (spec §4.2 "monotonic... retries and spurious
// watch fires safe").
type ActionKind int

const (
	// ActionCreateReady requests that Path be created, idempotently, as
	// the "may begin" marker for the next phase.
	ActionCreateReady ActionKind = iota
)

// Action is a single side effect the caller must apply against the
// CoordinationStore before the returned state can be considered final.
type Action struct {
	Kind ActionKind
	Path string
}

// MaybeReadyToSend computes the next PregelState from the RECEIVE stage of
// superstep N (spec §4.2). It is monotonic: called repeatedly against an
// unchanged view it returns the same state and no further actions; called
// against a view that has since advanced, it returns a state that is
// greater than or equal to its input in the (superstep, stage) order
// (property P1).
func MaybeReadyToSend(state PregelState, view TreeView, groupSize int) (PregelState, []Action) {
	if state.Status == StatusCompleted {
		return state, nil
	}
	if state.Superstep < 0 {
		// Bootstrap path: unconditionally advance regardless of tree
		// contents (spec §4.2 edge case).
		return state.Next(), nil
	}
	n := state.Superstep
	received := nonReadyChildren(view, BarrierPath(PhaseReceive, n))
	if len(received) < groupSize {
		return state, nil // not all workers have finished RECEIVE(n) yet
	}

	idle := view.Children(IdlePath(n))
	if len(idle) >= groupSize {
		// Every worker finished RECEIVE(n) with no active vertex and no
		// pending message anywhere in its local store: the computation is
		// globally quiescent. Terminate rather than advance into a SEND
		// phase nobody has any work left to run (property P5).
		return state.Completed(), nil
	}

	return state.Next(), []Action{{Kind: ActionCreateReady, Path: ReadyPath(PhaseSend, n+1)}}
}

// MaybeReadyToReceive computes the next PregelState from the SEND stage of
// superstep N (spec §4.2).
func MaybeReadyToReceive(state PregelState, view TreeView, groupSize int) (PregelState, []Action) {
	if state.Status == StatusCompleted {
		return state, nil
	}
	if state.Superstep < 0 {
		return state.Next(), nil
	}
	n := state.Superstep
	sent := nonReadyChildren(view, BarrierPath(PhaseSend, n))
	if len(sent) < groupSize {
		return state, nil // not all workers have finished SEND(n) yet
	}

	// Whether or not any worker actually produced outbound traffic this
	// phase (len(sent) accounts for "finished", not "sent something"),
	// the RECEIVE phase must still run so vertices observe zero pending
	// messages and can vote to halt. Create rcv-n/ready and advance.
	return state.Next(), []Action{{Kind: ActionCreateReady, Path: ReadyPath(PhaseReceive, n)}}
}

// MaybeReady dispatches to MaybeReadyToSend or MaybeReadyToReceive based on
// the state's current stage, matching the state-machine sketch in spec
// §4.2: "at each tree change: compute next state via C2".
func MaybeReady(state PregelState, view TreeView, groupSize int) (PregelState, []Action) {
	if state.Stage == StageReceive {
		return MaybeReadyToSend(state, view, groupSize)
	}
	return MaybeReadyToReceive(state, view, groupSize)
}
