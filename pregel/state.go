// Package pregel implements a distributed bulk-synchronous-parallel (BSP)
// graph computation engine in the Pregel family: a directed graph is
// partitioned across worker processes and driven through a sequence of
// numbered supersteps by a user-supplied vertex program.
package pregel

import "fmt"

// Stage is the sub-phase within a superstep: SEND separates "compute and
// emit" from RECEIVE's "drain and deliver".
type Stage int

const (
	// StageSend is the phase in which owned vertices run their compute
	// callback and outbound messages/edge mutations/aggregator deltas are
	// produced and flushed to peer workers.
	StageSend Stage = iota

	// StageReceive is the phase in which a worker drains its inbound
	// partitioned message queues into per-vertex message bags for the
	// next SEND phase.
	StageReceive
)

func (s Stage) String() string {
	switch s {
	case StageSend:
		return "snd"
	case StageReceive:
		return "rcv"
	default:
		return "unknown"
	}
}

// rank gives the lexicographic ordering of a stage within a superstep: SEND
// precedes RECEIVE of the same superstep, which precedes SEND of the next.
func (s Stage) rank() int {
	if s == StageSend {
		return 0
	}
	return 1
}

// Status is the worker's view of overall job progress.
type Status int

const (
	// StatusCreated is the state before a worker has joined the group.
	StatusCreated Status = iota

	// StatusRunning is the normal operating state once the worker has
	// joined the group and begun executing supersteps.
	StatusRunning

	// StatusCompleted is the terminal state: all vertices are halted and
	// no messages are in flight, the master signaled halt, or the
	// iteration bound was exceeded.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusRunning:
		return "RUNNING"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// PregelState is the tuple (superstep, stage, status) that a worker advances
// through the barrier protocol (C2). It is a plain value type so it can be
// compared, logged and fed to the pure barrier functions without touching
// the coordination tree.
type PregelState struct {
	Superstep int32
	Stage     Stage
	Status    Status
}

// InitialState returns the bootstrap state every worker starts in:
// (-1, RECEIVE, CREATED).
func InitialState() PregelState {
	return PregelState{Superstep: -1, Stage: StageReceive, Status: StatusCreated}
}

// Next toggles the stage, incrementing the superstep counter when moving
// from RECEIVE to SEND of the following superstep. Within a superstep, SEND
// always precedes RECEIVE of the same N; RECEIVE(N) is followed by SEND(N+1).
//
// Applying Next to the bootstrap state (-1, RECEIVE, CREATED) yields
// (0, SEND, RUNNING) — the first real compute phase. This resolves the
// ordering ambiguity noted in spec §9 in favor of the worked example in
// §4.2 ("return state.next() (advances to (N+1, SEND))"), which is the
// more specific of the two descriptions; see DESIGN.md.
func (s PregelState) Next() PregelState {
	next := s
	if s.Stage == StageSend {
		next.Stage = StageReceive
	} else {
		next.Stage = StageSend
		next.Superstep++
	}
	if next.Status != StatusCompleted {
		next.Status = StatusRunning
	}
	return next
}

// Completed returns a copy of s with Status set to COMPLETED, leaving
// Superstep and Stage untouched so the final values remain inspectable.
func (s PregelState) Completed() PregelState {
	c := s
	c.Status = StatusCompleted
	return c
}

// Compare orders two states lexicographically by (superstep, stage), with
// COMPLETED treated as terminal and therefore never less than any running
// state; any two COMPLETED states compare equal. It returns -1, 0 or 1,
// matching sort.Compare conventions.
//
// This is the ordering used by property P1 (barrier monotonicity): the
// state returned by repeated application of maybeReadyToSend/
// maybeReadyToReceive must never compare less than its input.
func (a PregelState) Compare(b PregelState) int {
	if a.Status == StatusCompleted && b.Status == StatusCompleted {
		return 0
	}
	if a.Status == StatusCompleted && b.Status != StatusCompleted {
		return 1
	}
	if b.Status == StatusCompleted && a.Status != StatusCompleted {
		return -1
	}
	if a.Superstep != b.Superstep {
		if a.Superstep < b.Superstep {
			return -1
		}
		return 1
	}
	if a.Stage.rank() != b.Stage.rank() {
		if a.Stage.rank() < b.Stage.rank() {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether a strictly precedes b in the (superstep, stage, status) order.
func (a PregelState) Less(b PregelState) bool {
	return a.Compare(b) < 0
}

func (s PregelState) String() string {
	return fmt.Sprintf("(%d,%s,%s)", s.Superstep, s.Stage, s.Status)
}
