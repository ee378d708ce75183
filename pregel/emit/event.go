// Package emit provides event emission and observability for a running
// Pregel worker, adapted from the graph engine's emit package: the same
// pluggable Emitter contract, re-keyed from (RunID, Step, NodeID) to
// (JobID, Superstep, Stage, WorkerID).
package emit

// Event represents an observability event emitted during superstep
// execution.
//
// Events provide detailed insight into worker behavior:
//   - Phase start/complete (SEND, RECEIVE)
//   - Barrier advancement
//   - Aggregator merges
//   - Errors and job aborts
type Event struct {
	// JobID identifies the Pregel job that emitted this event.
	JobID string

	// Superstep is the superstep number. -1 for pre-bootstrap events.
	Superstep int32

	// Stage is "snd", "rcv", or empty for job-level events.
	Stage string

	// WorkerID identifies which worker emitted this event. Empty for
	// master-only events.
	WorkerID string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": phase duration in milliseconds
	//   - "error": error details
	//   - "active_vertices": vertex count still running
	//   - "sent_messages": outbound message count this phase
	Meta map[string]interface{}
}
