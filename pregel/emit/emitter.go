package emit

import "context"

// Emitter receives and processes observability events from a worker's
// superstep execution.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down barrier progression.
//   - Thread-safe: may be called concurrently from multiple goroutines
//     within a worker (compute pool, router, barrier watcher).
//   - Resilient: handle failures gracefully (don't abort the job).
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	// Emit should not block the superstep loop and should not panic;
	// errors are logged internally by the implementation.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are sent to the backend. Safe to
	// call multiple times.
	Flush(ctx context.Context) error
}
