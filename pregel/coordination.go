package pregel

import "context"

// CreateMode controls the lifecycle of a node created through
// CoordinationStore.Create, mirroring the hierarchical ephemeral-node
// semantics spec §1 requires of the external coordination service.
type CreateMode int

const (
	// ModePersistent nodes survive the creating session.
	ModePersistent CreateMode = iota

	// ModeEphemeral nodes are removed automatically when the creating
	// session ends (used for group/<wid> membership markers, spec §3).
	ModeEphemeral

	// ModeEphemeralSequential nodes are ephemeral and the store appends a
	// monotonically increasing suffix to the requested path, used by
	// leader election under leader/ (spec §4.7).
	ModeEphemeralSequential
)

// TreeEventType classifies a change observed by SubscribeTree.
type TreeEventType int

const (
	// TreeEventChildrenChanged indicates the set of children under the
	// watched path changed (created or removed).
	TreeEventChildrenChanged TreeEventType = iota

	// TreeEventDataChanged indicates a node's data payload changed.
	TreeEventDataChanged

	// TreeEventSessionExpired indicates the underlying coordination
	// session was lost; per spec §7 this is always fatal.
	TreeEventSessionExpired
)

// TreeEvent is delivered on the channel returned by SubscribeTree.
type TreeEvent struct {
	Type TreeEventType
	Path string
	Err  error
}

// CoordinationStore (C1) is a thin wrapper over an external hierarchical,
// ephemeral-node-capable key-value tree with watches (spec §4.1). It is the
// only abstraction the barrier protocol, aggregator registry and worker
// lifecycle use to reach the outside world; everything else in this module
// operates on values.
//
// Implementations must:
//   - make Delete idempotent: a missing node is not an error.
//   - retry transient errors with bounded exponential backoff (base 1s,
//     cap 3 attempts by default) before surfacing them.
//   - treat a retried Delete as an unconditional delete of whatever node is
//     at path; neither implementation here uses a guaranteed-delete or
//     version-checked delete, so a retry can remove a node another writer
//     recreated in between.
//   - fail the job (return ErrSessionExpired) on session expiry rather
//     than retrying.
type CoordinationStore interface {
	// Create makes a node at path with the given data and lifecycle mode.
	// Returns the actual path created (relevant for ModeEphemeralSequential,
	// which appends a sequence suffix). Returns ErrAlreadyExists if the
	// node is already present and mode is not sequential.
	Create(ctx context.Context, path string, data []byte, mode CreateMode) (string, error)

	// Exists reports whether a node is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetData reads the data payload of the node at path.
	GetData(ctx context.Context, path string) ([]byte, error)

	// SetData overwrites the data payload of the node at path.
	SetData(ctx context.Context, path string, data []byte) error

	// Delete removes the node at path. Missing-node errors are swallowed:
	// deleting an absent node is a successful no-op (spec §7 kind 2).
	Delete(ctx context.Context, path string) error

	// Children returns the immediate child names of path, read from the
	// store on every call; no local cache of the tree is kept. An empty,
	// non-error result is returned for a path with no children.
	Children(ctx context.Context, path string) ([]string, error)

	// SubscribeTree registers for change notifications under path and its
	// descendants. The returned channel is closed when ctx is canceled.
	SubscribeTree(ctx context.Context, path string) (<-chan TreeEvent, error)
}

// JobRoot returns the job's root path under the fixed /kafka-graphs
// namespace (spec §6, bit-exact for interoperability).
func JobRoot(jobID string) string {
	return "/kafka-graphs/pregel-" + jobID
}
