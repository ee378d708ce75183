// Package store provides optional vertex-state persistence for a Pregel
// job (spec §1 "optional fault-tolerance/checkpointing", out of the core
// module's scope but a natural extension point), adapted from the graph
// engine's Store[S] persistence layer (graph/store/store.go) down to the
// single concern this domain needs: snapshotting a worker's vertex values
// between supersteps so a crashed worker can resume without replaying from
// scratch.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a requested job has no persisted snapshot.
var ErrNotFound = errors.New("pregel/store: not found")

// VertexRecord is the persisted form of one vertex: its value and edges
// serialized as JSON (the caller owns the concrete type, spec §1 "graph
// loading... out of this module's scope").
type VertexRecord struct {
	ID     string
	Value  json.RawMessage
	Edges  json.RawMessage
	Halted bool
}

// VertexPersister (D5) snapshots a worker's vertex store at superstep
// boundaries and restores it on resume. Implementations need not be
// transactional across workers: each worker's snapshot is independent,
// keyed by (jobID, workerID). Each save replaces the previous snapshot
// for that key and records the superstep it was taken at.
type VertexPersister interface {
	// SaveSnapshot persists vertices as the complete state for
	// (jobID, workerID) as of the end of superstep.
	SaveSnapshot(ctx context.Context, jobID, workerID string, superstep int32, vertices []VertexRecord) error

	// LoadLatestSnapshot returns the most recently saved snapshot for
	// (jobID, workerID) and the superstep it was taken at. Returns
	// ErrNotFound if none exists.
	LoadLatestSnapshot(ctx context.Context, jobID, workerID string) ([]VertexRecord, int32, error)
}
