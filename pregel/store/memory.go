package store

import (
	"context"
	"sync"
)

// Memory is an in-process VertexPersister, used by tests and single-run
// jobs that don't need cross-process durability.
type Memory struct {
	mu    sync.RWMutex
	byKey map[string]snapshot
}

type snapshot struct {
	superstep int32
	vertices  []VertexRecord
}

// NewMemory returns an empty in-process persister.
func NewMemory() *Memory {
	return &Memory{byKey: make(map[string]snapshot)}
}

func memKey(jobID, workerID string) string { return jobID + "/" + workerID }

func (m *Memory) SaveSnapshot(_ context.Context, jobID, workerID string, superstep int32, vertices []VertexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]VertexRecord, len(vertices))
	copy(cp, vertices)
	m.byKey[memKey(jobID, workerID)] = snapshot{superstep: superstep, vertices: cp}
	return nil
}

func (m *Memory) LoadLatestSnapshot(_ context.Context, jobID, workerID string) ([]VertexRecord, int32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.byKey[memKey(jobID, workerID)]
	if !ok {
		return nil, 0, ErrNotFound
	}
	out := make([]VertexRecord, len(snap.vertices))
	copy(out, snap.vertices)
	return out, snap.superstep, nil
}

var _ VertexPersister = (*Memory)(nil)
