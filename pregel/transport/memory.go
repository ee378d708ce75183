// Package transport provides MessageTransport (pregel.C4) implementations:
// an in-process queue for tests and single-machine runs, and a Kafka
// backend matching the spec's Kafka-Streams-derived message log contract.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/kafka-graphs/pregel-go/pregel"
)

// Memory is an in-process MessageTransport: a set of per-(job,partition)
// queues guarded by a mutex. Consume returns and clears
// whatever has accumulated for that key, mirroring Kafka's
// read-then-commit semantics closely enough for single-process tests.
type Memory struct {
	mu    sync.Mutex
	boxes map[string][]pregel.WireMessage
}

// NewMemory returns an empty in-process transport.
func NewMemory() *Memory {
	return &Memory{boxes: make(map[string][]pregel.WireMessage)}
}

// key is scoped to (jobID, partition) only, deliberately excluding
// superstep: Consume drains whatever has accumulated for a partition since
// the last call, matching the at-least-one-barrier-per-call usage pattern
// in pregel.Router.Drain rather than requiring the caller to know in
// advance which superstep's messages it's collecting.
func key(jobID string, partition int) string {
	return fmt.Sprintf("%s/%d", jobID, partition)
}

func (m *Memory) Publish(_ context.Context, msg pregel.WireMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(msg.JobID, msg.Partition)
	m.boxes[k] = append(m.boxes[k], msg)
	return nil
}

// Consume returns and clears every message published for jobID/partition
// since the last call.
func (m *Memory) Consume(_ context.Context, jobID string, partition int) ([]pregel.WireMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(jobID, partition)
	out := m.boxes[k]
	delete(m.boxes, k)
	return out, nil
}

var _ pregel.MessageTransport = (*Memory)(nil)
