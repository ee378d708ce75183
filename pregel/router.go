package pregel

import (
	"context"
	"encoding/gob"
	"bytes"
	"fmt"
	"sync"
)

// Router (C4) partitions outbound messages by hash(destVertexId) mod P,
// ships them to the owning worker's inbound queue via a MessageTransport,
// and reduces inbound bags through a combiner when one is configured.
//
// A message sent in superstep N is delivered to the destination's compute
// call in superstep N+1, never later and never duplicated (spec §4.4).
type Router struct {
	jobID         string
	numPartitions int
	transport     MessageTransport
	combiner      Combiner

	mu      sync.Mutex
	outbox  map[int][]Msg // partition -> buffered outbound messages for this SEND phase
}

// NewRouter creates a Router for numPartitions over transport. combiner may
// be nil, in which case inbound bags preserve insertion order per source
// worker with no cross-source ordering guarantee (spec §4.4).
func NewRouter(jobID string, numPartitions int, transport MessageTransport, combiner Combiner) *Router {
	return &Router{
		jobID:         jobID,
		numPartitions: numPartitions,
		transport:     transport,
		combiner:      combiner,
		outbox:        make(map[int][]Msg),
	}
}

// Send buffers msg into the partition owning msg.Dest. Buffers remain
// until Flush is called at the end of the worker's SEND phase (spec §4.4).
// Self-messages are permitted.
func (r *Router) Send(msg Msg) {
	partition := Owner(msg.Dest, r.numPartitions)
	r.mu.Lock()
	r.outbox[partition] = append(r.outbox[partition], msg)
	r.mu.Unlock()
}

// Flush publishes every buffered partition batch to the transport and
// clears the outbox. Called once per worker at the end of its SEND phase.
func (r *Router) Flush(ctx context.Context, superstep int32) error {
	r.mu.Lock()
	batches := r.outbox
	r.outbox = make(map[int][]Msg)
	r.mu.Unlock()

	for partition, msgs := range batches {
		payload, err := encodeMsgs(msgs)
		if err != nil {
			return fmt.Errorf("pregel: serialize message batch for partition %d: %w", partition, err)
		}
		wire := WireMessage{
			JobID:     r.jobID,
			Superstep: superstep,
			Partition: partition,
			Payload:   payload,
		}
		if err := r.transport.Publish(ctx, wire); err != nil {
			return fmt.Errorf("pregel: publish to partition %d: %w", partition, err)
		}
	}
	return nil
}

// Drain reads every message durably published to partition for the
// current job and delivers it into store, creating emergent vertices as
// needed and combining bags for a shared destination when a combiner is
// configured. Called once per worker during its RECEIVE phase (spec §4.4,
// §4.6 step 5).
func (r *Router) Drain(ctx context.Context, partition int, store *VertexStore) error {
	wires, err := r.transport.Consume(ctx, r.jobID, partition)
	if err != nil {
		return fmt.Errorf("pregel: consume partition %d: %w", partition, err)
	}

	if r.combiner == nil {
		for _, w := range wires {
			msgs, err := decodeMsgs(w.Payload)
			if err != nil {
				return fmt.Errorf("pregel: deserialize message batch from partition %d: %w", partition, err)
			}
			for _, m := range msgs {
				store.DeliverMessage(m)
			}
		}
		return nil
	}

	combined := make(map[VID]Msg)
	order := make([]VID, 0)
	for _, w := range wires {
		msgs, err := decodeMsgs(w.Payload)
		if err != nil {
			return fmt.Errorf("pregel: deserialize message batch from partition %d: %w", partition, err)
		}
		for _, m := range msgs {
			if existing, ok := combined[m.Dest]; ok {
				existing.Value = r.combiner.Combine(existing.Value, m.Value)
				combined[m.Dest] = existing
			} else {
				combined[m.Dest] = m
				order = append(order, m.Dest)
			}
		}
	}
	for _, dest := range order {
		store.DeliverMessage(combined[dest])
	}
	return nil
}

// encodeMsgs/decodeMsgs use encoding/gob, matching the serialization
// approach the teacher's checkpointing favors (JSON) generalized to gob
// here because Msg.Value is an opaque interface{} that algorithms may
// register concrete types for via gob.Register; this mirrors how graph
// loading and user-type serialization are explicitly out of this module's
// scope (spec §1) and left to the caller to wire a concrete codec for.
func encodeMsgs(msgs []Msg) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msgs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeMsgs(data []byte) ([]Msg, error) {
	var msgs []Msg
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
