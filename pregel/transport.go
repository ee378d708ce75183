package pregel

import "context"

// WireMessage is the transport-level envelope for a batch of vertex
// messages bound for one destination partition. Publish is expected to be
// async with a durable ack; each partition preserves per-producer FIFO
// (spec §6 "Message transport contract").
type WireMessage struct {
	JobID     string
	Superstep int32
	Partition int
	Payload   []byte // caller-serialized batch of Msg values
}

// MessageTransport (C4 outbound/inbound path) is the external,
// partitioned, per-partition-ordered log this module treats as a reliable
// collaborator (spec §1 "out of scope"). The core never duplicates within
// a session; if the underlying transport can duplicate, reducers and
// combiners must be idempotent (spec §6).
type MessageTransport interface {
	// Publish durably appends msg to its partition's log. It returns once
	// the transport acknowledges durability, not merely local enqueue.
	Publish(ctx context.Context, msg WireMessage) error

	// Consume returns every message durably published to partition since
	// the last call for that (jobID, partition), or nil if none are
	// available. Implementations preserve per-producer FIFO within a
	// partition but make no cross-producer ordering guarantee, matching
	// spec §4.4's "no cross-source ordering guarantee".
	Consume(ctx context.Context, jobID string, partition int) ([]WireMessage, error)
}
