package transport

import (
	"context"
	"testing"

	"github.com/kafka-graphs/pregel-go/pregel"
)

func TestMemory_PublishThenConsume(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	msg := pregel.WireMessage{JobID: "job-1", Superstep: 0, Partition: 1, Payload: []byte("abc")}
	if err := m.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := m.Consume(ctx, "job-1", 1)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(got) != 1 || string(got[0].Payload) != "abc" {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestMemory_Consume_DrainsSinceLastCall(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Publish(ctx, pregel.WireMessage{JobID: "job-1", Partition: 0, Payload: []byte("1")}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	first, err := m.Consume(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 message on first consume, got %d", len(first))
	}

	second, err := m.Consume(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected consume to have drained the partition, got %d leftover", len(second))
	}
}

func TestMemory_Consume_ScopedByJobAndPartition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Publish(ctx, pregel.WireMessage{JobID: "job-1", Partition: 0, Payload: []byte("a")}); err != nil {
		t.Fatalf("Publish job-1/0: %v", err)
	}
	if err := m.Publish(ctx, pregel.WireMessage{JobID: "job-1", Partition: 1, Payload: []byte("b")}); err != nil {
		t.Fatalf("Publish job-1/1: %v", err)
	}
	if err := m.Publish(ctx, pregel.WireMessage{JobID: "job-2", Partition: 0, Payload: []byte("c")}); err != nil {
		t.Fatalf("Publish job-2/0: %v", err)
	}

	got, err := m.Consume(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(got) != 1 || string(got[0].Payload) != "a" {
		t.Fatalf("expected only job-1/partition-0's message, got %+v", got)
	}

	gotOtherPartition, err := m.Consume(ctx, "job-1", 1)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(gotOtherPartition) != 1 || string(gotOtherPartition[0].Payload) != "b" {
		t.Fatalf("expected only job-1/partition-1's message, got %+v", gotOtherPartition)
	}

	gotOtherJob, err := m.Consume(ctx, "job-2", 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(gotOtherJob) != 1 || string(gotOtherJob[0].Payload) != "c" {
		t.Fatalf("expected only job-2's message, got %+v", gotOtherJob)
	}
}

func TestMemory_Consume_UnknownKeyReturnsNilNotError(t *testing.T) {
	m := NewMemory()
	got, err := m.Consume(context.Background(), "never-published", 7)
	if err != nil {
		t.Fatalf("expected no error for an unknown (job,partition), got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no messages, got %+v", got)
	}
}

func TestMemory_Publish_PreservesFIFOWithinPartition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := m.Publish(ctx, pregel.WireMessage{JobID: "job-1", Partition: 0, Payload: []byte{byte(i)}}); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}

	got, err := m.Consume(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	for i, msg := range got {
		if msg.Payload[0] != byte(i) {
			t.Fatalf("expected FIFO order, message %d had payload %v", i, msg.Payload)
		}
	}
}

var _ pregel.MessageTransport = (*Memory)(nil)
