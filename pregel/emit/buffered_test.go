package emit

import "testing"

func TestBufferedEmitter_StoresEvents(t *testing.T) {
	t.Run("stores single event", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		emitter.Emit(Event{JobID: "job-001", Superstep: 1, WorkerID: "w0", Msg: "snd_start"})

		history := emitter.GetHistory("job-001")
		if len(history) != 1 {
			t.Fatalf("expected 1 event, got %d", len(history))
		}
		if history[0].WorkerID != "w0" {
			t.Errorf("expected WorkerID = 'w0', got %q", history[0].WorkerID)
		}
	})

	t.Run("stores multiple events", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		events := []Event{
			{JobID: "job-001", Superstep: 0, WorkerID: "w0", Msg: "snd_start"},
			{JobID: "job-001", Superstep: 0, WorkerID: "w0", Msg: "snd_complete"},
			{JobID: "job-001", Superstep: 1, WorkerID: "w0", Msg: "rcv_start"},
		}
		for _, e := range events {
			emitter.Emit(e)
		}

		history := emitter.GetHistory("job-001")
		if len(history) != 3 {
			t.Fatalf("expected 3 events, got %d", len(history))
		}
	})

	t.Run("isolates events by jobID", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		emitter.Emit(Event{JobID: "job-001", Msg: "event1"})
		emitter.Emit(Event{JobID: "job-002", Msg: "event2"})
		emitter.Emit(Event{JobID: "job-001", Msg: "event3"})

		history1 := emitter.GetHistory("job-001")
		history2 := emitter.GetHistory("job-002")

		if len(history1) != 2 {
			t.Errorf("expected 2 events for job-001, got %d", len(history1))
		}
		if len(history2) != 1 {
			t.Errorf("expected 1 event for job-002, got %d", len(history2))
		}
	})

	t.Run("unknown jobID returns empty slice", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		history := emitter.GetHistory("missing")
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d events", len(history))
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		emitter.Emit(Event{JobID: "job-001", Msg: "event1"})

		history := emitter.GetHistory("job-001")
		history[0].Msg = "mutated"

		fresh := emitter.GetHistory("job-001")
		if fresh[0].Msg != "event1" {
			t.Errorf("GetHistory leaked internal slice, expected 'event1', got %q", fresh[0].Msg)
		}
	})

	t.Run("clear discards events for a job", func(t *testing.T) {
		emitter := NewBufferedEmitter()
		emitter.Emit(Event{JobID: "job-001", Msg: "event1"})
		emitter.Clear("job-001")

		if got := emitter.GetHistory("job-001"); len(got) != 0 {
			t.Errorf("expected history cleared, got %d events", len(got))
		}
	})
}

func TestBufferedEmitter_EmitBatch(t *testing.T) {
	emitter := NewBufferedEmitter()
	events := []Event{
		{JobID: "job-001", Msg: "a"},
		{JobID: "job-001", Msg: "b"},
	}
	if err := emitter.EmitBatch(nil, events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}
	if got := emitter.GetHistory("job-001"); len(got) != 2 {
		t.Errorf("expected 2 events, got %d", len(got))
	}
}

func TestBufferedEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = NewBufferedEmitter()
}
