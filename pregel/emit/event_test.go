package emit

import "testing"

func TestEvent_Struct(t *testing.T) {
	t.Run("complete event with all fields", func(t *testing.T) {
		event := Event{
			JobID:     "job-001",
			Superstep: 3,
			Stage:     "snd",
			WorkerID:  "worker-0",
			Msg:       "send phase complete",
			Meta:      map[string]interface{}{"duration_ms": 125},
		}

		if event.JobID != "job-001" {
			t.Errorf("expected JobID = 'job-001', got %q", event.JobID)
		}
		if event.Superstep != 3 {
			t.Errorf("expected Superstep = 3, got %d", event.Superstep)
		}
		if event.Stage != "snd" {
			t.Errorf("expected Stage = 'snd', got %q", event.Stage)
		}
		if event.WorkerID != "worker-0" {
			t.Errorf("expected WorkerID = 'worker-0', got %q", event.WorkerID)
		}
		if event.Meta["duration_ms"] != 125 {
			t.Errorf("expected Meta['duration_ms'] = 125, got %v", event.Meta["duration_ms"])
		}
	})

	t.Run("minimal event", func(t *testing.T) {
		event := Event{JobID: "job-002", Msg: "started"}

		if event.Superstep != 0 {
			t.Errorf("expected Superstep = 0 (zero value), got %d", event.Superstep)
		}
		if event.Stage != "" {
			t.Errorf("expected Stage = \"\" (zero value), got %q", event.Stage)
		}
		if event.WorkerID != "" {
			t.Errorf("expected WorkerID = \"\" (zero value), got %q", event.WorkerID)
		}
		if event.Meta != nil {
			t.Error("expected Meta = nil (zero value)")
		}
	})

	t.Run("master-level event has no worker", func(t *testing.T) {
		event := Event{
			JobID:     "job-003",
			Superstep: 1,
			Msg:       "aggregator merge complete",
			Meta:      map[string]interface{}{"reducer_count": 2},
		}

		if event.WorkerID != "" {
			t.Errorf("expected master event to have empty WorkerID, got %q", event.WorkerID)
		}
		if event.Meta["reducer_count"] != 2 {
			t.Errorf("expected reducer_count = 2, got %v", event.Meta["reducer_count"])
		}
	})

	t.Run("zero value event", func(t *testing.T) {
		var event Event

		if event.JobID != "" || event.Superstep != 0 || event.Stage != "" || event.WorkerID != "" || event.Msg != "" {
			t.Error("expected all string/int fields to be zero value")
		}
		if event.Meta != nil {
			t.Error("expected zero value Meta to be nil")
		}
	})
}

func TestEvent_PreBootstrapSuperstep(t *testing.T) {
	// Superstep is documented as -1 for pre-bootstrap events (e.g. Join).
	event := Event{JobID: "job-004", Superstep: -1, Msg: "joined group"}
	if event.Superstep != -1 {
		t.Errorf("expected Superstep = -1, got %d", event.Superstep)
	}
}
