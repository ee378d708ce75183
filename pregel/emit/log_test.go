package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextOutput(t *testing.T) {
	t.Run("emits event with all fields", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			JobID:     "job-001",
			Superstep: 1,
			Stage:     "snd",
			WorkerID:  "worker-0",
			Msg:       "snd_complete",
			Meta:      map[string]interface{}{"sent_messages": 42},
		})

		output := buf.String()
		for _, want := range []string{"job-001", "worker-0", "snd_complete", "stage=snd"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got: %s", want, output)
			}
		}
	})

	t.Run("emits multiple events on separate lines", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{JobID: "job-001", Superstep: 0, Msg: "snd_start"})
		emitter.Emit(Event{JobID: "job-001", Superstep: 0, Msg: "snd_complete"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines of output, got %d", len(lines))
		}
	})

	t.Run("defaults to stdout when writer is nil", func(t *testing.T) {
		emitter := NewLogEmitter(nil, false)
		if emitter.writer == nil {
			t.Fatal("expected LogEmitter to default writer to os.Stdout")
		}
	})
}

func TestLogEmitter_JSONFormatting(t *testing.T) {
	t.Run("emits valid JSON when JSON mode enabled", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, true)

		emitter.Emit(Event{
			JobID:     "job-002",
			Superstep: 2,
			Stage:     "rcv",
			WorkerID:  "worker-1",
			Msg:       "rcv_complete",
			Meta:      map[string]interface{}{"active_vertices": 7},
		})

		var parsed map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("expected valid JSON, got error: %v\noutput: %s", err, buf.String())
		}

		if parsed["jobID"] != "job-002" {
			t.Errorf("expected jobID 'job-002', got %v", parsed["jobID"])
		}
		if parsed["superstep"] != float64(2) {
			t.Errorf("expected superstep 2, got %v", parsed["superstep"])
		}
		if parsed["stage"] != "rcv" {
			t.Errorf("expected stage 'rcv', got %v", parsed["stage"])
		}
		meta, ok := parsed["meta"].(map[string]interface{})
		if !ok {
			t.Fatal("expected meta to be a map")
		}
		if meta["active_vertices"] != float64(7) {
			t.Errorf("expected active_vertices 7, got %v", meta["active_vertices"])
		}
	})

	t.Run("emits multiple JSON events as JSONL", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, true)

		emitter.Emit(Event{JobID: "job-001", Msg: "snd_start"})
		emitter.Emit(Event{JobID: "job-001", Msg: "snd_complete"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		for i, line := range lines {
			var parsed map[string]interface{}
			if err := json.Unmarshal([]byte(line), &parsed); err != nil {
				t.Errorf("line %d: expected valid JSON, got %v", i, err)
			}
		}
	})
}

func TestLogEmitter_EmitBatch(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	events := []Event{
		{JobID: "job-001", Msg: "a"},
		{JobID: "job-001", Msg: "b"},
		{JobID: "job-001", Msg: "c"},
	}
	if err := emitter.EmitBatch(nil, events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestLogEmitter_InterfaceContract(t *testing.T) {
	var buf bytes.Buffer
	var _ Emitter = NewLogEmitter(&buf, false)
}
