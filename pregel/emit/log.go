package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured log output to a
// writer, in text or JSONL mode.
//
// Example text output:
//
//	[snd_complete] jobID=job-1 superstep=3 stage=snd workerID=w-0
//
// Example JSON output:
//
//	{"jobID":"job-1","superstep":3,"stage":"snd","workerID":"w-0","msg":"snd_complete","meta":null}
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (os.Stdout if nil).
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		JobID     string                 `json:"jobID"`
		Superstep int32                  `json:"superstep"`
		Stage     string                 `json:"stage"`
		WorkerID  string                 `json:"workerID"`
		Msg       string                 `json:"msg"`
		Meta      map[string]interface{} `json:"meta"`
	}{event.JobID, event.Superstep, event.Stage, event.WorkerID, event.Msg, event.Meta})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] jobID=%s superstep=%d stage=%s workerID=%s",
		event.Msg, event.JobID, event.Superstep, event.Stage, event.WorkerID)
	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(event.Meta)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes each event in order through Emit, one line per event;
// JSON mode writes JSONL.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes synchronously with no internal
// buffering. Wrap writer in a bufio.Writer and flush that directly if
// buffering is needed.
func (l *LogEmitter) Flush(context.Context) error {
	return nil
}
