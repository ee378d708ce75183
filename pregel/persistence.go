package pregel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kafka-graphs/pregel-go/pregel/store"
)

// resumeFromSnapshot loads this worker's latest persisted snapshot, if a
// persister is installed and one exists, and installs it into the vertex
// store before the first superstep runs. A missing snapshot (a fresh job,
// or one with no persister) is not an error: the worker simply starts from
// whatever LoadVertex already populated.
func (w *Worker) resumeFromSnapshot(ctx context.Context) error {
	if w.persister == nil {
		return nil
	}
	records, superstep, err := w.persister.LoadLatestSnapshot(ctx, w.cfg.jobID, w.cfg.workerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("pregel: load snapshot: %w", err)
	}
	for _, rec := range records {
		var value any
		if err := json.Unmarshal(rec.Value, &value); err != nil {
			return fmt.Errorf("pregel: decode snapshot value for %s: %w", rec.ID, err)
		}
		var edges []Edge
		if err := json.Unmarshal(rec.Edges, &edges); err != nil {
			return fmt.Errorf("pregel: decode snapshot edges for %s: %w", rec.ID, err)
		}
		w.store.Upsert(rec.ID, value)
		w.store.SetEdges(rec.ID, edges)
		if rec.Halted {
			w.store.StageVoteHalt(rec.ID)
		}
	}
	w.store.ApplyStaged()
	w.emit(PregelState{Superstep: superstep}, "resumed_from_snapshot", 0)
	return nil
}

// saveSnapshot persists this worker's complete vertex store as of the end
// of superstep, when a persister is installed. It is called once per
// RECEIVE phase (spec §4.6 step 5 is the natural superstep boundary: vertex
// state is quiescent between the inbox drain and the next compute pass).
func (w *Worker) saveSnapshot(ctx context.Context, superstep int32) error {
	if w.persister == nil {
		return nil
	}
	records, err := w.snapshotVertices()
	if err != nil {
		return fmt.Errorf("pregel: build snapshot: %w", err)
	}
	if err := w.persister.SaveSnapshot(ctx, w.cfg.jobID, w.cfg.workerID, superstep, records); err != nil {
		return fmt.Errorf("pregel: save snapshot: %w", err)
	}
	return nil
}

// snapshotVertices serializes every vertex this worker currently owns into
// the persister's portable (value, edges) JSON form.
func (w *Worker) snapshotVertices() ([]store.VertexRecord, error) {
	ids := w.store.IDs()
	records := make([]store.VertexRecord, 0, len(ids))
	for _, id := range ids {
		view, ok := w.store.View(id)
		if !ok {
			continue
		}
		value, err := json.Marshal(view.Value)
		if err != nil {
			return nil, fmt.Errorf("encode value for %s: %w", id, err)
		}
		edges, err := json.Marshal(view.Edges)
		if err != nil {
			return nil, fmt.Errorf("encode edges for %s: %w", id, err)
		}
		records = append(records, store.VertexRecord{
			ID:     id,
			Value:  value,
			Edges:  edges,
			Halted: view.Halted,
		})
	}
	return records, nil
}
