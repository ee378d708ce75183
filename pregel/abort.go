package pregel

import (
	"context"
	"errors"
	"fmt"
)

// abortJob records cause as this worker's contribution to the job's abort
// reason, aggregates every worker's recorded reason into a JobAbortedError
// (spec §7 kind 3/4), and — on the leader only — tears down the
// coordination tree so no stale barrier state survives for other workers or
// a retry to trip over. Run routes its join, resume, init, send, receive
// and snapshot failures through it, and awaitBarrier routes group shrinkage
// and barrier-marker overflow through it. Every other error awaitBarrier
// returns (coordination reads and writes, the leader's master hook, session
// expiry while waiting) reaches Run's caller as it is, with no abort marker
// and no teardown.
func (w *Worker) abortJob(ctx context.Context, phase string, cause error) error {
	root := JobRoot(w.cfg.jobID)
	abortRoot := root + "/aborted"

	if err := w.createIdempotent(ctx, abortRoot, nil, ModePersistent); err == nil {
		_ = w.createIdempotent(ctx, abortRoot+"/"+w.cfg.workerID, []byte(cause.Error()), ModePersistent)
	}

	je := NewJobAbortedError(w.cfg.jobID, phase)
	if reasons, err := w.collectAbortReasons(ctx, root); err == nil && len(reasons) > 0 {
		for _, reason := range reasons {
			je.Add(errors.New(reason))
		}
	} else {
		je.Add(cause)
	}

	if w.isLeader {
		_ = w.teardown(ctx, root)
	}

	if out := je.ErrorOrNil(); out != nil {
		return out
	}
	return cause
}

// collectAbortReasons reads every worker's recorded failure reason under
// root+"/aborted", keyed by worker id.
func (w *Worker) collectAbortReasons(ctx context.Context, root string) (map[string]string, error) {
	abortRoot := root + "/aborted"
	children, err := w.coord.Children(ctx, abortRoot)
	if err != nil {
		return nil, fmt.Errorf("pregel: list abort reasons: %w", err)
	}
	reasons := make(map[string]string, len(children))
	for _, workerID := range children {
		data, err := w.coord.GetData(ctx, abortRoot+"/"+workerID)
		if err != nil {
			continue
		}
		reasons[workerID] = string(data)
	}
	return reasons, nil
}

// teardown recursively deletes path and every descendant, depth-first,
// since CoordinationStore.Delete only removes a single node. It is called
// only by the elected leader, so concurrent teardowns of the same tree
// never race.
func (w *Worker) teardown(ctx context.Context, path string) error {
	children, err := w.coord.Children(ctx, path)
	if err != nil {
		return fmt.Errorf("pregel: list children of %s for teardown: %w", path, err)
	}
	for _, c := range children {
		if err := w.teardown(ctx, path+"/"+c); err != nil {
			return err
		}
	}
	return w.coord.Delete(ctx, path)
}
