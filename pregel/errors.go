package pregel

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrNotFound is returned by CoordinationStore.GetData and SetData when no
// node exists at the path. Delete never returns it: deleting a missing node
// is a successful no-op. See spec §7, error kind 2.
var ErrNotFound = errors.New("pregel: coordination node not found")

// ErrAlreadyExists is returned by Create when the node is already present.
// Idempotent callers (barrier ready markers, group registration) swallow
// this rather than treating it as failure.
var ErrAlreadyExists = errors.New("pregel: coordination node already exists")

// ErrSessionExpired indicates the coordination client's session expired.
// Per spec §7 kind 3 this is fatal: the job is aborted and must be
// restarted, since mid-superstep recovery is out of scope.
var ErrSessionExpired = errors.New("pregel: coordination session expired")

// ErrGroupShrunk indicates a worker's ephemeral group membership node
// disappeared, meaning the worker was lost. Per spec §3 "Lifecycles" this
// is always fatal for the job.
var ErrGroupShrunk = errors.New("pregel: worker group shrank, job aborted")

// ErrInvariantViolated indicates a barrier invariant (B1/B2/B3) was
// observed broken. awaitBarrier checks one such case, a barrier subtree
// with more markers than the group size; it also returns this error when
// the job's abort marker exists but no worker's abort reason can be read.
var ErrInvariantViolated = errors.New("pregel: barrier invariant violated")

// ErrMasterHalt is not a failure: it signals the master program called
// haltComputation() and the job should terminate cleanly at the next
// barrier crossing (spec §7 kind 6).
var ErrMasterHalt = errors.New("pregel: master signaled halt")

// JobAbortedError wraps the set of worker/vertex-program failures that
// caused a job to abort (spec §7 kind 3/4). Unlike a single wrapped error,
// a multierror lets the controller report every worker that failed during
// the same barrier round instead of only the first one observed, which
// matters when several workers are lost in the same superstep.
type JobAbortedError struct {
	JobID   string
	Phase   string
	errs    *multierror.Error
}

// NewJobAbortedError creates an empty aggregator for a job's abort reason.
func NewJobAbortedError(jobID, phase string) *JobAbortedError {
	return &JobAbortedError{JobID: jobID, Phase: phase, errs: &multierror.Error{}}
}

// Add appends a contributing failure. Nil errors are ignored so callers can
// pass the result of a fallible operation directly.
func (j *JobAbortedError) Add(err error) {
	if err == nil {
		return
	}
	j.errs = multierror.Append(j.errs, err)
}

// HasErrors reports whether any failure has been recorded.
func (j *JobAbortedError) HasErrors() bool {
	return j.errs.Len() > 0
}

// Unwrap exposes the underlying multierror so errors.Is/As work against
// individual contributing causes.
func (j *JobAbortedError) Unwrap() error {
	return j.errs.ErrorOrNil()
}

func (j *JobAbortedError) Error() string {
	return fmt.Sprintf("pregel: job %s aborted during %s: %s", j.JobID, j.Phase, j.errs.Error())
}

// ErrorOrNil returns nil if no failures were recorded, or the
// *JobAbortedError itself otherwise. Mirrors multierror.Error.ErrorOrNil so
// callers can unconditionally build the aggregator and check it once at the
// end of a barrier round.
func (j *JobAbortedError) ErrorOrNil() error {
	if j == nil || !j.HasErrors() {
		return nil
	}
	return j
}
