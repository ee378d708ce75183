package pregel

import (
	"errors"
	"strings"
	"testing"
)

func TestJobAbortedError_ErrorOrNil(t *testing.T) {
	j := NewJobAbortedError("job-1", "snd")
	if err := j.ErrorOrNil(); err != nil {
		t.Fatalf("expected nil before any failure recorded, got %v", err)
	}

	j.Add(errors.New("worker w0 lost"))
	if err := j.ErrorOrNil(); err == nil {
		t.Fatal("expected non-nil after recording a failure")
	}
}

func TestJobAbortedError_AddNilIsIgnored(t *testing.T) {
	j := NewJobAbortedError("job-1", "rcv")
	j.Add(nil)
	if j.HasErrors() {
		t.Fatal("expected Add(nil) to be a no-op")
	}
}

func TestJobAbortedError_AggregatesMultipleFailures(t *testing.T) {
	j := NewJobAbortedError("job-1", "snd")
	j.Add(errors.New("w0 lost"))
	j.Add(errors.New("w1 lost"))

	msg := j.Error()
	if !containsAll(msg, "job-1", "snd", "w0 lost", "w1 lost") {
		t.Fatalf("expected error message to reference job, phase and both causes, got: %s", msg)
	}
}

func TestJobAbortedError_Unwrap(t *testing.T) {
	cause := errors.New("session expired")
	j := NewJobAbortedError("job-1", "snd")
	j.Add(cause)

	if !errors.Is(j, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause via Unwrap")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
