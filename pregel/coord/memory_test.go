package coord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kafka-graphs/pregel-go/pregel"
)

func TestMemory_CreateAndExists(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Create(ctx, "/kafka-graphs/pregel-j1", nil, pregel.ModePersistent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := m.Exists(ctx, "/kafka-graphs/pregel-j1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatal("expected node to exist after Create")
	}

	ok, err = m.Exists(ctx, "/kafka-graphs/pregel-unknown")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("expected unknown path to not exist")
	}
}

func TestMemory_CreateDuplicateReturnsErrAlreadyExists(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Create(ctx, "/a/b", nil, pregel.ModePersistent); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := m.Create(ctx, "/a/b", nil, pregel.ModePersistent)
	if !errors.Is(err, pregel.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemory_SetDataThenGetData(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Create(ctx, "/a", []byte("initial"), pregel.ModePersistent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.SetData(ctx, "/a", []byte("updated")); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	got, err := m.GetData(ctx, "/a")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if string(got) != "updated" {
		t.Fatalf("expected %q, got %q", "updated", got)
	}
}

func TestMemory_GetData_MissingReturnsErrNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetData(context.Background(), "/no/such/node")
	if !errors.Is(err, pregel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_SetData_MissingReturnsErrNotFound(t *testing.T) {
	m := NewMemory()
	err := m.SetData(context.Background(), "/no/such/node", []byte("x"))
	if !errors.Is(err, pregel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_Delete_IdempotentOnMissingNode(t *testing.T) {
	m := NewMemory()
	if err := m.Delete(context.Background(), "/never/created"); err != nil {
		t.Fatalf("expected Delete of a missing node to be a no-op, got %v", err)
	}
}

func TestMemory_Delete_RemovesNode(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Create(ctx, "/a", nil, pregel.ModePersistent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Delete(ctx, "/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err := m.Exists(ctx, "/a")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("expected node to be gone after Delete")
	}
}

func TestMemory_Children_SortedAndEmptyForMissingPath(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		if _, err := m.Create(ctx, "/group/"+name, nil, pregel.ModeEphemeral); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	children, err := m.Children(ctx, "/group")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(children) != len(want) {
		t.Fatalf("expected %v, got %v", want, children)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Fatalf("expected sorted %v, got %v", want, children)
		}
	}

	missing, err := m.Children(ctx, "/does-not-exist")
	if err != nil {
		t.Fatalf("Children of missing path: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected empty result for missing path, got %v", missing)
	}
}

func TestMemory_CreateEphemeralSequential_MonotonicSuffixes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p1, err := m.Create(ctx, "/leader/candidate-", nil, pregel.ModeEphemeralSequential)
	if err != nil {
		t.Fatalf("Create candidate 1: %v", err)
	}
	p2, err := m.Create(ctx, "/leader/candidate-", nil, pregel.ModeEphemeralSequential)
	if err != nil {
		t.Fatalf("Create candidate 2: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected distinct sequential paths, got %q twice", p1)
	}

	children, err := m.Children(ctx, "/leader")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 candidates, got %v", children)
	}
	// Lexicographic sort of zero-padded sequence numbers matches creation
	// order, which is what leader election relies on (lowest sequence wins).
	if children[0] >= children[1] {
		t.Fatalf("expected children sorted in creation order, got %v", children)
	}
}

func TestMemory_SubscribeTree_NotifiesOnChildCreated(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := m.Create(ctx, "/watched", nil, pregel.ModePersistent); err != nil {
		t.Fatalf("Create: %v", err)
	}
	events, err := m.SubscribeTree(ctx, "/watched")
	if err != nil {
		t.Fatalf("SubscribeTree: %v", err)
	}

	if _, err := m.Create(ctx, "/watched/child", nil, pregel.ModePersistent); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != pregel.TreeEventChildrenChanged {
			t.Fatalf("expected TreeEventChildrenChanged, got %v", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for child-creation notification")
	}
}

func TestMemory_SubscribeTree_ClosesOnContextCancel(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := m.SubscribeTree(ctx, "/watched")
	if err != nil {
		t.Fatalf("SubscribeTree: %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected channel to be closed, got an event instead")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel to close after context cancellation")
	}
}

var _ pregel.CoordinationStore = (*Memory)(nil)
