package pregel

import "testing"

func TestVertexStore_UpsertAndView(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 42)

	view, ok := s.View("v1")
	if !ok {
		t.Fatal("expected v1 to exist")
	}
	if view.Value.(int) != 42 {
		t.Fatalf("expected value 42, got %v", view.Value)
	}
	if view.Halted {
		t.Fatal("expected freshly upserted vertex to not be halted")
	}
}

func TestVertexStore_View_Missing(t *testing.T) {
	s := NewVertexStore()
	if _, ok := s.View("nope"); ok {
		t.Fatal("expected missing vertex to report not found")
	}
}

func TestVertexStore_Ensure(t *testing.T) {
	s := NewVertexStore()
	if created := s.Ensure("v1"); !created {
		t.Fatal("expected first Ensure to report created")
	}
	if created := s.Ensure("v1"); created {
		t.Fatal("expected second Ensure on same id to report not created")
	}
}

func TestVertexStore_SetEdges(t *testing.T) {
	s := NewVertexStore()
	edges := []Edge{{Target: "v2", Value: 1.0}, {Target: "v3", Value: 2.0}}
	s.SetEdges("v1", edges)

	view, ok := s.View("v1")
	if !ok {
		t.Fatal("expected SetEdges to create the vertex")
	}
	if len(view.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(view.Edges))
	}
}

func TestVertexStore_DeliverMessage_WakesHaltedVertex(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.StageVoteHalt("v1")
	s.ApplyStaged()

	view, _ := s.View("v1")
	if !view.Halted {
		t.Fatal("expected vertex to be halted after vote + apply")
	}

	s.DeliverMessage(Msg{Source: "v2", Dest: "v1", Value: 1})

	view, _ = s.View("v1")
	if view.Halted {
		t.Fatal("expected delivering a message to wake a halted vertex")
	}
}

func TestVertexStore_DeliverMessage_CreatesEmergentVertex(t *testing.T) {
	s := NewVertexStore()
	s.DeliverMessage(Msg{Source: "v1", Dest: "new-vertex", Value: "hi"})

	if _, ok := s.View("new-vertex"); !ok {
		t.Fatal("expected DeliverMessage to the unknown dest to create it")
	}
}

func TestVertexStore_DrainInbox(t *testing.T) {
	s := NewVertexStore()
	s.DeliverMessage(Msg{Dest: "v1", Value: 1})
	s.DeliverMessage(Msg{Dest: "v1", Value: 2})

	msgs := s.DrainInbox("v1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs := s.DrainInbox("v1"); len(msgs) != 0 {
		t.Fatalf("expected inbox cleared after drain, got %d", len(msgs))
	}
}

func TestVertexStore_HasPending(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	if s.HasPending("v1") {
		t.Fatal("expected no pending messages initially")
	}
	s.DeliverMessage(Msg{Dest: "v1", Value: 1})
	if !s.HasPending("v1") {
		t.Fatal("expected pending message after delivery")
	}
}

func TestVertexStore_ApplyStaged_ValueAndEdgeMutations(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.SetEdges("v1", []Edge{{Target: "v2"}, {Target: "v3"}})

	s.StageValue("v1", 100)
	s.StageAddEdge("v1", "v4", nil)
	s.StageRemoveEdge("v1", "v2")
	s.ApplyStaged()

	view, _ := s.View("v1")
	if view.Value.(int) != 100 {
		t.Fatalf("expected value 100 after apply, got %v", view.Value)
	}

	targets := map[string]bool{}
	for _, e := range view.Edges {
		targets[e.Target] = true
	}
	if targets["v2"] {
		t.Fatal("expected v2 edge to be removed")
	}
	if !targets["v3"] || !targets["v4"] {
		t.Fatalf("expected v3 and v4 edges to remain/be added, got %v", view.Edges)
	}
}

func TestVertexStore_ApplyStaged_ReplaceAllEdges(t *testing.T) {
	s := NewVertexStore()
	s.SetEdges("v1", []Edge{{Target: "v2"}, {Target: "v3"}})
	s.StageReplaceAllEdges("v1", []Edge{{Target: "v9"}})
	s.ApplyStaged()

	view, _ := s.View("v1")
	if len(view.Edges) != 1 || view.Edges[0].Target != "v9" {
		t.Fatalf("expected edges replaced with [v9], got %v", view.Edges)
	}
}

func TestVertexStore_ApplyStaged_WakeWinsOverHaltVote(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.StageVoteHalt("v1")
	s.DeliverMessage(Msg{Dest: "v1", Value: 1}) // arrives in the same superstep
	s.ApplyStaged()

	view, _ := s.View("v1")
	if view.Halted {
		t.Fatal("expected a delivered message to take priority over a halt vote")
	}
}

func TestVertexStore_ApplyStaged_ClearsStagingBuffers(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 1)
	s.StageValue("v1", 2)
	s.ApplyStaged()
	s.ApplyStaged() // second call must be a no-op, not reapply stale staged values

	view, _ := s.View("v1")
	if view.Value.(int) != 2 {
		t.Fatalf("expected value to remain 2, got %v", view.Value)
	}
}

func TestVertexStore_ActiveCount(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.Upsert("v2", 0)
	s.StageVoteHalt("v1")
	s.ApplyStaged()

	if got := s.ActiveCount(); got != 1 {
		t.Fatalf("expected 1 active vertex, got %d", got)
	}
}

func TestVertexStore_Idle(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)

	if s.Idle() {
		t.Fatal("expected not idle: v1 is not halted")
	}

	s.StageVoteHalt("v1")
	s.ApplyStaged()
	if !s.Idle() {
		t.Fatal("expected idle: sole vertex halted, no pending messages")
	}

	s.DeliverMessage(Msg{Dest: "v1", Value: 1})
	if s.Idle() {
		t.Fatal("expected not idle: v1 has a pending message")
	}
}

func TestVertexStore_Len(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.Upsert("v2", 0)
	if got := s.Len(); got != 2 {
		t.Fatalf("expected Len = 2, got %d", got)
	}
}

func TestVertexStore_IDs(t *testing.T) {
	s := NewVertexStore()
	s.Upsert("v1", 0)
	s.Upsert("v2", 0)

	ids := s.IDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["v1"] || !seen["v2"] {
		t.Fatalf("expected both v1 and v2, got %v", ids)
	}
}
