package pregel

import "sync"

// vertexRecord is the mutable per-vertex record kept by a worker:
// (value, halted?, out-edges, pending-in-messages) (spec §3).
type vertexRecord struct {
	id         VID
	value      any
	halted     bool
	haltedVote bool
	edges      []Edge
	inbox      []Msg
}

type edgeMutationKind int

const (
	edgeMutationAdd edgeMutationKind = iota
	edgeMutationRemove
	edgeMutationReplaceAll
)

type edgeMutation struct {
	kind    edgeMutationKind
	vid     VID
	target  VID
	value   any
	replace []Edge
}

type valueMutation struct {
	vid   VID
	value any
}

// VertexStore (C5) is a worker-local mapping vertexId -> (value, halted?,
// out-edges, pending-in-messages). Edge mutations and value updates issued
// from compute are staged in a side buffer and applied atomically at the
// end of the worker's SEND phase (spec §4.5), so iteration over Edges(vid)
// inside a single compute call always observes a stable snapshot.
//
// Per spec §5, a production deployment partitions this store across
// compute threads by hash(vid) mod T so no lock is needed on per-vertex
// state; this in-process implementation uses a single mutex, which is
// sufficient for the worker counts this module targets and keeps the
// staging/apply contract simple to verify. See DESIGN.md.
type VertexStore struct {
	mu       sync.Mutex
	vertices map[VID]*vertexRecord

	stagedEdges  []edgeMutation
	stagedValues []valueMutation
}

// NewVertexStore returns an empty store.
func NewVertexStore() *VertexStore {
	return &VertexStore{vertices: make(map[VID]*vertexRecord)}
}

// Upsert creates or overwrites a vertex's value directly (used by graph
// loading, out of this module's scope per spec §1, and by tests).
func (s *VertexStore) Upsert(vid VID, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.vertices[vid]
	if !ok {
		rec = &vertexRecord{id: vid}
		s.vertices[vid] = rec
	}
	rec.value = value
}

// SetEdges installs vid's out-edges directly, bypassing the staging
// buffer. Used by graph loading before the first superstep begins, where
// there is no concurrent compute to isolate from.
func (s *VertexStore) SetEdges(vid VID, edges []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(vid)
	rec.edges = append([]Edge(nil), edges...)
}

// ensureLocked returns the vertex record for vid, creating it with the
// default value, empty edges and halted=false if absent — the emergent
// vertex rule for messages addressed to an unknown id (spec §4.4
// "Partitioning edge case").
func (s *VertexStore) ensureLocked(vid VID) *vertexRecord {
	rec, ok := s.vertices[vid]
	if !ok {
		rec = &vertexRecord{id: vid}
		s.vertices[vid] = rec
	}
	return rec
}

// Ensure creates vid with default state if it does not already exist and
// returns whether it was newly created.
func (s *VertexStore) Ensure(vid VID) (created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vertices[vid]
	if !ok {
		s.ensureLocked(vid)
	}
	return !ok
}

// View returns a read-only snapshot of vid's current state, or false if it
// does not exist.
func (s *VertexStore) View(vid VID) (VertexView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.vertices[vid]
	if !ok {
		return VertexView{}, false
	}
	edges := make([]Edge, len(rec.edges))
	copy(edges, rec.edges)
	return VertexView{ID: rec.id, Value: rec.value, Halted: rec.halted, Edges: edges}, true
}

// IDs returns every vertex id currently owned by this store. Iteration
// order over the result is unspecified (spec §4.6 "iteration order...
// unspecified and must not affect correctness").
func (s *VertexStore) IDs() []VID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]VID, 0, len(s.vertices))
	for id := range s.vertices {
		ids = append(ids, id)
	}
	return ids
}

// DeliverMessage appends msg to vid's pending inbox for the next SEND
// phase, creating vid if it does not yet exist (emergent vertex rule), and
// wakes the vertex. halted transitions true->false whenever at least one
// message is delivered (spec §3 invariant).
func (s *VertexStore) DeliverMessage(msg Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(msg.Dest)
	rec.inbox = append(rec.inbox, msg)
	rec.halted = false
}

// DrainInbox returns and clears vid's pending inbox, handing compute the
// messages accumulated for this superstep.
func (s *VertexStore) DrainInbox(vid VID) []Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.vertices[vid]
	if !ok || len(rec.inbox) == 0 {
		return nil
	}
	msgs := rec.inbox
	rec.inbox = nil
	return msgs
}

// HasPending reports whether vid has at least one pending message.
func (s *VertexStore) HasPending(vid VID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.vertices[vid]
	return ok && len(rec.inbox) > 0
}

// StageValue records a pending value update for vid, applied by
// ApplyStaged. Simultaneous wake and voteHalt within the same superstep
// resolve as wake; StageValue never itself changes halted.
func (s *VertexStore) StageValue(vid VID, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedValues = append(s.stagedValues, valueMutation{vid: vid, value: value})
}

// StageAddEdge records a pending out-edge addition for vid.
func (s *VertexStore) StageAddEdge(vid, target VID, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedEdges = append(s.stagedEdges, edgeMutation{kind: edgeMutationAdd, vid: vid, target: target, value: value})
}

// StageRemoveEdge records a pending out-edge removal for vid.
func (s *VertexStore) StageRemoveEdge(vid, target VID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedEdges = append(s.stagedEdges, edgeMutation{kind: edgeMutationRemove, vid: vid, target: target})
}

// StageReplaceAllEdges records a pending wholesale replacement of vid's
// out-edges.
func (s *VertexStore) StageReplaceAllEdges(vid VID, edges []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replace := make([]Edge, len(edges))
	copy(replace, edges)
	s.stagedEdges = append(s.stagedEdges, edgeMutation{kind: edgeMutationReplaceAll, vid: vid, replace: replace})
}

// StageVoteHalt records vid voting to halt, applied by ApplyStaged only if
// no message was delivered to vid in the meantime (wake wins, spec §4.6).
func (s *VertexStore) StageVoteHalt(vid VID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(vid)
	rec.haltedVote = true
}

// ApplyStaged applies every staged edge mutation, value update and halt
// vote atomically, then clears the staging buffers. Called once at the end
// of a worker's SEND phase (spec §4.5, §4.6 step 2).
func (s *VertexStore) ApplyStaged() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.stagedValues {
		rec := s.ensureLocked(m.vid)
		rec.value = m.value
	}

	for _, m := range s.stagedEdges {
		rec := s.ensureLocked(m.vid)
		switch m.kind {
		case edgeMutationAdd:
			rec.edges = append(rec.edges, Edge{Target: m.target, Value: m.value})
		case edgeMutationRemove:
			filtered := rec.edges[:0]
			for _, e := range rec.edges {
				if e.Target != m.target {
					filtered = append(filtered, e)
				}
			}
			rec.edges = filtered
		case edgeMutationReplaceAll:
			rec.edges = m.replace
		}
	}

	for _, rec := range s.vertices {
		if rec.haltedVote && len(rec.inbox) == 0 {
			rec.halted = true
		}
		rec.haltedVote = false
	}

	s.stagedValues = nil
	s.stagedEdges = nil
}

// ActiveCount returns the number of vertices that are not halted, used by
// the termination check (property P5): the job may only complete once
// every vertex is halted and no messages remain in flight.
func (s *VertexStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.vertices {
		if !rec.halted {
			n++
		}
	}
	return n
}

// Idle reports whether this store currently has no active (non-halted)
// vertex and no vertex with a pending message, the per-worker condition
// that, when true for every worker, signals global quiescence (spec §4.6
// step 6, property P5).
func (s *VertexStore) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.vertices {
		if !rec.halted || len(rec.inbox) > 0 {
			return false
		}
	}
	return true
}

// Len returns the number of vertices owned by this store.
func (s *VertexStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vertices)
}
