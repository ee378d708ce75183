package pregel

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kafka-graphs/pregel-go/pregel/emit"
	"github.com/kafka-graphs/pregel-go/pregel/store"
)

// ComputeCallback is the side-effect surface handed to VertexProgram.Compute
// (spec §6). Every value update, outbound message, edge mutation,
// aggregator contribution and halt vote produced during one compute call
// flows through it rather than through a return value, mirroring the
// source's listener-callback shape (graph/node.go's NodeResult next-action
// pattern, generalized to several independent side channels instead of one
// "what's next" decision).
type ComputeCallback struct {
	vid    VID
	store  *VertexStore
	router *Router
	agg    *AggregatorRegistry
}

// SetValue stages a new value for the vertex being computed, applied
// atomically at the end of the worker's SEND phase (spec §4.5).
func (c *ComputeCallback) SetValue(value any) {
	c.store.StageValue(c.vid, value)
}

// SendMessageTo queues a message addressed to dest. It is published when
// this SEND phase ends, drained into dest's inbox during this superstep's
// RECEIVE phase, and handed to dest's Compute in the next superstep (spec §4.4). dest need not already
// exist: an unknown destination is created on delivery (emergent vertex).
func (c *ComputeCallback) SendMessageTo(dest VID, value any) {
	c.router.Send(Msg{Source: c.vid, Dest: dest, Value: value})
}

// AddEdge stages a new out-edge from the computing vertex.
func (c *ComputeCallback) AddEdge(target VID, value any) {
	c.store.StageAddEdge(c.vid, target, value)
}

// RemoveEdge stages removal of an out-edge by target id.
func (c *ComputeCallback) RemoveEdge(target VID) {
	c.store.StageRemoveEdge(c.vid, target)
}

// ReplaceEdges stages a wholesale replacement of the computing vertex's
// out-edges.
func (c *ComputeCallback) ReplaceEdges(edges []Edge) {
	c.store.StageReplaceAllEdges(c.vid, edges)
}

// Aggregate merges delta into the named aggregator's in-progress
// accumulator (spec §4.3 "cb.aggregate").
func (c *ComputeCallback) Aggregate(name string, delta any) error {
	return c.agg.Aggregate(name, delta)
}

// GetAggregatedValue reads a named aggregator's previous (committed) value,
// visible to every vertex during this superstep (spec §4.3 property P4).
func (c *ComputeCallback) GetAggregatedValue(name string) (any, error) {
	return c.agg.GetAggregatedValue(name)
}

// VoteToHalt records the computing vertex's intent to stop being scheduled.
// A subsequent message delivery wakes it again (spec §3 invariant, §4.6).
func (c *ComputeCallback) VoteToHalt() {
	c.store.StageVoteHalt(c.vid)
}

// Worker (C6/C7) drives one process's share of a Pregel job: it joins the
// coordination tree, elects a leader, and repeatedly executes SEND/RECEIVE
// phases separated by the barrier protocol (C2) until the job reaches
// StatusCompleted.
type Worker struct {
	cfg     *workerConfig
	coord   CoordinationStore
	router  *Router
	store   *VertexStore
	agg     *AggregatorRegistry
	program   VertexProgram
	emitter   emit.Emitter
	metrics   *Metrics
	persister store.VertexPersister

	partitionIndex int
	isLeader       bool
	haltRequested  bool
}

// NewWorker constructs a Worker bound to program, coordinating through
// coord and exchanging messages through transport. jobID, workerID,
// groupSize and numPartitions are supplied via Option (spec §6).
func NewWorker(program VertexProgram, coord CoordinationStore, transport MessageTransport, opts ...Option) (*Worker, error) {
	cfg := defaultWorkerConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.jobID == "" {
		return nil, fmt.Errorf("pregel: WithJobID is required")
	}
	if cfg.groupSize <= 0 {
		return nil, fmt.Errorf("pregel: WithGroupSize is required")
	}
	if cfg.workerID == "" {
		cfg.workerID = uuid.NewString()
	}

	var combiner Combiner
	if cfg.combinerEnabled {
		combiner = cfg.combiner
	}

	w := &Worker{
		cfg:     cfg,
		coord:   coord,
		store:   NewVertexStore(),
		agg:     NewAggregatorRegistry(),
		program: program,
		emitter: emit.NewNullEmitter(),
	}
	w.router = NewRouter(cfg.jobID, cfg.numPartitions, transport, combiner)
	return w, nil
}

// SetEmitter installs an observability sink; the default is a NullEmitter.
func (w *Worker) SetEmitter(e emit.Emitter) { w.emitter = e }

// SetMetrics installs a Prometheus metrics collector; nil is safe (no-op).
func (w *Worker) SetMetrics(m *Metrics) { w.metrics = m }

// SetPersister installs a vertex-state persister (D5). When set, Run resumes
// this worker's store from the latest snapshot right after joining the
// coordination tree, and saves a new snapshot at the end of every RECEIVE
// phase (spec §1 "optional fault-tolerance/checkpointing"). A nil persister
// (the default) disables both.
func (w *Worker) SetPersister(p store.VertexPersister) { w.persister = p }

// LoadVertex installs a vertex with its initial value and out-edges before
// the job starts. Parsing a graph input format into (vid, value, edges)
// triples is the caller's responsibility (spec §1 non-goal).
func (w *Worker) LoadVertex(vid VID, value any, edges []Edge) {
	w.store.Upsert(vid, value)
	w.store.SetEdges(vid, edges)
}

// Store exposes the worker's vertex store, chiefly so callers can read back
// final vertex values after Run returns.
func (w *Worker) Store() *VertexStore { return w.store }

// Aggregators exposes the worker's aggregator registry, chiefly so callers
// can read back final aggregator values after Run returns (spec §4.3).
func (w *Worker) Aggregators() *AggregatorRegistry { return w.agg }

// WorkerID returns this worker's identity, auto-generated from a uuid if
// WithWorkerID was not supplied.
func (w *Worker) WorkerID() string { return w.cfg.workerID }

// Join registers this worker in the coordination tree: it creates the job
// root and group subtree, an ephemeral membership marker under group/, and
// waits until groupSize workers have joined (spec §4.1 "group.size
// members"). It then bootstraps the very first barrier ready marker
// (barriers/snd-0/ready), which — unlike every later phase transition — has
// no natural creator under the generic barrier functions, and elects a
// leader via sequential ephemeral candidacy under leader/ (spec §4.7).
func (w *Worker) Join(ctx context.Context) error {
	root := JobRoot(w.cfg.jobID)

	if err := w.createIdempotent(ctx, root, nil, ModePersistent); err != nil {
		return err
	}
	groupPath := root + "/group"
	if err := w.createIdempotent(ctx, groupPath, nil, ModePersistent); err != nil {
		return err
	}
	memberPath := groupPath + "/" + w.cfg.workerID
	if err := w.createIdempotent(ctx, memberPath, nil, ModeEphemeral); err != nil {
		return err
	}

	var members []string
	for {
		children, err := w.coord.Children(ctx, groupPath)
		if err != nil {
			return fmt.Errorf("pregel: list group members: %w", err)
		}
		if len(children) >= w.cfg.groupSize {
			members = children
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	sort.Strings(members)
	w.partitionIndex = 0
	for i, m := range members {
		if m == w.cfg.workerID {
			w.partitionIndex = i % w.cfg.numPartitions
			break
		}
	}

	if err := w.createIdempotent(ctx, root+"/"+ReadyPath(PhaseSend, 0), nil, ModePersistent); err != nil {
		return err
	}

	return w.electLeader(ctx)
}

func (w *Worker) electLeader(ctx context.Context) error {
	root := JobRoot(w.cfg.jobID)
	leaderRoot := root + "/leader"
	if err := w.createIdempotent(ctx, leaderRoot, nil, ModePersistent); err != nil {
		return err
	}
	myPath, err := w.coord.Create(ctx, leaderRoot+"/candidate-", nil, ModeEphemeralSequential)
	if err != nil {
		return fmt.Errorf("pregel: leader candidacy: %w", err)
	}
	children, err := w.coord.Children(ctx, leaderRoot)
	if err != nil {
		return fmt.Errorf("pregel: list leader candidates: %w", err)
	}
	sort.Strings(children)
	myName := path.Base(myPath)
	w.isLeader = len(children) > 0 && children[0] == myName
	return nil
}

// createIdempotent creates path, swallowing ErrAlreadyExists so concurrent
// joiners never fail on a race to create the same node (spec §7 kind 2).
func (w *Worker) createIdempotent(ctx context.Context, p string, data []byte, mode CreateMode) error {
	_, err := w.coord.Create(ctx, p, data, mode)
	if err != nil && err != ErrAlreadyExists {
		return fmt.Errorf("pregel: create %s: %w", p, err)
	}
	return nil
}

// Run drives the worker through Join, optional Init, and then repeated
// SEND/RECEIVE phases gated by the barrier protocol until the job reaches
// StatusCompleted (spec §4.6, the worked example's "main loop").
func (w *Worker) Run(ctx context.Context) (PregelState, error) {
	if err := w.Join(ctx); err != nil {
		return PregelState{}, w.abortJob(ctx, "join", err)
	}

	if err := w.resumeFromSnapshot(ctx); err != nil {
		return PregelState{}, w.abortJob(ctx, "resume", err)
	}

	if initializer, ok := w.program.(Initializer); ok {
		if err := initializer.Init(w.cfg.configs, &InitCallback{registry: w.agg}); err != nil {
			return PregelState{}, w.abortJob(ctx, "init", fmt.Errorf("pregel: init: %w", err))
		}
	}

	state := InitialState()
	var err error
	state, err = w.awaitBarrier(ctx, state)
	if err != nil {
		return state, err
	}

	for state.Status != StatusCompleted {
		t0 := time.Now()
		switch state.Stage {
		case StageSend:
			if err := w.runSendPhase(ctx, state.Superstep); err != nil {
				return state, w.abortJob(ctx, "send", err)
			}
			w.emit(state, "snd_complete", time.Since(t0))
		case StageReceive:
			if err := w.runReceivePhase(ctx, state.Superstep); err != nil {
				return state, w.abortJob(ctx, "receive", err)
			}
			if err := w.saveSnapshot(ctx, state.Superstep); err != nil {
				return state, w.abortJob(ctx, "snapshot", err)
			}
			w.emit(state, "rcv_complete", time.Since(t0))
		}
		if w.metrics != nil {
			w.metrics.observeSuperstepLatency(w.cfg.jobID, state.Stage.String(), float64(time.Since(t0).Milliseconds()))
			w.metrics.setActiveVertices(w.cfg.jobID, w.cfg.workerID, w.store.ActiveCount())
		}

		state, err = w.awaitBarrier(ctx, state)
		if err != nil {
			return state, err
		}
	}
	w.emit(state, "job_complete", 0)
	_ = w.emitter.Flush(ctx)
	return state, nil
}

func (w *Worker) emit(state PregelState, msg string, d time.Duration) {
	meta := map[string]interface{}{}
	if d > 0 {
		meta["duration_ms"] = d.Milliseconds()
	}
	w.emitter.Emit(emit.Event{
		JobID:     w.cfg.jobID,
		Superstep: state.Superstep,
		Stage:     state.Stage.String(),
		WorkerID:  w.cfg.workerID,
		Msg:       msg,
		Meta:      meta,
	})
}

// runSendPhase invokes Compute on every vertex eligible this superstep
// (spec §4.6 step 1: N=0, or the vertex has pending messages, or it has not
// voted to halt), applies staged mutations atomically, and flushes outbound
// messages to peer workers.
func (w *Worker) runSendPhase(ctx context.Context, superstep int32) error {
	if hook, ok := w.program.(PreSuperstepHook); ok {
		hook.PreSuperstep(superstep, w.agg)
	}

	for _, vid := range w.store.IDs() {
		view, ok := w.store.View(vid)
		if !ok {
			continue
		}
		hasPending := w.store.HasPending(vid)
		if superstep != 0 && !hasPending && view.Halted {
			continue
		}
		messages := w.store.DrainInbox(vid)
		cb := &ComputeCallback{vid: vid, store: w.store, router: w.router, agg: w.agg}
		if err := w.program.Compute(superstep, view, messages, view.Edges, cb); err != nil {
			return fmt.Errorf("pregel: compute vertex %s at superstep %d: %w", vid, superstep, err)
		}
	}

	w.store.ApplyStaged()

	if err := w.router.Flush(ctx, superstep); err != nil {
		return err
	}

	return w.publishAggregateContribution(ctx, superstep)
}

// runReceivePhase drains this worker's partition of durably published
// messages into per-vertex inboxes (spec §4.4, §4.6 step 5).
func (w *Worker) runReceivePhase(ctx context.Context, superstep int32) error {
	if err := w.router.Drain(ctx, w.partitionIndex, w.store); err != nil {
		return err
	}
	if hook, ok := w.program.(PostSuperstepHook); ok {
		hook.PostSuperstep(superstep, w.agg)
	}
	if w.store.Idle() {
		root := JobRoot(w.cfg.jobID)
		idleRoot := root + "/" + IdlePath(superstep)
		if err := w.createIdempotent(ctx, idleRoot, nil, ModePersistent); err != nil {
			return err
		}
		if err := w.createIdempotent(ctx, idleRoot+"/"+w.cfg.workerID, nil, ModePersistent); err != nil {
			return err
		}
	}
	return w.markReceiveDone(ctx, superstep)
}

// awaitBarrier repeatedly snapshots the barrier-relevant portion of the
// coordination tree, feeds it to MaybeReady, and applies the resulting
// action (if any) until the state advances or the job completes. A
// master/halt marker short-circuits immediately regardless of phase (spec
// §4.6 step 7b, §7 kind 6).
func (w *Worker) awaitBarrier(ctx context.Context, state PregelState) (PregelState, error) {
	root := JobRoot(w.cfg.jobID)

	for {
		aborted, err := w.coord.Exists(ctx, root+"/aborted")
		if err != nil {
			return state, fmt.Errorf("pregel: check abort marker: %w", err)
		}
		if aborted {
			reasons, _ := w.collectAbortReasons(ctx, root)
			je := NewJobAbortedError(w.cfg.jobID, state.Stage.String())
			for _, reason := range reasons {
				je.Add(errors.New(reason))
			}
			if w.isLeader {
				_ = w.teardown(ctx, root)
			}
			if out := je.ErrorOrNil(); out != nil {
				return state, out
			}
			return state, ErrInvariantViolated
		}

		halted, err := w.coord.Exists(ctx, root+"/master/halt")
		if err != nil {
			return state, fmt.Errorf("pregel: check master halt marker: %w", err)
		}
		if halted {
			return state.Completed(), nil
		}

		groupMembers, err := w.coord.Children(ctx, root+"/group")
		if err != nil {
			return state, fmt.Errorf("pregel: check group membership: %w", err)
		}
		if len(groupMembers) < w.cfg.groupSize {
			return state, w.abortJob(ctx, state.Stage.String(), ErrGroupShrunk)
		}

		view, err := w.snapshotBarrierView(ctx, root, state)
		if err != nil {
			return state, err
		}

		if markers := nonReadyChildren(view, currentBarrierPath(state)); len(markers) > w.cfg.groupSize {
			return state, w.abortJob(ctx, state.Stage.String(), ErrInvariantViolated)
		}

		next, actions := MaybeReady(state, view, w.cfg.groupSize)

		if state.Stage == StageReceive && len(actions) > 0 {
			// Transitioning RECEIVE(N) -> SEND(N+1): the global aggregator
			// merge and optional master program run once, on the leader,
			// before the next phase's ready marker appears (spec §4.6
			// step 7). Gating ready-creation on the leader (rather than
			// "whichever worker observes B2 first", as spec §4.2 phrases
			// it generically) is what guarantees ordering; see DESIGN.md.
			readyPath := actions[0].Path
			readyExists, err := w.coord.Exists(ctx, root+"/"+readyPath)
			if err != nil {
				return state, err
			}
			if !readyExists {
				if w.isLeader {
					if err := w.runMasterHook(ctx, state.Superstep); err != nil {
						return state, err
					}
					if !w.haltRequested {
						if err := w.applyBarrierActions(ctx, root, actions); err != nil {
							return state, err
						}
					}
				}
				if w.metrics != nil {
					w.metrics.incBarrierRetry(w.cfg.jobID, string(PhaseSend))
				}
				if err := w.waitForChange(ctx, root); err != nil {
					return state, err
				}
				continue
			}
		} else if len(actions) > 0 {
			if err := w.applyBarrierActions(ctx, root, actions); err != nil {
				return state, err
			}
		}

		if w.cfg.maxIterations > 0 && next.Superstep > w.cfg.maxIterations && next.Status != StatusCompleted {
			next = next.Completed()
		}

		if next.Compare(state) != 0 {
			if state.Stage == StageReceive {
				// Every worker, leader included, picks up the leader's
				// globally-merged aggregate values before starting the
				// next SEND phase (spec §4.3 step c).
				merged, err := w.readMergedAggregates(ctx, state.Superstep)
				if err != nil {
					return state, err
				}
				if merged != nil {
					w.agg.CommitMerged(merged)
				}
			}
			return next, nil
		}

		if w.metrics != nil {
			w.metrics.incBarrierRetry(w.cfg.jobID, state.Stage.String())
		}
		if err := w.waitForChange(ctx, root); err != nil {
			return state, err
		}
	}
}

func (w *Worker) applyBarrierActions(ctx context.Context, root string, actions []Action) error {
	for _, a := range actions {
		if a.Kind != ActionCreateReady {
			continue
		}
		if err := w.createIdempotent(ctx, root+"/"+a.Path, nil, ModePersistent); err != nil {
			return err
		}
	}
	return nil
}

// waitForChange blocks until the barrier subtree changes, its watch channel
// closes, the context is canceled, or 250ms pass without an event, so the
// caller re-checks the barrier at least that often (spurious wake, spec §4.2).
func (w *Worker) waitForChange(ctx context.Context, root string) error {
	events, err := w.coord.SubscribeTree(ctx, root+"/barriers")
	if err != nil {
		return fmt.Errorf("pregel: subscribe to barrier tree: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev, ok := <-events:
		if ok && ev.Type == TreeEventSessionExpired {
			return ErrSessionExpired
		}
		return nil
	case <-time.After(250 * time.Millisecond):
		return nil
	}
}

// currentBarrierPath returns the barrier subtree path state's worker must
// have a marker under before the phase can be considered finished locally
// (spec §4.2 B1-B3): SEND(n) while in StageSend, RECEIVE(n) while in
// StageReceive.
func currentBarrierPath(state PregelState) string {
	if state.Stage == StageReceive {
		return BarrierPath(PhaseReceive, state.Superstep)
	}
	return BarrierPath(PhaseSend, state.Superstep)
}

// snapshotBarrierView reads just the barrier subtrees MaybeReady needs for
// state's current stage, rather than the whole coordination tree.
func (w *Worker) snapshotBarrierView(ctx context.Context, root string, state PregelState) (MapTreeView, error) {
	view := make(MapTreeView)
	n := state.Superstep
	var paths []string
	if state.Stage == StageReceive {
		paths = []string{BarrierPath(PhaseReceive, n), IdlePath(n)}
	} else {
		paths = []string{BarrierPath(PhaseSend, n)}
	}
	for _, p := range paths {
		full := root + "/" + p
		exists, err := w.coord.Exists(ctx, full)
		if err != nil {
			return nil, fmt.Errorf("pregel: check %s: %w", full, err)
		}
		if !exists {
			continue
		}
		children, err := w.coord.Children(ctx, full)
		if err != nil {
			return nil, fmt.Errorf("pregel: list children of %s: %w", full, err)
		}
		view[p] = children
	}
	return view, nil
}

// publishAggregateContribution writes this worker's in-progress aggregator
// values under aggregates/<N>/<workerId> at the end of its SEND phase
// (spec §4.3 step a), then creates its own SEND(N) barrier marker so
// MaybeReadyToReceive can observe this worker as finished.
func (w *Worker) publishAggregateContribution(ctx context.Context, superstep int32) error {
	root := JobRoot(w.cfg.jobID)
	aggRoot := root + "/" + AggregatesPath(superstep)
	if err := w.createIdempotent(ctx, aggRoot, nil, ModePersistent); err != nil {
		return err
	}
	data, err := encodeAggregates(w.agg.CurrentSnapshot())
	if err != nil {
		return fmt.Errorf("pregel: encode aggregate contribution: %w", err)
	}
	aggPath := aggRoot + "/" + w.cfg.workerID
	if err := w.createIdempotent(ctx, aggPath, data, ModePersistent); err != nil {
		return err
	}

	markerRoot := root + "/" + BarrierPath(PhaseSend, superstep)
	if err := w.createIdempotent(ctx, markerRoot, nil, ModePersistent); err != nil {
		return err
	}
	return w.createIdempotent(ctx, markerRoot+"/"+w.cfg.workerID, nil, ModePersistent)
}

// markReceiveDone records this worker as finished with RECEIVE(N), so
// MaybeReadyToSend can observe it.
func (w *Worker) markReceiveDone(ctx context.Context, superstep int32) error {
	root := JobRoot(w.cfg.jobID)
	markerRoot := root + "/" + BarrierPath(PhaseReceive, superstep)
	if err := w.createIdempotent(ctx, markerRoot, nil, ModePersistent); err != nil {
		return err
	}
	return w.createIdempotent(ctx, markerRoot+"/"+w.cfg.workerID, nil, ModePersistent)
}

// runMasterHook folds every worker's aggregate contribution for superstep
// together via each registered reducer, commits the merged values, and
// invokes the optional master program (spec §4.6 step 7). It runs on the
// elected leader only, gated by awaitBarrier before the next SEND phase's
// ready marker is created.
func (w *Worker) runMasterHook(ctx context.Context, superstep int32) error {
	root := JobRoot(w.cfg.jobID)
	aggRoot := root + "/" + AggregatesPath(superstep)

	children, err := w.coord.Children(ctx, aggRoot)
	if err != nil {
		return fmt.Errorf("pregel: list aggregate contributions: %w", err)
	}

	merged := make(map[string]any)
	for _, name := range w.agg.Names() {
		reducer, ok := w.agg.ReducerFor(name)
		if !ok {
			continue
		}
		acc := reducer.Identity()
		for _, child := range children {
			data, err := w.coord.GetData(ctx, aggRoot+"/"+child)
			if err != nil {
				continue
			}
			contrib, err := decodeAggregates(data)
			if err != nil {
				continue
			}
			if v, ok := contrib[name]; ok {
				acc = reducer.Merge(acc, v)
			}
		}
		merged[name] = acc
	}
	w.agg.CommitMerged(merged)
	if w.metrics != nil {
		w.metrics.incAggregatorMerge(w.cfg.jobID)
	}

	mergedData, err := encodeAggregates(merged)
	if err != nil {
		return fmt.Errorf("pregel: encode merged aggregates: %w", err)
	}
	if err := w.createIdempotent(ctx, root+"/"+AggregatesPath(superstep)+"/merged", mergedData, ModePersistent); err != nil {
		return err
	}

	if master, ok := w.program.(MasterProgram); ok {
		halt := false
		cb := &MasterCallback{registry: w.agg, halt: &halt}
		if err := master.MasterCompute(superstep, cb); err != nil {
			return fmt.Errorf("pregel: master compute at superstep %d: %w", superstep, err)
		}
		w.haltRequested = w.haltRequested || halt
		// Republish the merged values so overrides made through
		// SetAggregatedValue reach every worker's next superstep.
		for _, name := range w.agg.Names() {
			merged[name], _ = w.agg.GetAggregatedValue(name)
		}
		if mergedData, err = encodeAggregates(merged); err != nil {
			return fmt.Errorf("pregel: encode master-adjusted aggregates: %w", err)
		}
		if err := w.coord.SetData(ctx, root+"/"+AggregatesPath(superstep)+"/merged", mergedData); err != nil {
			return fmt.Errorf("pregel: write master-adjusted aggregates: %w", err)
		}
	}
	if w.haltRequested {
		return w.createIdempotent(ctx, root+"/master/halt", nil, ModePersistent)
	}
	return nil
}

// readMergedAggregates reads the leader's globally-merged aggregate values
// for superstep, if present yet. Every worker other than the leader only
// has its own local contribution, so non-leader workers must wait for this
// node before treating their aggregator's previous values as current.
func (w *Worker) readMergedAggregates(ctx context.Context, superstep int32) (map[string]any, error) {
	root := JobRoot(w.cfg.jobID)
	mergedPath := root + "/" + AggregatesPath(superstep) + "/merged"
	exists, err := w.coord.Exists(ctx, mergedPath)
	if err != nil {
		return nil, fmt.Errorf("pregel: check merged aggregates: %w", err)
	}
	if !exists {
		return nil, nil
	}
	data, err := w.coord.GetData(ctx, mergedPath)
	if err != nil {
		return nil, fmt.Errorf("pregel: read merged aggregates: %w", err)
	}
	return decodeAggregates(data)
}

// encodeAggregates/decodeAggregates use gob, same rationale as the
// router's message codec: concrete aggregator value types must be
// gob.Register-ed by the algorithm (e.g. int64 is already a gob builtin).
func encodeAggregates(values map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAggregates(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}
