// Package replica aggregates a clock, a tree state and its log, and the
// peer bookkeeping needed to compute causal stability -- the unit the rest
// of the system (counters aside) actually operates on.
//
// Grounded on the teacher's single-mutator-per-process discipline
// (cmd/musclefs/musclefs.go's ops struct serializes every tree mutation
// behind one lock) and internal/tree.Tree's role as the aggregate that owns
// both state and persistence bookkeeping -- here, log bookkeeping instead.
package replica

import (
	log "github.com/sirupsen/logrus"

	"github.com/google/uuid"

	"github.com/nicolagi/movetree/internal/clock"
	"github.com/nicolagi/movetree/internal/crdtnode"
	"github.com/nicolagi/movetree/internal/engine"
)

// Replica is (id, clock, state, known_peers, latest_seen) per spec.md §3.
// A replica owns its tree and log exclusively: all multi-replica
// coordination happens through ApplyLogOps, never through shared memory
// (spec.md §4.4, §5).
type Replica struct {
	ID uuid.UUID

	clock clock.Clock
	tree   *crdtnode.State
	log    engine.Log

	knownPeers map[uuid.UUID]struct{}
	latestSeen map[uuid.UUID]clock.Clock

	// applied records every timestamp ever fed through ApplyOps, so that a
	// log entry delivered twice (retransmission, or a second merge round
	// re-sharing already-known history) is a safe no-op rather than a
	// duplicate-timestamp protocol violation. Log truncation discards old
	// entries from the log itself, but never from this set.
	applied map[clock.Clock]struct{}
}

// New constructs a replica with its own fresh, empty tree. peers lists the
// other replica ids this replica will eventually exchange operations with;
// it need not be complete at construction time -- see AddPeer.
func New(id uuid.UUID, peers ...uuid.UUID) *Replica {
	r := &Replica{
		ID:         id,
		clock:      clock.New(id),
		tree:       crdtnode.NewState(),
		knownPeers: make(map[uuid.UUID]struct{}),
		latestSeen: make(map[uuid.UUID]clock.Clock),
		applied:    make(map[clock.Clock]struct{}),
	}
	for _, p := range peers {
		r.knownPeers[p] = struct{}{}
	}
	return r
}

// AddPeer registers another replica as known, so that its timestamps count
// toward CausallyStableThreshold once observed.
func (r *Replica) AddPeer(id uuid.UUID) {
	r.knownPeers[id] = struct{}{}
}

// Tree returns the replica's tree state. Callers must not mutate it
// directly; all mutation goes through ApplyOps/ApplyLogOps.
func (r *Replica) Tree() *crdtnode.State { return r.tree }

// Log returns the replica's current log, head first.
func (r *Replica) Log() engine.Log { return r.log }

// Clock returns the replica's current clock value.
func (r *Replica) Clock() clock.Clock { return r.clock }

// Tick increments the replica's clock and returns the new value -- the
// timestamp to stamp on the next locally originated operation.
func (r *Replica) Tick() clock.Clock {
	r.clock = r.clock.Inc()
	return r.clock
}

// ApplyOps sequentially applies each operation via the move-op engine, then
// merges the replica's clock with the operation's timestamp and, if the
// operation's actor is a known peer, advances latest_seen for that actor
// (spec.md §4.4).
func (r *Replica) ApplyOps(ops []crdtnode.Op) error {
	for _, op := range ops {
		if _, dup := r.applied[op.Timestamp]; dup {
			r.observe(op.Timestamp)
			continue
		}
		newLog, err := engine.ApplyOp(op, r.log, r.tree)
		if err != nil {
			return err
		}
		r.log = newLog
		r.applied[op.Timestamp] = struct{}{}
		r.observe(op.Timestamp)
	}
	return nil
}

// ApplyLogOps is the cross-replica ingest path: each log entry is treated
// as an op_move, discarding its old_parent -- the receiving engine
// recomputes its own against local state (spec.md §4.4).
func (r *Replica) ApplyLogOps(entries []crdtnode.LogEntry) error {
	ops := make([]crdtnode.Op, len(entries))
	for i, e := range entries {
		ops[i] = e.Op()
	}
	return r.ApplyOps(ops)
}

func (r *Replica) observe(ts clock.Clock) {
	r.clock = r.clock.Merge(ts)
	if _, known := r.knownPeers[ts.Actor]; !known && ts.Actor != r.ID {
		return
	}
	if ts.Actor == r.ID {
		return
	}
	if existing, ok := r.latestSeen[ts.Actor]; !ok || ts.Greater(existing) {
		r.latestSeen[ts.Actor] = ts
	}
}

// CausallyStableThreshold returns the minimum of the latest timestamps
// observed from every known peer, and whether the threshold is defined at
// all (it is undefined until every known peer has contributed at least one
// timestamp). All log entries strictly below the threshold can never be
// reached by a future undo, because every peer's clock has since advanced
// past it (spec.md §4.3).
func (r *Replica) CausallyStableThreshold() (clock.Clock, bool) {
	if len(r.knownPeers) == 0 {
		return clock.Clock{}, false
	}
	var threshold clock.Clock
	first := true
	for peer := range r.knownPeers {
		ts, ok := r.latestSeen[peer]
		if !ok {
			return clock.Clock{}, false
		}
		if first || ts.Less(threshold) {
			threshold = ts
			first = false
		}
	}
	return threshold, true
}

// TruncateLog drops every log entry strictly below the causally stable
// threshold, returning true iff the threshold was defined and at least one
// entry was actually removed (spec.md §4.4).
func (r *Replica) TruncateLog() bool {
	threshold, defined := r.CausallyStableThreshold()
	newLog, removed := r.log.Truncate(threshold, defined)
	if removed {
		log.WithFields(log.Fields{
			"replica":   r.ID,
			"threshold": threshold.String(),
			"before":    len(r.log),
			"after":     len(newLog),
		}).Info("replica: truncated log at causally stable threshold")
		r.log = newLog
	}
	return removed
}
