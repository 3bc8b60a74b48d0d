package fs

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nicolagi/movetree/internal/crdtnode"
)

// CollisionPolicy selects how Reconcile resolves two children of the same
// directory that ended up sharing a name after independently-created ops
// converged (spec.md §8's name-collision scenario; SPEC_FULL.md §4.5).
type CollisionPolicy int

const (
	// RenameAll renames every colliding entry except none specially --
	// each loses its bare name and gains a ".conflict.<actor>" suffix, so
	// the outcome does not depend on timestamp order (deterministic,
	// order-independent, but surprising to a user expecting their file
	// to keep its name).
	RenameAll CollisionPolicy = iota
	// LastWriterWins keeps the single entry with the greatest timestamp
	// under the bare name and renames the rest -- matches single-writer
	// filesystem intuition at the cost of being timestamp-order dependent
	// (a later-arriving replica can locally see a different "winner" for
	// a brief window, until full convergence).
	LastWriterWins
)

// Reconcile scans every directory reachable from root for children sharing
// a name and renames the losers according to policy. It is meant to run
// after a batch of ApplyLogOps, not on every single mutation, since
// collisions only arise from concurrent creation under the same parent and
// name (spec.md §8).
//
// Directories are scanned concurrently via errgroup, following the
// teacher's Tree.Grow fan-out pattern (grounded on internal/tree/tree.go).
func (fsys *FileSystem) Reconcile(policy CollisionPolicy) error {
	fsys.mu.Lock()
	dirs := fsys.directories()
	fsys.mu.Unlock()

	g := new(errgroup.Group)
	for _, dirID := range dirs {
		dirID := dirID
		g.Go(func() error {
			fsys.mu.Lock()
			defer fsys.mu.Unlock()
			return fsys.reconcileDir(dirID, policy)
		})
	}
	return g.Wait()
}

// directories returns every directory reachable from root (root included)
// plus the fileinodes container. Trash is not included, so collisions among
// trashed entries are never resolved.
func (fsys *FileSystem) directories() []crdtnode.NodeID {
	var out []crdtnode.NodeID
	_ = fsys.r.Tree().Walk(RootID, func(id crdtnode.NodeID, rec crdtnode.Record) error {
		if rec.Metadata.IsDir() {
			out = append(out, id)
		}
		return nil
	})
	out = append(out, FileInodesID)
	return out
}

func (fsys *FileSystem) reconcileDir(dirID crdtnode.NodeID, policy CollisionPolicy) error {
	children := fsys.r.Tree().Children(dirID)
	byName := make(map[string][]crdtnode.NodeID)
	for _, childID := range children {
		rec, ok := fsys.r.Tree().Find(childID)
		if !ok {
			continue
		}
		byName[rec.Metadata.Name] = append(byName[rec.Metadata.Name], childID)
	}

	for name, group := range byName {
		if len(group) < 2 {
			continue
		}
		if err := fsys.resolveCollision(dirID, name, group, policy); err != nil {
			return err
		}
	}
	return nil
}

func (fsys *FileSystem) resolveCollision(dirID crdtnode.NodeID, name string, group []crdtnode.NodeID, policy CollisionPolicy) error {
	var ops []crdtnode.Op

	switch policy {
	case RenameAll:
		for _, childID := range group {
			rec, ok := fsys.r.Tree().Find(childID)
			if !ok {
				continue
			}
			updated := rec.Metadata.Clone()
			updated.Name = conflictName(name, fsys.creatorTag(childID).String())
			ops = append(ops, crdtnode.Op{Timestamp: fsys.r.Tick(), Parent: dirID, Child: childID, Metadata: updated})
		}
	case LastWriterWins:
		winner := latestCreated(fsys, group)
		for _, childID := range group {
			if childID == winner {
				continue
			}
			rec, ok := fsys.r.Tree().Find(childID)
			if !ok {
				continue
			}
			updated := rec.Metadata.Clone()
			updated.Name = conflictName(name, fsys.creatorTag(childID).String())
			ops = append(ops, crdtnode.Op{Timestamp: fsys.r.Tick(), Parent: dirID, Child: childID, Metadata: updated})
		}
	}

	return fsys.r.ApplyOps(ops)
}

// latestCreated picks the member of group whose installing op_move carries
// the greatest Lamport timestamp (spec.md §4.5: "sort colliding children by
// timestamp descending"), using the same clock.Clock total order
// internal/engine sequences every operation by -- not the nodes' wall-clock
// CTime, which is only advisory metadata and, under replica clock skew,
// can disagree with which op actually happened last in the engine's own
// order.
func latestCreated(fsys *FileSystem, group []crdtnode.NodeID) crdtnode.NodeID {
	var winner crdtnode.NodeID
	var winnerRec crdtnode.Record
	first := true
	for _, id := range group {
		rec, ok := fsys.r.Tree().Find(id)
		if !ok {
			continue
		}
		if first || rec.Timestamp.Greater(winnerRec.Timestamp) {
			winner = id
			winnerRec = rec
			first = false
		}
	}
	return winner
}

func conflictName(name, actor string) string {
	return fmt.Sprintf("%s.conflict.%s", name, actor)
}
