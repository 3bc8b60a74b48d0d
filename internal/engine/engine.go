// Package engine implements the move-operation algorithm of Kleppmann et
// al., "A highly-available move operation for replicated trees and
// distributed filesystems": IsAncestor, DoOp, UndoOp, RedoOp and the
// convergence core, ApplyOp.
//
// Grounded on the teacher's internal/tree/merge.go, which also logs its
// conflict decisions through logrus and treats "nothing to do" as a
// first-class, loudly-logged outcome rather than a silent no-op.
package engine

import (
	log "github.com/sirupsen/logrus"

	"github.com/nicolagi/movetree/internal/crdtnode"
)

// IsAncestor walks parent pointers from descendant upward, returning true
// if ancestor is encountered before a node with no parent (spec.md §4.3).
func IsAncestor(tree *crdtnode.State, descendant, ancestor crdtnode.NodeID) bool {
	current := descendant
	for {
		rec, ok := tree.Find(current)
		if !ok {
			return false
		}
		if !rec.HasParent() {
			return false
		}
		if rec.Parent == ancestor {
			return true
		}
		current = rec.Parent
	}
}

// DoOp applies op to tree, mutating it in place, and returns the log entry
// that records the effect. The bool result reports whether the tree was
// actually mutated: the cycle guard (spec.md §4.3 step 3) is the algorithm's
// only rejection rule, firing when op.Child == op.Parent or when op.Parent
// is currently a descendant of op.Child (moving child there would close a
// cycle). When the guard fires, tree is left untouched but the log entry is
// still produced, carrying whatever old_parent the child already had.
func DoOp(op crdtnode.Op, tree *crdtnode.State) (crdtnode.LogEntry, bool) {
	oldRec, had := tree.Find(op.Child)
	entry := crdtnode.LogEntry{
		Timestamp: op.Timestamp,
		Parent:    op.Parent,
		Metadata:  op.Metadata,
		Child:     op.Child,
		OldParent: oldRec,
		HadParent: had,
	}

	if op.Child == op.Parent || IsAncestor(tree, op.Parent, op.Child) {
		log.WithFields(log.Fields{
			"child":     op.Child,
			"parent":    op.Parent,
			"timestamp": op.Timestamp.String(),
		}).Debug("engine: move rejected by cycle guard")
		return entry, false
	}

	tree.Remove(op.Child)
	tree.Add(op.Child, op.Parent, op.Metadata, op.Timestamp)
	return entry, true
}

// UndoOp removes the current mapping for entry.Child and, if the entry
// witnessed a prior parent, reinstalls it verbatim -- restoring the exact
// pre-application state the entry captured (spec.md §4.3).
func UndoOp(entry crdtnode.LogEntry, tree *crdtnode.State) {
	tree.Remove(entry.Child)
	if entry.HadParent {
		tree.Add(entry.Child, entry.OldParent.Parent, entry.OldParent.Metadata, entry.OldParent.Timestamp)
	}
}

// RedoOp reconstructs the op_move the entry recorded and re-applies it via
// DoOp, returning the newly computed log entry. Its OldParent may differ
// from the original entry's, since it is derived anew against the tree's
// current state rather than carried over (spec.md §4.3).
func RedoOp(entry crdtnode.LogEntry, tree *crdtnode.State) crdtnode.LogEntry {
	newEntry, _ := DoOp(entry.Op(), tree)
	return newEntry
}

// ApplyOp is the convergence core (spec.md §4.3). It mutates tree in place
// and returns the updated log, which remains in strictly descending
// timestamp order.
//
// The recursive definition in spec.md --
//
//	undo h, recurse into apply_op(op, state-without-h), then redo h
//
// -- is implemented iteratively here per spec.md §9's design note: pop log
// entries newer than op into an explicit stack (undoing each as it is
// popped), apply op once the stack is exhausted or a head older than op is
// reached, then redo the popped entries back onto the tree in reverse pop
// order, exactly mirroring how the recursion would unwind.
func ApplyOp(op crdtnode.Op, log_ Log, tree *crdtnode.State) (Log, error) {
	if len(log_) == 0 {
		entry, _ := DoOp(op, tree)
		return Log{entry}, nil
	}

	if op.Timestamp.Equal(log_[0].Timestamp) {
		return log_, ErrDuplicateTimestamp
	}

	var popped []crdtnode.LogEntry
	rest := log_
	for len(rest) > 0 && op.Timestamp.Less(rest[0].Timestamp) {
		UndoOp(rest[0], tree)
		popped = append(popped, rest[0])
		rest = rest[1:]
	}

	newEntry, _ := DoOp(op, tree)
	rest = prepend(rest, newEntry)

	for i := len(popped) - 1; i >= 0; i-- {
		redone := RedoOp(popped[i], tree)
		rest = prepend(rest, redone)
	}

	return rest, nil
}

func prepend(log_ Log, entry crdtnode.LogEntry) Log {
	out := make(Log, 0, len(log_)+1)
	out = append(out, entry)
	out = append(out, log_...)
	return out
}
