package crdtnode

import "github.com/nicolagi/movetree/internal/clock"

// Op is the sole mutation primitive on the tree: "at time Timestamp, node
// Child has parent Parent with metadata Metadata" (spec.md §3, "Operation
// (op_move)").
type Op struct {
	Timestamp clock.Clock
	Parent    NodeID
	Metadata  Metadata
	Child     NodeID
}

// LogEntry is a recorded Op plus the prior (parent, metadata) it
// overwrote, captured at the moment of original application, enabling
// inversion (spec.md §3, "Log entry (log_op_move)").
type LogEntry struct {
	Timestamp  clock.Clock
	Parent     NodeID
	Metadata   Metadata
	Child      NodeID
	OldParent  Record
	HadParent  bool // whether OldParent is meaningful (old_parent != none)
}

// Op reconstructs the op_move that produced this log entry, as
// internal/engine's RedoOp does (spec.md §4.3).
func (e LogEntry) Op() Op {
	return Op{
		Timestamp: e.Timestamp,
		Parent:    e.Parent,
		Metadata:  e.Metadata,
		Child:     e.Child,
	}
}
