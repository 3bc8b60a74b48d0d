package engine

import (
	"github.com/nicolagi/movetree/internal/clock"
	"github.com/nicolagi/movetree/internal/crdtnode"
)

// Log is a per-replica sequence of log entries in strictly descending
// timestamp order (spec.md §3: "the per-replica log is a sequence in
// strictly descending timestamp order; this ordering is an invariant").
// Index 0, the head, always carries the largest timestamp.
type Log []crdtnode.LogEntry

// IsDescending reports whether every adjacent pair (a, b) in the log
// satisfies a.Timestamp > b.Timestamp, per spec.md §8's log ordering
// invariant. Tests assert this after every ApplyOp.
func (l Log) IsDescending() bool {
	for i := 1; i < len(l); i++ {
		if !l[i-1].Timestamp.Greater(l[i].Timestamp) {
			return false
		}
	}
	return true
}

// Truncate drops every entry whose timestamp is strictly less than
// threshold, returning the trimmed log and whether anything was removed.
// Safe to call only with a threshold that is causally stable (see
// internal/replica.Replica.CausallyStableThreshold): spec.md §8's
// truncation-safety property guarantees no future ApplyOp can ever need an
// entry below that point.
func (l Log) Truncate(threshold clock.Clock, defined bool) (Log, bool) {
	if !defined {
		return l, false
	}
	cut := len(l)
	for cut > 0 && l[cut-1].Timestamp.Less(threshold) {
		cut--
	}
	if cut == len(l) {
		return l, false
	}
	return l[:cut], true
}
