package crdtnode

import "github.com/nicolagi/movetree/internal/clock"

// NoParent is the sentinel Parent value meaning "this node is a forest
// root". It is the zero value of NodeID (uuid.Nil).
var NoParent NodeID

// Record is what the tree maps a child id to: its parent, metadata, and the
// Lamport timestamp of the op_move that installed it. The timestamp is the
// same total order the engine already uses to sequence operations (spec.md
// §4.3), so anything that needs to rank nodes by "most recent" -- e.g.
// name-collision reconciliation's last-writer-wins policy -- ranks them the
// same way the engine itself would, rather than by wall-clock metadata.
type Record struct {
	Parent    NodeID
	Metadata  Metadata
	Timestamp clock.Clock
}

// HasParent reports whether r has a real parent (is not a forest root).
func (r Record) HasParent() bool {
	return r.Parent != NoParent
}

// State is the tree's mapping from child_id to (parent_id, metadata), plus
// an inverse index for O(1) children lookups. It is the data structure
// spec.md §3 describes as "the forward map" and "the inverse index";
// shaped after the teacher's internal/tree.Tree forward-map-plus-index
// pair, generalized from a single-rooted 9P tree to an arbitrary forest.
//
// State itself performs no cycle or collision checking -- that is
// internal/engine's responsibility (spec.md §4.2).
type State struct {
	forward map[NodeID]Record
	index   map[NodeID]map[NodeID]struct{}
}

// NewState returns an empty tree state.
func NewState() *State {
	return &State{
		forward: make(map[NodeID]Record),
		index:   make(map[NodeID]map[NodeID]struct{}),
	}
}

// Find returns the record for child, and whether it exists.
func (s *State) Find(child NodeID) (Record, bool) {
	r, ok := s.forward[child]
	return r, ok
}

// Children returns the ids of parent's children, in a stable order (sorted
// by id) so that repeated calls -- and independent replicas holding the
// same logical state -- produce the same traversal order, as spec.md
// §4.5's Readdir note requires.
func (s *State) Children(parent NodeID) []NodeID {
	set := s.index[parent]
	if len(set) == 0 {
		return nil
	}
	out := make([]NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sortNodeIDs(out)
	return out
}

// Add installs child -> (parent, metadata, timestamp), maintaining the
// forward map and inverse index atomically. If child already has a
// mapping, it is replaced (its prior inverse-index entry is removed
// first).
func (s *State) Add(child, parent NodeID, metadata Metadata, timestamp clock.Clock) {
	s.removeFromIndex(child)
	s.forward[child] = Record{Parent: parent, Metadata: metadata, Timestamp: timestamp}
	s.addToIndex(child, parent)
}

// Remove deletes child's mapping entirely, from both the forward map and
// the inverse index. Removing an absent child is a no-op.
func (s *State) Remove(child NodeID) {
	s.removeFromIndex(child)
	delete(s.forward, child)
}

func (s *State) addToIndex(child, parent NodeID) {
	set := s.index[parent]
	if set == nil {
		set = make(map[NodeID]struct{})
		s.index[parent] = set
	}
	set[child] = struct{}{}
}

func (s *State) removeFromIndex(child NodeID) {
	if rec, ok := s.forward[child]; ok {
		if set := s.index[rec.Parent]; set != nil {
			delete(set, child)
			if len(set) == 0 {
				delete(s.index, rec.Parent)
			}
		}
	}
}

// Walk visits root and every descendant reachable through the forward map,
// depth first, calling visit(id, record) for each. Walk stops and returns
// visit's error the first time it returns one.
func (s *State) Walk(root NodeID, visit func(id NodeID, record Record) error) error {
	rec, ok := s.Find(root)
	if !ok {
		return errorf("Walk", "root %s: %w", root, ErrNotFound)
	}
	if err := visit(root, rec); err != nil {
		return err
	}
	for _, child := range s.Children(root) {
		if err := s.Walk(child, visit); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of nodes currently tracked, for diagnostics and
// tests.
func (s *State) Len() int {
	return len(s.forward)
}

// Clone returns a deep-enough independent copy of s: record values are
// value types (Metadata.Clone semantics apply only to Content, handled by
// callers that mutate it), so copying the maps suffices.
func (s *State) Clone() *State {
	out := NewState()
	for id, rec := range s.forward {
		out.forward[id] = rec
	}
	for parent, set := range s.index {
		clone := make(map[NodeID]struct{}, len(set))
		for id := range set {
			clone[id] = struct{}{}
		}
		out.index[parent] = clone
	}
	return out
}

func sortNodeIDs(ids []NodeID) {
	// Simple insertion sort: child lists are small (directory fan-out),
	// so this avoids pulling in sort for a handful of elements while
	// staying a stable, deterministic order across replicas.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && idLess(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func idLess(a, b NodeID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
