package fs

import (
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/nicolagi/movetree/internal/crdtnode"
)

// NoIno is the sentinel inode number returned by Lookup on a miss: a
// cacheable negative lookup per spec.md §4.5.
const NoIno uint64 = 0

// encodeIno derives a stable, collision-resistant uint64 inode number from
// a node id and the id of the replica that created it, packing the actor
// into the high 16 bits and a hash of the node id into the low 48 (spec.md
// §9, "adopt it" -- the design note's resolution of the two-version
// disagreement on local ino tables). No central allocator or cross-replica
// consultation is required: any replica that knows (nodeID, actor) derives
// the same ino.
//
// Because a uint64 cannot hold the full 128 bits of a NodeID, the mapping
// is lossy; FileSystem keeps a small derived, rebuildable index (inoIndex)
// from ino back to the full NodeID, rather than reviving the source's
// by-reference-aliased local table (spec.md §9).
func encodeIno(nodeID crdtnode.NodeID, actor uuid.UUID) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(nodeID[:])
	low48 := h.Sum64() & 0x0000FFFFFFFFFFFF

	tag := uint64(actor[0])<<8 | uint64(actor[1])
	ino := tag<<48 | low48
	if ino == NoIno {
		// Vanishingly unlikely, but NoIno is reserved for lookup misses.
		ino = 1
	}
	return ino
}
