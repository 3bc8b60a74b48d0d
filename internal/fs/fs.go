// Package fs is the filesystem projection of spec.md §4.5: it maps
// FUSE-style low-level calls (Lookup, Mkdir, Mknod, Link, Unlink, Rename,
// Symlink, Read, Write, Readdir, Rmdir) onto batches of op_move against a
// replica's move-tree.
//
// Grounded on cmd/musclefs/musclefs.go's dispatch shape -- one method per
// FUSE call, validated up front, mutating through a single serialized
// entry point -- generalized from that teacher's 9P-server binding to a
// transport-agnostic library surface.
package fs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nicolagi/movetree/internal/crdtnode"
	"github.com/nicolagi/movetree/internal/replica"
)

// Well-known fixed ids for the three top-level nodes every replica creates
// at Init (spec.md §3). Unlike ordinary nodes, these are not random: every
// replica must agree on them without any coordination, so they are
// hard-coded constants instead of the output of uuid.New().
var (
	RootID       = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	FileInodesID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TrashID      = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// wellKnownActor tags the inode numbers of the three fixed top-level
// nodes, since they are not created by any single replica's clock.
var wellKnownActor uuid.UUID

// RootIno, FileInodesIno and TrashIno are the fixed inode numbers for the
// three top-level nodes, computable by any client without consulting the
// filesystem.
var (
	RootIno       = encodeIno(RootID, wellKnownActor)
	FileInodesIno = encodeIno(FileInodesID, wellKnownActor)
	TrashIno      = encodeIno(TrashID, wellKnownActor)
)

// Stat is the attribute surface a mount layer needs from Lookup/GetAttr,
// assembled from a node's metadata (SPEC_FULL.md §4.5).
type Stat struct {
	Ino       uint64
	Kind      crdtnode.Kind
	IsDir     bool
	IsSymlink bool
	Size      uint64
	CTime     time.Time
	MTime     time.Time
	Mode      uint32
	Nlink     uint32
}

// FileSystem projects FUSE-style calls onto a replica's move-tree. Per
// spec.md §5's single-mutator-per-replica scheduling model, every mutating
// call is serialized behind mu -- the same discipline as the teacher's
// cmd/musclefs/musclefs.go ops struct.
type FileSystem struct {
	mu sync.Mutex

	r *replica.Replica

	// inoIndex is a derived, rebuildable cache from inode number back to
	// full node id (see ino.go) -- not a source of truth, just a
	// convenience so callers can address nodes by ino as FUSE requires.
	inoIndex map[uint64]crdtnode.NodeID
}

// New wraps r, initializing the three fixed top-level nodes if the
// replica's tree doesn't already have them (idempotent: calling New on an
// already-initialized replica is a no-op beyond registering the ino
// index).
func New(r *replica.Replica) (*FileSystem, error) {
	fsys := &FileSystem{
		r:        r,
		inoIndex: make(map[uint64]crdtnode.NodeID),
	}
	fsys.register(RootID, wellKnownActor)
	fsys.register(FileInodesID, wellKnownActor)
	fsys.register(TrashID, wellKnownActor)

	if _, ok := r.Tree().Find(RootID); ok {
		return fsys, nil
	}

	now := time.Now()
	ops := []crdtnode.Op{
		{Timestamp: r.Tick(), Parent: crdtnode.NoParent, Child: RootID, Metadata: dirMeta("root", now)},
		{Timestamp: r.Tick(), Parent: crdtnode.NoParent, Child: FileInodesID, Metadata: dirMeta("fileinodes", now)},
		{Timestamp: r.Tick(), Parent: crdtnode.NoParent, Child: TrashID, Metadata: dirMeta("trash", now)},
	}
	if err := r.ApplyOps(ops); err != nil {
		return nil, errorf("New", "initializing fixed top-level nodes: %w", err)
	}
	log.WithField("replica", r.ID).Info("fs: initialized root, fileinodes, trash")
	return fsys, nil
}

func dirMeta(name string, now time.Time) crdtnode.Metadata {
	return crdtnode.Metadata{
		Kind:    crdtnode.KindDir,
		DirKind: crdtnode.DirKindDirectory,
		Name:    name,
		Mode:    0755,
		CTime:   now,
		MTime:   now,
	}
}

func (fsys *FileSystem) register(id crdtnode.NodeID, actor uuid.UUID) uint64 {
	ino := encodeIno(id, actor)
	fsys.inoIndex[ino] = id
	return ino
}

// resolve returns the node id for ino, and whether it is known.
func (fsys *FileSystem) resolve(ino uint64) (crdtnode.NodeID, bool) {
	id, ok := fsys.inoIndex[ino]
	return id, ok
}

func (fsys *FileSystem) stat(id crdtnode.NodeID, ino uint64) Stat {
	rec, _ := fsys.r.Tree().Find(id)
	m := rec.Metadata
	// A file ref carries only a name; its size, times, mode and link count
	// live on the file inode it points at.
	attrs := m
	if m.Kind == crdtnode.KindFileRef {
		if inodeRec, ok := fsys.r.Tree().Find(m.InodeID); ok {
			attrs = inodeRec.Metadata
		}
	}
	s := Stat{
		Ino:       ino,
		Kind:      m.Kind,
		IsDir:     m.IsDir(),
		IsSymlink: m.IsSymlink(),
		Size:      attrs.Size,
		CTime:     attrs.CTime,
		MTime:     attrs.MTime,
		Mode:      uint32(attrs.Mode),
		Nlink:     1,
	}
	if attrs.Kind == crdtnode.KindFileInode {
		s.Nlink = attrs.LinkCount
	}
	return s
}
