package crdtnode

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// NodeID identifies a tree node. uuid.Nil is reserved to mean "no parent"
// (see Record.Parent) and must never be used as a real node's id.
type NodeID = uuid.UUID

// Kind tags the variant carried by Metadata, replacing the source's
// dynamically-added-field approach (spec.md §9, "Metadata as open record")
// with an explicit tagged union.
type Kind uint8

const (
	// KindNone is carried by moves to trash that do not also rewrite
	// metadata (the wire format's "null" metadata case).
	KindNone Kind = iota
	// KindDir is a directory or symlink inode, living directly under root.
	KindDir
	// KindFileRef is a leaf under root pointing at a file inode, living
	// under fileinodes. Multiple file refs may share one InodeID (hard
	// links).
	KindFileRef
	// KindFileInode is the actual file content/metadata, living under
	// fileinodes.
	KindFileInode
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDir:
		return "dir"
	case KindFileRef:
		return "file_ref"
	case KindFileInode:
		return "file_inode"
	default:
		return "unknown"
	}
}

// DirKind distinguishes a plain directory from a symlink within KindDir
// metadata.
type DirKind uint8

const (
	DirKindDirectory DirKind = iota
	DirKindSymlink
)

// Metadata is the tagged-variant payload carried by every tree node. Only
// the fields relevant to Kind are meaningful; the rest are zero.
type Metadata struct {
	Kind Kind

	// Common to KindDir and KindFileRef: the name of the entry within its
	// parent directory.
	Name string

	// KindDir and KindFileInode: size in bytes, timestamps, permission
	// bits and ownership (SPEC_FULL.md §3 supplemental fields -- a
	// complete lookup/getattr surface needs these even though spec.md's
	// distillation only mentioned size/ctime/mtime/kind).
	Size  uint64
	CTime time.Time
	MTime time.Time
	Mode  os.FileMode
	Owner uint32
	Group uint32

	// KindDir only.
	DirKind       DirKind
	SymlinkTarget string

	// KindFileRef only: the inode this reference points at.
	InodeID NodeID

	// KindFileInode only.
	LinkCount uint32
	Content   []byte
}

// IsDir reports whether m describes a plain directory (not a symlink).
func (m Metadata) IsDir() bool {
	return m.Kind == KindDir && m.DirKind == DirKindDirectory
}

// IsSymlink reports whether m describes a symlink.
func (m Metadata) IsSymlink() bool {
	return m.Kind == KindDir && m.DirKind == DirKindSymlink
}

// Clone returns a deep-enough copy: Content is copied so that writers never
// alias a tree node's buffer.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Content != nil {
		out.Content = append([]byte(nil), m.Content...)
	}
	return out
}
