package fs

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicolagi/movetree/internal/crdtnode"
)

func (fsys *FileSystem) childNamed(parent crdtnode.NodeID, name string) (crdtnode.NodeID, crdtnode.Record, bool) {
	for _, childID := range fsys.r.Tree().Children(parent) {
		rec, ok := fsys.r.Tree().Find(childID)
		if ok && rec.Metadata.Name == name {
			return childID, rec, true
		}
	}
	return crdtnode.NodeID{}, crdtnode.Record{}, false
}

// Lookup resolves name within the directory identified by parentIno,
// returning its inode number and attributes. A miss returns NoIno and no
// error -- a cacheable negative lookup, per spec.md §7 (SPEC_FULL.md
// §4.5's attribute surface).
func (fsys *FileSystem) Lookup(parentIno uint64, name string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return Stat{}, errorf("Lookup", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	childID, _, found := fsys.childNamed(parentID, name)
	if !found {
		return Stat{Ino: NoIno}, nil
	}
	ino := fsys.register(childID, fsys.creatorTag(childID))
	return fsys.stat(childID, ino), nil
}

// LookupPath walks path component by component from root, the convenience
// form spec.md §4.5 describes directly ("split path by /; walk from root
// matching name at each step").
func (fsys *FileSystem) LookupPath(path string) (Stat, error) {
	ino := RootIno
	stat := fsys.stat(RootID, RootIno)
	for _, name := range splitPath(path) {
		if name == "" {
			continue
		}
		var err error
		stat, err = fsys.Lookup(ino, name)
		if err != nil {
			return Stat{}, err
		}
		if stat.Ino == NoIno {
			return stat, nil
		}
		ino = stat.Ino
	}
	return stat, nil
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}

// creatorTag returns the actor that installed id's current (parent,
// metadata): the Actor half of its Record's Lamport timestamp (spec.md
// §4.3's op_move already carries this; crdtnode.Record retains it per node
// precisely so callers like this one don't need to reconstruct it from the
// log or from locally-cached state). Unknown ids fall back to this
// replica's own id, since that only affects locally-synthesized inode
// numbers for nodes this replica has never actually seen.
func (fsys *FileSystem) creatorTag(id crdtnode.NodeID) uuid.UUID {
	if rec, ok := fsys.r.Tree().Find(id); ok {
		return rec.Timestamp.Actor
	}
	return fsys.r.ID
}

// Mkdir creates a new directory named name under parentIno.
func (fsys *FileSystem) Mkdir(parentIno uint64, name string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return Stat{}, errorf("Mkdir", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	if _, _, found := fsys.childNamed(parentID, name); found {
		return Stat{}, errorf("Mkdir", "%q: %w", name, ErrExists)
	}

	now := time.Now()
	id := uuid.New()
	ts := fsys.r.Tick()
	if err := fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: ts, Parent: parentID, Child: id, Metadata: dirMeta(name, now)},
	}); err != nil {
		return Stat{}, err
	}
	ino := fsys.register(id, fsys.r.ID)
	return fsys.stat(id, ino), nil
}

// Symlink creates a symlink named name under parentIno, pointing at target.
func (fsys *FileSystem) Symlink(target string, parentIno uint64, name string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return Stat{}, errorf("Symlink", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	if _, _, found := fsys.childNamed(parentID, name); found {
		return Stat{}, errorf("Symlink", "%q: %w", name, ErrExists)
	}

	now := time.Now()
	id := uuid.New()
	meta := crdtnode.Metadata{
		Kind:          crdtnode.KindDir,
		DirKind:       crdtnode.DirKindSymlink,
		Name:          name,
		SymlinkTarget: target,
		CTime:         now,
		MTime:         now,
		Mode:          0777,
	}
	if err := fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: parentID, Child: id, Metadata: meta},
	}); err != nil {
		return Stat{}, err
	}
	ino := fsys.register(id, fsys.r.ID)
	return fsys.stat(id, ino), nil
}

// Readlink returns the target of the symlink identified by ino.
func (fsys *FileSystem) Readlink(ino uint64) (string, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	id, ok := fsys.resolve(ino)
	if !ok {
		return "", errorf("Readlink", "ino %d: %w", ino, ErrNotFound)
	}
	rec, ok := fsys.r.Tree().Find(id)
	if !ok || !rec.Metadata.IsSymlink() {
		return "", errorf("Readlink", "ino %d: %w", ino, ErrNotLink)
	}
	return rec.Metadata.SymlinkTarget, nil
}

// Mknod creates a new, zero-length regular file named name under
// parentIno: a file-inode under fileinodes with link_count 1, and a
// file-ref under parentIno pointing at it (spec.md §4.5).
func (fsys *FileSystem) Mknod(parentIno uint64, name string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return Stat{}, errorf("Mknod", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	if _, _, found := fsys.childNamed(parentID, name); found {
		return Stat{}, errorf("Mknod", "%q: %w", name, ErrExists)
	}

	now := time.Now()
	inodeID := uuid.New()
	refID := uuid.New()

	inodeMeta := crdtnode.Metadata{
		Kind:      crdtnode.KindFileInode,
		Size:      0,
		CTime:     now,
		MTime:     now,
		Mode:      0644,
		LinkCount: 1,
	}
	refMeta := crdtnode.Metadata{
		Kind:    crdtnode.KindFileRef,
		Name:    name,
		InodeID: inodeID,
	}

	if err := fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: FileInodesID, Child: inodeID, Metadata: inodeMeta},
		{Timestamp: fsys.r.Tick(), Parent: parentID, Child: refID, Metadata: refMeta},
	}); err != nil {
		return Stat{}, err
	}
	fsys.register(inodeID, fsys.r.ID)
	ino := fsys.register(refID, fsys.r.ID)
	return fsys.stat(refID, ino), nil
}

// Link creates a new hard link: another file-ref under parentIno, named
// name, sharing targetIno's underlying file inode, and increments that
// inode's link_count (spec.md §4.5, §8's hard-link-semantics property).
func (fsys *FileSystem) Link(targetIno uint64, parentIno uint64, name string) (Stat, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	targetRefID, ok := fsys.resolve(targetIno)
	if !ok {
		return Stat{}, errorf("Link", "target ino %d: %w", targetIno, ErrNotFound)
	}
	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return Stat{}, errorf("Link", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	targetRefRec, ok := fsys.r.Tree().Find(targetRefID)
	if !ok || targetRefRec.Metadata.Kind != crdtnode.KindFileRef {
		return Stat{}, errorf("Link", "target ino %d: %w", targetIno, ErrNotFile)
	}
	if _, _, found := fsys.childNamed(parentID, name); found {
		return Stat{}, errorf("Link", "%q: %w", name, ErrExists)
	}

	inodeID := targetRefRec.Metadata.InodeID
	inodeRec, ok := fsys.r.Tree().Find(inodeID)
	if !ok {
		return Stat{}, errorf("Link", "inode %s: %w", inodeID, ErrNotFound)
	}

	newRefID := uuid.New()
	newRefMeta := crdtnode.Metadata{Kind: crdtnode.KindFileRef, Name: name, InodeID: inodeID}

	updatedInodeMeta := inodeRec.Metadata.Clone()
	updatedInodeMeta.LinkCount++

	if err := fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: FileInodesID, Child: inodeID, Metadata: updatedInodeMeta},
		{Timestamp: fsys.r.Tick(), Parent: parentID, Child: newRefID, Metadata: newRefMeta},
	}); err != nil {
		return Stat{}, err
	}
	ino := fsys.register(newRefID, fsys.r.ID)
	return fsys.stat(newRefID, ino), nil
}

// Unlink removes the file-ref named name from parentIno, moving it to
// trash, and decrements its inode's link_count -- moving the inode itself
// to trash when the count reaches zero (spec.md §4.5, §8).
func (fsys *FileSystem) Unlink(parentIno uint64, name string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return errorf("Unlink", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	childID, childRec, found := fsys.childNamed(parentID, name)
	if !found {
		return errorf("Unlink", "%q: %w", name, ErrNotFound)
	}
	if childRec.Metadata.Kind != crdtnode.KindFileRef {
		return errorf("Unlink", "%q: %w", name, ErrNotFile)
	}

	inodeID := childRec.Metadata.InodeID
	inodeRec, ok := fsys.r.Tree().Find(inodeID)
	if !ok {
		return errorf("Unlink", "inode %s: %w", inodeID, ErrNotFound)
	}

	ops := []crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: TrashID, Child: childID, Metadata: crdtnode.Metadata{Kind: crdtnode.KindNone}},
	}

	updatedInodeMeta := inodeRec.Metadata.Clone()
	if updatedInodeMeta.LinkCount > 0 {
		updatedInodeMeta.LinkCount--
	}
	if updatedInodeMeta.LinkCount == 0 {
		ops = append(ops, crdtnode.Op{Timestamp: fsys.r.Tick(), Parent: TrashID, Child: inodeID, Metadata: crdtnode.Metadata{Kind: crdtnode.KindNone}})
	} else {
		ops = append(ops, crdtnode.Op{Timestamp: fsys.r.Tick(), Parent: FileInodesID, Child: inodeID, Metadata: updatedInodeMeta})
	}

	return fsys.r.ApplyOps(ops)
}

// Rename moves the entry named name from parentIno to newname under
// newparentIno, rewriting its metadata's Name field (spec.md §4.5).
func (fsys *FileSystem) Rename(parentIno uint64, name string, newParentIno uint64, newName string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return errorf("Rename", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	newParentID, ok := fsys.resolve(newParentIno)
	if !ok {
		return errorf("Rename", "new parent ino %d: %w", newParentIno, ErrNotFound)
	}
	childID, childRec, found := fsys.childNamed(parentID, name)
	if !found {
		return errorf("Rename", "%q: %w", name, ErrNotFound)
	}

	updated := childRec.Metadata.Clone()
	updated.Name = newName

	return fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: newParentID, Child: childID, Metadata: updated},
	})
}

// Rmdir removes the empty directory named name from parentIno, moving it
// to trash. Rejects non-directories and non-empty directories (spec.md
// §4.5, §7).
func (fsys *FileSystem) Rmdir(parentIno uint64, name string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	parentID, ok := fsys.resolve(parentIno)
	if !ok {
		return errorf("Rmdir", "parent ino %d: %w", parentIno, ErrNotFound)
	}
	childID, childRec, found := fsys.childNamed(parentID, name)
	if !found {
		return errorf("Rmdir", "%q: %w", name, ErrNotFound)
	}
	if !childRec.Metadata.IsDir() {
		return errorf("Rmdir", "%q: %w", name, ErrNotDir)
	}
	if len(fsys.r.Tree().Children(childID)) > 0 {
		return errorf("Rmdir", "%q: %w", name, ErrNotEmpty)
	}

	return fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: TrashID, Child: childID, Metadata: crdtnode.Metadata{Kind: crdtnode.KindNone}},
	})
}

// Readdir returns the (name, ino) pair at offset within dirIno's child
// list, and whether one exists there; past the end it returns
// ("", Stat{}, false) (spec.md §4.5's "null when past the end"). The order
// follows crdtnode.State.Children, stabilized by child id so repeated
// traversals and independent replicas holding the same logical state agree.
func (fsys *FileSystem) Readdir(dirIno uint64, offset int) (name string, stat Stat, ok bool) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	dirID, found := fsys.resolve(dirIno)
	if !found {
		return "", Stat{}, false
	}
	children := fsys.r.Tree().Children(dirID)
	if offset < 0 || offset >= len(children) {
		return "", Stat{}, false
	}
	childID := children[offset]
	rec, _ := fsys.r.Tree().Find(childID)
	ino := fsys.register(childID, fsys.creatorTag(childID))
	return rec.Metadata.Name, fsys.stat(childID, ino), true
}

// Read returns up to size bytes of ino's content starting at offset. ino
// must be a file-inode or a file-ref, in which case the file-inode it
// points at is read (spec.md §4.5; prototype content storage, see
// SPEC_FULL.md §9).
func (fsys *FileSystem) Read(ino uint64, offset int64, size int) ([]byte, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	id, ok := fsys.resolve(ino)
	if !ok {
		return nil, errorf("Read", "ino %d: %w", ino, ErrNotFound)
	}
	rec, ok := fsys.r.Tree().Find(id)
	if ok && rec.Metadata.Kind == crdtnode.KindFileRef {
		id = rec.Metadata.InodeID
		rec, ok = fsys.r.Tree().Find(id)
	}
	if !ok || rec.Metadata.Kind != crdtnode.KindFileInode {
		return nil, errorf("Read", "ino %d: %w", ino, ErrNotFile)
	}
	content := rec.Metadata.Content
	if offset >= int64(len(content)) {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	out := make([]byte, end-offset)
	copy(out, content[offset:end])
	return out, nil
}

// Write appends data to ino's content and rewrites its metadata in a single
// op_move (spec.md §4.5). ino may be a file-inode or a file-ref, in which
// case the file-inode it points at is written. Returns the number of bytes
// written.
func (fsys *FileSystem) Write(ino uint64, data []byte) (int, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	id, ok := fsys.resolve(ino)
	if !ok {
		return 0, errorf("Write", "ino %d: %w", ino, ErrNotFound)
	}
	rec, ok := fsys.r.Tree().Find(id)
	if ok && rec.Metadata.Kind == crdtnode.KindFileRef {
		id = rec.Metadata.InodeID
		rec, ok = fsys.r.Tree().Find(id)
	}
	if !ok || rec.Metadata.Kind != crdtnode.KindFileInode {
		return 0, errorf("Write", "ino %d: %w", ino, ErrNotFile)
	}

	updated := rec.Metadata.Clone()
	updated.Content = append(updated.Content, data...)
	updated.Size = uint64(len(updated.Content))
	updated.MTime = time.Now()

	if err := fsys.r.ApplyOps([]crdtnode.Op{
		{Timestamp: fsys.r.Tick(), Parent: FileInodesID, Child: id, Metadata: updated},
	}); err != nil {
		return 0, err
	}
	return len(data), nil
}
