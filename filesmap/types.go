// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package filesmap is the FilesMap core (C5): the path→FileItem mapping,
// its creation and serialisation, and the sync algorithm that reconciles a
// new walk of a local tree against a previous map.
package filesmap

import "sort"

// Attribute keys a FileItem may carry. Type uniquely determines which
// other keys must be present (see the package doc on FileItem).
const (
	KeyType               = "type"
	KeySize               = "size"
	KeyCreated            = "created"
	KeyModified           = "modified"
	KeyLink               = "link"
	KeySymlinkTarget      = "symlink_target"
	KeySymlinkTargetType  = "symlink_target_type"
	KeyReadOnly           = "readonly"
	KeyModeBits           = "mode_bits"
	KeyOriginalCreated    = "original_created"
	KeyOriginalModified   = "original_modified"
)

// Sentinel media types for non-file kinds.
const (
	MediaTypeDirectory = "inode/directory"
	MediaTypeSymlink   = "inode/symlink"
)

// FileItem is the record for one tree entry: a small mapping from a fixed
// set of attribute keys to string values. Required keys for all kinds:
// type, size, created, modified. Required for kind=file: link. Required
// for kind=symlink: symlink_target, symlink_target_type.
type FileItem map[string]string

// IsDir reports whether the item's type is the directory sentinel.
func (f FileItem) IsDir() bool { return f[KeyType] == MediaTypeDirectory }

// IsSymlink reports whether the item's type is the symlink sentinel.
func (f FileItem) IsSymlink() bool { return f[KeyType] == MediaTypeSymlink }

// IsFile reports whether the item is neither a directory nor a symlink.
func (f FileItem) IsFile() bool { return !f.IsDir() && !f.IsSymlink() }

// Clone returns a shallow copy (string values are immutable, so this is a
// full value copy).
func (f FileItem) Clone() FileItem {
	out := make(FileItem, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FilesMap is an ordered mapping from normalised absolute path to FileItem.
// "Ordered" here means deterministic iteration (lexical by path), which is
// also what JSON marshalling of a Go map produces, satisfying the
// determinism requirement for the persisted wire form without extra
// bookkeeping.
type FilesMap struct {
	items map[string]FileItem
}

// New returns an empty FilesMap.
func New() *FilesMap {
	return &FilesMap{items: make(map[string]FileItem)}
}

// Get returns the FileItem at path and whether it was present.
func (m *FilesMap) Get(path string) (FileItem, bool) {
	item, ok := m.items[path]
	return item, ok
}

// Set stores item at path, overwriting any previous entry.
func (m *FilesMap) Set(path string, item FileItem) {
	if m.items == nil {
		m.items = make(map[string]FileItem)
	}
	m.items[path] = item
}

// Delete removes path, if present.
func (m *FilesMap) Delete(path string) {
	delete(m.items, path)
}

// Len returns the number of entries.
func (m *FilesMap) Len() int { return len(m.items) }

// Paths returns all paths in lexical order.
func (m *FilesMap) Paths() []string {
	paths := make([]string, 0, len(m.items))
	for p := range m.items {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy of the map.
func (m *FilesMap) Clone() *FilesMap {
	out := New()
	for p, item := range m.items {
		out.items[p] = item.Clone()
	}
	return out
}

// Equal reports whether two maps contain the same paths with identical
// FileItem contents.
func (m *FilesMap) Equal(other *FilesMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for p, item := range m.items {
		oi, ok := other.items[p]
		if !ok || len(item) != len(oi) {
			return false
		}
		for k, v := range item {
			if oi[k] != v {
				return false
			}
		}
	}
	return true
}

// ChangeKind classifies one entry of a ProcessedFiles audit log.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Removed
	Failed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Change is one ProcessedFiles record: the outcome of reconciling a single
// local source path. Link is empty for non-file kinds and for Failed.
type Change struct {
	Kind    ChangeKind
	Link    string
	Message string // set iff Kind == Failed
}

// ProcessedFiles is an ordered mapping from local source path to a change
// record, preserving first-insertion order for deterministic reporting.
type ProcessedFiles struct {
	order []string
	items map[string]Change
}

// NewProcessedFiles returns an empty ProcessedFiles.
func NewProcessedFiles() *ProcessedFiles {
	return &ProcessedFiles{items: make(map[string]Change)}
}

// Set records change for localPath, appending to the order if new.
func (p *ProcessedFiles) Set(localPath string, change Change) {
	if p.items == nil {
		p.items = make(map[string]Change)
	}
	if _, exists := p.items[localPath]; !exists {
		p.order = append(p.order, localPath)
	}
	p.items[localPath] = change
}

// Get returns the change recorded for localPath.
func (p *ProcessedFiles) Get(localPath string) (Change, bool) {
	c, ok := p.items[localPath]
	return c, ok
}

// Len returns the number of recorded paths.
func (p *ProcessedFiles) Len() int { return len(p.items) }

// Paths returns local paths in first-insertion order.
func (p *ProcessedFiles) Paths() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Range calls fn for each (localPath, change) in insertion order, stopping
// early if fn returns false.
func (p *ProcessedFiles) Range(fn func(localPath string, change Change) bool) {
	for _, path := range p.order {
		if !fn(path, p.items[path]) {
			return
		}
	}
}

// Merge appends every entry of other into p, in other's order, skipping
// paths already present in p.
func (p *ProcessedFiles) Merge(other *ProcessedFiles) {
	other.Range(func(localPath string, change Change) bool {
		if _, exists := p.items[localPath]; !exists {
			p.Set(localPath, change)
		}
		return true
	})
}

// ChangeCount counts the Added/Updated/Removed entries in p; pure
// no-ops (Failed, including FileAlreadyExists records) never count,
// matching Sync's inline changeCount bookkeeping.
func (p *ProcessedFiles) ChangeCount() int {
	n := 0
	p.Range(func(_ string, change Change) bool {
		if change.Kind != Failed {
			n++
		}
		return true
	})
	return n
}
