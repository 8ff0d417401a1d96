// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import (
	"strconv"
	"time"

	"github.com/strongdm/safefiles/filemeta"
	"github.com/strongdm/safefiles/safeerr"
)

// SyncOptions are the inputs to Sync.
type SyncOptions struct {
	// CurrentFilesMap is the previous state; may be empty (nil is treated
	// as empty). Sync consumes it: entries matched during reconciliation
	// are removed so that what remains at the end is exactly the set of
	// paths absent from the new walk.
	CurrentFilesMap *FilesMap

	// Location is the local source root that was walked.
	Location string

	// NewContent is the walker's output over Location: local path →
	// Added(link)/Failed(message). Directories and symlinks carry an
	// empty link; files carry their published (or dry-run) content
	// digest, computed once by the walker/blob pipeline.
	NewContent *ProcessedFiles

	// DestPath is the optional selector inside the container that
	// determines how source paths are rebased. Empty means "/".
	DestPath string

	Delete             bool
	Force              bool
	CompareFileContent bool
	FollowLinks        bool
}

// Sync reconciles a new walk of a local tree (opts.NewContent) against
// opts.CurrentFilesMap, implementing the path rebasing rule and the
// add/update/remove reconciliation steps. It returns the per-path audit
// log, the resulting FilesMap, and a count of entries that were actually
// added, updated, or removed (pure no-ops do not count).
func Sync(opts SyncOptions) (*ProcessedFiles, *FilesMap, int, error) {
	current := opts.CurrentFilesMap
	if current == nil {
		current = New()
	} else {
		current = current.Clone()
	}

	bp := computeBasePaths(opts.Location, opts.DestPath)
	processed := NewProcessedFiles()
	result := New()
	changeCount := 0

	for _, localPath := range opts.NewContent.Paths() {
		change, _ := opts.NewContent.Get(localPath)
		if change.Kind == Failed {
			processed.Set(localPath, change)
			continue
		}

		normalised := bp.rebase(localPath)
		meta, mediaType, err := filemeta.Extract(localPath, opts.FollowLinks)
		if err != nil {
			processed.Set(localPath, Change{Kind: Failed, Message: err.Error()})
			continue
		}
		item := buildFileItem(meta, mediaType, change.Link)

		existing, exists := current.Get(normalised)
		switch {
		case !exists:
			result.Set(normalised, item)
			processed.Set(localPath, Change{Kind: Added, Link: change.Link})
			changeCount++
			for _, anc := range ancestors(normalised) {
				if ancItem, ok := current.Get(anc); ok {
					result.Set(anc, ancItem)
					current.Delete(anc)
				}
			}

		default:
			modified := item.IsFile() && existing[KeyLink] != item[KeyLink]
			switch {
			case opts.Force || (opts.CompareFileContent && modified):
				result.Set(normalised, item)
				processed.Set(localPath, Change{Kind: Updated, Link: change.Link})
				changeCount++
			default:
				result.Set(normalised, existing)
				if !opts.Force && !opts.CompareFileContent {
					if modified {
						processed.Set(localPath, Change{Kind: Failed, Message: safeerr.NewFileNameConflict(normalised).Error()})
					} else {
						processed.Set(localPath, Change{Kind: Failed, Message: safeerr.NewFileAlreadyExists(normalised).Error()})
					}
				}
			}
			current.Delete(normalised)
			for _, anc := range ancestors(normalised) {
				current.Delete(anc)
			}
		}
	}

	for _, leftover := range current.Paths() {
		item, _ := current.Get(leftover)
		localPath := bp.unrebase(leftover)
		if opts.Delete {
			processed.Set(localPath, Change{Kind: Removed, Link: item[KeyLink]})
			changeCount++
			continue
		}
		result.Set(leftover, item)
	}

	return processed, result, changeCount, nil
}

// buildFileItem assembles a FileItem from extracted metadata, the detected
// media type, and the blob link (empty for non-file kinds).
func buildFileItem(meta filemeta.Meta, mediaType, link string) FileItem {
	item := FileItem{
		KeyType:     mediaType,
		KeySize:     strconv.FormatInt(meta.Size, 10),
		KeyCreated:  meta.Created.UTC().Format(time.RFC3339),
		KeyModified: meta.Modified.UTC().Format(time.RFC3339),
	}
	if meta.Kind == filemeta.KindFile {
		item[KeyType] = mediaType
		item[KeyLink] = link
	}
	if meta.Kind == filemeta.KindDir {
		item[KeyType] = MediaTypeDirectory
	}
	if meta.Kind == filemeta.KindSymlink {
		item[KeyType] = MediaTypeSymlink
		item[KeySymlinkTarget] = meta.SymlinkTarget
		item[KeySymlinkTargetType] = meta.SymlinkTargetKind.String()
	}
	if meta.ReadOnly {
		item[KeyReadOnly] = "true"
	}
	if meta.ModeBits != 0 {
		item[KeyModeBits] = strconv.FormatUint(uint64(meta.ModeBits.Perm()), 8)
	}
	return item
}
