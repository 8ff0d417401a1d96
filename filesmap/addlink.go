// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import (
	"strconv"
	"time"

	"github.com/strongdm/safefiles/safeerr"
)

// AddLink implements files_map_add_link: attaches an existing blob handle
// at destPath (rather than uploading), applying the same exists/force
// policy as Sync's per-entry comparison. mediaType describes the linked
// content; size is its byte length.
func AddLink(m *FilesMap, destPath, link, mediaType string, size int64, force bool) (*FilesMap, *ProcessedFiles, error) {
	result := m.Clone()
	processed := NewProcessedFiles()
	now := time.Now().UTC().Format(time.RFC3339)

	item := FileItem{
		KeyType:     mediaType,
		KeySize:     strconv.FormatInt(size, 10),
		KeyCreated:  now,
		KeyModified: now,
		KeyLink:     link,
	}

	existing, exists := result.Get(destPath)
	switch {
	case !exists:
		result.Set(destPath, item)
		processed.Set(destPath, Change{Kind: Added, Link: link})
	case force:
		result.Set(destPath, item)
		processed.Set(destPath, Change{Kind: Updated, Link: link})
	case existing[KeyLink] == link:
		processed.Set(destPath, Change{Kind: Failed, Message: safeerr.NewFileAlreadyExists(destPath).Error()})
	default:
		processed.Set(destPath, Change{Kind: Failed, Message: safeerr.NewFileNameConflict(destPath).Error()})
	}
	return result, processed, nil
}
