// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import (
	"strings"

	"github.com/strongdm/safefiles/safeerr"
)

// RemovePath implements files_map_remove_path: with recursive=false,
// removes exactly the one path, failing *safeerr.ContentErrorDetail if
// absent; with recursive=true, removes every path whose normalised form
// starts with destPath+"/", plus destPath itself if present. Returns the
// resulting FilesMap and the list of Removed records.
func RemovePath(m *FilesMap, destPath string, recursive bool) (*FilesMap, *ProcessedFiles, error) {
	result := m.Clone()
	processed := NewProcessedFiles()

	if !recursive {
		item, ok := result.Get(destPath)
		if !ok {
			return nil, nil, safeerr.NewContentError("path %q not present in files map", destPath)
		}
		result.Delete(destPath)
		processed.Set(destPath, Change{Kind: Removed, Link: item[KeyLink]})
		return result, processed, nil
	}

	prefix := strings.TrimSuffix(destPath, "/") + "/"
	for _, p := range m.Paths() {
		if p == destPath || strings.HasPrefix(p, prefix) {
			item, _ := m.Get(p)
			result.Delete(p)
			processed.Set(p, Change{Kind: Removed, Link: item[KeyLink]})
		}
	}
	return result, processed, nil
}
