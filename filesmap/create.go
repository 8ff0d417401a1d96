// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

// Create builds a FilesMap from a fresh walk with no previous state: the
// same reconciliation as Sync against an empty map, with delete/force
// irrelevant (there is nothing to delete or conflict with) and
// compare_file_content likewise moot. Every error-free walker entry is
// added.
func Create(location, destPath string, newContent *ProcessedFiles, followLinks bool) (*ProcessedFiles, *FilesMap, int, error) {
	return Sync(SyncOptions{
		CurrentFilesMap: New(),
		Location:        location,
		NewContent:      newContent,
		DestPath:        destPath,
		FollowLinks:     followLinks,
	})
}
