// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import (
	"path"
	"strings"
)

// basePaths holds the (location_base, dest_base) pair the rebasing rule
// derives once per sync and applies to every walked source path.
type basePaths struct {
	locationBase string
	destBase     string
}

// computeBasePaths implements the path rebasing rule: location_base is the
// normalised source root (with the "." → "./" special case), dest_base is
// derived from destPath relative to whether locationBase ends in a slash.
func computeBasePaths(location, destPath string) basePaths {
	locationBase := path.Clean(filepathToSlash(location))
	if location == "." {
		locationBase = "./"
	} else if strings.HasSuffix(location, "/") && !strings.HasSuffix(locationBase, "/") {
		locationBase += "/"
	}

	destBase := "/"
	switch {
	case destPath == "":
		destBase = "/"
	case strings.HasSuffix(destPath, "/") && strings.HasSuffix(locationBase, "/"):
		destBase = destPath
	case strings.HasSuffix(destPath, "/"):
		destBase = destPath + path.Base(strings.TrimSuffix(locationBase, "/"))
	default:
		destBase = destPath + "/"
	}

	return basePaths{locationBase: locationBase, destBase: destBase}
}

// rebase maps a walked local source path to its normalised container path:
// replace the location_base prefix with dest_base, normalise, strip a
// trailing slash, and ensure a leading slash. An empty result becomes "/".
func (b basePaths) rebase(localPath string) string {
	slashed := filepathToSlash(localPath)
	replaced := slashed
	if strings.HasPrefix(slashed, b.locationBase) {
		replaced = b.destBase + strings.TrimPrefix(slashed, b.locationBase)
	}

	normalised := path.Clean("/" + replaced)
	if normalised != "/" {
		normalised = strings.TrimSuffix(normalised, "/")
	}
	if normalised == "" {
		normalised = "/"
	}
	return normalised
}

// unrebase is the inverse of rebase: given a normalised container path,
// reconstruct the local source path it would have come from. Used to
// report a local source path for entries that only exist in the previous
// FilesMap (removed or carried-over paths), which were never re-walked.
func (b basePaths) unrebase(containerPath string) string {
	if strings.HasPrefix(containerPath, b.destBase) {
		rest := strings.TrimPrefix(strings.TrimPrefix(containerPath, b.destBase), "/")
		if rest == "" {
			return b.locationBase
		}
		return strings.TrimSuffix(b.locationBase, "/") + "/" + rest
	}
	return containerPath
}

// ancestors returns every proper ancestor path of p, from the immediate
// parent up to (excluding) the root "/".
func ancestors(p string) []string {
	var out []string
	for dir := path.Dir(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
		out = append(out, dir)
	}
	return out
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
