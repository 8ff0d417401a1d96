// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package walker is the depth-limited filesystem traversal (C3). It turns
// a local root path into a filesmap.ProcessedFiles: a deterministic
// pre-order walk where every visited file has already been handed to a
// Publisher (the blob pipeline) to obtain its content link.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strongdm/safefiles/filesmap"
	"github.com/strongdm/safefiles/safeerr"
)

// DefaultMaxDepth is the walk depth cap when Flags.MaxDepth is unset.
const DefaultMaxDepth = 10_000

// Publisher hands a local file's bytes to the blob pipeline and returns
// its content link. When dryRun is set, the address is computed without
// publishing.
type Publisher interface {
	Publish(path string, dryRun bool) (link string, err error)
}

// Flags are the walk parameters named in spec.md §4.3.
type Flags struct {
	Recursive   bool
	FollowLinks bool
	DryRun      bool
	MaxDepth    int // 0 means DefaultMaxDepth
}

// Walk traverses root and returns the per-path outcome of visiting it.
// Fails with *safeerr.InvalidInputError only when flags.Recursive is true
// and root is not a directory; fails with *safeerr.FileSystemErrorDetail
// if root itself cannot be statted.
func Walk(root string, flags Flags, pub Publisher, opts ...Option) (*filesmap.ProcessedFiles, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	maxDepth := flags.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if !flags.Recursive {
		maxDepth = 1
	}

	trailingSlash := strings.HasSuffix(root, "/")
	cleanRoot := filepath.Clean(root)

	info, err := lstatOrStat(cleanRoot, flags.FollowLinks)
	if err != nil {
		return nil, safeerr.NewFileSystemError(cleanRoot, err)
	}
	if flags.Recursive && !info.IsDir() {
		return nil, safeerr.NewInvalidInput("recursive walk requires a directory root, got %q", root)
	}

	w := &walk{flags: flags, opts: o, pub: pub, result: filesmap.NewProcessedFiles(), visited: map[string]bool{}}

	if !info.IsDir() {
		w.visit(cleanRoot, info)
		return w.result, nil
	}

	if !trailingSlash {
		w.visit(cleanRoot, info)
	}
	w.walkDir(cleanRoot, 1, maxDepth)

	return w.result, nil
}

type walk struct {
	flags   Flags
	opts    *options
	pub     Publisher
	result  *filesmap.ProcessedFiles
	visited map[string]bool // resolved real paths, for symlink-cycle detection
}

func (w *walk) walkDir(dirPath string, depth, maxDepth int) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		w.result.Set(dirPath, filesmap.Change{Kind: filesmap.Failed, Message: err.Error()})
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, de := range entries {
		childPath := filepath.Join(dirPath, de.Name())
		if w.opts.shouldExclude(childPath, de.IsDir()) {
			continue
		}

		info, err := lstatOrStat(childPath, w.flags.FollowLinks)
		if err != nil {
			w.result.Set(childPath, filesmap.Change{Kind: filesmap.Failed, Message: err.Error()})
			continue
		}

		w.visit(childPath, info)

		if info.IsDir() && depth < maxDepth {
			w.walkDir(childPath, depth+1, maxDepth)
		}
	}
}

func (w *walk) visit(path string, info os.FileInfo) {
	switch {
	case !w.flags.FollowLinks && info.Mode()&fs.ModeSymlink != 0:
		w.result.Set(path, filesmap.Change{Kind: filesmap.Added})

	case info.IsDir():
		if w.flags.FollowLinks {
			if real, err := filepath.EvalSymlinks(path); err == nil {
				if w.visited[real] {
					w.result.Set(path, filesmap.Change{Kind: filesmap.Failed, Message: "cyclic symbolic link"})
					return
				}
				w.visited[real] = true
			}
		}
		w.result.Set(path, filesmap.Change{Kind: filesmap.Added})

	default:
		link, err := w.pub.Publish(path, w.flags.DryRun)
		if err != nil {
			w.result.Set(path, filesmap.Change{Kind: filesmap.Failed, Message: err.Error()})
			return
		}
		w.result.Set(path, filesmap.Change{Kind: filesmap.Added, Link: link})
	}
}

func lstatOrStat(path string, followLinks bool) (os.FileInfo, error) {
	if followLinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}
