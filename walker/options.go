// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package walker

import "path/filepath"

// Option configures exclusions applied during Walk. Not part of spec.md's
// enumerated flag set: the default (no options) walks every path exactly
// as the spec describes.
type Option func(*options)

type options struct {
	excludePatterns []string
	excludeFn       func(path string, isDir bool) bool
}

func defaultOptions() *options {
	return &options{}
}

// WithExclude adds glob patterns for paths to exclude. Each pattern is
// matched against the entry's path as visited (the walk root joined with
// the entry's name, not a path relative to the root) and against its base
// name; a "dir/**" pattern also excludes a directory whose visited path
// matches "dir". Examples: "*.log", ".git".
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.excludePatterns = append(o.excludePatterns, patterns...)
	}
}

// WithExcludeFunc sets a custom exclusion predicate, called for every
// visited entry. Returning true excludes the path (and, for a directory,
// its entire subtree).
func WithExcludeFunc(fn func(path string, isDir bool) bool) Option {
	return func(o *options) {
		o.excludeFn = fn
	}
}

func (o *options) shouldExclude(relPath string, isDir bool) bool {
	if o.excludeFn != nil && o.excludeFn(relPath, isDir) {
		return true
	}
	for _, pattern := range o.excludePatterns {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		if isDir && len(pattern) > 3 && pattern[len(pattern)-3:] == "/**" {
			prefix := pattern[:len(pattern)-3]
			if matched, _ := filepath.Match(prefix, relPath); matched {
				return true
			}
		}
	}
	return false
}
