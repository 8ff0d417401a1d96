// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package filemeta extracts filesystem metadata for a single path (C2).
package filemeta

import (
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/strongdm/safefiles/safeerr"
)

// Kind is the filesystem entry kind.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// SymlinkTargetKind classifies what a symlink's target resolves to.
type SymlinkTargetKind int

const (
	SymlinkTargetUnknown SymlinkTargetKind = iota
	SymlinkTargetFile
	SymlinkTargetDir
)

func (k SymlinkTargetKind) String() string {
	switch k {
	case SymlinkTargetFile:
		return "file"
	case SymlinkTargetDir:
		return "dir"
	default:
		return "unknown"
	}
}

// RawMediaType and DirMediaType/SymlinkMediaType are the sentinel media
// type strings the data model reserves for non-file kinds.
const (
	RawMediaType     = "application/octet-stream"
	DirMediaType     = "inode/directory"
	SymlinkMediaType = "inode/symlink"
)

// Meta is the extracted metadata for one filesystem entry.
type Meta struct {
	Kind              Kind
	Size              int64
	Created           time.Time
	Modified          time.Time
	ReadOnly          bool
	ModeBits          os.FileMode
	SymlinkTarget     string
	SymlinkTargetKind SymlinkTargetKind
}

// Extract reads (path, followLinks) and returns its Meta plus the inferred
// media type (meaningful only for KindFile; KindDir/KindSymlink use their
// sentinel media types). Fails with a *safeerr.FileSystemErrorDetail
// (wrapping safeerr.ErrFileSystem) if metadata cannot be read.
func Extract(path string, followLinks bool) (Meta, string, error) {
	info, err := lstatOrStat(path, followLinks)
	if err != nil {
		return Meta{}, "", safeerr.NewFileSystemError(path, err)
	}

	switch {
	case !followLinks && info.Mode()&fs.ModeSymlink != 0:
		return extractSymlink(path, info)
	case info.IsDir():
		return extractDir(info), DirMediaType, nil
	default:
		return extractFile(path, info)
	}
}

func lstatOrStat(path string, followLinks bool) (os.FileInfo, error) {
	if followLinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func extractDir(info os.FileInfo) Meta {
	mtime := info.ModTime()
	return Meta{
		Kind:     KindDir,
		Size:     0,
		Created:  mtime,
		Modified: mtime,
		ReadOnly: info.Mode().Perm()&0o200 == 0,
		ModeBits: info.Mode(),
	}
}

func extractSymlink(path string, info os.FileInfo) (Meta, string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return Meta{}, "", safeerr.NewFileSystemError(path, err)
	}
	target = normaliseSeparator(target)

	targetKind := SymlinkTargetUnknown
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(path), target)
	}
	if targetInfo, err := os.Stat(resolved); err == nil {
		if targetInfo.IsDir() {
			targetKind = SymlinkTargetDir
		} else {
			targetKind = SymlinkTargetFile
		}
	}

	mtime := info.ModTime()
	return Meta{
		Kind:              KindSymlink,
		Size:              0,
		Created:           mtime,
		Modified:          mtime,
		ModeBits:          info.Mode(),
		SymlinkTarget:     target,
		SymlinkTargetKind: targetKind,
	}, SymlinkMediaType, nil
}

func extractFile(path string, info os.FileInfo) (Meta, string, error) {
	mtime := info.ModTime()
	meta := Meta{
		Kind:     KindFile,
		Size:     info.Size(),
		Created:  mtime,
		Modified: mtime,
		ReadOnly: info.Mode().Perm()&0o200 == 0,
		ModeBits: info.Mode(),
	}

	detected := RawMediaType
	if mt, err := mimetype.DetectFile(path); err == nil && mt != nil && mt.String() != "" {
		detected = mt.String()
	}
	if detected == RawMediaType {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			detected = byExt
		}
	}
	return meta, detected, nil
}

func normaliseSeparator(p string) string {
	return filepath.ToSlash(p)
}
