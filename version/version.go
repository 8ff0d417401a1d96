// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package version is the version engine (C7): reads the current head of
// a FilesContainer register and appends new FilesMap snapshots to it,
// understanding the JSON-encoded-FilesMap-behind-a-blob-URL persisted
// layout and the register's parent-hash head semantics.
package version

import (
	"context"
	"encoding/json"

	digest "github.com/opencontainers/go-digest"
	"github.com/google/uuid"

	"github.com/strongdm/safefiles/blob"
	"github.com/strongdm/safefiles/filesmap"
	"github.com/strongdm/safefiles/nrs"
	"github.com/strongdm/safefiles/register"
	"github.com/strongdm/safefiles/safeerr"
)

// DryRunAlgorithm tags a dry-run placeholder version so it is never
// mistaken for a real content-derived digest.
const DryRunAlgorithm digest.Algorithm = "dryrun"

// Head is the current state of a container register: its version (empty
// string for an empty container) and the FilesMap snapshot at that
// version.
type Head struct {
	Version string
	Map     *filesmap.FilesMap
}

// Engine is the version engine. It owns no state beyond its dependencies:
// the register backing the container and the blob store backing its
// FilesMap snapshots.
type Engine struct {
	Register register.Register
	Blobs    *blob.Pipeline
}

// NewEngine returns an Engine over reg and blobs.
func NewEngine(reg register.Register, blobs *blob.Pipeline) *Engine {
	return &Engine{Register: reg, Blobs: blobs}
}

// Read fetches the head of the container register at address. If
// selector is non-empty, it must name an existing entry hash or Read
// fails with safeerr.VersionNotFoundError. An empty register (zero
// entries) yields the sentinel empty-container Head: Version == "" and
// an empty FilesMap. More than one head (a concurrent fork) fails with
// safeerr.NotImplementedError; reconciling forks is out of scope.
func (e *Engine) Read(ctx context.Context, address, selector string) (*Head, error) {
	entries, err := e.Register.Read(ctx, address)
	if err != nil {
		return nil, safeerr.NewContentNotFound(address)
	}

	if selector != "" {
		entry, ok := entries[selector]
		if !ok {
			return nil, safeerr.NewVersionNotFound(selector)
		}
		return e.headFromEntry(ctx, entry)
	}

	if len(entries) == 0 {
		return &Head{Version: "", Map: filesmap.New()}, nil
	}

	heads := register.Heads(entries)
	if len(heads) > 1 {
		return nil, safeerr.NewNotImplemented("container %s has %d concurrent heads (fork reconciliation is out of scope)", address, len(heads))
	}

	return e.headFromEntry(ctx, entries[heads[0]])
}

func (e *Engine) headFromEntry(ctx context.Context, entry register.Entry) (*Head, error) {
	handle := string(entry.Bytes)

	data, err := e.Blobs.Get(ctx, handle, blob.Range{})
	if err != nil {
		return nil, safeerr.NewContentError("fetching FilesMap blob for version %s: %v", entry.Hash, err)
	}

	m := filesmap.New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, safeerr.NewContentError("malformed FilesMap at version %s: %v", entry.Hash, err)
	}

	return &Head{Version: entry.Hash, Map: m}, nil
}

// AppendOptions configures Engine.Append.
type AppendOptions struct {
	Address        string
	CurrentVersion string // "" when the container was empty
	Map            *filesmap.FilesMap
	ChangeCount    int
	DryRun         bool

	// UpdateNRS, when true, associates TopName with the versioned URL
	// URLForVersion(newVersion) produces, after a successful append.
	UpdateNRS     bool
	NameService   nrs.NameService
	TopName       string
	URLForVersion func(version string) string
}

// Append publishes opts.Map as the container's new head, unless
// ChangeCount is zero (in which case the existing version is returned
// unchanged and nothing is written). DryRun skips both the blob publish
// and the register append, returning a placeholder version that is not
// guaranteed to match what a real append would produce.
func (e *Engine) Append(ctx context.Context, opts AppendOptions) (string, error) {
	if opts.ChangeCount == 0 {
		return opts.CurrentVersion, nil
	}

	if opts.DryRun {
		return dryRunVersion(), nil
	}

	data, err := json.Marshal(opts.Map)
	if err != nil {
		return "", safeerr.NewContentError("marshalling FilesMap: %v", err)
	}

	handle, err := e.Blobs.Put(ctx, data, "", false)
	if err != nil {
		return "", err
	}

	var parents []string
	if opts.CurrentVersion != "" {
		parents = []string{opts.CurrentVersion}
	}

	newVersion, err := e.Register.Append(ctx, opts.Address, []byte(handle), parents)
	if err != nil {
		return "", safeerr.NewNetDataError("register append", err)
	}

	if opts.UpdateNRS {
		versionedURL := opts.URLForVersion(newVersion)
		if err := opts.NameService.Associate(ctx, opts.TopName, versionedURL); err != nil {
			return "", safeerr.NewNetDataError("name-service associate", err)
		}
	}

	return newVersion, nil
}

// dryRunVersion synthesises a would-be version indicator distinguishable
// from any real content-derived digest by its algorithm field.
func dryRunVersion() string {
	return digest.NewDigestFromEncoded(DryRunAlgorithm, uuid.New().String()).String()
}
