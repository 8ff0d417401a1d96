// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package safefiles provides the public API (C8) of the FilesContainer
// core: the nine verbs (create, create_from, get, sync, add,
// add_from_raw, remove_path, store, fetch) built on top of the FilesMap
// core, the blob pipeline, the version engine, and the resolver, talking
// to the Register/Blob/NameService external collaborators through
// whatever implementation a caller wires in — an in-memory fake for
// tests, or the wire clients (registerclient, blobclient, nrsclient)
// for a real network.
//
// # Basic usage
//
//	reg := registerclient.New(transportConn)
//	blobs := blobclient.New(transportConn)
//	client := safefiles.New(reg, blobs, nrsclient.New(transportConn))
//
//	url, _, _, err := client.CreateFrom(ctx, "./site", "", true, false, false)
package safefiles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/strongdm/safefiles/blob"
	"github.com/strongdm/safefiles/filesmap"
	"github.com/strongdm/safefiles/nrs"
	"github.com/strongdm/safefiles/register"
	"github.com/strongdm/safefiles/resolver"
	"github.com/strongdm/safefiles/safeerr"
	"github.com/strongdm/safefiles/safelog"
	"github.com/strongdm/safefiles/safeurl"
	"github.com/strongdm/safefiles/version"
	"github.com/strongdm/safefiles/walker"
)

// Client is the "Safe handle" of spec.md §5: configuration plus
// references to the external collaborators, and no other shared mutable
// state. Each verb is an independent sequence of calls against those
// collaborators.
type Client struct {
	dryRun        bool
	baseURLFormat string

	register register.Register
	blobs    *blob.Pipeline
	names    nrs.NameService
	engine   *version.Engine
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDryRun makes every verb synthesise its result without publishing
// blobs or appending register entries.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) { c.dryRun = dryRun }
}

// WithBaseURLFormat sets the fmt verb used by DisplayURL to render a
// container/blob URL for human-facing output (logs, CLI). Defaults to
// "%s" (the raw safe:// URL unchanged).
func WithBaseURLFormat(format string) Option {
	return func(c *Client) { c.baseURLFormat = format }
}

// WithRegister sets the Register collaborator.
func WithRegister(reg register.Register) Option {
	return func(c *Client) { c.register = reg }
}

// WithBlob sets the blob Store collaborator, wrapping it in a
// blob.Pipeline.
func WithBlob(store blob.Store) Option {
	return func(c *Client) { c.blobs = blob.NewPipeline(store) }
}

// WithNameService sets the NameService collaborator.
func WithNameService(names nrs.NameService) Option {
	return func(c *Client) { c.names = names }
}

// WithLogger sets the structured logger. Defaults to a discarding
// logger so construction never requires one.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client over reg/blobs/names, the minimum collaborators
// every verb needs. Additional Options may override or further
// configure these.
func New(reg register.Register, blobStore blob.Store, names nrs.NameService, opts ...Option) *Client {
	c := &Client{
		register:      reg,
		blobs:         blob.NewPipeline(blobStore),
		names:         names,
		logger:        safelog.Nop(),
		baseURLFormat: "%s",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = version.NewEngine(c.register, c.blobs)
	return c
}

// DisplayURL renders u for human-facing output via baseURLFormat.
func (c *Client) DisplayURL(u *safeurl.URL) string {
	if c.baseURLFormat == "" {
		return u.String()
	}
	return fmt.Sprintf(c.baseURLFormat, u.String())
}

// dryRunAddress synthesises a placeholder register address for a
// dry-run Create/CreateFrom, analogous to the version engine's
// dry-run version placeholder: clearly not a real register allocation.
func dryRunAddress() string {
	return "dryrun-" + uuid.New().String()
}

// Create allocates an empty container register. The resulting container
// has zero entries, so a subsequent Get returns the sentinel empty
// state.
func (c *Client) Create(ctx context.Context) (string, error) {
	safelog.Verb(c.logger, "create")

	var addr string
	var err error
	if c.dryRun {
		addr = dryRunAddress()
	} else {
		addr, err = c.register.Create(ctx, "", "", nil)
		if err != nil {
			safelog.VerbError(c.logger, "create", err)
			return "", safeerr.NewNetDataError("register create", err)
		}
	}

	u := safeurl.NewFilesContainerURL(addr)
	return u.String(), nil
}

// CreateFrom walks path, publishes its files, builds the initial
// FilesMap, and appends it as the container's first entry.
func (c *Client) CreateFrom(ctx context.Context, path, destPath string, recursive, followLinks, dryRun bool) (string, *filesmap.ProcessedFiles, *filesmap.FilesMap, error) {
	dryRun = dryRun || c.dryRun
	safelog.Verb(c.logger, "create_from", "path", path, "recursive", recursive, "dry_run", dryRun)

	var addr string
	var err error
	if dryRun {
		addr = dryRunAddress()
	} else {
		addr, err = c.register.Create(ctx, "", "", nil)
		if err != nil {
			safelog.VerbError(c.logger, "create_from", err)
			return "", nil, nil, safeerr.NewNetDataError("register create", err)
		}
	}

	flags := walker.Flags{Recursive: recursive, FollowLinks: followLinks, DryRun: dryRun, MaxDepth: walker.DefaultMaxDepth}
	walked, err := walker.Walk(path, flags, c.blobs)
	if err != nil {
		safelog.VerbError(c.logger, "create_from", err)
		return "", nil, nil, err
	}

	processed, newMap, changeCount, err := filesmap.Create(path, destPath, walked, followLinks)
	if err != nil {
		return "", nil, nil, err
	}

	v, err := c.engine.Append(ctx, version.AppendOptions{
		Address:     addr,
		Map:         newMap,
		ChangeCount: changeCount,
		DryRun:      dryRun,
	})
	if err != nil {
		safelog.VerbError(c.logger, "create_from", err)
		return "", nil, nil, err
	}

	u := safeurl.NewFilesContainerURL(addr)
	if v != "" {
		u.SetVersion(v)
	}
	return u.String(), processed, newMap, nil
}

// Get resolves urlStr and reads the FilesMap at the requested (or
// latest) version. An empty container is reported via a Head whose
// Version is "" and whose Map has zero entries.
func (c *Client) Get(ctx context.Context, urlStr string) (*version.Head, error) {
	safelog.Verb(c.logger, "get", "url", urlStr)

	target, err := resolver.Resolve(ctx, urlStr, c.names)
	if err != nil {
		return nil, err
	}
	selector, _ := target.Version()

	head, err := c.engine.Read(ctx, target.Address(), selector)
	if err != nil {
		safelog.VerbError(c.logger, "get", err)
		return nil, err
	}
	return head, nil
}

// Sync reconciles location with the container at urlStr.
func (c *Client) Sync(ctx context.Context, location, urlStr string, recursive, followLinks, delete, updateNRS bool) (*version.Head, *filesmap.ProcessedFiles, error) {
	safelog.Verb(c.logger, "sync", "location", location, "url", urlStr, "delete", delete)

	if delete && !recursive {
		return nil, nil, safeerr.NewInvalidInput("sync: delete requires recursive")
	}

	target, topName, err := c.resolveForMutation(ctx, urlStr, updateNRS)
	if err != nil {
		return nil, nil, err
	}
	selector, _ := target.Version()

	head, err := c.engine.Read(ctx, target.Address(), selector)
	if err != nil {
		safelog.VerbError(c.logger, "sync", err)
		return nil, nil, err
	}

	flags := walker.Flags{Recursive: recursive, FollowLinks: followLinks, DryRun: c.dryRun, MaxDepth: walker.DefaultMaxDepth}
	walked, err := walker.Walk(location, flags, c.blobs)
	if err != nil {
		safelog.VerbError(c.logger, "sync", err)
		return nil, nil, err
	}

	processed, newMap, changeCount, err := filesmap.Sync(filesmap.SyncOptions{
		CurrentFilesMap: head.Map,
		Location:        location,
		NewContent:      walked,
		DestPath:        target.Path(),
		Delete:          delete,
		FollowLinks:     followLinks,
	})
	if err != nil {
		return nil, nil, err
	}

	v, err := c.engine.Append(ctx, version.AppendOptions{
		Address:        target.Address(),
		CurrentVersion: head.Version,
		Map:            newMap,
		ChangeCount:    changeCount,
		DryRun:         c.dryRun,
		UpdateNRS:      updateNRS,
		NameService:    c.names,
		TopName:        topName,
		URLForVersion:  c.urlForVersion(target.Address()),
	})
	if err != nil {
		safelog.VerbError(c.logger, "sync", err)
		return nil, nil, err
	}

	return &version.Head{Version: v, Map: newMap}, processed, nil
}

// Add attaches a single local path or safe-URL at the location urlStr
// selects.
func (c *Client) Add(ctx context.Context, source, urlStr string, force, updateNRS, followLinks bool) (*version.Head, *filesmap.ProcessedFiles, error) {
	safelog.Verb(c.logger, "add", "source", source, "url", urlStr)

	target, topName, err := c.resolveForMutation(ctx, urlStr, updateNRS)
	if err != nil {
		return nil, nil, err
	}
	destPath := target.Path()
	selector, _ := target.Version()

	head, err := c.engine.Read(ctx, target.Address(), selector)
	if err != nil {
		safelog.VerbError(c.logger, "add", err)
		return nil, nil, err
	}

	var processed *filesmap.ProcessedFiles
	var newMap *filesmap.FilesMap
	var changeCount int

	if srcURL, perr := safeurl.Parse(source); perr == nil {
		if srcURL.ContentKind() == safeurl.ContentKindFilesContainer || srcURL.ContentKind() == safeurl.ContentKindNrsMapContainer {
			return nil, nil, safeerr.NewInvalidInput("add: source URL must target a file, not a container")
		}
		if destPath == "" {
			return nil, nil, safeerr.NewInvalidInput("add: dest path must not be empty when adding a link")
		}

		newMap, processed, err = filesmap.AddLink(head.Map, destPath, source, srcURL.MediaType(), 0, force)
		if err != nil {
			return nil, nil, err
		}
		changeCount = processed.ChangeCount()
	} else {
		flags := walker.Flags{Recursive: false, FollowLinks: followLinks, DryRun: c.dryRun, MaxDepth: walker.DefaultMaxDepth}
		walked, werr := walker.Walk(source, flags, c.blobs)
		if werr != nil {
			safelog.VerbError(c.logger, "add", werr)
			return nil, nil, werr
		}

		processed, newMap, changeCount, err = filesmap.Sync(filesmap.SyncOptions{
			CurrentFilesMap: head.Map,
			Location:        source,
			NewContent:      walked,
			DestPath:        destPath,
			Force:           force,
			FollowLinks:     followLinks,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	v, err := c.engine.Append(ctx, version.AppendOptions{
		Address:        target.Address(),
		CurrentVersion: head.Version,
		Map:            newMap,
		ChangeCount:    changeCount,
		DryRun:         c.dryRun,
		UpdateNRS:      updateNRS,
		NameService:    c.names,
		TopName:        topName,
		URLForVersion:  c.urlForVersion(target.Address()),
	})
	if err != nil {
		safelog.VerbError(c.logger, "add", err)
		return nil, nil, err
	}

	return &version.Head{Version: v, Map: newMap}, processed, nil
}

// AddFromRaw is Add, but the source is literal bytes published as a new
// blob rather than an existing local path or safe-URL.
func (c *Client) AddFromRaw(ctx context.Context, data []byte, urlStr string, force, updateNRS bool) (*version.Head, *filesmap.ProcessedFiles, error) {
	safelog.Verb(c.logger, "add_from_raw", "url", urlStr, "size", len(data))

	target, topName, err := c.resolveForMutation(ctx, urlStr, updateNRS)
	if err != nil {
		return nil, nil, err
	}
	destPath := target.Path()
	if destPath == "" {
		return nil, nil, safeerr.NewInvalidInput("add_from_raw: dest path must not be empty")
	}
	selector, _ := target.Version()

	head, err := c.engine.Read(ctx, target.Address(), selector)
	if err != nil {
		safelog.VerbError(c.logger, "add_from_raw", err)
		return nil, nil, err
	}

	handle, err := c.blobs.Put(ctx, data, "", c.dryRun)
	if err != nil {
		return nil, nil, err
	}

	newMap, processed, err := filesmap.AddLink(head.Map, destPath, handle, "", int64(len(data)), force)
	if err != nil {
		return nil, nil, err
	}

	v, err := c.engine.Append(ctx, version.AppendOptions{
		Address:        target.Address(),
		CurrentVersion: head.Version,
		Map:            newMap,
		ChangeCount:    processed.ChangeCount(),
		DryRun:         c.dryRun,
		UpdateNRS:      updateNRS,
		NameService:    c.names,
		TopName:        topName,
		URLForVersion:  c.urlForVersion(target.Address()),
	})
	if err != nil {
		safelog.VerbError(c.logger, "add_from_raw", err)
		return nil, nil, err
	}

	return &version.Head{Version: v, Map: newMap}, processed, nil
}

// RemovePath removes a subtree or file from the container at urlStr.
func (c *Client) RemovePath(ctx context.Context, urlStr string, recursive, updateNRS bool) (*version.Head, *filesmap.ProcessedFiles, error) {
	safelog.Verb(c.logger, "remove_path", "url", urlStr, "recursive", recursive)

	target, topName, err := c.resolveForMutation(ctx, urlStr, updateNRS)
	if err != nil {
		return nil, nil, err
	}
	destPath := target.Path()
	if destPath == "" {
		return nil, nil, safeerr.NewInvalidInput("remove_path: dest path must not be empty")
	}
	selector, _ := target.Version()

	head, err := c.engine.Read(ctx, target.Address(), selector)
	if err != nil {
		safelog.VerbError(c.logger, "remove_path", err)
		return nil, nil, err
	}
	if head.Version == "" && head.Map.Len() == 0 {
		return nil, nil, safeerr.NewEmptyContent(target.Address())
	}

	newMap, processed, err := filesmap.RemovePath(head.Map, destPath, recursive)
	if err != nil {
		return nil, nil, err
	}

	v, err := c.engine.Append(ctx, version.AppendOptions{
		Address:        target.Address(),
		CurrentVersion: head.Version,
		Map:            newMap,
		ChangeCount:    processed.ChangeCount(),
		DryRun:         c.dryRun,
		UpdateNRS:      updateNRS,
		NameService:    c.names,
		TopName:        topName,
		URLForVersion:  c.urlForVersion(target.Address()),
	})
	if err != nil {
		safelog.VerbError(c.logger, "remove_path", err)
		return nil, nil, err
	}

	return &version.Head{Version: v, Map: newMap}, processed, nil
}

// Store publishes data as a blob and returns its URL.
func (c *Client) Store(ctx context.Context, data []byte, mediaType string) (string, error) {
	safelog.Verb(c.logger, "store", "size", len(data), "media_type", mediaType)

	url, err := c.blobs.Put(ctx, data, mediaType, c.dryRun)
	if err != nil {
		safelog.VerbError(c.logger, "store", err)
		return "", err
	}
	return url, nil
}

// Fetch reads the bytes urlStr addresses, optionally restricted to rng.
func (c *Client) Fetch(ctx context.Context, urlStr string, rng blob.Range) ([]byte, error) {
	safelog.Verb(c.logger, "fetch", "url", urlStr)

	target, err := resolver.Resolve(ctx, urlStr, c.names)
	if err != nil {
		return nil, err
	}

	data, err := c.blobs.Get(ctx, target.String(), rng)
	if err != nil {
		safelog.VerbError(c.logger, "fetch", err)
		return nil, err
	}
	return data, nil
}

// resolveForMutation enforces the two cross-cutting preconditions on
// every mutating verb (spec.md §4.8): the input URL must not carry a
// version selector, and update_nrs requires a name-service URL. It
// returns the resolved target (following name-service indirection) and
// the name to re-associate if updateNRS is set.
func (c *Client) resolveForMutation(ctx context.Context, urlStr string, updateNRS bool) (*safeurl.URL, string, error) {
	raw, err := safeurl.Parse(urlStr)
	if err != nil {
		return nil, "", err
	}
	if _, ok := raw.Version(); ok {
		return nil, "", safeerr.NewInvalidInput("target URL must not carry a version selector for a mutating operation")
	}
	if updateNRS && raw.ContentKind() != safeurl.ContentKindNrsMapContainer {
		return nil, "", safeerr.NewInvalidInput("update_nrs requires a name-service URL, got content kind %s", raw.ContentKind())
	}

	target, err := resolver.Resolve(ctx, urlStr, c.names)
	if err != nil {
		return nil, "", err
	}
	return target, raw.Address(), nil
}

// urlForVersion returns a callback building the versioned container URL
// for address, for use as version.AppendOptions.URLForVersion.
func (c *Client) urlForVersion(address string) func(string) string {
	return func(v string) string {
		u := safeurl.NewFilesContainerURL(address)
		u.SetVersion(v)
		return u.String()
	}
}
