// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"bytes"
	"context"
	"os"

	digest "github.com/opencontainers/go-digest"

	"github.com/strongdm/safefiles/blob/chunk"
	"github.com/strongdm/safefiles/safeerr"
	"github.com/strongdm/safefiles/safeurl"
)

// manifestMagic prefixes a manifest blob's bytes, distinguishing it from a
// raw single-piece body at Get time without needing an out-of-band flag.
// The convention mirrors a CID's multicodec byte in the wider IPFS
// ecosystem: the content itself says how it's structured.
var manifestMagic = []byte("SFMANIFEST1\x00")

// Range is a half-open byte range; a nil bound means "to the end"
// (End) or "from the start" (Start).
type Range struct {
	Start *int64
	End   *int64
}

// Pipeline is the in-process chunk/hash/manifest logic of the blob
// pipeline (C4): no network access of its own, all persistence goes
// through Store.
type Pipeline struct {
	store Store
}

// NewPipeline returns a Pipeline backed by store.
func NewPipeline(store Store) *Pipeline {
	return &Pipeline{store: store}
}

// Put computes data's content address, publishes it (chunked behind a
// manifest if it exceeds chunk.Threshold) unless dryRun, and returns a
// handle URL encoding the address and content kind. Put(b) is idempotent:
// repeated calls with identical bytes yield the same handle.
func (p *Pipeline) Put(ctx context.Context, data []byte, mediaType string, dryRun bool) (string, error) {
	if mediaType != "" && !safeurl.IsSupportedMediaType(mediaType) {
		return "", safeerr.NewInvalidMediaType(mediaType)
	}

	addr, err := p.publish(ctx, data, dryRun)
	if err != nil {
		return "", err
	}

	contentKind := safeurl.ContentKindRaw
	if mediaType != "" {
		contentKind = safeurl.ContentKindMediaType
	}
	return safeurl.Encode(addr.Encoded(), 0, safeurl.DataKindBlob, contentKind, mediaType)
}

// Publish reads path and publishes its bytes, satisfying walker.Publisher
// by structural typing (walker imports no blob symbol, avoiding a cycle).
func (p *Pipeline) Publish(path string, dryRun bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", safeerr.NewFileSystemError(path, err)
	}
	return p.Put(context.Background(), data, "", dryRun)
}

// DryRunAddress returns the content address data would get, without
// publishing anything.
func (p *Pipeline) DryRunAddress(data []byte) (digest.Digest, error) {
	return p.publish(context.Background(), data, true)
}

func (p *Pipeline) publish(ctx context.Context, data []byte, dryRun bool) (digest.Digest, error) {
	pieces, err := chunk.Split(data)
	if err != nil {
		return "", safeerr.NewNetDataError("chunk split", err)
	}

	if len(pieces) == 1 {
		addr := Sum(data)
		if !dryRun {
			if _, err := p.store.PutBlob(ctx, data); err != nil {
				return "", safeerr.NewNetDataError("put blob", err)
			}
		}
		return addr, nil
	}

	manifest := Manifest{Chunks: make([]ManifestChunk, 0, len(pieces))}
	for _, piece := range pieces {
		d := Sum(piece)
		manifest.Chunks = append(manifest.Chunks, ManifestChunk{Digest: d.String(), Size: int64(len(piece))})
		if !dryRun {
			if _, err := p.store.PutBlob(ctx, piece); err != nil {
				return "", safeerr.NewNetDataError("put chunk", err)
			}
		}
	}

	payload, err := manifest.Marshal()
	if err != nil {
		return "", safeerr.NewNetDataError("marshal manifest", err)
	}
	framed := append(append([]byte{}, manifestMagic...), payload...)

	addr := Sum(framed)
	if !dryRun {
		if _, err := p.store.PutBlob(ctx, framed); err != nil {
			return "", safeerr.NewNetDataError("put manifest", err)
		}
	}
	return addr, nil
}

// Get resolves handle and returns its bytes, optionally restricted to rng.
func (p *Pipeline) Get(ctx context.Context, handle string, rng Range) ([]byte, error) {
	u, err := safeurl.Parse(handle)
	if err != nil {
		return nil, err
	}
	addr := digest.Digest(string(Algorithm) + ":" + u.Address())

	raw, err := p.store.GetBlob(ctx, addr)
	if err != nil {
		return nil, safeerr.NewNetDataError("get blob", err)
	}

	var full []byte
	if bytes.HasPrefix(raw, manifestMagic) {
		manifest, err := UnmarshalManifest(raw[len(manifestMagic):])
		if err != nil {
			return nil, safeerr.NewContentError("malformed manifest at %s: %v", handle, err)
		}
		full = make([]byte, 0, manifest.TotalSize())
		for _, c := range manifest.Chunks {
			piece, err := p.store.GetBlob(ctx, digest.Digest(c.Digest))
			if err != nil {
				return nil, safeerr.NewNetDataError("get chunk", err)
			}
			full = append(full, piece...)
		}
	} else {
		full = raw
	}

	return applyRange(full, rng)
}

func applyRange(data []byte, rng Range) ([]byte, error) {
	start := int64(0)
	if rng.Start != nil {
		start = *rng.Start
	}
	end := int64(len(data))
	if rng.End != nil {
		end = *rng.End
	}
	if start < 0 || end > int64(len(data)) || start > end {
		return nil, safeerr.NewInvalidInput("range [%d, %d) out of bounds for %d bytes", start, end, len(data))
	}
	return data[start:end], nil
}
