// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// ManifestChunk names one piece of a chunked body.
type ManifestChunk struct {
	Digest string `msgpack:"digest"`
	Size   int64  `msgpack:"size"`
}

// Manifest is the small blob tying together the chunks of a body above
// chunk.Threshold: an ordered list of chunk digests and sizes. Manifests
// are themselves published as ordinary blobs, encoded with msgpack (the
// wire format for everything except the persisted FilesMap, per the
// encoding split spec.md §6 pins).
type Manifest struct {
	Chunks []ManifestChunk `msgpack:"chunks"`
}

// TotalSize returns the sum of every chunk's size.
func (m Manifest) TotalSize() int64 {
	var total int64
	for _, c := range m.Chunks {
		total += c.Size
	}
	return total
}

// Marshal encodes the manifest with sorted map keys for determinism.
func (m Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalManifest decodes a manifest blob's bytes.
func UnmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := msgpack.Unmarshal(data, &m)
	return m, err
}
