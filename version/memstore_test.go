// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"context"
	"errors"

	digest "github.com/opencontainers/go-digest"

	"github.com/strongdm/safefiles/blob"
)

type memStore struct {
	blobs map[digest.Digest][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[digest.Digest][]byte)}
}

func (m *memStore) PutBlob(ctx context.Context, data []byte) (digest.Digest, error) {
	d := blob.Sum(data)
	m.blobs[d] = append([]byte{}, data...)
	return d, nil
}

func (m *memStore) GetBlob(ctx context.Context, d digest.Digest) ([]byte, error) {
	data, ok := m.blobs[d]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return data, nil
}
