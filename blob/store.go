// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"

	digest "github.com/opencontainers/go-digest"
)

// Store is the minimal persistence contract Pipeline needs from the
// external object store: content-addressed blob put/get by digest. A
// production Store is blobclient.Client (the wire-protocol
// implementation); tests use an in-memory fake.
type Store interface {
	PutBlob(ctx context.Context, data []byte) (digest.Digest, error)
	GetBlob(ctx context.Context, d digest.Digest) ([]byte, error)
}
