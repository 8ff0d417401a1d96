// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package blobclient is the wire-protocol implementation of blob.Store,
// built on transport's generic framed Call. The server verifies each
// put's content address, mirroring the teacher's PutBlob hash check.
package blobclient

import (
	"context"
	"fmt"

	digest "github.com/opencontainers/go-digest"

	"github.com/strongdm/safefiles/blob"
	"github.com/strongdm/safefiles/transport"
)

// Message types for the blob endpoint.
const (
	msgPutBlob uint16 = 20
	msgGetBlob uint16 = 21
)

// Client is a blob.Store backed by a framed wire connection.
type Client struct {
	conn transport.Caller
}

// New wraps conn as a blob.Store.
func New(conn transport.Caller) *Client {
	return &Client{conn: conn}
}

var _ blob.Store = (*Client)(nil)

type putBlobRequest struct {
	Digest string `msgpack:"digest"`
	Data   []byte `msgpack:"data"`
}

type putBlobResponse struct {
	Digest string `msgpack:"digest"`
	WasNew bool   `msgpack:"was_new"`
}

// PutBlob implements blob.Store. The digest is computed locally (so the
// caller's chunking/manifest logic in blob.Pipeline stays untouched) and
// sent alongside the bytes for server-side verification.
func (c *Client) PutBlob(ctx context.Context, data []byte) (digest.Digest, error) {
	d := blob.Sum(data)

	payload, err := transport.EncodeMsgpack(putBlobRequest{Digest: d.String(), Data: data})
	if err != nil {
		return "", fmt.Errorf("blobclient: encode put request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgPutBlob, payload)
	if err != nil {
		return "", fmt.Errorf("blobclient: put blob: %w", err)
	}

	var out putBlobResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return "", fmt.Errorf("blobclient: decode put response: %w", err)
	}
	if out.Digest != d.String() {
		return "", fmt.Errorf("blobclient: server returned digest %q for content addressed as %q", out.Digest, d)
	}
	return d, nil
}

type getBlobRequest struct {
	Digest string `msgpack:"digest"`
}

type getBlobResponse struct {
	Data []byte `msgpack:"data"`
}

// GetBlob implements blob.Store.
func (c *Client) GetBlob(ctx context.Context, d digest.Digest) ([]byte, error) {
	payload, err := transport.EncodeMsgpack(getBlobRequest{Digest: d.String()})
	if err != nil {
		return nil, fmt.Errorf("blobclient: encode get request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgGetBlob, payload)
	if err != nil {
		return nil, fmt.Errorf("blobclient: get blob: %w", err)
	}

	var out getBlobResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return nil, fmt.Errorf("blobclient: decode get response: %w", err)
	}
	return out.Data, nil
}
