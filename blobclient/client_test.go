// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package blobclient

import (
	"context"
	"testing"

	"github.com/strongdm/safefiles/blob"
	"github.com/strongdm/safefiles/transport"
)

type fakeCaller struct {
	blobs map[string][]byte
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{blobs: make(map[string][]byte)}
}

func (f *fakeCaller) Call(ctx context.Context, msgType uint16, payload []byte) ([]byte, error) {
	switch msgType {
	case msgPutBlob:
		var req putBlobRequest
		transport.DecodeMsgpack(payload, &req)
		f.blobs[req.Digest] = req.Data
		return transport.EncodeMsgpack(putBlobResponse{Digest: req.Digest, WasNew: true})
	case msgGetBlob:
		var req getBlobRequest
		transport.DecodeMsgpack(payload, &req)
		return transport.EncodeMsgpack(getBlobResponse{Data: f.blobs[req.Digest]})
	}
	panic("unreachable")
}

func TestClientPutGetRoundTrip(t *testing.T) {
	caller := newFakeCaller()
	client := New(caller)
	ctx := context.Background()

	d, err := client.PutBlob(ctx, []byte("hello wire"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	got, err := client.GetBlob(ctx, d)
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(got) != "hello wire" {
		t.Errorf("GetBlob() = %q, want %q", got, "hello wire")
	}
}

func TestClientSatisfiesBlobStore(t *testing.T) {
	var _ blob.Store = (*Client)(nil)
}
