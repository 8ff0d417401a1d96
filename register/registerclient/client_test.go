// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package registerclient

import (
	"context"
	"testing"

	"github.com/strongdm/safefiles/transport"
)

// fakeCaller answers Create/Append/Read entirely in-process, exercising
// this package's encode/decode logic without a real socket.
type fakeCaller struct {
	registers map[string]map[string]wireEntry
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{registers: make(map[string]map[string]wireEntry)}
}

func (f *fakeCaller) Call(ctx context.Context, msgType uint16, payload []byte) ([]byte, error) {
	switch msgType {
	case msgCreate:
		var req createRequest
		transport.DecodeMsgpack(payload, &req)
		addr := "addr-" + req.Tag
		f.registers[addr] = make(map[string]wireEntry)
		return transport.EncodeMsgpack(createResponse{Address: addr})

	case msgAppend:
		var req appendRequest
		transport.DecodeMsgpack(payload, &req)
		hash := "hash-" + string(rune('a'+len(f.registers[req.Address])))
		f.registers[req.Address][hash] = wireEntry{Hash: hash, Bytes: req.EntryBytes, Parents: req.Replace}
		return transport.EncodeMsgpack(appendResponse{EntryHash: hash})

	case msgRead:
		var req readRequest
		transport.DecodeMsgpack(payload, &req)
		var entries []wireEntry
		for _, e := range f.registers[req.Address] {
			entries = append(entries, e)
		}
		return transport.EncodeMsgpack(readResponse{Entries: entries})
	}
	panic("unreachable")
}

func TestClientCreateAppendRead(t *testing.T) {
	caller := newFakeCaller()
	client := New(caller)
	ctx := context.Background()

	addr, err := client.Create(ctx, "", "mytag", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	hash, err := client.Append(ctx, addr, []byte("payload"), nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := client.Read(ctx, addr)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 1 || entries[hash].Hash != hash {
		t.Errorf("Read() = %v, want single entry %q", entries, hash)
	}
	if string(entries[hash].Bytes) != "payload" {
		t.Errorf("entry bytes = %q, want %q", entries[hash].Bytes, "payload")
	}
}
