// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package registerclient is the wire-protocol implementation of
// register.Register, built on transport's generic framed Call.
package registerclient

import (
	"context"
	"fmt"

	"github.com/strongdm/safefiles/register"
	"github.com/strongdm/safefiles/transport"
)

// Message types for the register endpoint.
const (
	msgCreate uint16 = 10
	msgAppend uint16 = 11
	msgRead   uint16 = 12
)

// Client is a register.Register backed by a framed wire connection.
type Client struct {
	conn transport.Caller
}

// New wraps conn (either a *transport.Client or a
// *transport.ReconnectingClient) as a register.Register.
func New(conn transport.Caller) *Client {
	return &Client{conn: conn}
}

var _ register.Register = (*Client)(nil)

type createRequest struct {
	Owner        string `msgpack:"owner"`
	Tag          string `msgpack:"tag"`
	InitialEntry []byte `msgpack:"initial_entry"`
}

type createResponse struct {
	Address string `msgpack:"address"`
}

// Create implements register.Register.
func (c *Client) Create(ctx context.Context, owner, tag string, initialEntry []byte) (string, error) {
	payload, err := transport.EncodeMsgpack(createRequest{Owner: owner, Tag: tag, InitialEntry: initialEntry})
	if err != nil {
		return "", fmt.Errorf("registerclient: encode create request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgCreate, payload)
	if err != nil {
		return "", fmt.Errorf("registerclient: create: %w", err)
	}

	var out createResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return "", fmt.Errorf("registerclient: decode create response: %w", err)
	}
	return out.Address, nil
}

type appendRequest struct {
	Address    string   `msgpack:"address"`
	EntryBytes []byte   `msgpack:"entry_bytes"`
	Replace    []string `msgpack:"replace"`
}

type appendResponse struct {
	EntryHash string `msgpack:"entry_hash"`
}

// Append implements register.Register.
func (c *Client) Append(ctx context.Context, address string, entryBytes []byte, replace []string) (string, error) {
	payload, err := transport.EncodeMsgpack(appendRequest{Address: address, EntryBytes: entryBytes, Replace: replace})
	if err != nil {
		return "", fmt.Errorf("registerclient: encode append request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgAppend, payload)
	if err != nil {
		return "", fmt.Errorf("registerclient: append: %w", err)
	}

	var out appendResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return "", fmt.Errorf("registerclient: decode append response: %w", err)
	}
	return out.EntryHash, nil
}

type readRequest struct {
	Address string `msgpack:"address"`
}

type wireEntry struct {
	Hash    string   `msgpack:"hash"`
	Bytes   []byte   `msgpack:"bytes"`
	Parents []string `msgpack:"parents"`
}

type readResponse struct {
	Entries []wireEntry `msgpack:"entries"`
}

// Read implements register.Register.
func (c *Client) Read(ctx context.Context, address string) (map[string]register.Entry, error) {
	payload, err := transport.EncodeMsgpack(readRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("registerclient: encode read request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgRead, payload)
	if err != nil {
		return nil, fmt.Errorf("registerclient: read: %w", err)
	}

	var out readResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return nil, fmt.Errorf("registerclient: decode read response: %w", err)
	}

	entries := make(map[string]register.Entry, len(out.Entries))
	for _, e := range out.Entries {
		entries[e.Hash] = register.Entry{Hash: e.Hash, Bytes: e.Bytes, Parents: e.Parents}
	}
	return entries, nil
}
