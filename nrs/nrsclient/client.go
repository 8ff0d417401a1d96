// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package nrsclient is the wire-protocol implementation of
// nrs.NameService, built on transport's generic framed Call.
package nrsclient

import (
	"context"
	"fmt"

	"github.com/strongdm/safefiles/nrs"
	"github.com/strongdm/safefiles/transport"
)

// Message types for the name-service endpoint.
const (
	msgResolve   uint16 = 30
	msgAssociate uint16 = 31
)

// Client is an nrs.NameService backed by a framed wire connection.
type Client struct {
	conn transport.Caller
}

// New wraps conn as an nrs.NameService.
func New(conn transport.Caller) *Client {
	return &Client{conn: conn}
}

var _ nrs.NameService = (*Client)(nil)

type resolveRequest struct {
	Name string `msgpack:"name"`
}

type resolveResponse struct {
	VersionedURL string `msgpack:"versioned_url"`
}

// Resolve implements nrs.NameService.
func (c *Client) Resolve(ctx context.Context, name string) (string, error) {
	payload, err := transport.EncodeMsgpack(resolveRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("nrsclient: encode resolve request: %w", err)
	}

	resp, err := c.conn.Call(ctx, msgResolve, payload)
	if err != nil {
		return "", fmt.Errorf("nrsclient: resolve: %w", err)
	}

	var out resolveResponse
	if err := transport.DecodeMsgpack(resp, &out); err != nil {
		return "", fmt.Errorf("nrsclient: decode resolve response: %w", err)
	}
	return out.VersionedURL, nil
}

type associateRequest struct {
	TopName      string `msgpack:"top_name"`
	VersionedURL string `msgpack:"versioned_url"`
}

// Associate implements nrs.NameService.
func (c *Client) Associate(ctx context.Context, topName, versionedURL string) error {
	payload, err := transport.EncodeMsgpack(associateRequest{TopName: topName, VersionedURL: versionedURL})
	if err != nil {
		return fmt.Errorf("nrsclient: encode associate request: %w", err)
	}

	if _, err := c.conn.Call(ctx, msgAssociate, payload); err != nil {
		return fmt.Errorf("nrsclient: associate: %w", err)
	}
	return nil
}
