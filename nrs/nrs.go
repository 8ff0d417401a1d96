// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package nrs is the external name-service contract the resolver (C6)
// and version engine (C7) consume: a flat mapping from human-readable
// names to versioned safe-URLs.
package nrs

import "context"

// NameService is the contract resolver.Resolve and the version engine's
// update_nrs step build on. A production NameService is nrsclient.Client
// (the wire-protocol implementation over transport); tests use
// nrstest.Fake.
type NameService interface {
	// Resolve returns the versioned safe-URL name currently points at.
	Resolve(ctx context.Context, name string) (versionedURL string, err error)

	// Associate points topName at versionedURL, creating or overwriting
	// the existing association.
	Associate(ctx context.Context, topName, versionedURL string) error
}
