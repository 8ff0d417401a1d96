// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package register is the external Register contract the version engine
// consumes: an append-only set of entries at an address, each entry
// carrying the set of parent entry hashes it supersedes. The register
// itself never interprets entry bytes; it is the version engine's job to
// treat each entry's payload as a blob URL and walk the parent graph to
// find heads.
package register

import (
	"context"
	"sort"
)

// Entry is one append-only record at a register address.
type Entry struct {
	Hash    string
	Bytes   []byte
	Parents []string
}

// Register is the contract the version engine (C7) builds on. A
// production Register is registerclient.Client (the wire-protocol
// implementation over transport); tests use registertest.Fake.
type Register interface {
	// Create allocates a new register address, optionally seeded with an
	// initial entry. owner and tag are opaque scoping hints the backing
	// store may use to namespace addresses; initialEntry may be nil.
	Create(ctx context.Context, owner, tag string, initialEntry []byte) (address string, err error)

	// Append adds entryBytes as a new entry, superseding the entries named
	// in replace (their hashes are recorded as the new entry's parents).
	// An empty replace set means the new entry has no parents (first entry
	// in an empty register).
	Append(ctx context.Context, address string, entryBytes []byte, replace []string) (entryHash string, err error)

	// Read returns every entry at address, keyed by entry hash. The
	// caller computes heads by finding entries whose hash is never named
	// as another entry's parent.
	Read(ctx context.Context, address string) (map[string]Entry, error)
}

// Heads returns the hashes of entries in entries that are not named as a
// parent by any other entry — the register's current head set. A
// single-entry result means no concurrent fork; more than one means the
// register has forked.
func Heads(entries map[string]Entry) []string {
	superseded := make(map[string]bool, len(entries))
	for _, e := range entries {
		for _, p := range e.Parents {
			superseded[p] = true
		}
	}

	heads := make([]string, 0, len(entries))
	for hash := range entries {
		if !superseded[hash] {
			heads = append(heads, hash)
		}
	}
	sort.Strings(heads)
	return heads
}
