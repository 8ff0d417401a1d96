// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package registertest provides an in-memory register.Register for tests,
// with no network involved.
package registertest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/strongdm/safefiles/register"
)

// Fake is an in-memory register.Register.
type Fake struct {
	mu        sync.Mutex
	registers map[string]map[string]register.Entry

	// FailNextAppend, if non-nil, is returned (and cleared) on the next
	// Append call, for exercising abort-on-error paths.
	FailNextAppend error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{registers: make(map[string]map[string]register.Entry)}
}

// Create implements register.Register.
func (f *Fake) Create(ctx context.Context, owner, tag string, initialEntry []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	addr := randomAddress()
	f.registers[addr] = make(map[string]register.Entry)

	if initialEntry != nil {
		hash := entryHash(addr, nil, initialEntry)
		f.registers[addr][hash] = register.Entry{Hash: hash, Bytes: initialEntry}
	}
	return addr, nil
}

// Append implements register.Register.
func (f *Fake) Append(ctx context.Context, address string, entryBytes []byte, replace []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNextAppend != nil {
		err := f.FailNextAppend
		f.FailNextAppend = nil
		return "", err
	}

	entries, ok := f.registers[address]
	if !ok {
		return "", fmt.Errorf("registertest: no such register %q", address)
	}

	hash := entryHash(address, replace, entryBytes)
	entries[hash] = register.Entry{Hash: hash, Bytes: entryBytes, Parents: append([]string{}, replace...)}
	return hash, nil
}

// Read implements register.Register.
func (f *Fake) Read(ctx context.Context, address string) (map[string]register.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, ok := f.registers[address]
	if !ok {
		return nil, fmt.Errorf("registertest: no such register %q", address)
	}

	out := make(map[string]register.Entry, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out, nil
}

func randomAddress() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func entryHash(address string, parents []string, payload []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(address))
	for _, p := range parents {
		_, _ = h.Write([]byte(p))
	}
	_, _ = h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
