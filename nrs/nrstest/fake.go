// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package nrstest provides an in-memory nrs.NameService for tests.
package nrstest

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory nrs.NameService.
type Fake struct {
	mu    sync.Mutex
	names map[string]string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{names: make(map[string]string)}
}

// Resolve implements nrs.NameService.
func (f *Fake) Resolve(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	url, ok := f.names[name]
	if !ok {
		return "", fmt.Errorf("nrstest: no such name %q", name)
	}
	return url, nil
}

// Associate implements nrs.NameService.
func (f *Fake) Associate(ctx context.Context, topName, versionedURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.names[topName] = versionedURL
	return nil
}
