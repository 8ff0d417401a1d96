// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package walker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/strongdm/safefiles/filesmap"
	"github.com/strongdm/safefiles/safeerr"
)

type fakePublisher struct {
	failOn map[string]bool
}

func (f *fakePublisher) Publish(path string, dryRun bool) (string, error) {
	if f.failOn[path] {
		return "", errors.New("publish failed")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "blake3:" + string(data), nil
}

func buildTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestWalkRecursiveVisitsEverything(t *testing.T) {
	dir := buildTree(t)
	pf, err := Walk(dir, Flags{Recursive: true}, &fakePublisher{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{dir, filepath.Join(dir, "a.txt"), filepath.Join(dir, "sub"), filepath.Join(dir, "sub", "b.txt")}
	for _, p := range want {
		if _, ok := pf.Get(p); !ok {
			t.Errorf("missing entry for %q", p)
		}
	}
	if pf.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", pf.Len(), len(want))
	}
}

func TestWalkNonRecursiveStopsAtOneLevel(t *testing.T) {
	dir := buildTree(t)
	pf, err := Walk(dir, Flags{Recursive: false}, &fakePublisher{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if _, ok := pf.Get(filepath.Join(dir, "sub", "b.txt")); ok {
		t.Error("non-recursive walk should not have descended into sub/")
	}
	if _, ok := pf.Get(filepath.Join(dir, "a.txt")); !ok {
		t.Error("non-recursive walk should include immediate children")
	}
}

func TestWalkTrailingSlashExcludesRoot(t *testing.T) {
	dir := buildTree(t)
	pf, err := Walk(dir+"/", Flags{Recursive: true}, &fakePublisher{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if _, ok := pf.Get(dir); ok {
		t.Error("trailing-slash root should be excluded from emitted entries")
	}
	if _, ok := pf.Get(filepath.Join(dir, "a.txt")); !ok {
		t.Error("children should still be present")
	}
}

func TestWalkRecursiveOnFileFails(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Walk(file, Flags{Recursive: true}, &fakePublisher{})
	if !errors.Is(err, safeerr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestWalkNonRecursiveOnFileSucceeds(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	pf, err := Walk(file, Flags{Recursive: false}, &fakePublisher{})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if pf.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pf.Len())
	}
	c, _ := pf.Get(file)
	if c.Kind != filesmap.Added || c.Link != "blake3:a" {
		t.Errorf("change = %+v, want Added with link", c)
	}
}

func TestWalkCapturesPerFilePublishFailures(t *testing.T) {
	dir := buildTree(t)
	pub := &fakePublisher{failOn: map[string]bool{filepath.Join(dir, "a.txt"): true}}

	pf, err := Walk(dir, Flags{Recursive: true}, pub)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	c, _ := pf.Get(filepath.Join(dir, "a.txt"))
	if c.Kind != filesmap.Failed {
		t.Errorf("Kind = %v, want Failed", c.Kind)
	}
	c2, _ := pf.Get(filepath.Join(dir, "sub", "b.txt"))
	if c2.Kind != filesmap.Added {
		t.Error("failure on one file should not abort the walk")
	}
}

func TestWalkExcludesPatterns(t *testing.T) {
	dir := buildTree(t)
	pf, err := Walk(dir, Flags{Recursive: true}, &fakePublisher{}, WithExclude("sub"))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if _, ok := pf.Get(filepath.Join(dir, "sub")); ok {
		t.Error("sub/ should have been excluded")
	}
	if _, ok := pf.Get(filepath.Join(dir, "sub", "b.txt")); ok {
		t.Error("excluding a directory should skip its subtree")
	}
}
