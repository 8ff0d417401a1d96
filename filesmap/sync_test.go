// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, dir string) {
	t.Helper()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("bbb"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// walkInto builds a ProcessedFiles the way the walker would: every path
// Added, files carrying a content-derived link (a stand-in for a real
// blob digest, stable across calls for the same bytes).
func walkInto(dir string) *ProcessedFiles {
	pf := NewProcessedFiles()
	pf.Set(dir, Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub"), Change{Kind: Added})
	pf.Set(filepath.Join(dir, "a.txt"), Change{Kind: Added, Link: "blake3:aaa"})
	pf.Set(filepath.Join(dir, "sub", "b.txt"), Change{Kind: Added, Link: "blake3:bbb"})
	return pf
}

func TestCreateThenIdempotentSync(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m1, count1, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if count1 == 0 {
		t.Fatal("expected a non-zero change count on initial create")
	}

	_, m2, count2, err := Sync(SyncOptions{
		CurrentFilesMap: m1,
		Location:        dir,
		NewContent:      walkInto(dir),
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count2 != 0 {
		t.Errorf("change_count = %d on a no-op resync, want 0", count2)
	}
	if !m1.Equal(m2) {
		t.Errorf("resync produced a different map than the original")
	}
}

func TestDenseAncestors(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, p := range m.Paths() {
		for _, anc := range ancestors(p) {
			if _, ok := m.Get(anc); !ok {
				t.Errorf("path %q present without ancestor %q", p, anc)
			}
		}
	}
}

func TestDeleteRemovesMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m1, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}

	pf := NewProcessedFiles()
	pf.Set(dir, Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub"), Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub", "b.txt"), Change{Kind: Added, Link: "blake3:bbb"})

	processed, m2, count, err := Sync(SyncOptions{
		CurrentFilesMap: m1,
		Location:        dir,
		NewContent:      pf,
		Delete:          true,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count == 0 {
		t.Error("expected change_count > 0 after a deletion")
	}
	if _, ok := m2.Get("/a.txt"); ok {
		t.Error("/a.txt should have been removed")
	}

	found := false
	processed.Range(func(localPath string, change Change) bool {
		if change.Kind == Removed {
			found = true
		}
		return true
	})
	if !found {
		t.Error("expected a Removed record in the processed files")
	}
}

func TestNoDeleteCarriesOverMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m1, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pf := NewProcessedFiles()
	pf.Set(dir, Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub"), Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub", "b.txt"), Change{Kind: Added, Link: "blake3:bbb"})

	_, m2, _, err := Sync(SyncOptions{
		CurrentFilesMap: m1,
		Location:        dir,
		NewContent:      pf,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, ok := m2.Get("/a.txt"); !ok {
		t.Error("/a.txt should have been carried over without delete")
	}
}

func TestForceReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m1, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pf := NewProcessedFiles()
	pf.Set(dir, Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub"), Change{Kind: Added})
	pf.Set(filepath.Join(dir, "a.txt"), Change{Kind: Added, Link: "blake3:different"})
	pf.Set(filepath.Join(dir, "sub", "b.txt"), Change{Kind: Added, Link: "blake3:bbb"})

	processed, m2, count, err := Sync(SyncOptions{
		CurrentFilesMap: m1,
		Location:        dir,
		NewContent:      pf,
		Force:           true,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count != 1 {
		t.Errorf("change_count = %d, want 1", count)
	}
	item, _ := m2.Get("/a.txt")
	if item[KeyLink] != "blake3:different" {
		t.Errorf("link = %q, want updated link", item[KeyLink])
	}
	c, _ := processed.Get(filepath.Join(dir, "a.txt"))
	if c.Kind != Updated {
		t.Errorf("Kind = %v, want Updated", c.Kind)
	}
}

func TestWithoutForceOrCompareRecordsConflict(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m1, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pf := NewProcessedFiles()
	pf.Set(dir, Change{Kind: Added})
	pf.Set(filepath.Join(dir, "sub"), Change{Kind: Added})
	pf.Set(filepath.Join(dir, "a.txt"), Change{Kind: Added, Link: "blake3:different"})
	pf.Set(filepath.Join(dir, "sub", "b.txt"), Change{Kind: Added, Link: "blake3:bbb"})

	processed, _, count, err := Sync(SyncOptions{
		CurrentFilesMap: m1,
		Location:        dir,
		NewContent:      pf,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if count != 0 {
		t.Errorf("change_count = %d, want 0 (no force/compare)", count)
	}
	c, _ := processed.Get(filepath.Join(dir, "a.txt"))
	if c.Kind != Failed {
		t.Errorf("Kind = %v, want Failed", c.Kind)
	}
}

func TestRemovePathRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir)

	_, m, _, err := Create(dir, "", walkInto(dir), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, processed, err := RemovePath(m, "/sub", true)
	if err != nil {
		t.Fatalf("RemovePath: %v", err)
	}
	if _, ok := result.Get("/sub/b.txt"); ok {
		t.Error("/sub/b.txt should have been removed")
	}
	if _, ok := result.Get("/sub"); ok {
		t.Error("/sub should have been removed")
	}
	if processed.Len() == 0 {
		t.Error("expected removed records")
	}
}

func TestRemovePathMissingFails(t *testing.T) {
	m := New()
	_, _, err := RemovePath(m, "/missing", false)
	if err == nil {
		t.Fatal("expected an error for a missing non-recursive path")
	}
}

func TestAddLinkNewPath(t *testing.T) {
	m := New()
	result, processed, err := AddLink(m, "/report.pdf", "blake3:xyz", "application/pdf", 42, false)
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	item, ok := result.Get("/report.pdf")
	if !ok {
		t.Fatal("expected /report.pdf to be present")
	}
	if item[KeyLink] != "blake3:xyz" {
		t.Errorf("link = %q, want blake3:xyz", item[KeyLink])
	}
	c, _ := processed.Get("/report.pdf")
	if c.Kind != Added {
		t.Errorf("Kind = %v, want Added", c.Kind)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := New()
	m.Set("/a.txt", FileItem{KeyType: "text/plain", KeySize: "3", KeyLink: "blake3:aaa"})
	m.Set("/sub", FileItem{KeyType: MediaTypeDirectory, KeySize: "0"})

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	out := New()
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !m.Equal(out) {
		t.Error("round-tripped map differs from the original")
	}
}
