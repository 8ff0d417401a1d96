// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package safeurl

import (
	"errors"
	"testing"

	"github.com/strongdm/safefiles/safeerr"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	out, err := Encode("deadbeef", FilesContainerTypeTag, DataKindRegister, ContentKindFilesContainer, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	u, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if u.Address() != "deadbeef" {
		t.Errorf("Address() = %q, want %q", u.Address(), "deadbeef")
	}
	if u.TypeTag() != FilesContainerTypeTag {
		t.Errorf("TypeTag() = %d, want %d", u.TypeTag(), FilesContainerTypeTag)
	}
	if u.ContentKind() != ContentKindFilesContainer {
		t.Errorf("ContentKind() = %v, want %v", u.ContentKind(), ContentKindFilesContainer)
	}
	if u.DataKind() != DataKindRegister {
		t.Errorf("DataKind() = %v, want %v", u.DataKind(), DataKindRegister)
	}
	if v, ok := u.Version(); ok || v != "" {
		t.Errorf("Version() = (%q, %v), want (\"\", false)", v, ok)
	}
}

func TestParseRejectsBadScheme(t *testing.T) {
	_, err := Parse("http://deadbeef")
	if !errors.Is(err, safeerr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParseRejectsMissingAddress(t *testing.T) {
	_, err := Parse("safe://")
	if !errors.Is(err, safeerr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEncodeRejectsUnsupportedMediaType(t *testing.T) {
	_, err := Encode("deadbeef", 0, DataKindBlob, ContentKindMediaType, "")
	if !errors.Is(err, safeerr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPathCanonicalisation(t *testing.T) {
	u := NewFilesContainerURL("deadbeef")
	u.SetPath("sub/dir/")
	if got := u.Path(); got != "/sub/dir" {
		t.Errorf("Path() = %q, want %q", got, "/sub/dir")
	}

	u.SetPath("/")
	if got := u.Path(); got != "/" {
		t.Errorf("Path() = %q, want %q", got, "/")
	}
}

func TestEqualCanonicalises(t *testing.T) {
	a := NewFilesContainerURL("deadbeef")
	a.SetPath("/sub/")
	b := NewFilesContainerURL("deadbeef")
	b.SetPath("/sub")

	if !a.Equal(b) {
		t.Errorf("expected a.Equal(b) after trailing-slash canonicalisation")
	}
}

func TestSetVersionRoundTrip(t *testing.T) {
	u := NewFilesContainerURL("deadbeef")
	u.SetVersion("abc123")

	out := u.String()
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := parsed.Version()
	if !ok || v != "abc123" {
		t.Errorf("Version() = (%q, %v), want (\"abc123\", true)", v, ok)
	}
}

func TestSubnamesRoundTrip(t *testing.T) {
	u := NewFilesContainerURL("deadbeef")
	u.SetSubnames([]string{"www", "blog"})

	out := u.String()
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := parsed.Subnames()
	if len(got) != 2 || got[0] != "www" || got[1] != "blog" {
		t.Errorf("Subnames() = %v, want [www blog]", got)
	}
}
