// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"testing"

	"github.com/strongdm/safefiles/nrs/nrstest"
	"github.com/strongdm/safefiles/safeurl"
)

func TestResolvePassesThroughNonNrsURL(t *testing.T) {
	svc := nrstest.New()
	raw, err := safeurl.Encode("abc123", safeurl.FilesContainerTypeTag, safeurl.DataKindRegister, safeurl.ContentKindFilesContainer, "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	resolved, err := Resolve(context.Background(), raw, svc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Address() != "abc123" {
		t.Errorf("Address() = %q, want %q", resolved.Address(), "abc123")
	}
}

func TestResolveFollowsNrsIndirection(t *testing.T) {
	svc := nrstest.New()
	ctx := context.Background()

	target, _ := safeurl.Encode("targetaddr", safeurl.FilesContainerTypeTag, safeurl.DataKindRegister, safeurl.ContentKindFilesContainer, "")
	targetURL, _ := safeurl.Parse(target)
	targetURL.SetVersion("deadbeef")
	target = targetURL.String()
	svc.Associate(ctx, "mysite", target)

	nrsURL, _ := safeurl.Encode("mysite", 0, safeurl.DataKindRegister, safeurl.ContentKindNrsMapContainer, "")

	resolved, err := Resolve(ctx, nrsURL, svc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Address() != "targetaddr" {
		t.Errorf("Address() = %q, want %q", resolved.Address(), "targetaddr")
	}
	if v, ok := resolved.Version(); !ok || v != "deadbeef" {
		t.Errorf("Version() = (%q, %v), want (\"deadbeef\", true)", v, ok)
	}
}

func TestResolveRejectsUnversionedIndirection(t *testing.T) {
	svc := nrstest.New()
	ctx := context.Background()

	target, _ := safeurl.Encode("targetaddr", safeurl.FilesContainerTypeTag, safeurl.DataKindRegister, safeurl.ContentKindFilesContainer, "")
	svc.Associate(ctx, "mysite", target) // no version selector

	nrsURL, _ := safeurl.Encode("mysite", 0, safeurl.DataKindRegister, safeurl.ContentKindNrsMapContainer, "")

	if _, err := Resolve(ctx, nrsURL, svc); err == nil {
		t.Error("expected UnversionedContentError for an unversioned indirection to versionable content")
	}
}
