// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package resolver is the URL resolver (C6): follows name-service
// indirection to a concrete register URL, leaving everything else
// unchanged.
package resolver

import (
	"context"

	"github.com/strongdm/safefiles/nrs"
	"github.com/strongdm/safefiles/safeerr"
	"github.com/strongdm/safefiles/safeurl"
)

// Resolve parses urlStr and, if it names a name-service map, follows the
// indirection via nameService.Resolve. The translated URL is required to
// carry a version selector whenever it targets versionable content (a
// FilesContainer register); an unversioned indirection there fails with
// safeerr.UnversionedContentError. Non-name-service URLs are returned
// unchanged.
func Resolve(ctx context.Context, urlStr string, nameService nrs.NameService) (*safeurl.URL, error) {
	u, err := safeurl.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	if u.ContentKind() != safeurl.ContentKindNrsMapContainer {
		return u, nil
	}

	resolvedStr, err := nameService.Resolve(ctx, u.Address())
	if err != nil {
		return nil, safeerr.NewContentNotFound(u.Address())
	}

	resolved, err := safeurl.Parse(resolvedStr)
	if err != nil {
		return nil, err
	}

	if isVersionable(resolved) {
		if _, ok := resolved.Version(); !ok {
			return nil, safeerr.NewUnversionedContent(resolvedStr)
		}
	}

	return resolved, nil
}

// isVersionable reports whether u targets content whose register carries
// a version history (as opposed to an immutable raw/media-typed blob).
func isVersionable(u *safeurl.URL) bool {
	return u.DataKind() == safeurl.DataKindRegister &&
		(u.ContentKind() == safeurl.ContentKindFilesContainer || u.ContentKind() == safeurl.ContentKindNrsMapContainer)
}
