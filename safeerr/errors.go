// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package safeerr defines the error kinds the safefiles core surfaces to
// callers, per the error handling design: a small set of sentinel errors
// for conditions that abort the current verb, plus typed errors that carry
// the offending path or detail and still satisfy errors.Is/errors.As
// against their sentinel.
package safeerr

import (
	"errors"
	"fmt"
)

// Sentinels. Use errors.Is against these to classify a returned error.
var (
	// ErrInvalidInput means the caller violated a precondition: a versioned
	// target URL on a mutating verb, a bad flag combination, an empty dest.
	ErrInvalidInput = errors.New("safefiles: invalid input")

	// ErrInvalidMediaType means a caller-supplied media type isn't recognised.
	ErrInvalidMediaType = errors.New("safefiles: invalid media type")

	// ErrFileSystem means a local filesystem metadata/read error occurred.
	ErrFileSystem = errors.New("safefiles: filesystem error")

	// ErrContentNotFound means no container exists at the resolved address.
	ErrContentNotFound = errors.New("safefiles: content not found")

	// ErrContent means the container exists but its payload is malformed or
	// a required path is absent.
	ErrContent = errors.New("safefiles: content error")

	// ErrEmptyContent means the container exists but has zero entries.
	ErrEmptyContent = errors.New("safefiles: container is empty")

	// ErrVersionNotFound means the requested version hash isn't in the register.
	ErrVersionNotFound = errors.New("safefiles: version not found")

	// ErrUnversionedContent means a name-service indirection pointed at
	// versionable content without a version.
	ErrUnversionedContent = errors.New("safefiles: unversioned content")

	// ErrFileAlreadyExists is carried inside ProcessedFiles, never returned
	// directly from a verb.
	ErrFileAlreadyExists = errors.New("safefiles: file already exists")

	// ErrFileNameConflict is carried inside ProcessedFiles, never returned
	// directly from a verb.
	ErrFileNameConflict = errors.New("safefiles: file name conflict")

	// ErrNotImplemented means a concurrent fork (multi-head register) was
	// detected; the core does not reconcile forks.
	ErrNotImplemented = errors.New("safefiles: not implemented")

	// ErrNetData means the transport layer failed.
	ErrNetData = errors.New("safefiles: transport error")
)

// InvalidInputError is an ErrInvalidInput carrying the offending detail.
type InvalidInputError struct {
	Detail string
}

func (e *InvalidInputError) Error() string { return "safefiles: invalid input: " + e.Detail }
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NewInvalidInput builds an *InvalidInputError with a formatted detail.
func NewInvalidInput(format string, args ...any) error {
	return &InvalidInputError{Detail: fmt.Sprintf(format, args...)}
}

// ContentErrorDetail is an ErrContent carrying the offending path or reason.
type ContentErrorDetail struct {
	Detail string
}

func (e *ContentErrorDetail) Error() string { return "safefiles: content error: " + e.Detail }
func (e *ContentErrorDetail) Unwrap() error { return ErrContent }

// NewContentError builds a *ContentErrorDetail with a formatted detail.
func NewContentError(format string, args ...any) error {
	return &ContentErrorDetail{Detail: fmt.Sprintf(format, args...)}
}

// FileSystemErrorDetail wraps the underlying OS error while still matching
// ErrFileSystem via errors.Is.
type FileSystemErrorDetail struct {
	Path string
	Err  error
}

func (e *FileSystemErrorDetail) Error() string {
	return fmt.Sprintf("safefiles: filesystem error: %s: %v", e.Path, e.Err)
}
func (e *FileSystemErrorDetail) Unwrap() []error { return []error{ErrFileSystem, e.Err} }

// NewFileSystemError builds a *FileSystemErrorDetail.
func NewFileSystemError(path string, err error) error {
	return &FileSystemErrorDetail{Path: path, Err: err}
}

// FileAlreadyExistsError names the conflicting path; stored inside a
// ProcessedFiles entry as a Failed change, never returned from a verb.
type FileAlreadyExistsError struct {
	Path string
}

func (e *FileAlreadyExistsError) Error() string {
	return fmt.Sprintf("safefiles: file already exists: %s", e.Path)
}
func (e *FileAlreadyExistsError) Unwrap() error { return ErrFileAlreadyExists }

// NewFileAlreadyExists builds a *FileAlreadyExistsError for path.
func NewFileAlreadyExists(path string) error {
	return &FileAlreadyExistsError{Path: path}
}

// FileNameConflictError names the conflicting path with differing content;
// stored inside a ProcessedFiles entry as a Failed change.
type FileNameConflictError struct {
	Path string
}

func (e *FileNameConflictError) Error() string {
	return fmt.Sprintf("safefiles: file name conflict: %s", e.Path)
}
func (e *FileNameConflictError) Unwrap() error { return ErrFileNameConflict }

// NewFileNameConflict builds a *FileNameConflictError for path.
func NewFileNameConflict(path string) error {
	return &FileNameConflictError{Path: path}
}

// InvalidMediaTypeError is an ErrInvalidMediaType carrying the rejected type.
type InvalidMediaTypeError struct {
	MediaType string
}

func (e *InvalidMediaTypeError) Error() string {
	return fmt.Sprintf("safefiles: invalid media type: %q", e.MediaType)
}
func (e *InvalidMediaTypeError) Unwrap() error { return ErrInvalidMediaType }

// NewInvalidMediaType builds an *InvalidMediaTypeError for mediaType.
func NewInvalidMediaType(mediaType string) error {
	return &InvalidMediaTypeError{MediaType: mediaType}
}

// ContentNotFoundError names the address that carried no container.
type ContentNotFoundError struct {
	Address string
}

func (e *ContentNotFoundError) Error() string {
	return "safefiles: content not found: " + e.Address
}
func (e *ContentNotFoundError) Unwrap() error { return ErrContentNotFound }

// NewContentNotFound builds a *ContentNotFoundError for address.
func NewContentNotFound(address string) error {
	return &ContentNotFoundError{Address: address}
}

// EmptyContentError names the container address that has zero entries.
type EmptyContentError struct {
	Address string
}

func (e *EmptyContentError) Error() string {
	return "safefiles: container is empty: " + e.Address
}
func (e *EmptyContentError) Unwrap() error { return ErrEmptyContent }

// NewEmptyContent builds an *EmptyContentError for address.
func NewEmptyContent(address string) error {
	return &EmptyContentError{Address: address}
}

// VersionNotFoundError names the requested version hash.
type VersionNotFoundError struct {
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return "safefiles: version not found: " + e.Version
}
func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

// NewVersionNotFound builds a *VersionNotFoundError for version.
func NewVersionNotFound(version string) error {
	return &VersionNotFoundError{Version: version}
}

// UnversionedContentError names the name-service indirection that pointed
// at versionable content without a version.
type UnversionedContentError struct {
	URL string
}

func (e *UnversionedContentError) Error() string {
	return "safefiles: unversioned content: " + e.URL
}
func (e *UnversionedContentError) Unwrap() error { return ErrUnversionedContent }

// NewUnversionedContent builds an *UnversionedContentError for url.
func NewUnversionedContent(url string) error {
	return &UnversionedContentError{URL: url}
}

// NotImplementedError names the unsupported situation (typically a
// detected concurrent fork: a multi-head register).
type NotImplementedError struct {
	Detail string
}

func (e *NotImplementedError) Error() string {
	return "safefiles: not implemented: " + e.Detail
}
func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }

// NewNotImplemented builds a *NotImplementedError with a formatted detail.
func NewNotImplemented(format string, args ...any) error {
	return &NotImplementedError{Detail: fmt.Sprintf(format, args...)}
}

// NetDataErrorDetail wraps a transport-layer failure.
type NetDataErrorDetail struct {
	Detail string
	Err    error
}

func (e *NetDataErrorDetail) Error() string {
	return fmt.Sprintf("safefiles: transport error: %s: %v", e.Detail, e.Err)
}
func (e *NetDataErrorDetail) Unwrap() []error { return []error{ErrNetData, e.Err} }

// NewNetDataError builds a *NetDataErrorDetail.
func NewNetDataError(detail string, err error) error {
	return &NetDataErrorDetail{Detail: detail, Err: err}
}
