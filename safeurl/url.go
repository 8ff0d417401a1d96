// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package safeurl implements the container/blob address codec (C1).
//
// A safefiles URL carries an encoding version, a content kind (raw blob,
// media-typed blob, files container, name-service map), a data kind
// (immutable blob or register), a register address, a fixed integer type
// tag, an optional path selector, optional subnames, and an optional
// version selector. The path is never part of the register address: it is
// a selector applied after resolution.
//
// The on-the-wire form is a "safe://" URL; parsing builds on the standard
// library's net/url for the outer URI grammar (scheme/host/query/fragment)
// since no example in the training pack owns a safe://-shaped custom URL
// grammar, then layers safefiles-specific canonicalisation on top.
package safeurl

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/strongdm/safefiles/safeerr"
)

// ContentKind identifies what a URL's register/blob ultimately holds.
type ContentKind int

const (
	ContentKindRaw ContentKind = iota
	ContentKindMediaType
	ContentKindFilesContainer
	ContentKindNrsMapContainer
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindRaw:
		return "raw"
	case ContentKindMediaType:
		return "media"
	case ContentKindFilesContainer:
		return "files-container"
	case ContentKindNrsMapContainer:
		return "nrs-map"
	default:
		return "unknown"
	}
}

// DataKind identifies which store primitive backs the address.
type DataKind int

const (
	DataKindBlob DataKind = iota
	DataKindRegister
)

func (k DataKind) String() string {
	if k == DataKindRegister {
		return "register"
	}
	return "blob"
}

// FilesContainerTypeTag is the fixed type tag the core uses when creating
// the register that backs a FilesContainer.
const FilesContainerTypeTag uint64 = 1100

// EncodingVersion is the current URL encoding version this package emits.
const EncodingVersion = 1

// URL is a parsed safefiles address.
type URL struct {
	version     int
	contentKind ContentKind
	dataKind    DataKind
	address     string // register/blob address, opaque hex/base32
	typeTag     uint64
	path        string   // selector inside the container, always "" or "/"-prefixed
	subnames    []string // most-specific first
	mediaType   string   // set iff contentKind == ContentKindMediaType
	version_    string   // version selector (register entry hash), "" means latest
}

// Parse decodes a "safe://..." URL string. Fails with *safeerr.InvalidInputError
// (wrapping safeerr.ErrInvalidInput) on malformed input.
func Parse(s string) (*URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, safeerr.NewInvalidInput("malformed URL %q: %v", s, err)
	}
	if u.Scheme != "safe" {
		return nil, safeerr.NewInvalidInput("unsupported scheme %q, want \"safe\"", u.Scheme)
	}
	if u.Host == "" {
		return nil, safeerr.NewInvalidInput("missing register/blob address in %q", s)
	}

	q := u.Query()

	encVersion := EncodingVersion
	if raw := q.Get("ev"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, safeerr.NewInvalidInput("invalid encoding version %q", raw)
		}
		encVersion = n
	}

	ck := ContentKindRaw
	if raw := q.Get("ck"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < int(ContentKindRaw) || n > int(ContentKindNrsMapContainer) {
			return nil, safeerr.NewInvalidInput("invalid content kind %q", raw)
		}
		ck = ContentKind(n)
	}

	dk := DataKindBlob
	if raw := q.Get("dk"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || (n != int(DataKindBlob) && n != int(DataKindRegister)) {
			return nil, safeerr.NewInvalidInput("invalid data kind %q", raw)
		}
		dk = DataKind(n)
	}

	var typeTag uint64
	if raw := q.Get("t"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, safeerr.NewInvalidInput("invalid type tag %q", raw)
		}
		typeTag = n
	}

	mediaType := q.Get("mt")
	if ck == ContentKindMediaType && mediaType == "" {
		return nil, safeerr.NewInvalidInput("media-typed blob URL missing \"mt\" query parameter")
	}

	version := q.Get("v")

	path := canonicalisePath(u.Path)

	var subnames []string
	if frag := u.Fragment; frag != "" {
		for _, s := range strings.Split(frag, ".") {
			if s != "" {
				subnames = append(subnames, s)
			}
		}
	}

	return &URL{
		version:     encVersion,
		contentKind: ck,
		dataKind:    dk,
		address:     u.Host,
		typeTag:     typeTag,
		path:        path,
		subnames:    subnames,
		mediaType:   mediaType,
		version_:    version,
	}, nil
}

// Encode builds a URL string from its constituent fields. Fails with
// *safeerr.InvalidInputError if contentKind is ContentKindMediaType and
// mediaType is not in the supported set.
func Encode(address string, typeTag uint64, dataKind DataKind, contentKind ContentKind, mediaType string) (string, error) {
	if contentKind == ContentKindMediaType && !IsSupportedMediaType(mediaType) {
		return "", safeerr.NewInvalidInput("unsupported media type %q for media-typed blob", mediaType)
	}

	u := &url.URL{Scheme: "safe", Host: address}
	q := url.Values{}
	q.Set("ev", strconv.Itoa(EncodingVersion))
	q.Set("ck", strconv.Itoa(int(contentKind)))
	q.Set("dk", strconv.Itoa(int(dataKind)))
	if typeTag != 0 {
		q.Set("t", strconv.FormatUint(typeTag, 10))
	}
	if contentKind == ContentKindMediaType {
		q.Set("mt", mediaType)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// supportedMediaTypes lists the sentinel media types accepted by name.
// An unsupported type is rejected (Encode returns an InvalidInputError,
// blob.Pipeline.Put an InvalidMediaTypeError); neither falls back to raw
// kind.
var supportedMediaTypes = map[string]bool{
	"inode/directory": true,
	"inode/symlink":   true,
}

// IsSupportedMediaType reports whether mt is acceptable as a media-typed
// blob's content kind: either a known sentinel, or any well-formed
// "type/subtype" MIME string.
func IsSupportedMediaType(mt string) bool {
	if supportedMediaTypes[mt] {
		return true
	}
	// Accept any well-formed "type/subtype" MIME string; the blob store
	// doesn't interpret it beyond carrying it in the content-kind field.
	parts := strings.SplitN(mt, "/", 2)
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// Version returns the version selector, and whether one was set ("" / ok=false
// means "latest").
func (u *URL) Version() (string, bool) {
	return u.version_, u.version_ != ""
}

// SetVersion sets or clears (via "") the version selector.
func (u *URL) SetVersion(v string) {
	u.version_ = v
}

// Path returns the canonicalised path selector ("" for none, otherwise
// "/"-prefixed with no trailing slash except for the bare root "/").
func (u *URL) Path() string { return u.path }

// SetPath sets the path selector, canonicalising it.
func (u *URL) SetPath(p string) { u.path = canonicalisePath(p) }

// Subnames returns the subname chain, most-specific first.
func (u *URL) Subnames() []string { return u.subnames }

// SetSubnames replaces the subname chain.
func (u *URL) SetSubnames(names []string) {
	var clean []string
	for _, n := range names {
		if n != "" {
			clean = append(clean, n)
		}
	}
	u.subnames = clean
}

// Address returns the register/blob address this URL resolves to.
func (u *URL) Address() string { return u.address }

// ContentKind returns the content kind.
func (u *URL) ContentKind() ContentKind { return u.contentKind }

// DataKind returns the data kind.
func (u *URL) DataKind() DataKind { return u.dataKind }

// TypeTag returns the type tag.
func (u *URL) TypeTag() uint64 { return u.typeTag }

// MediaType returns the media type (only meaningful when ContentKind is
// ContentKindMediaType).
func (u *URL) MediaType() string { return u.mediaType }

// String re-encodes the URL, canonicalising path/subnames/version.
func (u *URL) String() string {
	out, _ := Encode(u.address, u.typeTag, u.dataKind, u.contentKind, u.mediaType)
	parsed, _ := url.Parse(out)
	parsed.Path = u.path
	if len(u.subnames) > 0 {
		parsed.Fragment = strings.Join(u.subnames, ".")
	}
	if u.version_ != "" {
		q := parsed.Query()
		q.Set("v", u.version_)
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}

// Equal reports whether two URLs are equivalent per canonicalisation: path
// trimmed to non-trailing slash, empty subnames collapsed, all other fields
// equal.
func (u *URL) Equal(other *URL) bool {
	if u == nil || other == nil {
		return u == other
	}
	if len(u.subnames) != len(other.subnames) {
		return false
	}
	for i := range u.subnames {
		if u.subnames[i] != other.subnames[i] {
			return false
		}
	}
	return u.version == other.version &&
		u.contentKind == other.contentKind &&
		u.dataKind == other.dataKind &&
		u.address == other.address &&
		u.typeTag == other.typeTag &&
		u.path == other.path &&
		u.mediaType == other.mediaType &&
		u.version_ == other.version_
}

// canonicalisePath trims a trailing "/" except for the bare root "/", and
// ensures a leading "/" for any non-empty path.
func canonicalisePath(p string) string {
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// NewFilesContainerURL builds a URL for a freshly created FilesContainer
// register at the given address, unversioned (latest).
func NewFilesContainerURL(address string) *URL {
	return &URL{
		version:     EncodingVersion,
		contentKind: ContentKindFilesContainer,
		dataKind:    DataKindRegister,
		address:     address,
		typeTag:     FilesContainerTypeTag,
	}
}
