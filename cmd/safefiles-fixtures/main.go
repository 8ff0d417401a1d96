// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Command safefiles-fixtures emits interop test fixtures for the wire
// protocol and the persisted FilesMap format: hex-encoded msgpack
// payloads for the register/blob/nrs request-response shapes, and a
// JSON FilesMap sample, written as one file per fixture under --out.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strongdm/safefiles/filesmap"
	"github.com/strongdm/safefiles/transport"
)

// Fixture is one named sample, either a hex msgpack payload or raw JSON
// text (exactly one of PayloadHex/JSON is set).
type Fixture struct {
	Name       string `json:"name"`
	PayloadHex string `json:"payload_hex,omitempty"`
	JSON       string `json:"json,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func main() {
	var outDir string

	root := &cobra.Command{
		Use:   "safefiles-fixtures",
		Short: "Generate wire-protocol and FilesMap interop fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeFixtures(outDir)
		},
	}
	root.Flags().StringVar(&outDir, "out", "testdata/fixtures", "output directory for fixtures")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeFixtures(outDir string) error {
	fixtures, err := allFixtures()
	if err != nil {
		return fmt.Errorf("build fixtures: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	for _, fx := range fixtures {
		path := filepath.Join(outDir, fx.Name+".json")
		data, err := json.MarshalIndent(fx, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", fx.Name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func allFixtures() ([]Fixture, error) {
	msgpackFixtures, err := wireFixtures()
	if err != nil {
		return nil, err
	}
	return append(msgpackFixtures, filesMapFixture()), nil
}

// Wire request/response shapes mirror the unexported types in
// registerclient/blobclient/nrsclient exactly (same msgpack tags) so
// that a fixture built here round-trips through those packages'
// Decode calls without needing to export internal wire types.

type createRequest struct {
	Owner        string `msgpack:"owner"`
	Tag          string `msgpack:"tag"`
	InitialEntry []byte `msgpack:"initial_entry"`
}

type appendRequest struct {
	Address    string   `msgpack:"address"`
	EntryBytes []byte   `msgpack:"entry_bytes"`
	Replace    []string `msgpack:"replace"`
}

type putBlobRequest struct {
	Digest string `msgpack:"digest"`
	Data   []byte `msgpack:"data"`
}

type resolveRequest struct {
	Name string `msgpack:"name"`
}

func wireFixtures() ([]Fixture, error) {
	var out []Fixture

	createPayload, err := transport.EncodeMsgpack(createRequest{
		Owner:        "owner-key-1",
		Tag:          "my-site",
		InitialEntry: nil,
	})
	if err != nil {
		return nil, err
	}
	out = append(out, Fixture{
		Name:       "register_create_request",
		PayloadHex: hex.EncodeToString(createPayload),
		Notes:      "Register.Create with no initial entry (empty container).",
	})

	appendPayload, err := transport.EncodeMsgpack(appendRequest{
		Address:    "a1b2c3d4",
		EntryBytes: []byte("safe://a1b2c3d4?v=blake3:deadbeef"),
		Replace:    []string{"blake3:previoushash"},
	})
	if err != nil {
		return nil, err
	}
	out = append(out, Fixture{
		Name:       "register_append_request",
		PayloadHex: hex.EncodeToString(appendPayload),
		Notes:      "Register.Append replacing a single prior head.",
	})

	putBlobPayload, err := transport.EncodeMsgpack(putBlobRequest{
		Digest: "blake3:0123456789abcdef",
		Data:   []byte("hello safefiles"),
	})
	if err != nil {
		return nil, err
	}
	out = append(out, Fixture{
		Name:       "blob_put_request",
		PayloadHex: hex.EncodeToString(putBlobPayload),
		Notes:      "PutBlob with a client-computed digest and small payload.",
	})

	resolvePayload, err := transport.EncodeMsgpack(resolveRequest{Name: "mysite"})
	if err != nil {
		return nil, err
	}
	out = append(out, Fixture{
		Name:       "nrs_resolve_request",
		PayloadHex: hex.EncodeToString(resolvePayload),
		Notes:      "NameService.Resolve for a top-level registered name.",
	})

	return out, nil
}

func filesMapFixture() Fixture {
	m := filesmap.New()
	m.Set("/index.html", filesmap.FileItem{
		filesmap.KeyType:     "text/html",
		filesmap.KeySize:     "128",
		filesmap.KeyCreated:  "2026-01-01T00:00:00Z",
		filesmap.KeyModified: "2026-01-01T00:00:00Z",
		filesmap.KeyLink:     "safe://deadbeef?v=blake3:cafebabe",
	})
	m.Set("/images", filesmap.FileItem{
		filesmap.KeyType:     filesmap.MediaTypeDirectory,
		filesmap.KeySize:     "0",
		filesmap.KeyCreated:  "2026-01-01T00:00:00Z",
		filesmap.KeyModified: "2026-01-01T00:00:00Z",
	})

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		panic(err)
	}
	return Fixture{
		Name:  "filesmap_sample",
		JSON:  string(data),
		Notes: "Two-entry FilesMap: one file, one empty directory.",
	}
}
