// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package chunk splits a blob body into fixed-size pieces using the same
// size splitter the wider IPFS/libp2p ecosystem uses, so that
// a blob body above a size threshold can be addressed chunk-by-chunk
// instead of as one monolithic byte array.
package chunk

import (
	"bytes"
	"io"

	chunker "github.com/ipfs/go-ipfs-chunker"
)

// Threshold is the body size above which the blob pipeline chunks a body
// behind a manifest rather than publishing it as a single raw blob.
const Threshold = 1 << 20 // 1 MiB

// Size is the fixed piece size the splitter targets once a body exceeds
// Threshold, matching the teacher pack's DefaultBlockSize convention.
const Size int64 = 256 * 1024 // 256 KiB

// Split partitions data into Size-byte pieces (the final piece may be
// shorter). Returns a single-element slice containing data itself when
// len(data) <= Threshold.
func Split(data []byte) ([][]byte, error) {
	if int64(len(data)) <= Threshold {
		return [][]byte{data}, nil
	}

	splitter := chunker.NewSizeSplitter(bytes.NewReader(data), Size)
	var pieces [][]byte
	for {
		b, err := splitter.NextBytes()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, b)
	}
	return pieces, nil
}
