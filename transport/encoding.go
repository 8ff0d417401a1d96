// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack encodes a value as msgpack with sorted map keys, so two
// calls with equal values always produce identical bytes — required for
// content-addressed wire frames.
func EncodeMsgpack(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack decodes data into v.
func DecodeMsgpack(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
