// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package filesmap

import "encoding/json"

// MarshalJSON encodes the map as a flat JSON object of path → FileItem.
// encoding/json sorts map[string]... keys lexicographically when
// marshalling, which is exactly the determinism the persisted register
// entry payload requires (spec.md §6 pins this as the wire format for a
// FilesMap, while everything else on the wire uses msgpack).
func (m *FilesMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return json.Marshal(map[string]FileItem{})
	}
	return json.Marshal(m.items)
}

// UnmarshalJSON decodes a flat JSON object of path → FileItem.
func (m *FilesMap) UnmarshalJSON(data []byte) error {
	items := make(map[string]FileItem)
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	m.items = items
	return nil
}
