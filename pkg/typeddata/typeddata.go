// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package typeddata provides a deterministic string encoding for structured
// data, so that structurally equal values sign to identical payloads.
package typeddata

import (
	"encoding/json"
	"fmt"
)

// Canonicalize encodes a value as deterministic JSON. The value is first
// marshaled and decoded back into generic form, which normalizes struct field
// order, map key order (encoding/json sorts map keys) and number formatting,
// then re-encoded.
func Canonicalize(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal value: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unable to normalize value: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("unable to re-marshal value: %w", err)
	}

	return canonical, nil
}
