// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package textenc holds the single text codec used for every label
// and string byte-to-text conversion in the XML surface. Documents
// predate Unicode adoption; their strings are 8-bit and must survive
// round trips byte-for-byte, so the default codec is Latin-1, which
// maps every byte to a distinct rune and back.
package textenc

import "fmt"

// Codec converts between document bytes and XML text.
type Codec interface {
	// Decode renders document bytes as text.
	Decode(b []byte) string
	// Encode converts text back to document bytes.
	Encode(s string) ([]byte, error)
}

// Latin1 is the reversible default codec.
type Latin1 struct{}

// Decode maps each byte to the rune of the same value.
func (Latin1) Decode(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// Encode maps each rune back to its byte. Runes above U+00FF cannot
// come from Decode and are rejected.
func (Latin1) Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("rune %q has no byte form in the document encoding", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// Default is the codec the XML bridges use. Replaceable for
// documents authored under a different code page.
var Default Codec = Latin1{}
