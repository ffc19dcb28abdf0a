// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Vixen's standard CBOR encoding configuration.
//
// Vixen uses two serialization formats with a clear boundary:
//
//   - XML for the editable extraction surface: type trees and data
//     fills written by `vixen extract` and read back by `vixen build`.
//   - CBOR for machine-oriented dumps: `vixen dump --cbor` emits the
//     decoded type and data graphs as deterministic CBOR so external
//     tooling can diff two resource files structurally without
//     parsing XML.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Vixen package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which makes dump output diffable.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (writing a dump to stdout or a file):
//
//	encoder := codec.NewEncoder(out)
//	decoder := codec.NewDecoder(in)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. The dump summaries use json
//     tags because `vixen dump` also offers --json output.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
