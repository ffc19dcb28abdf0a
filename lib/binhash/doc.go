// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content hashing for resource
// sections and companion files.
//
// Vixen externalizes large binary payloads (array blobs, raw section
// bytes) into companion files next to the XML tree. Each companion
// file carries a BLAKE3 digest in its XML reference so a rebuild can
// verify the file on disk still matches what the extraction wrote,
// and `vixen info` can report content identity for sections without
// dumping their bytes.
//
// The API surface is four functions:
//
//   - [HashBytes] -- hashes an in-memory buffer, returning a [32]byte
//     digest; used for section payloads already held in memory
//   - [HashFile] -- streams a file through BLAKE3, returning a
//     [32]byte digest with constant memory usage regardless of file
//     size
//   - [FormatDigest] -- converts a [32]byte digest to its canonical
//     hex-encoded string representation, used in XML attributes and
//     log output
//   - [ParseDigest] -- parses a hex-encoded digest string back to a
//     [32]byte array, validating length and encoding
//
// This package has no dependencies on other Vixen packages.
package binhash
