// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobstore manages companion files for externalized binary
// payloads.
//
// When `vixen extract` hits a payload too large to inline in XML (raw
// section bytes, array data blobs), it writes the bytes to a companion
// file in a directory next to the XML tree and records a [Ref] in the
// XML instead: the file name, a BLAKE3 digest of the uncompressed
// content, the original size, and the compression tag used on disk.
// `vixen build` resolves the Ref back to bytes, verifying the digest
// so silent companion-file corruption is caught before it reaches the
// rebuilt binary.
//
// Companion files are content-addressed: the file name is derived
// from the digest, so identical payloads extracted twice share one
// file and a re-extraction over an existing directory never clobbers
// a file with different content.
//
// Compression is per-store, configured as "none", "lz4", or "zstd".
// Payloads that do not shrink are stored uncompressed regardless of
// the configured tag; the Ref records what actually happened.
package blobstore
