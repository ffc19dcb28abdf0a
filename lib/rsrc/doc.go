// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsrc reads and writes the outer resource container: twin
// file headers, a named section table, and per-section data that may
// be zlib-compressed. It locates bytes and exposes the document
// version; all section content semantics live in the packages that
// consume them.
package rsrc
