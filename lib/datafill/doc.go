// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package datafill implements the default-value graph of the
// virtual-instrument binary format. A data fill (DF) holds the
// concrete value bytes for exactly one type descriptor; composite
// fills recursively hold child fills shaped by their descriptor's
// client list.
//
// A fill is created for a descriptor, bound to it (the kinds must
// match exactly, a mismatch is a programming error), and then
// decodes the value bytes that follow at its own storage site.
// Encode mirrors decode byte for byte except where the format itself
// carries non-canonical padding.
package datafill
