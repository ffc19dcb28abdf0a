// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package binio provides the low-level binary primitives shared by
// every codec in the typed-value subsystem: a big-endian cursor over
// an in-memory buffer, the variable-width "small index" field, pascal
// strings padded to even length, and qualified names.
//
// All multi-byte values in the format are big-endian. Cursors never
// perform I/O; the enclosing container layer hands them fully loaded
// section bytes.
package binio
