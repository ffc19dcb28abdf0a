// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package typedesc implements the type-descriptor graph of the
// virtual-instrument binary format: the per-kind binary codecs, the
// consolidated type list the document owns, the refnum connector
// family, and the XML representation of all of it.
//
// A type descriptor (TD) describes the shape of one data type. TDs
// form a graph: container kinds own child references ("clients"),
// each either an exclusively-owned nested TD or a weak index into
// the document's consolidated list. The layout of almost every field
// changed at some version of the format; all such switches go
// through lvver feature gates.
//
// Everything here is reverse-engineered. Oddities (the label-recovery
// scan, the CString kind that holds a plain integer, the nested
// length offset) are preserved deliberately; see the comments at each
// site.
package typedesc
