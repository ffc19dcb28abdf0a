// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

// Package lvver models the 5-part file-version tuple carried by a
// virtual-instrument document and centralizes every version threshold
// the binary format depends on.
//
// The format changed layout many times over two decades. Rather than
// scattering literal version tuples through the codecs, each known
// layout switch is a named Feature with its minimum version recorded
// in one table. Codecs ask Has(ver, Feature) and never compare
// versions directly, so each threshold is independently testable and
// auditable against the reverse-engineering record.
package lvver
