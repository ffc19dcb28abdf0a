// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package lvver

// Feature names a single version-dependent layout switch in the
// binary format. Each value is a codified reverse-engineering fact:
// the threshold records the first shipped version observed using the
// new layout, not a documented change.
type Feature int

const (
	// FeatOneByteBool: boolean default values shrink from 2 bytes to
	// 1 byte.
	FeatOneByteBool Feature = iota

	// FeatVariantNativeLayout: LVVariant values use the native
	// self-describing layout instead of the legacy one.
	FeatVariantNativeLayout

	// FeatIndexedClients: container type descriptors (array, cluster
	// block variants, typedef) store clients as table indices instead
	// of inline nested descriptors.
	FeatIndexedClients

	// FeatNestedLenOffset4: the stored length of a nested type
	// descriptor is 4 bytes larger than its true body length.
	FeatNestedLenOffset4

	// FeatQualifiedTypeDefName: typedef names become qualified names
	// (library-scoped path) instead of a single pascal string.
	FeatQualifiedTypeDefName

	// FeatFuncClientFlagsWide: per-parameter flag fields of function
	// descriptors widen from 2 to 4 bytes.
	FeatFuncClientFlagsWide

	// FeatThrallValueShift: thrall source chain entries are stored
	// offset by one.
	FeatThrallValueShift

	// FeatCtlRefItemIdent: control refnums carry a 4-byte item
	// identifier before the qualified-name list.
	FeatCtlRefItemIdent

	// FeatRefByIndexTable: a standalone type-descriptor property value
	// may be encoded as a bare index into the consolidated list
	// instead of an inline table.
	FeatRefByIndexTable

	// FeatDotNetNewLayout: .NET refnums switch to the second of their
	// two wholly different payload layouts.
	FeatDotNetNewLayout

	// FeatObjMgrFirstClientMarker: object-manager refnum payloads
	// carry a 2-byte first-client marker after the identifier string.
	FeatObjMgrFirstClientMarker

	// FeatUDClassInstField2: user-defined class-instance refnums carry
	// an extra 4-byte field after field0.
	FeatUDClassInstField2

	// FeatIORefTagString: hardware IO refnum values switch from a
	// 4-byte handle to a length-prefixed tag string.
	FeatIORefTagString

	// FeatTMFBit2NewIndex: the type-map filter bit 2 selects template
	// index 1 instead of index 2.
	FeatTMFBit2NewIndex

	// FeatExtFixedPointRange: fixed-point range records use the
	// extended 16-byte form instead of a plain 8-byte float.
	FeatExtFixedPointRange
)

// thresholds is the single source of truth for feature gating. Keys
// are the minimum versions at which each layout switch is active.
var thresholds = map[Feature]Version{
	FeatOneByteBool:            New(4, 5, 0),
	FeatVariantNativeLayout:    NewBuild(6, 0, 0, 2),
	FeatIndexedClients:         New(8, 0, 0),
	FeatNestedLenOffset4:       NewBuild(8, 0, 0, 1),
	FeatQualifiedTypeDefName:   New(8, 0, 0),
	FeatFuncClientFlagsWide:    New(8, 0, 0),
	FeatThrallValueShift:       New(8, 5, 0),
	FeatCtlRefItemIdent:        New(8, 0, 0),
	FeatRefByIndexTable:        New(8, 6, 0),
	FeatDotNetNewLayout:        New(8, 1, 1),
	FeatObjMgrFirstClientMarker: New(8, 0, 0),
	FeatUDClassInstField2:      New(8, 0, 0),
	FeatIORefTagString:         New(7, 0, 0),
	FeatTMFBit2NewIndex:        NewBuild(10, 0, 0, 2),
	FeatExtFixedPointRange:     New(8, 6, 0),
}

// Has reports whether the document version ver is at or past the
// threshold for f. Unknown features gate closed.
func Has(ver Version, f Feature) bool {
	min, ok := thresholds[f]
	if !ok {
		return false
	}
	return ver.AtLeast(min)
}

// Threshold returns the minimum version for f. Exposed for tests and
// diagnostics output.
func Threshold(f Feature) (Version, bool) {
	v, ok := thresholds[f]
	return v, ok
}

// UDTagStrayPad reports whether ver falls in the build window
// [12.0.0 build 2, 12.0.0 build 5) during which flattened user-defined
// tag values carry one unconditional stray padding byte. The window is
// a pair of bounds rather than a Feature because it closes again.
func UDTagStrayPad(ver Version) bool {
	return ver.AtLeast(NewBuild(12, 0, 0, 2)) && ver.Before(NewBuild(12, 0, 0, 5))
}
