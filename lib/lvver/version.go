// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package lvver

import "fmt"

// Stage is the release stage encoded in a version word. The numeric
// values are format constants recovered from binary inspection.
type Stage uint8

const (
	StageUnknown     Stage = 0
	StageDevelopment Stage = 1
	StageAlpha       Stage = 2
	StageBeta        Stage = 3
	StageRelease     Stage = 4
)

// String returns the short stage name used in version strings, e.g.
// the "f" in "8.6f12".
func (s Stage) String() string {
	switch s {
	case StageDevelopment:
		return "d"
	case StageAlpha:
		return "a"
	case StageBeta:
		return "b"
	case StageRelease:
		return "f"
	default:
		return "?"
	}
}

// Version is the document file-version tuple. Every layout decision
// in the typed-value codec is a function of this value.
//
// Ordering compares Major, Minor, Bugfix, then Build. Stage does not
// participate in ordering: the format switches the codecs care about
// track shipped builds, and a beta build numerically precedes the
// release build of the same version.
type Version struct {
	Major  uint8
	Minor  uint8
	Bugfix uint8
	Stage  Stage
	Build  uint16
}

// New returns a release-stage Version. Most gate thresholds are
// expressed this way.
func New(major, minor, bugfix uint8) Version {
	return Version{Major: major, Minor: minor, Bugfix: bugfix, Stage: StageRelease}
}

// NewBuild returns a release-stage Version with an explicit build
// number, for thresholds that fall inside a bugfix series.
func NewBuild(major, minor, bugfix uint8, build uint16) Version {
	v := New(major, minor, bugfix)
	v.Build = build
	return v
}

// DecodeWord unpacks the BCD-packed u32 version word stored in the
// container's version section. Layout (big-endian bit positions):
//
//	31..24  major, two BCD digits
//	23..20  minor, one BCD digit
//	19..16  bugfix, one BCD digit
//	15..13  stage code
//	12..0   build number
func DecodeWord(w uint32) Version {
	return Version{
		Major:  uint8((w>>28)&0xF)*10 + uint8((w>>24)&0xF),
		Minor:  uint8((w >> 20) & 0xF),
		Bugfix: uint8((w >> 16) & 0xF),
		Stage:  Stage((w >> 13) & 0x7),
		Build:  uint16(w & 0x1FFF),
	}
}

// EncodeWord packs v back into the u32 version word. Inverse of
// DecodeWord for any value DecodeWord can produce.
func EncodeWord(v Version) uint32 {
	return uint32(v.Major/10)<<28 |
		uint32(v.Major%10)<<24 |
		uint32(v.Minor&0xF)<<20 |
		uint32(v.Bugfix&0xF)<<16 |
		uint32(v.Stage&0x7)<<13 |
		uint32(v.Build&0x1FFF)
}

// Compare orders two versions by Major, Minor, Bugfix, Build.
// Returns -1, 0, or +1.
func (v Version) Compare(o Version) int {
	a := [4]int{int(v.Major), int(v.Minor), int(v.Bugfix), int(v.Build)}
	b := [4]int{int(o.Major), int(o.Minor), int(o.Bugfix), int(o.Build)}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v is at or past o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// Before reports whether v precedes o.
func (v Version) Before(o Version) bool { return v.Compare(o) < 0 }

// String renders the conventional short form, e.g. "8.6.1f12" or
// "12.0b7".
func (v Version) String() string {
	if v.Bugfix != 0 {
		return fmt.Sprintf("%d.%d.%d%s%d", v.Major, v.Minor, v.Bugfix, v.Stage, v.Build)
	}
	return fmt.Sprintf("%d.%d%s%d", v.Major, v.Minor, v.Stage, v.Build)
}
