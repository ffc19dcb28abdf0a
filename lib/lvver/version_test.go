// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package lvver

import "testing"

func TestDecodeWord(t *testing.T) {
	tests := []struct {
		word uint32
		want Version
	}{
		// 8.6f12: major BCD 0x08, minor 6, bugfix 0, stage release, build 12.
		{0x0860_800C, Version{Major: 8, Minor: 6, Bugfix: 0, Stage: StageRelease, Build: 12}},
		// 12.0.1b7.
		{0x1201_6007, Version{Major: 12, Minor: 0, Bugfix: 1, Stage: StageBeta, Build: 7}},
		// 4.5d1.
		{0x0450_2001, Version{Major: 4, Minor: 5, Bugfix: 0, Stage: StageDevelopment, Build: 1}},
	}
	for _, tt := range tests {
		got := DecodeWord(tt.word)
		if got != tt.want {
			t.Errorf("DecodeWord(%#08x) = %+v, want %+v", tt.word, got, tt.want)
		}
		if back := EncodeWord(got); back != tt.word {
			t.Errorf("EncodeWord(%+v) = %#08x, want %#08x", got, back, tt.word)
		}
	}
}

func TestCompareIgnoresStage(t *testing.T) {
	beta := Version{Major: 8, Minor: 0, Stage: StageBeta, Build: 5}
	release := Version{Major: 8, Minor: 0, Stage: StageRelease, Build: 5}
	if beta.Compare(release) != 0 {
		t.Errorf("stage must not participate in ordering")
	}
}

func TestCompareOrdering(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{New(7, 0, 0), New(8, 0, 0), -1},
		{New(8, 0, 0), New(8, 0, 0), 0},
		{New(8, 6, 1), New(8, 6, 0), 1},
		{NewBuild(8, 0, 0, 1), New(8, 0, 0), 1},
		{NewBuild(12, 0, 0, 4), NewBuild(12, 0, 0, 5), -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHas(t *testing.T) {
	tests := []struct {
		ver  Version
		feat Feature
		want bool
	}{
		{New(4, 0, 0), FeatOneByteBool, false},
		{New(4, 5, 0), FeatOneByteBool, true},
		{New(7, 0, 0), FeatIndexedClients, false},
		{New(9, 0, 0), FeatIndexedClients, true},
		{New(8, 0, 0), FeatNestedLenOffset4, false},
		{NewBuild(8, 0, 0, 1), FeatNestedLenOffset4, true},
		{New(8, 1, 0), FeatDotNetNewLayout, false},
		{New(8, 1, 1), FeatDotNetNewLayout, true},
		{NewBuild(6, 0, 0, 1), FeatVariantNativeLayout, false},
		{NewBuild(6, 0, 0, 2), FeatVariantNativeLayout, true},
		{NewBuild(10, 0, 0, 1), FeatTMFBit2NewIndex, false},
		{NewBuild(10, 0, 0, 2), FeatTMFBit2NewIndex, true},
	}
	for _, tt := range tests {
		if got := Has(tt.ver, tt.feat); got != tt.want {
			t.Errorf("Has(%v, %d) = %v, want %v", tt.ver, tt.feat, got, tt.want)
		}
	}
}

func TestUDTagStrayPadWindow(t *testing.T) {
	if UDTagStrayPad(NewBuild(12, 0, 0, 1)) {
		t.Error("build 1 is before the window")
	}
	if !UDTagStrayPad(NewBuild(12, 0, 0, 2)) {
		t.Error("build 2 opens the window")
	}
	if !UDTagStrayPad(NewBuild(12, 0, 0, 4)) {
		t.Error("build 4 is inside the window")
	}
	if UDTagStrayPad(NewBuild(12, 0, 0, 5)) {
		t.Error("build 5 closes the window")
	}
	if UDTagStrayPad(New(12, 0, 1)) {
		t.Error("later bugfix versions are outside the window")
	}
}

func TestVersionString(t *testing.T) {
	if got := NewBuild(8, 6, 1, 12).String(); got != "8.6.1f12" {
		t.Errorf("String = %q, want 8.6.1f12", got)
	}
	if got := NewBuild(12, 0, 0, 7).String(); got != "12.0f7" {
		t.Errorf("String = %q, want 12.0f7", got)
	}
}
