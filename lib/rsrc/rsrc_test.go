// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package rsrc

import (
	"bytes"
	"testing"

	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/testutil"
)

var (
	testFileType = [4]byte{'L', 'V', 'I', 'N'}
	testCreator  = [4]byte{'L', 'B', 'V', 'W'}
)

func buildDoc(t *testing.T) []byte {
	t.Helper()
	d := New("test", testFileType, testCreator)
	// 9.0f0 version word.
	if _, err := d.AddSection(VersionSection, []byte{0x09, 0x00, 0x80, 0x00, 0, 0, 0, 0}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddSection("VCTP", bytes.Repeat([]byte{0xAB}, 300), true); err != nil {
		t.Fatal(err)
	}
	b, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return b
}

func TestParseRoundTrip(t *testing.T) {
	image := buildDoc(t)
	d, err := Parse(image, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.FileType != testFileType || d.Creator != testCreator {
		t.Errorf("identity = %q %q", d.FileType, d.Creator)
	}
	if len(d.Sections()) != 2 {
		t.Fatalf("%d sections, want 2", len(d.Sections()))
	}

	vctp := d.Section("VCTP")
	if vctp == nil {
		t.Fatal("VCTP section missing")
	}
	if !vctp.Compressed {
		t.Error("VCTP must round trip as compressed")
	}
	if !bytes.Equal(vctp.Data(), bytes.Repeat([]byte{0xAB}, 300)) {
		t.Errorf("VCTP content corrupted, %d bytes", len(vctp.Data()))
	}

	// Untouched sections must rebuild byte-identically.
	again, err := d.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	testutil.RequireBytesEqual(t, again, image, "container re-encode")
}

func TestLoadFromFile(t *testing.T) {
	image := buildDoc(t)
	path := testutil.WriteFile(t, testutil.UniqueID("fixture")+".vin", image)

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	again, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	testutil.RequireBytesEqual(t, again, image, "load and re-encode")
}

func TestFileVersion(t *testing.T) {
	d, err := Parse(buildDoc(t), "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ver, err := d.FileVersion()
	if err != nil {
		t.Fatalf("FileVersion: %v", err)
	}
	want := lvver.Version{Major: 9, Minor: 0, Stage: lvver.StageRelease}
	if ver != want {
		t.Errorf("version = %+v, want %+v", ver, want)
	}
}

func TestMissingSection(t *testing.T) {
	d, err := Parse(buildDoc(t), "test")
	if err != nil {
		t.Fatal(err)
	}
	if s := d.Section("BDHP"); s != nil {
		t.Errorf("absent section returned %+v", s)
	}
	if _, err := d.MustSection("BDHP"); err == nil {
		t.Error("MustSection on an absent section must fail")
	}
}

func TestRejectsBadMagic(t *testing.T) {
	image := buildDoc(t)
	image[0] = 'X'
	if _, err := Parse(image, "test"); err == nil {
		t.Error("corrupted magic must be rejected")
	}
}

func TestModifiedSectionReencodes(t *testing.T) {
	d, err := Parse(buildDoc(t), "test")
	if err != nil {
		t.Fatal(err)
	}
	d.Section("VCTP").SetData([]byte{1, 2, 3})
	image, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Parse(image, "test")
	if err != nil {
		t.Fatalf("Parse(modified): %v", err)
	}
	if !bytes.Equal(back.Section("VCTP").Data(), []byte{1, 2, 3}) {
		t.Errorf("modified content = % x", back.Section("VCTP").Data())
	}
}
