// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/codec"
	"github.com/vixen-tools/vixen/lib/config"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/rsrc"
	"github.com/vixen-tools/vixen/lib/testutil"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

var (
	fixtureFileType = [4]byte{'L', 'V', 'I', 'N'}
	fixtureCreator  = [4]byte{'L', 'B', 'V', 'W'}
)

// synthTypeTable encodes a small consolidated table: an I32 with a
// label, a string, and a cluster referencing both by index.
func synthTypeTable(t *testing.T) []byte {
	t.Helper()

	ctx := typedesc.NewContext("synthetic.vi", lvver.New(9, 0, 0))
	list := typedesc.NewConsolidatedList("synthetic.vi")
	ctx.List = list

	num := typedesc.New(typedesc.KindNumInt32)
	num.SetLabel([]byte("count"))
	list.Append(num)

	str := typedesc.New(typedesc.KindString)
	list.Append(str)

	cluster := typedesc.New(typedesc.KindCluster)
	cluster.SetClients([]typedesc.Client{
		typedesc.IndexedClient(0),
		typedesc.IndexedClient(1),
	})
	list.Append(cluster)

	list.TopTypes = []int{2}

	w := binio.NewWriter()
	if err := typedesc.EncodeList(w, list, ctx); err != nil {
		t.Fatalf("EncodeList: %v", err)
	}
	return w.Bytes()
}

// synthImage builds a complete synthetic container: version section,
// type table, and one oversized raw section that must externalize
// into a companion file.
func synthImage(t *testing.T) []byte {
	t.Helper()

	doc := rsrc.New("synthetic.vi", fixtureFileType, fixtureCreator)
	// 9.0f0 version word.
	if _, err := doc.AddSection(rsrc.VersionSection, []byte{0x09, 0x00, 0x80, 0x00}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.AddSection(typeListSection, synthTypeTable(t), true); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.AddSection("BDHb", bytes.Repeat([]byte{0xC5, 0x01}, 600), false); err != nil {
		t.Fatal(err)
	}

	image, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return image
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractBuildRoundTrip(t *testing.T) {
	image := synthImage(t)
	doc, err := rsrc.Parse(image, "synthetic.vi")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	dir := t.TempDir()
	cfg := config.Default()
	if err := writeManifest(doc, dir, cfg, quietLogger()); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	// The oversized section must have left the XML tree.
	entries, err := os.ReadDir(filepath.Join(dir, blobDirName))
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected companion files, err=%v", err)
	}

	rebuilt, err := readManifest(dir, cfg)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	again, err := rebuilt.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	testutil.RequireBytesEqual(t, again, image, "extract/build round trip")
}

func TestExtractDecodesTypeTable(t *testing.T) {
	doc, err := rsrc.Parse(synthImage(t), "synthetic.vi")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := writeManifest(doc, dir, config.Default(), quietLogger()); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	manifest, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	for _, want := range []string{"<TypeList>", "Label=\"count\"", "<TopType"} {
		if !bytes.Contains(manifest, []byte(want)) {
			t.Errorf("manifest missing %q:\n%s", want, manifest)
		}
	}
}

func TestBuildRequiresVersionForTypeList(t *testing.T) {
	doc, err := rsrc.Parse(synthImage(t), "synthetic.vi")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := writeManifest(doc, dir, config.Default(), quietLogger()); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}

	// Strip the version section from the manifest.
	path := filepath.Join(dir, ManifestName)
	manifest, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cut := bytes.Replace(manifest,
		[]byte(`Name="`+rsrc.VersionSection+`"`),
		[]byte(`Name="xxxx"`), 1)
	if err := os.WriteFile(path, cut, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := readManifest(dir, config.Default()); err == nil {
		t.Fatal("readManifest should fail without a version section")
	}
}

func TestDumpDeterministic(t *testing.T) {
	path := testutil.WriteFile(t, "synthetic.vi", synthImage(t))
	cfg := config.Default()

	first, err := dumpFile(path, cfg)
	if err != nil {
		t.Fatalf("dumpFile: %v", err)
	}
	second, err := dumpFile(path, cfg)
	if err != nil {
		t.Fatalf("dumpFile: %v", err)
	}

	a, err := codec.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := codec.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytesEqual(t, a, b, "CBOR dump determinism")

	if len(first.Types) != 3 {
		t.Errorf("dump has %d types, want 3", len(first.Types))
	}
	if first.Types[0].Label != "count" {
		t.Errorf("first type label = %q, want count", first.Types[0].Label)
	}
	if len(first.TopTypes) != 1 || first.TopTypes[0] != 2 {
		t.Errorf("top types = %v, want [2]", first.TopTypes)
	}
}
