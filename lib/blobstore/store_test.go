// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// compressiblePayload returns a payload that every supported
// algorithm can shrink.
func compressiblePayload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i / 64)
	}
	return data
}

func TestPutGetRoundTrip(t *testing.T) {
	for _, tag := range []Tag{TagNone, TagLZ4, TagZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			store := New(t.TempDir(), tag)
			payload := compressiblePayload(4096)

			ref, err := store.Put(payload)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if ref.Size != len(payload) {
				t.Errorf("ref.Size = %d, want %d", ref.Size, len(payload))
			}
			if ref.Compression != tag {
				t.Errorf("ref.Compression = %v, want %v", ref.Compression, tag)
			}

			got, err := store.Get(ref)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Error("Get returned different bytes than Put stored")
			}
		})
	}
}

func TestPutIncompressibleFallsBackToNone(t *testing.T) {
	store := New(t.TempDir(), TagZstd)

	// Pseudo-random bytes defeat both lz4 and zstd.
	payload := make([]byte, 2048)
	state := uint32(0x12345678)
	for i := range payload {
		state = state*1664525 + 1013904223
		payload[i] = byte(state >> 24)
	}

	ref, err := store.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref.Compression != TagNone {
		t.Errorf("ref.Compression = %v, want TagNone", ref.Compression)
	}

	got, err := store.Get(ref)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("incompressible payload did not round-trip")
	}
}

func TestPutDeduplicates(t *testing.T) {
	store := New(t.TempDir(), TagLZ4)
	payload := compressiblePayload(1024)

	ref1, err := store.Put(payload)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	ref2, err := store.Put(payload)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}

	if ref1.File != ref2.File {
		t.Errorf("identical payloads got different files: %q vs %q", ref1.File, ref2.File)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("store holds %d files, want 1", len(entries))
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	store := New(t.TempDir(), TagNone)
	payload := []byte("section payload bytes")

	ref, err := store.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Flip a byte on disk.
	path := store.Path(ref)
	stored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	stored[0] ^= 0xFF
	if err := os.WriteFile(path, stored, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.Get(ref); err == nil {
		t.Fatal("Get should fail on digest mismatch")
	}
}

func TestGetRejectsPathEscape(t *testing.T) {
	store := New(t.TempDir(), TagNone)

	for _, name := range []string{"", "../secret", "sub/file.bin", `..\win`} {
		ref := Ref{File: name, Size: 0}
		if _, err := store.Get(ref); err == nil {
			t.Errorf("Get(%q) should fail", name)
		}
	}
}

func TestGetMissingFile(t *testing.T) {
	store := New(t.TempDir(), TagNone)
	ref := Ref{File: "0011223344556677.bin", Size: 4}
	if _, err := store.Get(ref); err == nil {
		t.Fatal("Get should fail for missing companion file")
	}
}

func TestNoDirectoryUntilFirstPut(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "payload_files")
	store := New(dir, TagLZ4)

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("directory should not exist before Put, stat err = %v", err)
	}

	if _, err := store.Put(compressiblePayload(256)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory should exist after Put: %v", err)
	}
}

func TestCompressRoundTripAllTags(t *testing.T) {
	payload := compressiblePayload(8192)

	for _, tag := range []Tag{TagLZ4, TagZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := Compress(payload, tag)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if len(compressed) >= len(payload) {
				t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(payload))
			}

			restored, err := Decompress(compressed, tag, len(payload))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(restored, payload) {
				t.Error("decompressed bytes differ from input")
			}
		})
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	payload := compressiblePayload(1024)
	compressed, err := Compress(payload, TagZstd)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if _, err := Decompress(compressed, TagZstd, len(payload)+1); err == nil {
		t.Fatal("Decompress should fail when declared size is wrong")
	}
}

func TestParseTagRoundTrip(t *testing.T) {
	for _, tag := range []Tag{TagNone, TagLZ4, TagZstd} {
		parsed, err := ParseTag(tag.String())
		if err != nil {
			t.Fatalf("ParseTag(%q): %v", tag.String(), err)
		}
		if parsed != tag {
			t.Errorf("ParseTag(%q) = %v, want %v", tag.String(), parsed, tag)
		}
	}

	if _, err := ParseTag("gzip"); err == nil {
		t.Error("ParseTag should reject unknown names")
	}
}
