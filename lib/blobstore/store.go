// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vixen-tools/vixen/lib/binhash"
)

// Ref identifies an externalized payload. Refs are written as XML
// attributes by the extraction side and resolved back to bytes by the
// build side.
type Ref struct {
	// File is the companion file name, relative to the store
	// directory. Derived from the content digest.
	File string

	// Hash is the BLAKE3 digest of the uncompressed payload.
	Hash [32]byte

	// Size is the uncompressed payload size in bytes.
	Size int

	// Compression is the tag the payload was stored with.
	Compression Tag
}

// Store is a content-addressed companion-file directory. A Store is
// created per extraction: the directory sits next to the XML tree
// and holds one file per distinct externalized payload.
type Store struct {
	dir string
	tag Tag
}

// New returns a store rooted at dir, compressing new payloads with
// tag. The directory is created on first Put, not here, so an
// extraction with no externalized payloads leaves no empty
// directory behind.
func New(dir string, tag Tag) *Store {
	return &Store{dir: dir, tag: tag}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a ref's companion file.
func (s *Store) Path(ref Ref) string {
	return filepath.Join(s.dir, ref.File)
}

// Put writes data to a companion file and returns its Ref. Identical
// payloads share one file: the name is derived from the content
// digest, and writes go through a temp file and rename so a re-run
// over an existing directory is safe.
func (s *Store) Put(data []byte) (Ref, error) {
	digest := binhash.HashBytes(data)
	ref := Ref{
		File:        hex.EncodeToString(digest[:8]) + ".bin",
		Hash:        digest,
		Size:        len(data),
		Compression: s.tag,
	}

	stored, err := Compress(data, s.tag)
	if err != nil {
		if !IsIncompressible(err) {
			return Ref{}, fmt.Errorf("compressing blob: %w", err)
		}
		stored = data
		ref.Compression = TagNone
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Ref{}, fmt.Errorf("creating blob directory %s: %w", s.dir, err)
	}

	final := filepath.Join(s.dir, ref.File)
	temp, err := os.CreateTemp(s.dir, ref.File+".tmp-*")
	if err != nil {
		return Ref{}, fmt.Errorf("creating temp blob file: %w", err)
	}
	if _, err := temp.Write(stored); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return Ref{}, fmt.Errorf("writing blob %s: %w", ref.File, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return Ref{}, fmt.Errorf("closing blob %s: %w", ref.File, err)
	}
	if err := os.Rename(temp.Name(), final); err != nil {
		os.Remove(temp.Name())
		return Ref{}, fmt.Errorf("renaming blob %s: %w", ref.File, err)
	}

	return ref, nil
}

// Get reads a ref's companion file, decompresses it, and verifies
// the digest. A digest mismatch means the file on disk no longer
// matches what the extraction wrote, and is an error.
func (s *Store) Get(ref Ref) ([]byte, error) {
	if err := checkFileName(ref.File); err != nil {
		return nil, err
	}

	stored, err := os.ReadFile(filepath.Join(s.dir, ref.File))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", ref.File, err)
	}

	data, err := Decompress(stored, ref.Compression, ref.Size)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", ref.File, err)
	}

	if digest := binhash.HashBytes(data); digest != ref.Hash {
		return nil, fmt.Errorf("blob %s: digest mismatch: file has %s, reference expects %s",
			ref.File, binhash.FormatDigest(digest), binhash.FormatDigest(ref.Hash))
	}

	return data, nil
}

// checkFileName rejects companion file names that escape the store
// directory. Ref.File comes from XML the user may have edited.
func checkFileName(name string) error {
	if name == "" {
		return fmt.Errorf("blob reference has empty file name")
	}
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("blob file name %q must be a bare file name", name)
	}
	return nil
}
