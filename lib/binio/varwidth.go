// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package binio

import "fmt"

// MaxSmallIndex is the largest value representable in the 2-byte form
// of the small-index field. Values above it use the 4-byte form with
// the high-order marker bit set.
const MaxSmallIndex = 0x7FFF

// ReadSmallIndex reads the variable-width index field: a u16 whose
// top bit, when set, marks it as the high half of a 4-byte value.
// The same rule governs the length field of a type-descriptor header.
func (r *Reader) ReadSmallIndex() (uint32, error) {
	hi, err := r.U16()
	if err != nil {
		return 0, err
	}
	if hi&0x8000 == 0 {
		return uint32(hi), nil
	}
	lo, err := r.U16()
	if err != nil {
		return 0, err
	}
	return uint32(hi&0x7FFF)<<16 | uint32(lo), nil
}

// WriteSmallIndex writes v in the 2-byte form when it fits, else the
// 4-byte marked form. Values needing more than 31 bits cannot be
// represented.
func (w *Writer) WriteSmallIndex(v uint32) error {
	if v <= MaxSmallIndex {
		w.U16(uint16(v))
		return nil
	}
	if v > 0x7FFFFFFF {
		return fmt.Errorf("small index %#x exceeds 31-bit capacity", v)
	}
	w.U32(0x80000000 | v)
	return nil
}

// SmallIndexSize returns the encoded size of v in bytes.
func SmallIndexSize(v uint32) int {
	if v <= MaxSmallIndex {
		return 2
	}
	return 4
}

// ReadPString reads a 1-byte-length-prefixed string. When padded is
// true, a trailing pad byte is consumed if the prefix plus content
// spans an odd number of bytes.
func (r *Reader) ReadPString(padded bool) ([]byte, error) {
	n, err := r.U8()
	if err != nil {
		return nil, err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	if padded && (1+int(n))%2 != 0 {
		if err := r.Skip(1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WritePString writes a 1-byte-length-prefixed string, padding the
// total to even length when padded is true. Strings longer than 255
// bytes cannot be represented.
func (w *Writer) WritePString(s []byte, padded bool) error {
	if len(s) > 255 {
		return fmt.Errorf("pascal string of %d bytes exceeds 255", len(s))
	}
	w.U8(uint8(len(s)))
	w.Raw(s)
	if padded && (1+len(s))%2 != 0 {
		w.U8(0)
	}
	return nil
}

// PStringSize returns the encoded size of s, including padding when
// padded is true.
func PStringSize(s []byte, padded bool) int {
	n := 1 + len(s)
	if padded && n%2 != 0 {
		n++
	}
	return n
}

// ReadQualifiedName reads a qualified name: u16 component count, then
// that many unpadded pascal strings, the whole field padded to 4-byte
// alignment measured from the count field.
func (r *Reader) ReadQualifiedName() ([][]byte, error) {
	start := r.Pos()
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	parts := make([][]byte, 0, count)
	for i := 0; i < int(count); i++ {
		p, err := r.ReadPString(false)
		if err != nil {
			return nil, fmt.Errorf("qualified name component %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	if pad := (4 - (r.Pos()-start)%4) % 4; pad > 0 {
		if err := r.Skip(pad); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

// WriteQualifiedName writes a qualified name with 4-byte alignment
// measured from the count field.
func (w *Writer) WriteQualifiedName(parts [][]byte) error {
	start := w.Len()
	w.U16(uint16(len(parts)))
	for _, p := range parts {
		if err := w.WritePString(p, false); err != nil {
			return err
		}
	}
	for (w.Len()-start)%4 != 0 {
		w.U8(0)
	}
	return nil
}
