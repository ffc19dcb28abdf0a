// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
)

func init() {
	register(func() TypeDesc { return &FixedPoint{} }, KindFixedPoint, KindComplexFixedPt)
}

// RangeRecord is one of the three fixed-point range values (minimum,
// maximum, delta). The plain form is a bare f64; the extended form
// prepends two u16 fields and a u32 integer part.
type RangeRecord struct {
	// Extended records carry Word1, Word2 and IntPart before the
	// float; plain records only the float.
	Extended bool
	Word1    uint16
	Word2    uint16
	IntPart  uint32
	Value    float64
}

// FixedPoint covers both fixed-point kinds. Body: a packed u16 of
// sub-fields, then exactly three range records whose shape depends
// on the range format and the document version.
//
// Packed field layout (bit 15 down):
//
//	15..12  fpVersion
//	11..10  rangeFormat
//	9       encoding (signed bit)
//	8       endianness
//	7       unit
//	6       allocOv (an overflow byte accompanies each data value)
//	5..0    leftover
type FixedPoint struct {
	base
	Packed uint16
	Ranges [3]RangeRecord
}

// FPVersion returns the descriptor-local format version sub-field.
func (t *FixedPoint) FPVersion() uint8 { return uint8(t.Packed >> 12) }

// RangeFormat returns the range record format selector.
func (t *FixedPoint) RangeFormat() uint8 { return uint8(t.Packed>>10) & 0x3 }

// Signed reports the encoding bit.
func (t *FixedPoint) Signed() bool { return t.Packed&0x0200 != 0 }

// AllocOv reports whether data values carry a trailing overflow
// flag byte. The data-fill codec consults this.
func (t *FixedPoint) AllocOv() bool { return t.Packed&0x0040 != 0 }

// extendedRanges decides the record shape: the extended form applies
// when the range format selects it and the document is at or past
// the revision that introduced it.
func (t *FixedPoint) extendedRanges(ver lvver.Version) bool {
	return t.RangeFormat() == 1 && lvver.Has(ver, lvver.FeatExtFixedPointRange)
}

func (t *FixedPoint) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U16()
	if err != nil {
		return err
	}
	t.Packed = v

	ext := t.extendedRanges(ctx.Version)
	for i := range t.Ranges {
		rec := RangeRecord{Extended: ext}
		if ext {
			if rec.Word1, err = r.U16(); err != nil {
				return fmt.Errorf("range %d: %w", i, err)
			}
			if rec.Word2, err = r.U16(); err != nil {
				return fmt.Errorf("range %d: %w", i, err)
			}
			if rec.IntPart, err = r.U32(); err != nil {
				return fmt.Errorf("range %d: %w", i, err)
			}
		}
		if rec.Value, err = r.F64(); err != nil {
			return fmt.Errorf("range %d: %w", i, err)
		}
		t.Ranges[i] = rec
	}
	return nil
}

func (t *FixedPoint) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(t.Packed)
	ext := t.extendedRanges(ctx.Version)
	for _, rec := range t.Ranges {
		if ext {
			w.U16(rec.Word1)
			w.U16(rec.Word2)
			w.U32(rec.IntPart)
		}
		w.F64(rec.Value)
	}
	return nil
}
