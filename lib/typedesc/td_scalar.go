// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
)

func init() {
	register(func() TypeDesc { return &Void{} }, KindVoid)
	// All numeric and unit kinds intentionally share one codec; they
	// reach it through the main-kind bucket, not exact dispatch.
	registerMain(func() TypeDesc { return &Numeric{} }, MainNumber, MainUnit)
	registerMain(func() TypeDesc { return &Bool{} }, MainBool)
	register(func() TypeDesc { return &Blob{} },
		KindString, KindPath, KindPicture, KindCString, KindPasString, KindTag)
}

// Void is the empty type. No body.
type Void struct {
	base
}

func (t *Void) decodeBody(r *binio.Reader, ctx *Context) error { return nil }
func (t *Void) encodeBody(w *binio.Writer, ctx *Context) error { return nil }

// Numeric covers every plain and unit numeric kind. Plain numbers
// have no body. Unit kinds append a value table: u16 count, then
// count unpadded pascal strings (enum labels or unit names), the
// whole table padded to even length.
type Numeric struct {
	base
	// Values is the unit/enum value table, nil for plain numbers.
	Values [][]byte
}

func (t *Numeric) decodeBody(r *binio.Reader, ctx *Context) error {
	if t.kind.Main() != MainUnit {
		return nil
	}
	start := r.Pos()
	count, err := r.U16()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.ConnectorListLimit {
		return fmt.Errorf("unit value table of %d entries exceeds limit %d",
			count, ctx.Limits.ConnectorListLimit)
	}
	t.Values = make([][]byte, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := r.ReadPString(false)
		if err != nil {
			return fmt.Errorf("unit value %d: %w", i, err)
		}
		t.Values = append(t.Values, v)
	}
	if (r.Pos()-start)%2 != 0 {
		if err := r.Skip(1); err != nil {
			return err
		}
	}
	return nil
}

func (t *Numeric) encodeBody(w *binio.Writer, ctx *Context) error {
	if t.kind.Main() != MainUnit {
		return nil
	}
	start := w.Len()
	w.U16(uint16(len(t.Values)))
	for _, v := range t.Values {
		if err := w.WritePString(v, false); err != nil {
			return err
		}
	}
	if (w.Len()-start)%2 != 0 {
		w.U8(0)
	}
	return nil
}

// Bool covers both boolean kinds. No body; the value width
// difference between the two kinds lives in the data fill.
type Bool struct {
	base
}

func (t *Bool) decodeBody(r *binio.Reader, ctx *Context) error { return nil }
func (t *Bool) encodeBody(w *binio.Writer, ctx *Context) error { return nil }

// Blob covers the string-like kinds (String, Path, Picture, CString,
// PasString, Tag). Each stores a u32 declared size; 0xFFFFFFFF means
// variable.
type Blob struct {
	base
	// Size is the declared flat size, 0xFFFFFFFF for variable.
	Size uint32
	// sizeAbsent notes a legacy record that omitted the size field;
	// re-encode omits it too.
	sizeAbsent bool
}

// VariableSize is the Blob size sentinel for variable-length values.
const VariableSize = 0xFFFFFFFF

func (t *Blob) decodeBody(r *binio.Reader, ctx *Context) error {
	// Legacy records sometimes omit the size field entirely.
	if r.Remaining() == 0 {
		t.Size = VariableSize
		t.sizeAbsent = true
		return nil
	}
	v, err := r.U32()
	if err != nil {
		return err
	}
	t.Size = v
	return nil
}

func (t *Blob) encodeBody(w *binio.Writer, ctx *Context) error {
	if t.sizeAbsent {
		return nil
	}
	w.U32(t.Size)
	return nil
}

// Raw is the generic pass-through for kinds with no structural codec
// (ExtData, PolyVI, the marker blocks, anything unknown). The body
// bytes are preserved verbatim so the record round-trips without
// semantic access.
type Raw struct {
	base
	// Data is the uninterpreted body.
	Data []byte
}

func newRaw() *Raw { return &Raw{} }

func (t *Raw) decodeBody(r *binio.Reader, ctx *Context) error {
	t.Data = append([]byte(nil), r.Rest()...)
	return nil
}

func (t *Raw) encodeBody(w *binio.Writer, ctx *Context) error {
	w.Raw(t.Data)
	return nil
}
