// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// VoidFill is the zero-byte value of the empty type.
type VoidFill struct {
	fillBase
}

func (f *VoidFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }
func (f *VoidFill) Decode(r *binio.Reader, ctx *Context) error     { return nil }
func (f *VoidFill) Encode(w *binio.Writer, ctx *Context) error     { return nil }

// newNumericFill maps a numeric kind to its scalar fill variant.
// Unit kinds share the layout of their plain counterparts.
func newNumericFill(k typedesc.Kind) (DataFill, error) {
	base := k
	if k.Main() == typedesc.MainUnit {
		base = k - 0x10
	}
	switch base {
	case typedesc.KindNumInt8, typedesc.KindNumInt16,
		typedesc.KindNumInt32, typedesc.KindNumInt64:
		size, _ := base.FixedSize()
		return &IntFill{fillBase: fillBase{kind: k}, size: size, signed: true}, nil
	case typedesc.KindNumUInt8, typedesc.KindNumUInt16,
		typedesc.KindNumUInt32, typedesc.KindNumUInt64:
		size, _ := base.FixedSize()
		return &IntFill{fillBase: fillBase{kind: k}, size: size}, nil
	case typedesc.KindNumFloat32, typedesc.KindNumFloat64:
		size, _ := base.FixedSize()
		return &FloatFill{fillBase: fillBase{kind: k}, size: size}, nil
	case typedesc.KindNumFloatExt:
		return &ExtFill{fillBase: fillBase{kind: k}}, nil
	case typedesc.KindNumComplex64:
		return &ComplexFill{fillBase: fillBase{kind: k}, compSize: 4}, nil
	case typedesc.KindNumComplex128:
		return &ComplexFill{fillBase: fillBase{kind: k}, compSize: 8}, nil
	case typedesc.KindNumComplexExt:
		return &ComplexFill{fillBase: fillBase{kind: k}, compSize: 16}, nil
	}
	return nil, fmt.Errorf("no numeric fill for kind %s", k)
}

// IntFill is a 1/2/4/8-byte integer, signed per its kind.
type IntFill struct {
	fillBase
	size   int
	signed bool
	// Value holds the raw bits; interpret through Int64 for signed
	// kinds.
	Value uint64
}

// Int64 returns the sign-extended value.
func (f *IntFill) Int64() int64 {
	shift := uint(64 - 8*f.size)
	return int64(f.Value<<shift) >> shift
}

func (f *IntFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *IntFill) Decode(r *binio.Reader, ctx *Context) error {
	b, err := r.Bytes(f.size)
	if err != nil {
		return err
	}
	f.Value = 0
	for _, c := range b {
		f.Value = f.Value<<8 | uint64(c)
	}
	return nil
}

func (f *IntFill) Encode(w *binio.Writer, ctx *Context) error {
	for i := f.size - 1; i >= 0; i-- {
		w.U8(uint8(f.Value >> (8 * i)))
	}
	return nil
}

// FloatFill is a 4- or 8-byte IEEE 754 value.
type FloatFill struct {
	fillBase
	size  int
	Value float64
}

func (f *FloatFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *FloatFill) Decode(r *binio.Reader, ctx *Context) error {
	if f.size == 4 {
		v, err := r.F32()
		if err != nil {
			return err
		}
		f.Value = float64(v)
		return nil
	}
	v, err := r.F64()
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

func (f *FloatFill) Encode(w *binio.Writer, ctx *Context) error {
	if f.size == 4 {
		w.F32(float32(f.Value))
		return nil
	}
	w.F64(f.Value)
	return nil
}

// ExtFill is the 16-byte extended-precision value. The raw bytes are
// kept so re-encode never loses the precision float64 cannot hold.
type ExtFill struct {
	fillBase
	Raw   [16]byte
	Value float64
}

func (f *ExtFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *ExtFill) Decode(r *binio.Reader, ctx *Context) error {
	b, err := r.Bytes(16)
	if err != nil {
		return err
	}
	copy(f.Raw[:], b)
	f.Value = ext128ToFloat64(f.Raw)
	return nil
}

func (f *ExtFill) Encode(w *binio.Writer, ctx *Context) error {
	w.Raw(f.Raw[:])
	return nil
}

// SetValue replaces the value, regenerating the raw bytes.
func (f *ExtFill) SetValue(v float64) {
	f.Value = v
	f.Raw = float64ToExt128(v)
}

// ComplexFill is a pair of floats of the component size (4, 8, or
// 16 bytes each).
type ComplexFill struct {
	fillBase
	compSize int
	RawRe    [16]byte
	RawIm    [16]byte
	Re, Im   float64
}

func (f *ComplexFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *ComplexFill) decodeComp(r *binio.Reader, raw *[16]byte) (float64, error) {
	switch f.compSize {
	case 4:
		v, err := r.F32()
		return float64(v), err
	case 8:
		return r.F64()
	default:
		b, err := r.Bytes(16)
		if err != nil {
			return 0, err
		}
		copy(raw[:], b)
		return ext128ToFloat64(*raw), nil
	}
}

func (f *ComplexFill) encodeComp(w *binio.Writer, raw [16]byte, v float64) {
	switch f.compSize {
	case 4:
		w.F32(float32(v))
	case 8:
		w.F64(v)
	default:
		w.Raw(raw[:])
	}
}

func (f *ComplexFill) Decode(r *binio.Reader, ctx *Context) error {
	var err error
	if f.Re, err = f.decodeComp(r, &f.RawRe); err != nil {
		return err
	}
	f.Im, err = f.decodeComp(r, &f.RawIm)
	return err
}

func (f *ComplexFill) Encode(w *binio.Writer, ctx *Context) error {
	f.encodeComp(w, f.RawRe, f.Re)
	f.encodeComp(w, f.RawIm, f.Im)
	return nil
}

// BoolFill is a boolean value: one byte since the 4.5 revision, two
// before.
type BoolFill struct {
	fillBase
	// Raw keeps the stored word; any non-zero value is true.
	Raw uint16
}

// Value reports the boolean interpretation.
func (f *BoolFill) Value() bool { return f.Raw != 0 }

func (f *BoolFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *BoolFill) Decode(r *binio.Reader, ctx *Context) error {
	if lvver.Has(ctx.Version, lvver.FeatOneByteBool) {
		v, err := r.U8()
		if err != nil {
			return err
		}
		f.Raw = uint16(v)
		return nil
	}
	v, err := r.U16()
	if err != nil {
		return err
	}
	f.Raw = v
	return nil
}

func (f *BoolFill) Encode(w *binio.Writer, ctx *Context) error {
	if lvver.Has(ctx.Version, lvver.FeatOneByteBool) {
		w.U8(uint8(f.Raw))
		return nil
	}
	w.U16(f.Raw)
	return nil
}

// StringFill is a 4-byte-length-prefixed byte string, serving the
// string-like kinds that store real content.
type StringFill struct {
	fillBase
	Value []byte
}

func (f *StringFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *StringFill) Decode(r *binio.Reader, ctx *Context) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	if int(n) > r.Remaining() {
		return fmt.Errorf("string of %d bytes with only %d remaining", n, r.Remaining())
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return err
	}
	f.Value = append([]byte(nil), b...)
	return nil
}

func (f *StringFill) Encode(w *binio.Writer, ctx *Context) error {
	w.U32(uint32(len(f.Value)))
	w.Raw(f.Value)
	return nil
}

// CStringFill is, despite the kind's name, a plain 4-byte integer.
// The oddity is the format's, observed consistently across versions;
// do not "correct" it to a string.
type CStringFill struct {
	fillBase
	Value uint32
}

func (f *CStringFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *CStringFill) Decode(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

func (f *CStringFill) Encode(w *binio.Writer, ctx *Context) error {
	w.U32(f.Value)
	return nil
}

// Path class tags. PathFlat holds an uninterpreted payload; PathList
// is the segmented form. Anything else is preserved raw with a
// warning.
var (
	pathTagFlat = [4]byte{'P', 'T', 'H', '0'}
	pathTagList = [4]byte{'P', 'T', 'H', '1'}
)

// PathFill is a path object: a 4-byte class tag selecting the
// sub-format, a u32 payload size, and the payload. Both sub-formats
// keep their payload uninterpreted here; the tag distinction matters
// to consumers, not to the codec, and an unknown tag round-trips as
// raw bytes.
type PathFill struct {
	fillBase
	ClassTag [4]byte
	Content  []byte
}

func (f *PathFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *PathFill) Decode(r *binio.Reader, ctx *Context) error {
	b, err := r.Bytes(4)
	if err != nil {
		return err
	}
	copy(f.ClassTag[:], b)
	if f.ClassTag != pathTagFlat && f.ClassTag != pathTagList {
		diag.Sanity("path value with unknown class tag",
			"file", ctx.File, "tag", fmt.Sprintf("%q", f.ClassTag[:]))
	}
	n, err := r.U32()
	if err != nil {
		return err
	}
	if int(n) > r.Remaining() {
		return fmt.Errorf("path of %d bytes with only %d remaining", n, r.Remaining())
	}
	content, err := r.Bytes(int(n))
	if err != nil {
		return err
	}
	f.Content = append([]byte(nil), content...)
	return nil
}

func (f *PathFill) Encode(w *binio.Writer, ctx *Context) error {
	w.Raw(f.ClassTag[:])
	w.U32(uint32(len(f.Content)))
	w.Raw(f.Content)
	return nil
}

// FixedPointFill holds one 8-byte raw value per component (two for
// the complex kind), each followed by a 1-byte overflow flag when
// the descriptor's allocOv bit is set.
type FixedPointFill struct {
	fillBase
	Values [][8]byte
	// OvFlags parallels Values when the descriptor allocates
	// overflow bytes.
	OvFlags []uint8
}

func (f *FixedPointFill) components() int {
	if f.kind == typedesc.KindComplexFixedPt {
		return 2
	}
	return 1
}

func (f *FixedPointFill) allocOv() bool {
	if fp, ok := f.td.(*typedesc.FixedPoint); ok {
		return fp.AllocOv()
	}
	return false
}

func (f *FixedPointFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *FixedPointFill) Decode(r *binio.Reader, ctx *Context) error {
	n := f.components()
	ov := f.allocOv()
	f.Values = make([][8]byte, n)
	f.OvFlags = nil
	for i := 0; i < n; i++ {
		b, err := r.Bytes(8)
		if err != nil {
			return err
		}
		copy(f.Values[i][:], b)
		if ov {
			flag, err := r.U8()
			if err != nil {
				return err
			}
			f.OvFlags = append(f.OvFlags, flag)
		}
	}
	return nil
}

func (f *FixedPointFill) Encode(w *binio.Writer, ctx *Context) error {
	ov := f.allocOv()
	for i := range f.Values {
		w.Raw(f.Values[i][:])
		if ov {
			var flag uint8
			if i < len(f.OvFlags) {
				flag = f.OvFlags[i]
			}
			w.U8(flag)
		}
	}
	return nil
}
