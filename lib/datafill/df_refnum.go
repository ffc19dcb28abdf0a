// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// maxUsrDefFields bounds the user-defined field list of a flattened
// tag refnum value.
const maxUsrDefFields = 4

// refValueLayout is the second dispatch stage for refnum values.
type refValueLayout int

const (
	refLayoutSimple refValueLayout = iota
	refLayoutIO
	refLayoutUDTag
	refLayoutUDClassInst
)

// valueLayout maps a ref-type to its value layout. Everything not
// named here carries the plain 4-byte handle.
func valueLayout(rt typedesc.RefType) refValueLayout {
	switch rt {
	case typedesc.RefDevice, typedesc.RefImaq,
		typedesc.RefVisaRef, typedesc.RefIVIRef:
		return refLayoutIO
	case typedesc.RefUsrDefndTag, typedesc.RefUsrDefTagFlt:
		return refLayoutUDTag
	case typedesc.RefUDClassInst:
		return refLayoutUDClassInst
	}
	return refLayoutSimple
}

// ClassInstRecord is one 4-component version tuple of a class
// instance value.
type ClassInstRecord [4]uint16

// isZero reports the all-zero sentinel record.
func (r ClassInstRecord) isZero() bool {
	return r[0] == 0 && r[1] == 0 && r[2] == 0 && r[3] == 0
}

// RefnumFill is the reference value. The layout dispatches a second
// time on the descriptor's ref-type; unknown ref-types get the
// simple handle.
type RefnumFill struct {
	fillBase

	// Handle is the value for the simple layout and for IO refnums
	// before tag strings.
	Handle uint32

	// Tag is the IO refnum tag string.
	Tag []byte

	// UDTag value and the flattened subtype's user-defined fields.
	TagValue []byte
	UsrDef   [][]byte

	// Class instance fields.
	LibName []byte
	Records []ClassInstRecord
	Blocks  [][]byte
}

func (f *RefnumFill) refType() (typedesc.RefType, error) {
	td, ok := f.td.(*typedesc.Refnum)
	if !ok {
		return 0, fmt.Errorf("refnum fill bound to %T", f.td)
	}
	return td.Ref, nil
}

func (f *RefnumFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *RefnumFill) Decode(r *binio.Reader, ctx *Context) error {
	rt, err := f.refType()
	if err != nil {
		return err
	}
	switch valueLayout(rt) {
	case refLayoutIO:
		return f.decodeIO(r, ctx)
	case refLayoutUDTag:
		return f.decodeUDTag(r, ctx, rt)
	case refLayoutUDClassInst:
		return f.decodeClassInst(r, ctx)
	}
	f.Handle, err = r.U32()
	return err
}

func (f *RefnumFill) Encode(w *binio.Writer, ctx *Context) error {
	rt, err := f.refType()
	if err != nil {
		return err
	}
	switch valueLayout(rt) {
	case refLayoutIO:
		return f.encodeIO(w, ctx)
	case refLayoutUDTag:
		return f.encodeUDTag(w, ctx, rt)
	case refLayoutUDClassInst:
		return f.encodeClassInst(w, ctx)
	}
	w.U32(f.Handle)
	return nil
}

func (f *RefnumFill) decodeIO(r *binio.Reader, ctx *Context) error {
	if !lvver.Has(ctx.Version, lvver.FeatIORefTagString) {
		v, err := r.U32()
		if err != nil {
			return err
		}
		f.Handle = v
		return nil
	}
	tag, err := r.ReadPString(false)
	if err != nil {
		return err
	}
	f.Tag = tag
	return nil
}

func (f *RefnumFill) encodeIO(w *binio.Writer, ctx *Context) error {
	if !lvver.Has(ctx.Version, lvver.FeatIORefTagString) {
		w.U32(f.Handle)
		return nil
	}
	return w.WritePString(f.Tag, false)
}

func (f *RefnumFill) decodeUDTag(r *binio.Reader, ctx *Context, rt typedesc.RefType) error {
	n, err := r.U32()
	if err != nil {
		return err
	}
	if int(n) > r.Remaining() {
		return fmt.Errorf("tag value of %d bytes with only %d remaining", n, r.Remaining())
	}
	val, err := r.Bytes(int(n))
	if err != nil {
		return err
	}
	f.TagValue = append([]byte(nil), val...)
	// One meaningless pad byte between value and fields, written by
	// a narrow range of builds and absent everywhere else.
	if lvver.UDTagStrayPad(ctx.Version) {
		if err := r.Skip(1); err != nil {
			return err
		}
	}
	f.UsrDef = nil
	if rt != typedesc.RefUsrDefTagFlt {
		return nil
	}
	count, err := r.U16()
	if err != nil {
		return err
	}
	if count > maxUsrDefFields {
		return fmt.Errorf("%d user-defined fields exceeds bound %d", count, maxUsrDefFields)
	}
	for i := 0; i < int(count); i++ {
		field, err := r.ReadPString(false)
		if err != nil {
			return fmt.Errorf("user-defined field %d: %w", i, err)
		}
		f.UsrDef = append(f.UsrDef, field)
	}
	return nil
}

func (f *RefnumFill) encodeUDTag(w *binio.Writer, ctx *Context, rt typedesc.RefType) error {
	w.U32(uint32(len(f.TagValue)))
	w.Raw(f.TagValue)
	if lvver.UDTagStrayPad(ctx.Version) {
		w.U8(0)
	}
	if rt != typedesc.RefUsrDefTagFlt {
		return nil
	}
	if len(f.UsrDef) > maxUsrDefFields {
		return fmt.Errorf("%d user-defined fields exceeds bound %d", len(f.UsrDef), maxUsrDefFields)
	}
	w.U16(uint16(len(f.UsrDef)))
	for _, field := range f.UsrDef {
		if err := w.WritePString(field, false); err != nil {
			return err
		}
	}
	return nil
}

func (f *RefnumFill) decodeClassInst(r *binio.Reader, ctx *Context) error {
	name, err := r.ReadPString(false)
	if err != nil {
		return err
	}
	f.LibName = name
	count, err := r.U32()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.ConnectorListLimit {
		return fmt.Errorf("%d version records exceeds limit %d", count, ctx.Limits.ConnectorListLimit)
	}
	f.Records = f.Records[:0]
	for i := 0; i < int(count); i++ {
		var rec ClassInstRecord
		for j := range rec {
			v, err := r.U16()
			if err != nil {
				return err
			}
			rec[j] = v
		}
		f.Records = append(f.Records, rec)
	}
	f.Blocks = nil
	// A single all-zero record is the "no version data" sentinel;
	// nothing follows it.
	if len(f.Records) == 1 && f.Records[0].isZero() {
		return nil
	}
	for i := range f.Records {
		n, err := r.U32()
		if err != nil {
			return err
		}
		if int(n) > r.Remaining() {
			return fmt.Errorf("version block %d of %d bytes with only %d remaining", i, n, r.Remaining())
		}
		blk, err := r.Bytes(int(n))
		if err != nil {
			return err
		}
		f.Blocks = append(f.Blocks, append([]byte(nil), blk...))
	}
	return nil
}

func (f *RefnumFill) encodeClassInst(w *binio.Writer, ctx *Context) error {
	if err := w.WritePString(f.LibName, false); err != nil {
		return err
	}
	w.U32(uint32(len(f.Records)))
	for _, rec := range f.Records {
		for _, v := range rec {
			w.U16(v)
		}
	}
	if len(f.Records) == 1 && f.Records[0].isZero() {
		return nil
	}
	if len(f.Blocks) != len(f.Records) {
		return fmt.Errorf("%d version blocks for %d records", len(f.Blocks), len(f.Records))
	}
	for _, blk := range f.Blocks {
		w.U32(uint32(len(blk)))
		w.Raw(blk)
	}
	return nil
}
