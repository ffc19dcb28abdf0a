// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// noValueIndex marks a variant that carries types but no value.
const noValueIndex = 0xFFFF

// VariantAttr is one named attribute of a variant value.
type VariantAttr struct {
	Name      []byte
	TypeIndex uint16
	Value     DataFill
}

// VariantFill delegates to the variant-value sub-codec. Documents
// older than the 6.0 build-2 revision use the legacy layout: one
// nested descriptor, its value, and an optional extra value behind a
// flag byte. Everything newer uses the native layout: an inner
// version word, an embedded type table, a value index into it, the
// value, and a named attribute list.
type VariantFill struct {
	fillBase

	// Native layout.
	InnerVersion uint32
	Types        []typedesc.TypeDesc
	ValueIndex   uint16
	Value        DataFill
	Attrs        []VariantAttr

	// Legacy layout.
	LegacyTD    typedesc.TypeDesc
	LegacyValue DataFill
	ExtraValue  DataFill
}

func (f *VariantFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *VariantFill) Decode(r *binio.Reader, ctx *Context) error {
	if !lvver.Has(ctx.Version, lvver.FeatVariantNativeLayout) {
		return f.decodeLegacy(r, ctx)
	}
	return f.decodeNative(r, ctx)
}

func (f *VariantFill) Encode(w *binio.Writer, ctx *Context) error {
	if !lvver.Has(ctx.Version, lvver.FeatVariantNativeLayout) {
		return f.encodeLegacy(w, ctx)
	}
	return f.encodeNative(w, ctx)
}

// fillFor decodes one value against an embedded descriptor. Embedded
// descriptors resolve clients among themselves, never against the
// document table, so the sub-context carries no list.
func (f *VariantFill) fillFor(td typedesc.TypeDesc, r *binio.Reader, ctx *Context) (DataFill, error) {
	sub := *ctx
	sub.List = nil
	fill, err := NewForTD(td, &sub)
	if err != nil {
		return nil, err
	}
	if err := fill.Decode(r, &sub); err != nil {
		return nil, err
	}
	return fill, nil
}

func (f *VariantFill) decodeLegacy(r *binio.Reader, ctx *Context) error {
	td, err := typedesc.Decode(r, ctx)
	if err != nil {
		return fmt.Errorf("variant descriptor: %w", err)
	}
	f.LegacyTD = td
	if f.LegacyValue, err = f.fillFor(td, r, ctx); err != nil {
		return fmt.Errorf("variant value: %w", err)
	}
	extra, err := r.U8()
	if err != nil {
		return err
	}
	f.ExtraValue = nil
	if extra != 0 {
		if f.ExtraValue, err = f.fillFor(td, r, ctx); err != nil {
			return fmt.Errorf("variant extra value: %w", err)
		}
	}
	return nil
}

func (f *VariantFill) encodeLegacy(w *binio.Writer, ctx *Context) error {
	if f.LegacyTD == nil {
		return fmt.Errorf("legacy variant with no descriptor")
	}
	if err := typedesc.Encode(w, f.LegacyTD, ctx); err != nil {
		return err
	}
	if err := f.LegacyValue.Encode(w, ctx); err != nil {
		return err
	}
	if f.ExtraValue == nil {
		w.U8(0)
		return nil
	}
	w.U8(1)
	return f.ExtraValue.Encode(w, ctx)
}

func (f *VariantFill) decodeNative(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	f.InnerVersion = v
	count, err := r.U16()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.TypeListLimit {
		return fmt.Errorf("variant holds %d types, limit %d", count, ctx.Limits.TypeListLimit)
	}
	f.Types = f.Types[:0]
	for i := 0; i < int(count); i++ {
		td, err := typedesc.Decode(r, ctx)
		if err != nil {
			return fmt.Errorf("variant type %d: %w", i, err)
		}
		f.Types = append(f.Types, td)
	}
	if f.ValueIndex, err = r.U16(); err != nil {
		return err
	}
	f.Value = nil
	if f.ValueIndex != noValueIndex {
		if int(f.ValueIndex) >= len(f.Types) {
			return fmt.Errorf("variant value index %d outside %d types", f.ValueIndex, len(f.Types))
		}
		if f.Value, err = f.fillFor(f.Types[f.ValueIndex], r, ctx); err != nil {
			return fmt.Errorf("variant value: %w", err)
		}
	}
	attrCount, err := r.U32()
	if err != nil {
		return err
	}
	if int(attrCount) > ctx.Limits.TypeListLimit {
		return fmt.Errorf("variant holds %d attributes, limit %d", attrCount, ctx.Limits.TypeListLimit)
	}
	f.Attrs = f.Attrs[:0]
	for i := 0; i < int(attrCount); i++ {
		name, err := r.ReadPString(false)
		if err != nil {
			return fmt.Errorf("attribute %d name: %w", i, err)
		}
		idx, err := r.U16()
		if err != nil {
			return err
		}
		if int(idx) >= len(f.Types) {
			return fmt.Errorf("attribute %q type index %d outside %d types", name, idx, len(f.Types))
		}
		val, err := f.fillFor(f.Types[idx], r, ctx)
		if err != nil {
			return fmt.Errorf("attribute %q value: %w", name, err)
		}
		f.Attrs = append(f.Attrs, VariantAttr{Name: name, TypeIndex: idx, Value: val})
	}
	return nil
}

func (f *VariantFill) encodeNative(w *binio.Writer, ctx *Context) error {
	w.U32(f.InnerVersion)
	w.U16(uint16(len(f.Types)))
	for i, td := range f.Types {
		if err := typedesc.Encode(w, td, ctx); err != nil {
			return fmt.Errorf("variant type %d: %w", i, err)
		}
	}
	w.U16(f.ValueIndex)
	if f.ValueIndex != noValueIndex {
		if f.Value == nil {
			return fmt.Errorf("variant value index %d with no value", f.ValueIndex)
		}
		if err := f.Value.Encode(w, ctx); err != nil {
			return err
		}
	}
	w.U32(uint32(len(f.Attrs)))
	for _, a := range f.Attrs {
		if err := w.WritePString(a.Name, false); err != nil {
			return err
		}
		w.U16(a.TypeIndex)
		if err := a.Value.Encode(w, ctx); err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	return nil
}

// timestampSize is the fixed on-disk size of a waveform t0 block.
const timestampSize = 16

// MeasureDataFill decodes against a synthetic shape derived from the
// descriptor's flavor, not from its client list; the value layout of
// measurement types is fixed by convention.
type MeasureDataFill struct {
	fillBase
	Children []DataFill
}

func (f *MeasureDataFill) flavor() (uint16, error) {
	td, ok := f.td.(*typedesc.MeasureData)
	if !ok {
		return 0, fmt.Errorf("measure-data fill bound to %T", f.td)
	}
	return td.Flavor, nil
}

func (f *MeasureDataFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

// synthNumeric builds a bare numeric descriptor node.
func synthNumeric(k typedesc.Kind) typedesc.TypeDesc {
	return typedesc.New(k)
}

// synthBlock builds a flat block descriptor of the given size.
func synthBlock(size uint32) typedesc.TypeDesc {
	blk := typedesc.New(typedesc.KindBlock).(*typedesc.Block)
	blk.BlockSize = size
	return blk
}

// synthArray builds a one-dimensional array of elem.
func synthArray(elem typedesc.TypeDesc) typedesc.TypeDesc {
	arr := typedesc.New(typedesc.KindArray).(*typedesc.Array)
	arr.Dims = []typedesc.Dim{typedesc.DynamicDim()}
	arr.SetClients([]typedesc.Client{typedesc.NestedClient(elem)})
	return arr
}

// synthCluster builds a cluster of the given members.
func synthCluster(members ...typedesc.TypeDesc) typedesc.TypeDesc {
	cl := typedesc.New(typedesc.KindCluster)
	clients := make([]typedesc.Client, len(members))
	for i, m := range members {
		clients[i] = typedesc.NestedClient(m)
	}
	cl.SetClients(clients)
	return cl
}

// synthErrorCluster is the conventional {status, code, source} shape.
func synthErrorCluster() typedesc.TypeDesc {
	return synthCluster(
		typedesc.New(typedesc.KindBoolean),
		synthNumeric(typedesc.KindNumInt32),
		typedesc.New(typedesc.KindString),
	)
}

// synthShape returns the member descriptors the flavor's value bytes
// follow, in order.
func synthShape(flavor uint16) ([]typedesc.TypeDesc, error) {
	if inner, ok := typedesc.FlavorInnerKind(flavor); ok {
		if flavor == typedesc.FlavorOldFloat64Waveform {
			// The pre-timestamp waveform: plain f64 t0 and dt, Y
			// data, nothing else.
			return []typedesc.TypeDesc{
				synthNumeric(typedesc.KindNumFloat64),
				synthNumeric(typedesc.KindNumFloat64),
				synthArray(synthNumeric(inner)),
			}, nil
		}
		return []typedesc.TypeDesc{
			synthBlock(timestampSize),
			synthNumeric(typedesc.KindNumFloat64),
			synthArray(synthNumeric(inner)),
			synthErrorCluster(),
			typedesc.New(typedesc.KindLVVariant),
		}, nil
	}
	switch flavor {
	case typedesc.FlavorTimeStamp:
		return []typedesc.TypeDesc{synthBlock(timestampSize)}, nil
	case typedesc.FlavorDigitalData:
		return []typedesc.TypeDesc{
			synthArray(synthNumeric(typedesc.KindNumUInt32)),
			synthArray(synthNumeric(typedesc.KindNumUInt8)),
		}, nil
	case typedesc.FlavorDigitalWaveform:
		return []typedesc.TypeDesc{
			synthBlock(timestampSize),
			synthNumeric(typedesc.KindNumFloat64),
			synthCluster(
				synthArray(synthNumeric(typedesc.KindNumUInt32)),
				synthArray(synthNumeric(typedesc.KindNumUInt8)),
			),
			synthErrorCluster(),
			typedesc.New(typedesc.KindLVVariant),
		}, nil
	case typedesc.FlavorDynamicData:
		return []typedesc.TypeDesc{typedesc.New(typedesc.KindLVVariant)}, nil
	}
	return nil, fmt.Errorf("no value shape for flavor %s", typedesc.FlavorName(flavor))
}

func (f *MeasureDataFill) Decode(r *binio.Reader, ctx *Context) error {
	flavor, err := f.flavor()
	if err != nil {
		return err
	}
	shape, err := synthShape(flavor)
	if err != nil {
		return err
	}
	f.Children = f.Children[:0]
	for i, td := range shape {
		child, err := NewForTD(td, ctx)
		if err != nil {
			return err
		}
		if err := child.Decode(r, ctx); err != nil {
			return fmt.Errorf("%s member %d: %w", typedesc.FlavorName(flavor), i, err)
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *MeasureDataFill) Encode(w *binio.Writer, ctx *Context) error {
	for i, child := range f.Children {
		if err := child.Encode(w, ctx); err != nil {
			return fmt.Errorf("member %d: %w", i, err)
		}
	}
	return nil
}
