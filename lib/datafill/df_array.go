// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// SmartMode says how an array value is held: element by element, or
// collapsed into one flat blob.
type SmartMode int

const (
	// SmartNone: discrete child fills, one per element.
	SmartNone SmartMode = iota
	// SmartRSRC: flat blob taken directly from raw container bytes.
	// Only valid when the bytes came from an uncompressed section.
	SmartRSRC
	// SmartData: flat blob held as data, valid for any source.
	SmartData
)

// ArrayFill holds the dimension sizes read from the value stream and
// either discrete element fills or, for large flat numeric runs, one
// opaque blob covering every element.
type ArrayFill struct {
	fillBase
	// Dims are the stored dimension words. Bit 31 carries a flag and
	// does not contribute to the element count.
	Dims []uint32
	Mode SmartMode
	// Children holds the element fills in SmartNone mode.
	Children []DataFill
	// Blob holds count*elemSize bytes in the smart modes.
	Blob []byte
}

// Count returns the total element count: the product of the stored
// dimensions with the flag bit masked off.
func (f *ArrayFill) Count() int {
	count := 1
	for _, d := range f.Dims {
		count *= int(d & 0x7FFFFFFF)
	}
	return count
}

// elemInfo resolves the element descriptor and, for fixed-size
// numeric elements, the per-element byte size.
func (f *ArrayFill) elemInfo(ctx *Context) (typedesc.TypeDesc, int, error) {
	elem, err := resolveClient(f.td, 0, ctx)
	if err != nil {
		return nil, 0, err
	}
	if size, ok := elem.Kind().FixedSize(); ok && elem.Kind().IsNumber() {
		return elem, size, nil
	}
	return elem, 0, nil
}

// chooseMode picks the storage mode for a decode about to happen.
// Flat numeric runs above the configured threshold collapse into a
// blob; the blob flavor depends on where the bytes came from.
func (f *ArrayFill) chooseMode(elemSize, count int, ctx *Context) SmartMode {
	if elemSize == 0 {
		return SmartNone
	}
	if count*elemSize <= ctx.Limits.StoreAsDataAbove {
		return SmartNone
	}
	if ctx.Source == typedesc.SourceRSRC {
		return SmartRSRC
	}
	return SmartData
}

func (f *ArrayFill) SetTD(td typedesc.TypeDesc, ctx *Context) error {
	if err := f.bind(td); err != nil {
		return err
	}
	if len(f.Children) > 0 {
		elem, _, err := f.elemInfo(ctx)
		if err != nil {
			return err
		}
		for _, child := range f.Children {
			if err := child.SetTD(elem, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *ArrayFill) Decode(r *binio.Reader, ctx *Context) error {
	arr, ok := f.td.(*typedesc.Array)
	if !ok {
		return fmt.Errorf("array fill bound to %T", f.td)
	}
	f.Dims = make([]uint32, len(arr.Dims))
	for i := range f.Dims {
		v, err := r.U32()
		if err != nil {
			return err
		}
		f.Dims[i] = v
	}
	count := f.Count()
	if count > ctx.Limits.ArrayDataLimit {
		return fmt.Errorf("array of %d elements exceeds limit %d", count, ctx.Limits.ArrayDataLimit)
	}
	elem, elemSize, err := f.elemInfo(ctx)
	if err != nil {
		return err
	}
	if elemSize > 0 && count*elemSize > r.Remaining() {
		clipped := r.Remaining() / elemSize
		diag.Sanity("array dimensions overrun the section, clipping",
			"file", ctx.File, "declared", count, "clipped", clipped)
		count = clipped
	}
	f.Mode = f.chooseMode(elemSize, count, ctx)
	if f.Mode != SmartNone {
		b, err := r.Bytes(count * elemSize)
		if err != nil {
			return err
		}
		f.Blob = append([]byte(nil), b...)
		f.Children = nil
		return nil
	}
	f.Blob = nil
	f.Children = f.Children[:0]
	for i := 0; i < count; i++ {
		child, err := NewForTD(elem, ctx)
		if err != nil {
			return err
		}
		if err := child.Decode(r, ctx); err != nil {
			return fmt.Errorf("array element %d: %w", i, err)
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *ArrayFill) Encode(w *binio.Writer, ctx *Context) error {
	for _, d := range f.Dims {
		w.U32(d)
	}
	if f.Mode != SmartNone {
		w.Raw(f.Blob)
		return nil
	}
	for i, child := range f.Children {
		if err := child.Encode(w, ctx); err != nil {
			return fmt.Errorf("array element %d: %w", i, err)
		}
	}
	return nil
}
