// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"
	"sort"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// Type-map filter bits. Each bit selects a fixed set of template
// indices; the selected union is what a filtered cluster iterates.
// The skip bit removes the entry iteration would visit first once
// the filter is applied.
const (
	TMFBit2     uint16 = 1 << 2
	TMFBit4     uint16 = 1 << 4
	TMFBit5     uint16 = 1 << 5
	TMFBit6     uint16 = 1 << 6
	TMFSkipNext uint16 = 1 << 9
)

// ClusterFill is one value child per descriptor client, in client
// order. In special mode only the template indices selected by
// TMFlags participate.
type ClusterFill struct {
	fillBase
	Children []DataFill
	// Comments maps child index to an annotation carried through
	// XML export. It never affects the value bytes.
	Comments map[int]string
	// Special selects the filtered iteration driven by TMFlags.
	Special bool
	TMFlags uint16
}

// NewSpecialCluster builds a filtered cluster fill bound to td.
func NewSpecialCluster(td typedesc.TypeDesc, tmFlags uint16, ctx *Context) (*ClusterFill, error) {
	f := &ClusterFill{
		fillBase: fillBase{kind: typedesc.KindCluster},
		Special:  true,
		TMFlags:  tmFlags,
	}
	if err := f.SetTD(td, ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// activeIndices returns the template indices this fill iterates, in
// ascending order, clipped to the client count.
func (f *ClusterFill) activeIndices(ctx *Context) []int {
	n := len(f.td.Clients())
	if !f.Special {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	set := make(map[int]bool)
	if f.TMFlags&TMFBit4 != 0 {
		set[1], set[2], set[3] = true, true, true
	}
	if f.TMFlags&TMFBit5 != 0 {
		set[3] = true
	}
	if f.TMFlags&TMFBit6 != 0 {
		set[2] = true
	}
	if f.TMFlags&TMFBit2 != 0 {
		if lvver.Has(ctx.Version, lvver.FeatTMFBit2NewIndex) {
			set[1] = true
		} else {
			set[2] = true
		}
	}
	idx := make([]int, 0, len(set))
	for i := range set {
		if i < n {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	if f.TMFlags&TMFSkipNext != 0 && len(idx) > 0 {
		idx = idx[1:]
	}
	return idx
}

func (f *ClusterFill) SetTD(td typedesc.TypeDesc, ctx *Context) error {
	if err := f.bind(td); err != nil {
		return err
	}
	// Rebinding propagates the new descriptor to children already
	// built from a previous one.
	idx := f.activeIndices(ctx)
	for i, child := range f.Children {
		if i >= len(idx) {
			break
		}
		ct, err := resolveClient(td, idx[i], ctx)
		if err != nil {
			return err
		}
		if err := child.SetTD(ct, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *ClusterFill) Decode(r *binio.Reader, ctx *Context) error {
	idx := f.activeIndices(ctx)
	f.Children = f.Children[:0]
	for _, i := range idx {
		ct, err := resolveClient(f.td, i, ctx)
		if err != nil {
			return err
		}
		child, err := NewForTD(ct, ctx)
		if err != nil {
			return err
		}
		if err := child.Decode(r, ctx); err != nil {
			return fmt.Errorf("cluster element %d: %w", i, err)
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *ClusterFill) Encode(w *binio.Writer, ctx *Context) error {
	for i, child := range f.Children {
		if err := child.Encode(w, ctx); err != nil {
			return fmt.Errorf("cluster element %d: %w", i, err)
		}
	}
	return nil
}

// TypeDefFill wraps the one value of the named inner type.
type TypeDefFill struct {
	fillBase
	Child DataFill
}

func (f *TypeDefFill) SetTD(td typedesc.TypeDesc, ctx *Context) error {
	if err := f.bind(td); err != nil {
		return err
	}
	if f.Child != nil {
		ct, err := resolveClient(td, 0, ctx)
		if err != nil {
			return err
		}
		return f.Child.SetTD(ct, ctx)
	}
	return nil
}

func (f *TypeDefFill) Decode(r *binio.Reader, ctx *Context) error {
	ct, err := resolveClient(f.td, 0, ctx)
	if err != nil {
		return err
	}
	child, err := NewForTD(ct, ctx)
	if err != nil {
		return err
	}
	if err := child.Decode(r, ctx); err != nil {
		return err
	}
	f.Child = child
	return nil
}

func (f *TypeDefFill) Encode(w *binio.Writer, ctx *Context) error {
	if f.Child == nil {
		return fmt.Errorf("typedef fill with no value")
	}
	return f.Child.Encode(w, ctx)
}

// BlockFill is the flat byte run of a block descriptor: exactly the
// declared size, no further structure.
type BlockFill struct {
	fillBase
	Data []byte
}

// declaredSize reads the size off the bound descriptor.
func (f *BlockFill) declaredSize() (int, error) {
	switch td := f.td.(type) {
	case *typedesc.Block:
		return int(td.BlockSize), nil
	case *typedesc.AlignedBlock:
		return int(td.BlockSize), nil
	}
	return 0, fmt.Errorf("block fill bound to %T", f.td)
}

func (f *BlockFill) SetTD(td typedesc.TypeDesc, ctx *Context) error { return f.bind(td) }

func (f *BlockFill) Decode(r *binio.Reader, ctx *Context) error {
	size, err := f.declaredSize()
	if err != nil {
		return err
	}
	b, err := r.Bytes(size)
	if err != nil {
		return err
	}
	f.Data = append([]byte(nil), b...)
	return nil
}

func (f *BlockFill) Encode(w *binio.Writer, ctx *Context) error {
	size, err := f.declaredSize()
	if err != nil {
		return err
	}
	if len(f.Data) != size {
		return fmt.Errorf("block fill holds %d bytes, descriptor declares %d", len(f.Data), size)
	}
	w.Raw(f.Data)
	return nil
}

// RepeatedBlockFill is the one client type repeated the descriptor's
// declared number of times.
type RepeatedBlockFill struct {
	fillBase
	Children []DataFill
}

func (f *RepeatedBlockFill) repeats() (int, error) {
	td, ok := f.td.(*typedesc.RepeatedBlock)
	if !ok {
		return 0, fmt.Errorf("repeated-block fill bound to %T", f.td)
	}
	return int(td.NumRepeats), nil
}

func (f *RepeatedBlockFill) SetTD(td typedesc.TypeDesc, ctx *Context) error {
	if err := f.bind(td); err != nil {
		return err
	}
	if len(f.Children) > 0 {
		ct, err := resolveClient(td, 0, ctx)
		if err != nil {
			return err
		}
		for _, child := range f.Children {
			if err := child.SetTD(ct, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *RepeatedBlockFill) Decode(r *binio.Reader, ctx *Context) error {
	n, err := f.repeats()
	if err != nil {
		return err
	}
	if n > ctx.Limits.ArrayDataLimit {
		return fmt.Errorf("repeat count %d exceeds limit %d", n, ctx.Limits.ArrayDataLimit)
	}
	ct, err := resolveClient(f.td, 0, ctx)
	if err != nil {
		return err
	}
	f.Children = f.Children[:0]
	for i := 0; i < n; i++ {
		child, err := NewForTD(ct, ctx)
		if err != nil {
			return err
		}
		if err := child.Decode(r, ctx); err != nil {
			return fmt.Errorf("repeat %d: %w", i, err)
		}
		f.Children = append(f.Children, child)
	}
	return nil
}

func (f *RepeatedBlockFill) Encode(w *binio.Writer, ctx *Context) error {
	for i, child := range f.Children {
		if err := child.Encode(w, ctx); err != nil {
			return fmt.Errorf("repeat %d: %w", i, err)
		}
	}
	return nil
}
