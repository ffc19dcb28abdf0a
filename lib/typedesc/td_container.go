// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
)

func init() {
	// The array family shares one codec via the main-kind bucket.
	registerMain(func() TypeDesc { return &Array{} }, MainArray)
	register(func() TypeDesc { return &Cluster{} }, KindCluster)
	register(func() TypeDesc { return &Block{} }, KindBlock)
	register(func() TypeDesc { return &AlignedBlock{} }, KindAlignedBlock)
	register(func() TypeDesc { return &RepeatedBlock{} }, KindRepeatedBlock)
	register(func() TypeDesc { return &TypeDef{} }, KindTypeDef)
	register(func() TypeDesc { return &LVVariant{} }, KindLVVariant)
	register(func() TypeDesc { return &MeasureData{} }, KindMeasureData)
}

// maxArrayDims is the structural sanity bound on array rank.
const maxArrayDims = 64

// DimDynamic is the 24-bit dimension size sentinel for a dynamically
// sized dimension, paired with flag byte 0xFF.
const DimDynamic = 0x00FFFFFF

// Dim is one array dimension descriptor: a flag byte and a 24-bit
// fixed size, or the dynamic sentinel.
type Dim struct {
	Flags uint8
	Size  uint32
}

// IsDynamic reports whether the dimension has no fixed size.
func (d Dim) IsDynamic() bool { return d.Flags == 0xFF && d.Size == DimDynamic }

// DynamicDim returns the dynamic dimension sentinel.
func DynamicDim() Dim { return Dim{Flags: 0xFF, Size: DimDynamic} }

// Array covers the array family. Body: u16 dimension count, one
// packed u32 per dimension (flag byte in the top 8 bits, size in the
// low 24), then exactly one element-type client.
type Array struct {
	base
	Dims []Dim
}

func (t *Array) decodeBody(r *binio.Reader, ctx *Context) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	if count > maxArrayDims {
		return fmt.Errorf("array of %d dimensions exceeds bound %d", count, maxArrayDims)
	}
	t.Dims = make([]Dim, count)
	for i := range t.Dims {
		packed, err := r.U32()
		if err != nil {
			return fmt.Errorf("dimension %d: %w", i, err)
		}
		t.Dims[i] = Dim{Flags: uint8(packed >> 24), Size: packed & 0x00FFFFFF}
	}
	c, err := decodeClient(r, ctx, t.kind)
	if err != nil {
		return fmt.Errorf("element type: %w", err)
	}
	t.clients = []Client{c}
	return nil
}

func (t *Array) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(uint16(len(t.Dims)))
	for _, d := range t.Dims {
		w.U32(uint32(d.Flags)<<24 | d.Size&0x00FFFFFF)
	}
	if len(t.clients) != 1 {
		return fmt.Errorf("array with %d clients", len(t.clients))
	}
	return encodeClient(w, ctx, t.kind, t.clients[0])
}

func (t *Array) SanityCheck() error {
	if len(t.Dims) > maxArrayDims {
		return fmt.Errorf("%d dimensions exceeds bound %d", len(t.Dims), maxArrayDims)
	}
	if len(t.clients) != 1 {
		return fmt.Errorf("array must have exactly 1 client, has %d", len(t.clients))
	}
	return nil
}

// maxClusterClients is the structural sanity bound on cluster arity.
const maxClusterClients = 500

// Cluster is an ordered aggregate. Body: u16 child count, then the
// children in the container client layout.
type Cluster struct {
	base
}

func (t *Cluster) decodeBody(r *binio.Reader, ctx *Context) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	if count > maxClusterClients {
		return fmt.Errorf("cluster of %d children exceeds bound %d", count, maxClusterClients)
	}
	t.clients = make([]Client, 0, count)
	for i := 0; i < int(count); i++ {
		c, err := decodeClient(r, ctx, t.kind)
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		t.clients = append(t.clients, c)
	}
	return nil
}

func (t *Cluster) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(uint16(len(t.clients)))
	for i, c := range t.clients {
		if err := encodeClient(w, ctx, t.kind, c); err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
	}
	return nil
}

func (t *Cluster) SanityCheck() error {
	if len(t.clients) > maxClusterClients {
		return fmt.Errorf("%d children exceeds bound %d", len(t.clients), maxClusterClients)
	}
	return nil
}

// Block is a flat byte region of a declared size. Body: u32 size.
type Block struct {
	base
	BlockSize uint32
}

func (t *Block) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	t.BlockSize = v
	return nil
}

func (t *Block) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U32(t.BlockSize)
	return nil
}

// AlignedBlock is a block with an alignment carrier type. Body: u32
// size, one client.
type AlignedBlock struct {
	base
	BlockSize uint32
}

func (t *AlignedBlock) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	t.BlockSize = v
	c, err := decodeClient(r, ctx, t.kind)
	if err != nil {
		return err
	}
	t.clients = []Client{c}
	return nil
}

func (t *AlignedBlock) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U32(t.BlockSize)
	if len(t.clients) != 1 {
		return fmt.Errorf("aligned block with %d clients", len(t.clients))
	}
	return encodeClient(w, ctx, t.kind, t.clients[0])
}

// RepeatedBlock repeats its one client type a fixed number of times.
// Body: u32 repeat count, one client.
type RepeatedBlock struct {
	base
	NumRepeats uint32
}

func (t *RepeatedBlock) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	t.NumRepeats = v
	c, err := decodeClient(r, ctx, t.kind)
	if err != nil {
		return err
	}
	t.clients = []Client{c}
	return nil
}

func (t *RepeatedBlock) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U32(t.NumRepeats)
	if len(t.clients) != 1 {
		return fmt.Errorf("repeated block with %d clients", len(t.clients))
	}
	return encodeClient(w, ctx, t.kind, t.clients[0])
}

// TypeDef wraps one named type. Body: u32 flag word, the type name
// (a qualified name since the 8.0 revision, a single pascal string
// before), exactly one client.
type TypeDef struct {
	base
	Flag1 uint32
	// Name holds the qualified-name components; pre-8.0 records have
	// exactly one.
	Name [][]byte
}

func (t *TypeDef) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U32()
	if err != nil {
		return err
	}
	t.Flag1 = v
	if lvver.Has(ctx.Version, lvver.FeatQualifiedTypeDefName) {
		t.Name, err = r.ReadQualifiedName()
	} else {
		var one []byte
		one, err = r.ReadPString(true)
		t.Name = [][]byte{one}
	}
	if err != nil {
		return fmt.Errorf("typedef name: %w", err)
	}
	c, err := decodeClient(r, ctx, t.kind)
	if err != nil {
		return err
	}
	t.clients = []Client{c}
	return nil
}

func (t *TypeDef) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U32(t.Flag1)
	if lvver.Has(ctx.Version, lvver.FeatQualifiedTypeDefName) {
		if err := w.WriteQualifiedName(t.Name); err != nil {
			return err
		}
	} else {
		var one []byte
		if len(t.Name) > 0 {
			one = t.Name[0]
		}
		if err := w.WritePString(one, true); err != nil {
			return err
		}
	}
	if len(t.clients) != 1 {
		return fmt.Errorf("typedef with %d clients", len(t.clients))
	}
	return encodeClient(w, ctx, t.kind, t.clients[0])
}

func (t *TypeDef) SanityCheck() error {
	if len(t.clients) != 1 {
		return fmt.Errorf("typedef must have exactly 1 client, has %d", len(t.clients))
	}
	return nil
}

// LVVariant is the self-describing variant type. The descriptor
// itself carries no structure; layout differences live in the data
// fill.
type LVVariant struct {
	base
}

func (t *LVVariant) decodeBody(r *binio.Reader, ctx *Context) error { return nil }
func (t *LVVariant) encodeBody(w *binio.Writer, ctx *Context) error { return nil }

// MeasureData is a semantic measurement type whose on-disk value
// layout is fixed by convention rather than declared structurally.
// Body: u16 flavor.
type MeasureData struct {
	base
	Flavor uint16
}

func (t *MeasureData) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U16()
	if err != nil {
		return err
	}
	t.Flavor = v
	return nil
}

func (t *MeasureData) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(t.Flavor)
	return nil
}
