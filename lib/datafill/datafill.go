// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// Context aliases the descriptor context; fills gate on the same
// version tuple and resolve clients against the same table.
type Context = typedesc.Context

// DataFill is one node of the default-value graph.
type DataFill interface {
	// Kind returns the descriptor kind this fill serves.
	Kind() typedesc.Kind
	// TD returns the bound descriptor, nil before SetTD.
	TD() typedesc.TypeDesc
	// SetTD binds the fill to its descriptor. The descriptor's kind
	// must equal the fill's configured kind; a mismatch fails fast.
	// Rebinding a composite fill propagates the new descriptor to
	// already-constructed children and recomputes descriptor-derived
	// choices.
	SetTD(td typedesc.TypeDesc, ctx *Context) error
	// Decode reads the fill's value bytes at the cursor.
	Decode(r *binio.Reader, ctx *Context) error
	// Encode writes the value bytes back.
	Encode(w *binio.Writer, ctx *Context) error

	exportXML(parent *etree.Element, ctx *Context) error
	importXML(el *etree.Element, ctx *Context) error
}

// fillBase carries the binding every fill shares.
type fillBase struct {
	kind typedesc.Kind
	td   typedesc.TypeDesc
}

func (b *fillBase) Kind() typedesc.Kind     { return b.kind }
func (b *fillBase) TD() typedesc.TypeDesc   { return b.td }

// bind performs the kind check shared by all SetTD implementations.
func (b *fillBase) bind(td typedesc.TypeDesc) error {
	if td.Kind() != b.kind {
		return fmt.Errorf("binding %s fill to %s descriptor", b.kind, td.Kind())
	}
	b.td = td
	return nil
}

// NewForTD constructs the fill variant for td's kind, bound to td.
// Refnum descriptors dispatch a second time on their ref-type and
// MeasureData on its flavor; both happen inside the constructed
// fill, not here.
func NewForTD(td typedesc.TypeDesc, ctx *Context) (DataFill, error) {
	fill, err := newForKind(td.Kind())
	if err != nil {
		return nil, err
	}
	if err := fill.SetTD(td, ctx); err != nil {
		return nil, err
	}
	return fill, nil
}

// newForKind builds an unbound fill for kind k.
func newForKind(k typedesc.Kind) (DataFill, error) {
	switch {
	case k == typedesc.KindVoid:
		return &VoidFill{fillBase{kind: k}}, nil
	case k.IsNumber():
		return newNumericFill(k)
	case k.Main() == typedesc.MainBool:
		return &BoolFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindString, k == typedesc.KindPasString,
		k == typedesc.KindPicture, k == typedesc.KindTag:
		return &StringFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindCString:
		return &CStringFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindPath:
		return &PathFill{fillBase: fillBase{kind: k}}, nil
	case k.Main() == typedesc.MainArray:
		return &ArrayFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindCluster:
		return &ClusterFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindTypeDef:
		return &TypeDefFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindBlock, k == typedesc.KindAlignedBlock:
		return &BlockFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindRepeatedBlock:
		return &RepeatedBlockFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindLVVariant:
		return &VariantFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindMeasureData:
		return &MeasureDataFill{fillBase: fillBase{kind: k}}, nil
	case k == typedesc.KindFixedPoint, k == typedesc.KindComplexFixedPt:
		return &FixedPointFill{fillBase: fillBase{kind: k}}, nil
	case k.Main() == typedesc.MainRef:
		return &RefnumFill{fillBase: fillBase{kind: k}}, nil
	}
	return nil, fmt.Errorf("no data fill for descriptor kind %s", k)
}

// resolveClient resolves the i'th client of td.
func resolveClient(td typedesc.TypeDesc, i int, ctx *Context) (typedesc.TypeDesc, error) {
	clients := td.Clients()
	if i < 0 || i >= len(clients) {
		return nil, fmt.Errorf("%s has no client %d", td.Kind(), i)
	}
	return clients[i].Resolve(ctx)
}
