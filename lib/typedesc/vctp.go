// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/lvver"
)

// ConsolidatedList is the document-owned ordered table of type
// descriptors that indexed clients resolve against. It is created
// once per document load, appended to during decode, and mutated
// only during XML reconstruction. Indices are stable for the life of
// the document.
//
// The list must not be shared across documents; everything here is
// single-threaded by design.
type ConsolidatedList struct {
	file  string
	types []TypeDesc
	// TopTypes are the indices the document marks as top-level
	// entries of the table.
	TopTypes []int
}

// NewConsolidatedList returns an empty list for the named document.
func NewConsolidatedList(file string) *ConsolidatedList {
	return &ConsolidatedList{file: file}
}

// Len returns the number of table entries.
func (l *ConsolidatedList) Len() int { return len(l.types) }

// At returns the descriptor at index i. Out-of-range indices are a
// structural error: the table is the only handle indexed clients
// have, so a bad index means the document is malformed.
func (l *ConsolidatedList) At(i int) (TypeDesc, error) {
	if i < 0 || i >= len(l.types) {
		return nil, diag.Structural(l.file, i, "unknown", "resolve",
			fmt.Errorf("index outside table of %d entries", len(l.types)))
	}
	return l.types[i], nil
}

// Append adds td to the table and returns its index.
func (l *ConsolidatedList) Append(td TypeDesc) int {
	idx := len(l.types)
	td.SetIndex(idx)
	l.types = append(l.types, td)
	return idx
}

// All returns the table entries in order. Callers must not modify
// the slice.
func (l *ConsolidatedList) All() []TypeDesc { return l.types }

// DecodeList reads the consolidated table section: u32 entry count,
// the descriptors, then a u16-counted list of top-type indices.
func DecodeList(r *binio.Reader, ctx *Context) (*ConsolidatedList, error) {
	count, err := r.U32()
	if err != nil {
		return nil, diag.Structural(ctx.File, -1, "table", "count", err)
	}
	if int(count) > ctx.Limits.TypeListLimit {
		return nil, diag.Structural(ctx.File, -1, "table", "count",
			fmt.Errorf("%d entries exceeds limit %d", count, ctx.Limits.TypeListLimit))
	}
	list := NewConsolidatedList(ctx.File)
	// Clients may reference indices not yet populated; the list is
	// installed in the context before decoding so forward references
	// resolve lazily once the table is complete.
	ctx.List = list
	for i := 0; i < int(count); i++ {
		td, err := Decode(r, ctx)
		if err != nil {
			return nil, fmt.Errorf("table entry %d: %w", i, err)
		}
		list.Append(td)
	}
	topCount, err := r.U16()
	if err != nil {
		return nil, diag.Structural(ctx.File, -1, "table", "top types", err)
	}
	for i := 0; i < int(topCount); i++ {
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return nil, diag.Structural(ctx.File, -1, "table", "top types", err)
		}
		list.TopTypes = append(list.TopTypes, int(idx))
	}
	return list, nil
}

// EncodeList writes the consolidated table section.
func EncodeList(w *binio.Writer, list *ConsolidatedList, ctx *Context) error {
	w.U32(uint32(len(list.types)))
	for i, td := range list.types {
		if err := Encode(w, td, ctx); err != nil {
			return fmt.Errorf("table entry %d: %w", i, err)
		}
	}
	w.U16(uint16(len(list.TopTypes)))
	for _, idx := range list.TopTypes {
		if err := w.WriteSmallIndex(uint32(idx)); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits td and every descriptor reachable through its clients,
// depth first. Indexed references resolve against ctx.List. A
// visited set guards against self-referential tables: revisiting an
// index already on the walk stack is a structural error rather than
// unbounded recursion.
func Walk(td TypeDesc, ctx *Context, visit func(TypeDesc) error) error {
	onStack := make(map[int]bool)
	return walk(td, ctx, visit, onStack)
}

func walk(td TypeDesc, ctx *Context, visit func(TypeDesc) error, onStack map[int]bool) error {
	if idx := td.Index(); idx >= 0 {
		if onStack[idx] {
			return diag.Structural(ctx.File, idx, td.Kind().String(), "walk",
				fmt.Errorf("type table cycle"))
		}
		onStack[idx] = true
		defer delete(onStack, idx)
	}
	if err := visit(td); err != nil {
		return err
	}
	for _, c := range td.Clients() {
		child, err := c.Resolve(ctx)
		if err != nil {
			return ctx.structural(td, "walk", err)
		}
		if err := walk(child, ctx, visit, onStack); err != nil {
			return err
		}
	}
	return nil
}

// StandaloneMode selects how a standalone type-descriptor property
// value is encoded: a full inline table, or a bare index into the
// document's live table. The choice is the caller's, not detected
// from context; the by-reference form additionally requires the
// format revision that introduced it.
type StandaloneMode int

const (
	// StandaloneInline emits the member descriptors themselves.
	StandaloneInline StandaloneMode = iota
	// StandaloneByRef emits only an index into the live table.
	StandaloneByRef
)

// Standalone is a type-descriptor graph carried as a property value
// outside the consolidated table section.
type Standalone struct {
	Mode StandaloneMode
	// Inline mode fields.
	Members []TypeDesc
	HasTop  bool
	Top     int
	// By-reference mode field.
	Ref int
}

// DecodeStandalone reads a standalone descriptor value in the given
// mode. Inline layout: u16 member count, the member descriptors, u8
// has-top flag, then the top index when the flag is set.
func DecodeStandalone(r *binio.Reader, ctx *Context, mode StandaloneMode) (*Standalone, error) {
	s := &Standalone{Mode: mode}
	if mode == StandaloneByRef {
		if !lvver.Has(ctx.Version, lvver.FeatRefByIndexTable) {
			return nil, diag.Structural(ctx.File, -1, "standalone", "decode",
				fmt.Errorf("by-reference form not valid before %s", mustThreshold(lvver.FeatRefByIndexTable)))
		}
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return nil, err
		}
		s.Ref = int(idx)
		return s, nil
	}
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	if int(count) > ctx.Limits.TypeListLimit {
		return nil, fmt.Errorf("%d members exceeds limit %d", count, ctx.Limits.TypeListLimit)
	}
	for i := 0; i < int(count); i++ {
		td, err := Decode(r, ctx)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		s.Members = append(s.Members, td)
	}
	hasTop, err := r.U8()
	if err != nil {
		return nil, err
	}
	s.HasTop = hasTop != 0
	if s.HasTop {
		top, err := r.ReadSmallIndex()
		if err != nil {
			return nil, err
		}
		s.Top = int(top)
	}
	return s, nil
}

// EncodeStandalone writes s back in its mode.
func EncodeStandalone(w *binio.Writer, s *Standalone, ctx *Context) error {
	if s.Mode == StandaloneByRef {
		if !lvver.Has(ctx.Version, lvver.FeatRefByIndexTable) {
			return diag.Structural(ctx.File, -1, "standalone", "encode",
				fmt.Errorf("by-reference form not valid before %s", mustThreshold(lvver.FeatRefByIndexTable)))
		}
		return w.WriteSmallIndex(uint32(s.Ref))
	}
	w.U16(uint16(len(s.Members)))
	for i, td := range s.Members {
		if err := Encode(w, td, ctx); err != nil {
			return fmt.Errorf("member %d: %w", i, err)
		}
	}
	if s.HasTop {
		w.U8(1)
		return w.WriteSmallIndex(uint32(s.Top))
	}
	w.U8(0)
	return nil
}

func mustThreshold(f lvver.Feature) lvver.Version {
	v, _ := lvver.Threshold(f)
	return v
}
