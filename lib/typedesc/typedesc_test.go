// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"bytes"
	"testing"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
)

func encodeTD(t *testing.T, td TypeDesc, ctx *Context) []byte {
	t.Helper()
	w := binio.NewWriter()
	if err := Encode(w, td, ctx); err != nil {
		t.Fatalf("Encode(%s): %v", td.Kind(), err)
	}
	return w.Bytes()
}

func decodeTD(t *testing.T, b []byte, ctx *Context) TypeDesc {
	t.Helper()
	r := binio.NewReader(b)
	td, err := Decode(r, ctx)
	if err != nil {
		t.Fatalf("Decode(% x): %v", b, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Decode(% x) left %d bytes", b, r.Remaining())
	}
	return td
}

func roundTripTD(t *testing.T, td TypeDesc, ctx *Context) TypeDesc {
	t.Helper()
	first := encodeTD(t, td, ctx)
	got := decodeTD(t, first, ctx)
	second := encodeTD(t, got, ctx)
	if !bytes.Equal(first, second) {
		t.Fatalf("%s round trip changed bytes:\n first % x\nsecond % x", td.Kind(), first, second)
	}
	return got
}

func TestNumericRoundTrip(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	for _, kind := range []Kind{
		KindNumInt8, KindNumInt32, KindNumUInt64,
		KindNumFloat64, KindNumComplex128,
	} {
		got := roundTripTD(t, New(kind), ctx)
		if got.Kind() != kind {
			t.Errorf("round trip of %s came back as %s", kind, got.Kind())
		}
	}
}

func TestUnitValueTableRoundTrip(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	num := New(KindUnitUInt16).(*Numeric)
	num.Values = [][]byte{[]byte("Off"), []byte("On"), []byte("Auto")}
	got := roundTripTD(t, num, ctx).(*Numeric)
	if len(got.Values) != 3 || !bytes.Equal(got.Values[2], []byte("Auto")) {
		t.Errorf("unit values = %q", got.Values)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	td := New(KindNumInt32)
	td.SetLabel([]byte("Amplitude"))
	got := roundTripTD(t, td, ctx)
	if !bytes.Equal(got.Label(), []byte("Amplitude")) {
		t.Errorf("label = %q, want %q", got.Label(), "Amplitude")
	}
	if got.Flags()&FlagHasLabel == 0 {
		t.Error("label flag lost in round trip")
	}
}

// A record without the label flag keeps label-looking trailing bytes
// as body; the scan must never run.
func TestNoLabelFlagSkipsScan(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	// Unknown kind 0x99 decodes as an opaque record. Its body ends
	// in bytes that would satisfy the label scan (\x03abc).
	record := []byte{0x00, 0x08, 0x00, 0x99, 0x03, 'a', 'b', 'c'}
	td := decodeTD(t, record, ctx)
	if td.Label() != nil {
		t.Errorf("label %q recovered without the label flag", td.Label())
	}
	if !bytes.Equal(encodeTD(t, td, ctx), record) {
		t.Error("opaque record changed in round trip")
	}
}

func TestClientLayoutVersionGated(t *testing.T) {
	old := NewContext("test", lvver.New(7, 0, 0))
	new9 := NewContext("test", lvver.New(9, 0, 0))

	arr := New(KindArray).(*Array)
	arr.Dims = []Dim{DynamicDim()}
	arr.SetClients([]Client{NestedClient(New(KindNumInt32))})

	nested := New(KindCluster)
	nested.SetClients([]Client{NestedClient(arr)})
	nestedBytes := encodeTD(t, nested, old)

	list := NewConsolidatedList("test")
	arrIdx := New(KindArray).(*Array)
	arrIdx.Dims = []Dim{DynamicDim()}
	arrIdx.SetClients([]Client{IndexedClient(0)})
	list.Append(New(KindNumInt32))
	list.Append(arrIdx)
	new9.List = list

	indexed := New(KindCluster)
	indexed.SetClients([]Client{IndexedClient(1)})
	indexedBytes := encodeTD(t, indexed, new9)

	if bytes.Equal(nestedBytes, indexedBytes) {
		t.Fatal("nested and indexed layouts must differ")
	}

	back := decodeTD(t, nestedBytes, old)
	if !back.Clients()[0].IsNested() {
		t.Error("7.0 cluster child must decode as nested")
	}
	if !bytes.Equal(encodeTD(t, back, old), nestedBytes) {
		t.Error("nested layout round trip changed bytes")
	}

	back = decodeTD(t, indexedBytes, new9)
	if back.Clients()[0].IsNested() {
		t.Error("9.0 cluster child must decode as indexed")
	}
	if back.Clients()[0].Index != 1 {
		t.Errorf("indexed child = %d, want 1", back.Clients()[0].Index)
	}
	if !bytes.Equal(encodeTD(t, back, new9), indexedBytes) {
		t.Error("indexed layout round trip changed bytes")
	}
}

// Nested client records store their length 4 high from the 8.0b1
// revision on. Refnum payloads keep nested children at every
// version, which makes the offset visible in isolation.
func TestNestedLengthOffset(t *testing.T) {
	enc := func(ver lvver.Version) []byte {
		ctx := NewContext("test", ver)
		w := binio.NewWriter()
		if err := encodeClient(w, ctx, KindRefnum, NestedClient(New(KindNumInt32))); err != nil {
			t.Fatalf("encodeClient: %v", err)
		}
		return w.Bytes()
	}
	oldB := enc(lvver.New(7, 0, 0))
	newB := enc(lvver.New(9, 0, 0))
	if len(oldB) != len(newB) || !bytes.Equal(oldB[2:], newB[2:]) {
		t.Fatalf("record bodies must match:\n old % x\n new % x", oldB, newB)
	}
	oldLen := uint16(oldB[0])<<8 | uint16(oldB[1])
	newLen := uint16(newB[0])<<8 | uint16(newB[1])
	if newLen != oldLen+4 {
		t.Errorf("stored lengths %d and %d, want +4 offset", oldLen, newLen)
	}

	// The inflated length must not be charged against the stream.
	ctx := NewContext("test", lvver.New(9, 0, 0))
	r := binio.NewReader(newB)
	c, err := decodeClient(r, ctx, KindRefnum)
	if err != nil {
		t.Fatalf("decodeClient: %v", err)
	}
	if r.Remaining() != 0 {
		t.Errorf("decodeClient left %d bytes", r.Remaining())
	}
	if c.Nested.Kind() != KindNumInt32 {
		t.Errorf("nested kind = %s", c.Nested.Kind())
	}
}

func TestRefnumUnknownTypeFallback(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	// Ref-type 0x7E has no connector; the tail must survive as an
	// opaque blob.
	record := []byte{0x00, 0x0A, 0x00, 0x70, 0x00, 0x7E, 0xDE, 0xAD, 0xBE, 0xEF}
	td := decodeTD(t, record, ctx)
	rn, ok := td.(*Refnum)
	if !ok {
		t.Fatalf("decoded %T, want *Refnum", td)
	}
	if rn.Conn != nil {
		t.Errorf("unknown ref-type built connector %T", rn.Conn)
	}
	if !bytes.Equal(rn.RawTail, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("raw tail = % x", rn.RawTail)
	}
	if !bytes.Equal(encodeTD(t, td, ctx), record) {
		t.Error("unknown refnum changed in round trip")
	}
}

func TestConsolidatedListRoundTrip(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	list := NewConsolidatedList("test")
	list.Append(New(KindNumInt32))
	arr := New(KindArray).(*Array)
	arr.Dims = []Dim{DynamicDim()}
	arr.SetClients([]Client{IndexedClient(0)})
	list.Append(arr)
	ctx.List = list

	w := binio.NewWriter()
	if err := EncodeList(w, list, ctx); err != nil {
		t.Fatalf("EncodeList: %v", err)
	}
	first := w.Bytes()

	ctx2 := NewContext("test", lvver.New(9, 0, 0))
	got, err := DecodeList(binio.NewReader(first), ctx2)
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("list length = %d, want 2", got.Len())
	}
	w2 := binio.NewWriter()
	if err := EncodeList(w2, got, ctx2); err != nil {
		t.Fatalf("EncodeList(decoded): %v", err)
	}
	if !bytes.Equal(first, w2.Bytes()) {
		t.Errorf("list round trip changed bytes:\n first % x\nsecond % x", first, w2.Bytes())
	}

	// Forward references resolve lazily: the array's element index 0
	// resolves against the decoded table.
	back, err := got.At(1)
	if err != nil {
		t.Fatalf("At(1): %v", err)
	}
	ctx2.List = got
	elem, err := back.Clients()[0].Resolve(ctx2)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if elem.Kind() != KindNumInt32 {
		t.Errorf("resolved element kind = %s, want NumInt32", elem.Kind())
	}
}

func TestWalkSurvivesCycles(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	list := NewConsolidatedList("test")
	a := New(KindCluster)
	b := New(KindCluster)
	a.SetClients([]Client{IndexedClient(1)})
	b.SetClients([]Client{IndexedClient(0)})
	list.Append(a)
	list.Append(b)
	ctx.List = list

	seen := 0
	err := Walk(a, ctx, func(td TypeDesc) error {
		seen++
		if seen > 10 {
			t.Fatal("walk did not terminate on a cyclic graph")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if seen != 2 {
		t.Errorf("walk visited %d nodes, want 2", seen)
	}
}
