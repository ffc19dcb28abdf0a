// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package datafill

import (
	"bytes"
	"testing"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

func decodeFill(t *testing.T, td typedesc.TypeDesc, b []byte, ctx *Context) DataFill {
	t.Helper()
	fill, err := NewForTD(td, ctx)
	if err != nil {
		t.Fatalf("NewForTD(%s): %v", td.Kind(), err)
	}
	r := binio.NewReader(b)
	if err := fill.Decode(r, ctx); err != nil {
		t.Fatalf("Decode(% x): %v", b, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Decode(% x) left %d bytes", b, r.Remaining())
	}
	return fill
}

func encodeFill(t *testing.T, fill DataFill, ctx *Context) []byte {
	t.Helper()
	w := binio.NewWriter()
	if err := fill.Encode(w, ctx); err != nil {
		t.Fatalf("Encode(%s): %v", fill.Kind(), err)
	}
	return w.Bytes()
}

func roundTripFill(t *testing.T, td typedesc.TypeDesc, b []byte, ctx *Context) DataFill {
	t.Helper()
	fill := decodeFill(t, td, b, ctx)
	if got := encodeFill(t, fill, ctx); !bytes.Equal(got, b) {
		t.Fatalf("%s round trip changed bytes:\n first % x\nsecond % x", td.Kind(), b, got)
	}
	return fill
}

func newArrayTD(elem typedesc.Kind, dims int) *typedesc.Array {
	arr := typedesc.New(typedesc.KindArray).(*typedesc.Array)
	for i := 0; i < dims; i++ {
		arr.Dims = append(arr.Dims, typedesc.DynamicDim())
	}
	arr.SetClients([]typedesc.Client{typedesc.NestedClient(typedesc.New(elem))})
	return arr
}

func TestSignedInt32Value(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, typedesc.New(typedesc.KindNumInt32),
		[]byte{0x00, 0x00, 0x01, 0x02}, ctx)
	if got := fill.(*IntFill).Int64(); got != 258 {
		t.Errorf("value = %d, want 258", got)
	}
}

func TestSignedIntSignExtension(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, typedesc.New(typedesc.KindNumInt8), []byte{0xFE}, ctx)
	if got := fill.(*IntFill).Int64(); got != -2 {
		t.Errorf("value = %d, want -2", got)
	}
}

func TestBoolWidthVersionGated(t *testing.T) {
	oldCtx := typedesc.NewContext("test", lvver.New(4, 0, 0))
	newCtx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	td := typedesc.New(typedesc.KindBoolean)

	fill := roundTripFill(t, td, []byte{0x00, 0x01}, oldCtx)
	if !fill.(*BoolFill).Value() {
		t.Error("two-byte true decoded as false")
	}
	fill = roundTripFill(t, td, []byte{0x01}, newCtx)
	if !fill.(*BoolFill).Value() {
		t.Error("one-byte true decoded as false")
	}
}

func TestArraySmartModeThreshold(t *testing.T) {
	td := newArrayTD(typedesc.KindNumUInt8, 1)
	// One u32 dimension word (50) followed by 50 element bytes.
	data := []byte{0x00, 0x00, 0x00, 0x32}
	for i := 0; i < 50; i++ {
		data = append(data, byte(i))
	}

	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	ctx.Limits.StoreAsDataAbove = 16
	ctx.Source = typedesc.SourceRSRC
	fill := roundTripFill(t, td, data, ctx).(*ArrayFill)
	if fill.Mode != SmartRSRC {
		t.Errorf("mode = %v, want SmartRSRC", fill.Mode)
	}
	if len(fill.Blob) != 50 || len(fill.Children) != 0 {
		t.Errorf("blob %d bytes, %d children; want one 50-byte blob", len(fill.Blob), len(fill.Children))
	}

	ctx = typedesc.NewContext("test", lvver.New(9, 0, 0))
	ctx.Limits.StoreAsDataAbove = 100
	ctx.Source = typedesc.SourceRSRC
	fill = roundTripFill(t, td, data, ctx).(*ArrayFill)
	if fill.Mode != SmartNone {
		t.Errorf("mode = %v, want SmartNone", fill.Mode)
	}
	if len(fill.Children) != 50 || len(fill.Blob) != 0 {
		t.Errorf("%d children, %d blob bytes; want 50 discrete children", len(fill.Children), len(fill.Blob))
	}
}

func TestArraySmartModeDataSource(t *testing.T) {
	td := newArrayTD(typedesc.KindNumUInt8, 1)
	data := append([]byte{0x00, 0x00, 0x00, 0x20}, make([]byte, 32)...)
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	ctx.Limits.StoreAsDataAbove = 16
	ctx.Source = typedesc.SourceXML
	fill := roundTripFill(t, td, data, ctx).(*ArrayFill)
	if fill.Mode != SmartData {
		t.Errorf("mode = %v, want SmartData for non-section bytes", fill.Mode)
	}
}

func TestArrayDimensionFlagBitMasked(t *testing.T) {
	td := newArrayTD(typedesc.KindNumUInt8, 1)
	// Dimension word with the flag bit set: count is still 4.
	data := []byte{0x80, 0x00, 0x00, 0x04, 1, 2, 3, 4}
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, td, data, ctx).(*ArrayFill)
	if got := fill.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
}

func clusterOfFive() typedesc.TypeDesc {
	cl := typedesc.New(typedesc.KindCluster)
	var clients []typedesc.Client
	for i := 0; i < 5; i++ {
		clients = append(clients, typedesc.NestedClient(typedesc.New(typedesc.KindNumUInt8)))
	}
	cl.SetClients(clients)
	return cl
}

func TestClusterRoundTrip(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, clusterOfFive(), []byte{1, 2, 3, 4, 5}, ctx).(*ClusterFill)
	if len(fill.Children) != 5 {
		t.Errorf("%d children, want 5", len(fill.Children))
	}
}

func TestFilteredClusterBit4(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill, err := NewSpecialCluster(clusterOfFive(), TMFBit4, ctx)
	if err != nil {
		t.Fatalf("NewSpecialCluster: %v", err)
	}
	got := fill.activeIndices(ctx)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("active indices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("active indices = %v, want %v", got, want)
		}
	}
	// Three participating elements consume three bytes.
	r := binio.NewReader([]byte{0x0A, 0x0B, 0x0C})
	if err := fill.Decode(r, ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fill.Children) != 3 {
		t.Errorf("%d children, want 3", len(fill.Children))
	}
	if got := encodeFill(t, fill, ctx); !bytes.Equal(got, []byte{0x0A, 0x0B, 0x0C}) {
		t.Errorf("re-encode = % x", got)
	}
}

func TestFilteredClusterBit2VersionShift(t *testing.T) {
	oldCtx := typedesc.NewContext("test", lvver.NewBuild(10, 0, 0, 1))
	newCtx := typedesc.NewContext("test", lvver.NewBuild(10, 0, 0, 2))
	td := clusterOfFive()

	fill, err := NewSpecialCluster(td, TMFBit2, oldCtx)
	if err != nil {
		t.Fatalf("NewSpecialCluster: %v", err)
	}
	if got := fill.activeIndices(oldCtx); len(got) != 1 || got[0] != 2 {
		t.Errorf("pre-threshold active indices = %v, want [2]", got)
	}
	if got := fill.activeIndices(newCtx); len(got) != 1 || got[0] != 1 {
		t.Errorf("post-threshold active indices = %v, want [1]", got)
	}
}

func TestFilteredClusterSkipNext(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill, err := NewSpecialCluster(clusterOfFive(), TMFBit4|TMFSkipNext, ctx)
	if err != nil {
		t.Fatalf("NewSpecialCluster: %v", err)
	}
	got := fill.activeIndices(ctx)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("active indices = %v, want [2 3]", got)
	}
}

func TestTypeDefFill(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(7, 0, 0))
	td := typedesc.New(typedesc.KindTypeDef)
	td.SetClients([]typedesc.Client{typedesc.NestedClient(typedesc.New(typedesc.KindNumInt16))})
	fill := roundTripFill(t, td, []byte{0x12, 0x34}, ctx).(*TypeDefFill)
	if got := fill.Child.(*IntFill).Int64(); got != 0x1234 {
		t.Errorf("inner value = %#x, want 0x1234", got)
	}
}

func TestRepeatedBlockFill(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(7, 0, 0))
	td := typedesc.New(typedesc.KindRepeatedBlock).(*typedesc.RepeatedBlock)
	td.NumRepeats = 3
	td.SetClients([]typedesc.Client{typedesc.NestedClient(typedesc.New(typedesc.KindNumUInt16))})
	fill := roundTripFill(t, td, []byte{0, 1, 0, 2, 0, 3}, ctx).(*RepeatedBlockFill)
	if len(fill.Children) != 3 {
		t.Errorf("%d children, want 3", len(fill.Children))
	}
}

func TestBlockFillExactSize(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	td := typedesc.New(typedesc.KindBlock).(*typedesc.Block)
	td.BlockSize = 4
	roundTripFill(t, td, []byte{9, 8, 7, 6}, ctx)

	fill, err := NewForTD(td, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := fill.Decode(binio.NewReader([]byte{1, 2}), ctx); err == nil {
		t.Error("short block must fail to decode")
	}
}

func TestStringAndCStringFills(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	str := typedesc.New(typedesc.KindString)
	fill := roundTripFill(t, str, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, ctx)
	if !bytes.Equal(fill.(*StringFill).Value, []byte("abc")) {
		t.Errorf("string value = %q", fill.(*StringFill).Value)
	}

	// CString stores a plain 4-byte integer, not string content.
	cs := typedesc.New(typedesc.KindCString)
	cfill := roundTripFill(t, cs, []byte{0, 0, 0, 7}, ctx)
	if got := cfill.(*CStringFill).Value; got != 7 {
		t.Errorf("cstring value = %d, want 7", got)
	}
}

func TestExtFloatPreservesRawBytes(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	// A bit pattern float64 cannot hold exactly.
	raw := []byte{
		0x3F, 0xFF, 0x92, 0x34, 0x56, 0x78, 0x9A, 0xBC,
		0xDE, 0xF0, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC,
	}
	roundTripFill(t, typedesc.New(typedesc.KindNumFloatExt), raw, ctx)
}

func TestMeasureDataAnalogWaveform(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	td := typedesc.New(typedesc.KindMeasureData).(*typedesc.MeasureData)
	td.Flavor = typedesc.FlavorFloat64Waveform

	var data []byte
	data = append(data, make([]byte, 16)...)                         // t0
	data = append(data, 0x3F, 0xF0, 0, 0, 0, 0, 0, 0)                // dt = 1.0
	data = append(data, 0x00, 0x00, 0x00, 0x02)                      // Y dim = 2
	data = append(data, 0x40, 0x00, 0, 0, 0, 0, 0, 0)                // Y[0] = 2.0
	data = append(data, 0x40, 0x08, 0, 0, 0, 0, 0, 0)                // Y[1] = 3.0
	// Error cluster: 1-byte status, i32 code, empty source string.
	data = append(data, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	// Variant attributes: inner version, no types, no value, no attrs.
	data = append(data, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00)

	fill := roundTripFill(t, td, data, ctx).(*MeasureDataFill)
	if len(fill.Children) != 5 {
		t.Fatalf("%d members, want 5", len(fill.Children))
	}
	if dt := fill.Children[1].(*FloatFill).Value; dt != 1.0 {
		t.Errorf("dt = %v, want 1.0", dt)
	}
	y := fill.Children[2].(*ArrayFill)
	if y.Count() != 2 {
		t.Errorf("Y count = %d, want 2", y.Count())
	}
}

func TestVariantLegacyVersusNative(t *testing.T) {
	td := typedesc.New(typedesc.KindLVVariant)

	// Native: inner version, one I8 type, value index 0, value 5,
	// no attributes.
	native := []byte{
		0x00, 0x00, 0x00, 0x01, // inner version
		0x00, 0x01, // one type
		0x00, 0x04, 0x00, 0x01, // I8 descriptor record
		0x00, 0x00, // value index 0
		0x05,                   // value
		0x00, 0x00, 0x00, 0x00, // no attributes
	}
	newCtx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, td, native, newCtx).(*VariantFill)
	if len(fill.Types) != 1 || fill.Types[0].Kind() != typedesc.KindNumInt8 {
		t.Fatalf("variant types = %v", fill.Types)
	}
	if got := fill.Value.(*IntFill).Int64(); got != 5 {
		t.Errorf("variant value = %d, want 5", got)
	}

	// Legacy: one descriptor, its value, no extra value.
	legacy := []byte{
		0x00, 0x04, 0x00, 0x01, // I8 descriptor record
		0x05, // value
		0x00, // no extra value
	}
	oldCtx := typedesc.NewContext("test", lvver.New(5, 0, 0))
	lfill := roundTripFill(t, td, legacy, oldCtx).(*VariantFill)
	if lfill.LegacyTD == nil || lfill.LegacyTD.Kind() != typedesc.KindNumInt8 {
		t.Fatalf("legacy descriptor missing")
	}
	if got := lfill.LegacyValue.(*IntFill).Int64(); got != 5 {
		t.Errorf("legacy value = %d, want 5", got)
	}
}

func refnumTD(rt typedesc.RefType) *typedesc.Refnum {
	rn := typedesc.New(typedesc.KindRefnum).(*typedesc.Refnum)
	rn.Ref = rt
	return rn
}

func TestRefnumSimpleHandle(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill := roundTripFill(t, refnumTD(typedesc.RefQueue), []byte{0, 0, 0, 9}, ctx)
	if got := fill.(*RefnumFill).Handle; got != 9 {
		t.Errorf("handle = %d, want 9", got)
	}
}

func TestRefnumIOVersionGated(t *testing.T) {
	td := refnumTD(typedesc.RefVisaRef)

	oldCtx := typedesc.NewContext("test", lvver.New(6, 0, 0))
	fill := roundTripFill(t, td, []byte{0, 0, 0, 3}, oldCtx)
	if got := fill.(*RefnumFill).Handle; got != 3 {
		t.Errorf("handle = %d, want 3", got)
	}

	newCtx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill = roundTripFill(t, td, []byte{4, 'C', 'O', 'M', '1'}, newCtx)
	if !bytes.Equal(fill.(*RefnumFill).Tag, []byte("COM1")) {
		t.Errorf("tag = %q, want COM1", fill.(*RefnumFill).Tag)
	}
}

func TestRefnumUDTagStrayPadWindow(t *testing.T) {
	td := refnumTD(typedesc.RefUsrDefndTag)
	value := []byte{0x00, 0x00, 0x00, 0x02, 0xAA, 0xBB}

	outside := typedesc.NewContext("test", lvver.NewBuild(12, 0, 0, 1))
	roundTripFill(t, td, value, outside)

	inside := typedesc.NewContext("test", lvver.NewBuild(12, 0, 0, 3))
	padded := append(append([]byte{}, value...), 0x00)
	roundTripFill(t, td, padded, inside)
}

func TestRefnumClassInstSentinel(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	td := refnumTD(typedesc.RefUDClassInst)

	// One all-zero version record: no blocks follow.
	sentinel := []byte{
		3, 'l', 'i', 'b', // library name
		0x00, 0x00, 0x00, 0x01, // one record
		0, 0, 0, 0, 0, 0, 0, 0, // all-zero components
	}
	fill := roundTripFill(t, td, sentinel, ctx).(*RefnumFill)
	if len(fill.Blocks) != 0 {
		t.Errorf("%d blocks after sentinel record, want 0", len(fill.Blocks))
	}

	// A real record carries its block.
	real := []byte{
		3, 'l', 'i', 'b',
		0x00, 0x00, 0x00, 0x01,
		0, 1, 0, 0, 0, 0, 0, 5,
		0x00, 0x00, 0x00, 0x02, 0xCA, 0xFE,
	}
	fill = roundTripFill(t, td, real, ctx).(*RefnumFill)
	if len(fill.Blocks) != 1 || !bytes.Equal(fill.Blocks[0], []byte{0xCA, 0xFE}) {
		t.Errorf("blocks = % x", fill.Blocks)
	}
}

func TestSetTDKindMismatch(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	fill, err := newForKind(typedesc.KindNumInt32)
	if err != nil {
		t.Fatal(err)
	}
	if err := fill.SetTD(typedesc.New(typedesc.KindBoolean), ctx); err == nil {
		t.Error("binding a fill to a descriptor of another kind must fail")
	}
}

func TestFixedPointOverflowFlagGated(t *testing.T) {
	ctx := typedesc.NewContext("test", lvver.New(9, 0, 0))
	plain := typedesc.New(typedesc.KindFixedPoint).(*typedesc.FixedPoint)
	roundTripFill(t, plain, []byte{1, 2, 3, 4, 5, 6, 7, 8}, ctx)

	ov := typedesc.New(typedesc.KindFixedPoint).(*typedesc.FixedPoint)
	ov.Packed |= 0x0040
	fill := roundTripFill(t, ov, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0x01}, ctx).(*FixedPointFill)
	if len(fill.OvFlags) != 1 || fill.OvFlags[0] != 1 {
		t.Errorf("overflow flags = %v", fill.OvFlags)
	}
}
