// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleNode is a representative dump tree node using cbor struct
// tags (the convention for CBOR-only types).
type sampleNode struct {
	Kind  string `cbor:"kind"`
	Label string `cbor:"label,omitempty"`
	Size  int    `cbor:"size"`
}

// sampleSummary uses json struct tags (the convention for types that
// serve both --json and --cbor dump output, relying on fxamacker's
// fallback).
type sampleSummary struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleNode{
		Kind:  "NumUInt32",
		Label: "sample rate",
		Size:  8,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleNode
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	node := sampleNode{
		Kind:  "Cluster",
		Label: "error out",
		Size:  26,
	}

	first, err := Marshal(node)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}

	second, err := Marshal(node)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	nodes := []sampleNode{
		{Kind: "Boolean", Label: "status", Size: 4},
		{Kind: "NumInt32", Label: "code", Size: 8},
		{Kind: "String", Size: 6},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, node := range nodes {
		if err := encoder.Encode(node); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range nodes {
		var got sampleNode
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode node %d: %v", i, err)
		}
		if got != want {
			t.Errorf("node %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	// Types with json tags (no cbor tags) should encode/decode
	// correctly through our modes, using json tag names as CBOR
	// map keys.
	original := sampleSummary{Version: 3, Name: "front panel"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleSummary
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("json-tag roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestOmitemptyRespected(t *testing.T) {
	// A zero-value omitempty field should not appear in output.
	withLabel := sampleNode{Kind: "a", Label: "x", Size: 1}
	withoutLabel := sampleNode{Kind: "a", Size: 1}

	dataWith, err := Marshal(withLabel)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutLabel)
	if err != nil {
		t.Fatal(err)
	}

	// The encoding without the label field should be shorter
	// because the omitted field is not present.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var node sampleNode
	err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &node)
	if err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestByteStringRoundtrip(t *testing.T) {
	// Verify that []byte fields encode as CBOR byte strings (major
	// type 2), not text strings. This matters for carrying raw
	// section payloads and array blobs in dump output.
	type envelope struct {
		Payload []byte `cbor:"payload"`
	}

	original := envelope{Payload: []byte{0x00, 0x08, 0x00, 0x03, 0xDE, 0xAD}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("byte string roundtrip: got %x, want %x", decoded.Payload, original.Payload)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"kind": "Array"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	if !strings.Contains(notation, `"kind"`) {
		t.Errorf("notation %q does not contain \"kind\"", notation)
	}
	if !strings.Contains(notation, `"Array"`) {
		t.Errorf("notation %q does not contain \"Array\"", notation)
	}
}

func TestDiagnoseFirst(t *testing.T) {
	item1, err := Marshal("hello")
	if err != nil {
		t.Fatalf("Marshal item 1: %v", err)
	}
	item2, err := Marshal(int64(42))
	if err != nil {
		t.Fatalf("Marshal item 2: %v", err)
	}

	var sequence []byte
	sequence = append(sequence, item1...)
	sequence = append(sequence, item2...)

	notation, remaining, err := DiagnoseFirst(sequence)
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}

	if !strings.Contains(notation, `"hello"`) {
		t.Errorf("first item notation %q does not contain \"hello\"", notation)
	}
	if len(remaining) == 0 {
		t.Fatal("expected remaining bytes after first item")
	}

	notation2, remaining2, err := DiagnoseFirst(remaining)
	if err != nil {
		t.Fatalf("DiagnoseFirst second: %v", err)
	}
	if !strings.Contains(notation2, "42") {
		t.Errorf("second item notation %q does not contain \"42\"", notation2)
	}
	if len(remaining2) != 0 {
		t.Errorf("expected no remaining bytes, got %d", len(remaining2))
	}
}

func BenchmarkMarshal(b *testing.B) {
	node := sampleNode{
		Kind:  "NumUInt32",
		Label: "sample rate",
		Size:  8,
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Marshal(node)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	node := sampleNode{
		Kind:  "NumUInt32",
		Label: "sample rate",
		Size:  8,
	}
	data, err := Marshal(node)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var decoded sampleNode
		Unmarshal(data, &decoded)
	}
}
