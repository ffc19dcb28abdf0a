// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"bytes"
	"testing"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/lvver"
)

func TestRefnumElementNamedByRefType(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	rn := New(KindRefnum).(*Refnum)
	rn.Ref = RefQueue

	root := etree.NewElement("TypeList")
	el, err := ExportXML(rn, root, ctx)
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	if el.Tag != "Queue" {
		t.Errorf("element name = %q, want Queue", el.Tag)
	}
}

func TestRefnumUnknownTypeXMLRoundTrip(t *testing.T) {
	ctx := NewContext("test", lvver.New(9, 0, 0))
	// Ref-type 0x7E has no connector name. The element must carry a
	// legal generic name with the tag as an attribute, and the whole
	// document must survive serialization and reparse.
	record := []byte{0x00, 0x0A, 0x00, 0x70, 0x00, 0x7E, 0xDE, 0xAD, 0xBE, 0xEF}
	td := decodeTD(t, record, ctx)

	doc := etree.NewDocument()
	root := doc.CreateElement("TypeList")
	el, err := ExportXML(td, root, ctx)
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	if el.Tag != "Refnum" {
		t.Errorf("element name = %q, want Refnum", el.Tag)
	}
	if got := el.SelectAttrValue("RefType", ""); got != "0x007E" {
		t.Errorf("RefType attribute = %q, want 0x007E", got)
	}

	text, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("WriteToString: %v", err)
	}
	reread := etree.NewDocument()
	if err := reread.ReadFromString(text); err != nil {
		t.Fatalf("reparsing exported XML: %v", err)
	}
	children := reread.Root().ChildElements()
	if len(children) != 1 {
		t.Fatalf("%d child elements after reparse, want 1", len(children))
	}

	imported, err := ImportXML(children[0], NewContext("test", lvver.New(9, 0, 0)))
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}
	if !bytes.Equal(encodeTD(t, imported, ctx), record) {
		t.Error("unknown refnum changed across the XML round trip")
	}
}
