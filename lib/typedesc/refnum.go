// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/diag"
)

func init() {
	registerMain(func() TypeDesc { return &Refnum{} }, MainRef)
}

// RefType is the 2-byte reference-kind tag following a refnum
// descriptor header. The values are recovered format constants.
type RefType uint16

const (
	RefGeneric      RefType = 0x00
	RefDataLog      RefType = 0x01
	RefByteStream   RefType = 0x02
	RefDevice       RefType = 0x03
	RefOccurrence   RefType = 0x04
	RefTCPNetConn   RefType = 0x05
	RefAutomation   RefType = 0x06
	RefControl      RefType = 0x07
	RefMenu         RefType = 0x08
	RefImaq         RefType = 0x09
	RefDataSocket   RefType = 0x0A
	RefVisaRef      RefType = 0x0B
	RefIVIRef       RefType = 0x0C
	RefUDPNetConn   RefType = 0x0D
	RefNotifierRef  RefType = 0x0E
	RefQueue        RefType = 0x0F
	RefIrdaNetConn  RefType = 0x10
	RefUsrDefined   RefType = 0x11
	RefUsrDefndTag  RefType = 0x12
	RefEventReg     RefType = 0x13
	RefDotNet       RefType = 0x14
	RefUserEvent    RefType = 0x15
	RefCallback     RefType = 0x16
	RefBluetoothCon RefType = 0x17
	RefDataValueRef RefType = 0x18
	RefFIFORef      RefType = 0x19
	RefTDMSFile     RefType = 0x1A
	RefUDClassInst  RefType = 0x1B
	RefUsrDefTagFlt RefType = 0x1C
)

var refTypeNames = map[RefType]string{
	RefGeneric:      "Generic",
	RefDataLog:      "DataLog",
	RefByteStream:   "ByteStream",
	RefDevice:       "Device",
	RefOccurrence:   "Occurrence",
	RefTCPNetConn:   "TCPNetConn",
	RefAutomation:   "Automation",
	RefControl:      "ControlRef",
	RefMenu:         "Menu",
	RefImaq:         "Imaq",
	RefDataSocket:   "DataSocket",
	RefVisaRef:      "VisaRef",
	RefIVIRef:       "IVIRef",
	RefUDPNetConn:   "UDPNetConn",
	RefNotifierRef:  "NotifierRef",
	RefQueue:        "Queue",
	RefIrdaNetConn:  "IrdaNetConn",
	RefUsrDefined:   "UsrDefined",
	RefUsrDefndTag:  "UsrDefndTag",
	RefEventReg:     "EventReg",
	RefDotNet:       "DotNet",
	RefUserEvent:    "UserEvent",
	RefCallback:     "Callback",
	RefBluetoothCon: "BluetoothCon",
	RefDataValueRef: "DataValueRef",
	RefFIFORef:      "FIFORef",
	RefTDMSFile:     "TDMSFile",
	RefUDClassInst:  "UDClassInst",
	RefUsrDefTagFlt: "UsrDefTagFlt",
}

// String returns the connector name, or "RefType(0xNN)" for values
// with no known connector.
func (rt RefType) String() string {
	if n, ok := refTypeNames[rt]; ok {
		return n
	}
	return fmt.Sprintf("RefType(%#04x)", uint16(rt))
}

// refTypesByName is the reverse lookup for XML import.
var refTypesByName = func() map[string]RefType {
	m := make(map[string]RefType, len(refTypeNames))
	for rt, n := range refTypeNames {
		m[n] = rt
	}
	return m
}()

// XMLName returns the connector element name for rt. Unknown tags
// fall back to the generic refnum element name; String() output is
// not a legal element name for those.
func (rt RefType) XMLName() string {
	if n, ok := refTypeNames[rt]; ok {
		return n
	}
	return KindRefnum.XMLName()
}

// RefTypeFromName resolves a connector name to its tag.
func RefTypeFromName(name string) (RefType, bool) {
	rt, ok := refTypesByName[name]
	return rt, ok
}

// Connector is the strategy object attached 1:1 to a refnum
// descriptor, selected by ref-type. It decodes and encodes the bytes
// following the 2-byte tag. Connectors that own client references
// append them to the owner's client list so graph walks see them.
type Connector interface {
	// RefType returns the tag this connector serves.
	RefType() RefType
	// ExpectedSize returns the fixed payload size in bytes, or -1
	// when the payload is variable-length.
	ExpectedSize() int
	// SanityCheck validates soft constraints; failures are warnings.
	SanityCheck(owner *Refnum) error

	decode(r *binio.Reader, ctx *Context, owner *Refnum) error
	encode(w *binio.Writer, ctx *Context, owner *Refnum) error
	exportXML(el *etree.Element, ctx *Context, owner *Refnum) error
	importXML(el *etree.Element, ctx *Context, owner *Refnum) error
}

// connectorFactories maps ref-type to connector constructor. An
// unlisted tag produces no connector: the payload is preserved as an
// opaque blob and round-trips without semantic access.
var connectorFactories = map[RefType]func() Connector{}

func registerConnector(f func() Connector, tags ...RefType) {
	for _, tag := range tags {
		connectorFactories[tag] = f
	}
}

// Refnum is the reference-kind descriptor. Body: u16 ref-type, then
// a payload owned by the connector for that tag.
type Refnum struct {
	base
	Ref RefType
	// Conn is nil for unrecognized ref-types; RawTail then holds the
	// remaining payload verbatim.
	Conn    Connector
	RawTail []byte
}

func (t *Refnum) decodeBody(r *binio.Reader, ctx *Context) error {
	v, err := r.U16()
	if err != nil {
		return err
	}
	t.Ref = RefType(v)

	factory, ok := connectorFactories[t.Ref]
	if !ok {
		// Not a hard failure: keep the bytes so the record can be
		// re-encoded exactly.
		t.RawTail = append([]byte(nil), r.Rest()...)
		diag.Sanity("refnum with unrecognized ref-type kept as opaque payload",
			"file", ctx.File, "refType", fmt.Sprintf("%#04x", v),
			"bytes", len(t.RawTail))
		return nil
	}
	t.Conn = factory()
	if err := t.Conn.decode(r, ctx, t); err != nil {
		return fmt.Errorf("%s connector: %w", t.Ref, err)
	}
	if err := t.Conn.SanityCheck(t); err != nil {
		diag.Sanity("refnum connector failed sanity check",
			"file", ctx.File, "refType", t.Ref.String(), "err", err.Error())
	}
	return nil
}

func (t *Refnum) encodeBody(w *binio.Writer, ctx *Context) error {
	w.U16(uint16(t.Ref))
	if t.Conn == nil {
		w.Raw(t.RawTail)
		return nil
	}
	if err := t.Conn.encode(w, ctx, t); err != nil {
		return fmt.Errorf("%s connector: %w", t.Ref, err)
	}
	return nil
}
