// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

// The connector family is implemented as a handful of shared base
// strategies parameterized per ref-type, not one copy per tag. The
// grouping mirrors the binary layouts, which fall into eight shapes.

import (
	"fmt"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/lvver"
)

func init() {
	for _, tag := range []RefType{
		RefGeneric, RefByteStream, RefDevice, RefOccurrence, RefTCPNetConn,
		RefUDPNetConn, RefMenu, RefDataSocket, RefIrdaNetConn, RefBluetoothCon,
		RefTDMSFile,
	} {
		tag := tag
		registerConnector(func() Connector { return &connNone{tag: tag} }, tag)
	}

	registerConnector(func() Connector { return &connClientList{tag: RefDataLog} }, RefDataLog)
	for _, tag := range []RefType{RefQueue, RefNotifierRef, RefUserEvent, RefFIFORef} {
		tag := tag
		registerConnector(func() Connector { return &connClientList{tag: tag, single: true} }, tag)
	}
	registerConnector(func() Connector {
		return &connClientList{tag: RefDataValueRef, single: true, extFlag: true}
	}, RefDataValueRef)

	for _, tag := range []RefType{RefImaq, RefVisaRef, RefCallback, RefUsrDefTagFlt} {
		tag := tag
		registerConnector(func() Connector { return &connObjMgr{tag: tag} }, tag)
	}
	registerConnector(func() Connector { return &connObjMgr{tag: RefIVIRef, itemList: true} }, RefIVIRef)
	for _, tag := range []RefType{RefUsrDefined, RefUsrDefndTag} {
		tag := tag
		registerConnector(func() Connector { return &connObjMgr{tag: tag, typeName: true} }, tag)
	}

	registerConnector(func() Connector { return &connAutomation{} }, RefAutomation)
	registerConnector(func() Connector { return &connControl{} }, RefControl)
	registerConnector(func() Connector { return &connEventReg{} }, RefEventReg)
	registerConnector(func() Connector { return &connDotNet{} }, RefDotNet)
	registerConnector(func() Connector { return &connUDClassInst{} }, RefUDClassInst)
}

// connNone serves the tags with no payload at all.
type connNone struct {
	tag RefType
}

func (c *connNone) RefType() RefType                { return c.tag }
func (c *connNone) ExpectedSize() int               { return 0 }
func (c *connNone) SanityCheck(*Refnum) error       { return nil }
func (c *connNone) decode(*binio.Reader, *Context, *Refnum) error { return nil }
func (c *connNone) encode(*binio.Writer, *Context, *Refnum) error { return nil }

// connClientList serves the tags whose payload is a u16 count plus
// that many small-index client references. The "single" sub-kind
// adds a non-fatal sanity check that the count does not exceed one.
// DataValueRef appends a trailing 1-byte external flag.
type connClientList struct {
	tag     RefType
	single  bool
	extFlag bool

	// External is the DataValueRef trailing flag.
	External uint8
}

func (c *connClientList) RefType() RefType  { return c.tag }
func (c *connClientList) ExpectedSize() int { return -1 }

func (c *connClientList) SanityCheck(owner *Refnum) error {
	if c.single && len(owner.Clients()) > 1 {
		return fmt.Errorf("%s expects at most 1 client, has %d", c.tag, len(owner.Clients()))
	}
	return nil
}

func (c *connClientList) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.ConnectorListLimit {
		return fmt.Errorf("client list of %d exceeds limit %d", count, ctx.Limits.ConnectorListLimit)
	}
	for i := 0; i < int(count); i++ {
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return fmt.Errorf("client %d: %w", i, err)
		}
		owner.clients = append(owner.clients, IndexedClient(int(idx)))
	}
	if c.extFlag {
		if c.External, err = r.U8(); err != nil {
			return err
		}
	}
	return nil
}

func (c *connClientList) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	clients := owner.Clients()
	w.U16(uint16(len(clients)))
	for _, cl := range clients {
		if err := w.WriteSmallIndex(uint32(cl.Index)); err != nil {
			return err
		}
	}
	if c.extFlag {
		w.U8(c.External)
	}
	return nil
}

// connObjMgr serves the object-manager-identifier family: a padded
// pascal identifier string, a 2-byte first-client marker from the
// 8.0 revision onward (with one embedded client index when the
// marker is non-zero), plus per-tag tails: IVIRef appends its own
// client-index list, and the user-defined tags append a second
// length-prefixed type-name string.
type connObjMgr struct {
	tag      RefType
	itemList bool
	typeName bool

	Identifier  []byte
	FirstClient uint16
	TypeName    []byte
}

func (c *connObjMgr) RefType() RefType        { return c.tag }
func (c *connObjMgr) ExpectedSize() int       { return -1 }
func (c *connObjMgr) SanityCheck(*Refnum) error { return nil }

func (c *connObjMgr) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	var err error
	if c.Identifier, err = r.ReadPString(true); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	if lvver.Has(ctx.Version, lvver.FeatObjMgrFirstClientMarker) {
		if c.FirstClient, err = r.U16(); err != nil {
			return err
		}
		if c.FirstClient != 0 {
			idx, err := r.ReadSmallIndex()
			if err != nil {
				return fmt.Errorf("first client: %w", err)
			}
			owner.clients = append(owner.clients, IndexedClient(int(idx)))
		}
	}
	if c.itemList {
		count, err := r.U16()
		if err != nil {
			return err
		}
		if int(count) > ctx.Limits.ConnectorListLimit {
			return fmt.Errorf("item list of %d exceeds limit %d", count, ctx.Limits.ConnectorListLimit)
		}
		for i := 0; i < int(count); i++ {
			idx, err := r.ReadSmallIndex()
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			owner.clients = append(owner.clients, IndexedClient(int(idx)))
		}
	}
	if c.typeName {
		if c.TypeName, err = r.ReadPString(true); err != nil {
			return fmt.Errorf("type name: %w", err)
		}
	}
	return nil
}

func (c *connObjMgr) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	if err := w.WritePString(c.Identifier, true); err != nil {
		return err
	}
	clients := owner.Clients()
	embedded := 0
	if lvver.Has(ctx.Version, lvver.FeatObjMgrFirstClientMarker) {
		w.U16(c.FirstClient)
		if c.FirstClient != 0 {
			if len(clients) == 0 {
				return fmt.Errorf("first-client marker set with no client")
			}
			if err := w.WriteSmallIndex(uint32(clients[0].Index)); err != nil {
				return err
			}
			embedded = 1
		}
	}
	if c.itemList {
		items := clients[embedded:]
		w.U16(uint16(len(items)))
		for _, cl := range items {
			if err := w.WriteSmallIndex(uint32(cl.Index)); err != nil {
				return err
			}
		}
	}
	if c.typeName {
		if err := w.WritePString(c.TypeName, true); err != nil {
			return err
		}
	}
	return nil
}

// automationClassIDSize is the size of one class-id record: a
// 16-byte GUID plus a 4-byte variant field.
const automationClassIDSize = 20

// connAutomation serves automation references. Payload: u8 ref
// flags, u8 item count, the 20-byte class-id records, and 8 extra
// bytes when the flags are non-zero.
type connAutomation struct {
	RefFlags uint8
	Items    [][automationClassIDSize]byte
	Extra    []byte
}

func (c *connAutomation) RefType() RefType { return RefAutomation }

func (c *connAutomation) ExpectedSize() int {
	n := 2 + len(c.Items)*automationClassIDSize
	if c.RefFlags != 0 {
		n += 8
	}
	return n
}

func (c *connAutomation) SanityCheck(*Refnum) error { return nil }

func (c *connAutomation) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	var err error
	if c.RefFlags, err = r.U8(); err != nil {
		return err
	}
	count, err := r.U8()
	if err != nil {
		return err
	}
	c.Items = make([][automationClassIDSize]byte, count)
	for i := range c.Items {
		b, err := r.Bytes(automationClassIDSize)
		if err != nil {
			return fmt.Errorf("class id %d: %w", i, err)
		}
		copy(c.Items[i][:], b)
	}
	if c.RefFlags != 0 {
		b, err := r.Bytes(8)
		if err != nil {
			return err
		}
		c.Extra = append([]byte(nil), b...)
	}
	return nil
}

func (c *connAutomation) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	w.U8(c.RefFlags)
	w.U8(uint8(len(c.Items)))
	for i := range c.Items {
		w.Raw(c.Items[i][:])
	}
	if c.RefFlags != 0 {
		if len(c.Extra) != 8 {
			return fmt.Errorf("extra section is %d bytes, want 8", len(c.Extra))
		}
		w.Raw(c.Extra)
	}
	return nil
}

// connControl serves control references. Payload: u16-counted
// client-index list, 2-byte control flags, a 4-byte item identifier
// from the 8.0 revision onward, then a qualified-name list.
type connControl struct {
	CtlFlags  uint16
	ItemIdent uint32
	Name      [][]byte
}

func (c *connControl) RefType() RefType        { return RefControl }
func (c *connControl) ExpectedSize() int       { return -1 }
func (c *connControl) SanityCheck(*Refnum) error { return nil }

func (c *connControl) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	count, err := r.U16()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.ConnectorListLimit {
		return fmt.Errorf("client list of %d exceeds limit %d", count, ctx.Limits.ConnectorListLimit)
	}
	for i := 0; i < int(count); i++ {
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return fmt.Errorf("client %d: %w", i, err)
		}
		owner.clients = append(owner.clients, IndexedClient(int(idx)))
	}
	if c.CtlFlags, err = r.U16(); err != nil {
		return err
	}
	if lvver.Has(ctx.Version, lvver.FeatCtlRefItemIdent) {
		if c.ItemIdent, err = r.U32(); err != nil {
			return err
		}
	}
	if c.Name, err = r.ReadQualifiedName(); err != nil {
		return fmt.Errorf("control name: %w", err)
	}
	return nil
}

func (c *connControl) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	clients := owner.Clients()
	w.U16(uint16(len(clients)))
	for _, cl := range clients {
		if err := w.WriteSmallIndex(uint32(cl.Index)); err != nil {
			return err
		}
	}
	w.U16(c.CtlFlags)
	if lvver.Has(ctx.Version, lvver.FeatCtlRefItemIdent) {
		w.U32(c.ItemIdent)
	}
	return w.WriteQualifiedName(c.Name)
}

// connEventReg serves event registration references. Payload: u16
// field0 (zero in every observed document), u16 count, then per
// client three u16 fields of unknown meaning plus the client index.
type connEventReg struct {
	Field0  uint16
	Unknown [][3]uint16
}

func (c *connEventReg) RefType() RefType  { return RefEventReg }
func (c *connEventReg) ExpectedSize() int { return -1 }

func (c *connEventReg) SanityCheck(*Refnum) error {
	if c.Field0 != 0 {
		return fmt.Errorf("field0 = %#04x, expected zero sentinel", c.Field0)
	}
	return nil
}

func (c *connEventReg) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	var err error
	if c.Field0, err = r.U16(); err != nil {
		return err
	}
	count, err := r.U16()
	if err != nil {
		return err
	}
	if int(count) > ctx.Limits.ConnectorListLimit {
		return fmt.Errorf("client list of %d exceeds limit %d", count, ctx.Limits.ConnectorListLimit)
	}
	c.Unknown = make([][3]uint16, count)
	for i := 0; i < int(count); i++ {
		for j := 0; j < 3; j++ {
			if c.Unknown[i][j], err = r.U16(); err != nil {
				return fmt.Errorf("client %d: %w", i, err)
			}
		}
		idx, err := r.ReadSmallIndex()
		if err != nil {
			return fmt.Errorf("client %d index: %w", i, err)
		}
		owner.clients = append(owner.clients, IndexedClient(int(idx)))
	}
	return nil
}

func (c *connEventReg) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	w.U16(c.Field0)
	clients := owner.Clients()
	w.U16(uint16(len(clients)))
	for i, cl := range clients {
		var unk [3]uint16
		if i < len(c.Unknown) {
			unk = c.Unknown[i]
		}
		for j := 0; j < 3; j++ {
			w.U16(unk[j])
		}
		if err := w.WriteSmallIndex(uint32(cl.Index)); err != nil {
			return err
		}
	}
	return nil
}

// .NET presence bits shared by both layouts.
const (
	dotNetHasAssembly = 0x0001
	dotNetHasTypeName = 0x0002
)

// connDotNet serves .NET references. The format shipped two wholly
// different payload layouts; the switch is the 8.1.1 revision. The
// old layout is a u16 presence word followed by padded pascal
// strings. The new layout is a u32 presence word followed by
// u16-length-prefixed strings, each padded to even length.
type connDotNet struct {
	Presence uint32
	Assembly []byte
	TypeName []byte
}

func (c *connDotNet) RefType() RefType        { return RefDotNet }
func (c *connDotNet) ExpectedSize() int       { return -1 }
func (c *connDotNet) SanityCheck(*Refnum) error { return nil }

func (c *connDotNet) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	var err error
	if lvver.Has(ctx.Version, lvver.FeatDotNetNewLayout) {
		if c.Presence, err = r.U32(); err != nil {
			return err
		}
		if c.Presence&dotNetHasAssembly != 0 {
			if c.Assembly, err = readWString(r); err != nil {
				return fmt.Errorf("assembly name: %w", err)
			}
		}
		if c.Presence&dotNetHasTypeName != 0 {
			if c.TypeName, err = readWString(r); err != nil {
				return fmt.Errorf("type name: %w", err)
			}
		}
		return nil
	}
	p, err := r.U16()
	if err != nil {
		return err
	}
	c.Presence = uint32(p)
	if c.Presence&dotNetHasAssembly != 0 {
		if c.Assembly, err = r.ReadPString(true); err != nil {
			return fmt.Errorf("assembly name: %w", err)
		}
	}
	if c.Presence&dotNetHasTypeName != 0 {
		if c.TypeName, err = r.ReadPString(true); err != nil {
			return fmt.Errorf("type name: %w", err)
		}
	}
	return nil
}

func (c *connDotNet) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	if lvver.Has(ctx.Version, lvver.FeatDotNetNewLayout) {
		w.U32(c.Presence)
		if c.Presence&dotNetHasAssembly != 0 {
			writeWString(w, c.Assembly)
		}
		if c.Presence&dotNetHasTypeName != 0 {
			writeWString(w, c.TypeName)
		}
		return nil
	}
	w.U16(uint16(c.Presence))
	if c.Presence&dotNetHasAssembly != 0 {
		if err := w.WritePString(c.Assembly, true); err != nil {
			return err
		}
	}
	if c.Presence&dotNetHasTypeName != 0 {
		if err := w.WritePString(c.TypeName, true); err != nil {
			return err
		}
	}
	return nil
}

// readWString reads a u16-length-prefixed string padded to even
// total length (the .NET new-layout string form).
func readWString(r *binio.Reader) ([]byte, error) {
	n, err := r.U16()
	if err != nil {
		return nil, err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), b...)
	if (2+int(n))%2 != 0 {
		if err := r.Skip(1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeWString(w *binio.Writer, s []byte) {
	w.U16(uint16(len(s)))
	w.Raw(s)
	if (2+len(s))%2 != 0 {
		w.U8(0)
	}
}

// connUDClassInst serves user-defined class instance references.
// Payload: u16 field0, a u32 field2 from the 8.0 revision onward,
// then either one pascal string or a multi-string list. The list
// form is detected, not declared: when the first string is non-empty
// and its final byte is zero, strings repeat until a zero-length
// prefix, and the total is padded to even length.
type connUDClassInst struct {
	Field0 uint16
	Field2 uint32
	// Items holds the name strings; Multi records which form the
	// payload used so encode reproduces it exactly.
	Items [][]byte
	Multi bool
}

func (c *connUDClassInst) RefType() RefType        { return RefUDClassInst }
func (c *connUDClassInst) ExpectedSize() int       { return -1 }
func (c *connUDClassInst) SanityCheck(*Refnum) error { return nil }

func (c *connUDClassInst) decode(r *binio.Reader, ctx *Context, owner *Refnum) error {
	var err error
	if c.Field0, err = r.U16(); err != nil {
		return err
	}
	if lvver.Has(ctx.Version, lvver.FeatUDClassInstField2) {
		if c.Field2, err = r.U32(); err != nil {
			return err
		}
	}
	start := r.Pos()
	first, err := r.ReadPString(false)
	if err != nil {
		return fmt.Errorf("class name: %w", err)
	}
	c.Items = [][]byte{first}
	if len(first) > 0 && first[len(first)-1] == 0 {
		c.Multi = true
		for {
			s, err := r.ReadPString(false)
			if err != nil {
				return fmt.Errorf("class name list: %w", err)
			}
			if len(s) == 0 {
				break
			}
			c.Items = append(c.Items, s)
		}
	}
	if (r.Pos()-start)%2 != 0 {
		if err := r.Skip(1); err != nil {
			return err
		}
	}
	return nil
}

func (c *connUDClassInst) encode(w *binio.Writer, ctx *Context, owner *Refnum) error {
	w.U16(c.Field0)
	if lvver.Has(ctx.Version, lvver.FeatUDClassInstField2) {
		w.U32(c.Field2)
	}
	start := w.Len()
	for _, item := range c.Items {
		if err := w.WritePString(item, false); err != nil {
			return err
		}
	}
	if c.Multi {
		w.U8(0)
	}
	if (w.Len()-start)%2 != 0 {
		w.U8(0)
	}
	return nil
}
