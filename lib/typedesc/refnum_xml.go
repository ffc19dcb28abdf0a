// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/textenc"
)

func (c *connNone) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	return nil
}

func (c *connNone) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	return nil
}

func (c *connClientList) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	if c.extFlag {
		el.CreateAttr("External", strconv.Itoa(int(c.External)))
	}
	return exportClients(owner.clients, el, ctx)
}

func (c *connClientList) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	if c.extFlag {
		s, err := requireAttr(el, "External")
		if err != nil {
			return err
		}
		v, err := parseUint(s, 8)
		if err != nil {
			return fmt.Errorf("External: %w", err)
		}
		c.External = uint8(v)
	}
	clients, err := importClients(el, ctx)
	if err != nil {
		return err
	}
	owner.clients = clients
	return nil
}

func (c *connObjMgr) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	el.CreateAttr("Identifier", textenc.Default.Decode(c.Identifier))
	if c.FirstClient != 0 {
		el.CreateAttr("FirstClient", fmt.Sprintf("0x%X", c.FirstClient))
	}
	if c.typeName {
		el.CreateAttr("TypeName", textenc.Default.Decode(c.TypeName))
	}
	return exportClients(owner.clients, el, ctx)
}

func (c *connObjMgr) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	s, err := requireAttr(el, "Identifier")
	if err != nil {
		return err
	}
	if c.Identifier, err = textenc.Default.Encode(s); err != nil {
		return fmt.Errorf("Identifier: %w", err)
	}
	if attr := el.SelectAttr("FirstClient"); attr != nil {
		v, err := parseUint(attr.Value, 16)
		if err != nil {
			return fmt.Errorf("FirstClient: %w", err)
		}
		c.FirstClient = uint16(v)
	}
	if c.typeName {
		s, err := requireAttr(el, "TypeName")
		if err != nil {
			return err
		}
		if c.TypeName, err = textenc.Default.Encode(s); err != nil {
			return fmt.Errorf("TypeName: %w", err)
		}
	}
	clients, err := importClients(el, ctx)
	if err != nil {
		return err
	}
	owner.clients = clients
	return nil
}

func (c *connAutomation) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	el.CreateAttr("RefFlags", fmt.Sprintf("0x%02X", c.RefFlags))
	for i := range c.Items {
		el.CreateElement("ClassID").SetText(hex.EncodeToString(c.Items[i][:]))
	}
	if c.Extra != nil {
		el.CreateAttr("Extra", hex.EncodeToString(c.Extra))
	}
	return nil
}

func (c *connAutomation) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	s, err := requireAttr(el, "RefFlags")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 8)
	if err != nil {
		return fmt.Errorf("RefFlags: %w", err)
	}
	c.RefFlags = uint8(v)
	for _, child := range el.SelectElements("ClassID") {
		b, err := hex.DecodeString(child.Text())
		if err != nil {
			return fmt.Errorf("ClassID: %w", err)
		}
		if len(b) != automationClassIDSize {
			return fmt.Errorf("ClassID is %d bytes, want %d", len(b), automationClassIDSize)
		}
		var item [automationClassIDSize]byte
		copy(item[:], b)
		c.Items = append(c.Items, item)
	}
	if attr := el.SelectAttr("Extra"); attr != nil {
		if c.Extra, err = hex.DecodeString(attr.Value); err != nil {
			return fmt.Errorf("Extra: %w", err)
		}
	}
	return nil
}

func (c *connControl) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	el.CreateAttr("CtlFlags", fmt.Sprintf("0x%04X", c.CtlFlags))
	if c.ItemIdent != 0 {
		el.CreateAttr("ItemIdent", fmt.Sprintf("0x%X", c.ItemIdent))
	}
	for _, part := range c.Name {
		el.CreateElement("Name").SetText(textenc.Default.Decode(part))
	}
	return exportClients(owner.clients, el, ctx)
}

func (c *connControl) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	s, err := requireAttr(el, "CtlFlags")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 16)
	if err != nil {
		return fmt.Errorf("CtlFlags: %w", err)
	}
	c.CtlFlags = uint16(v)
	if attr := el.SelectAttr("ItemIdent"); attr != nil {
		v, err := parseUint(attr.Value, 32)
		if err != nil {
			return fmt.Errorf("ItemIdent: %w", err)
		}
		c.ItemIdent = uint32(v)
	}
	for _, child := range el.ChildElements() {
		if child.Tag == "Name" {
			part, err := textenc.Default.Encode(child.Text())
			if err != nil {
				return fmt.Errorf("Name: %w", err)
			}
			c.Name = append(c.Name, part)
			continue
		}
		cl, err := importClient(child, ctx)
		if err != nil {
			return err
		}
		owner.clients = append(owner.clients, cl)
	}
	return nil
}

func (c *connEventReg) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	if c.Field0 != 0 {
		el.CreateAttr("Field0", fmt.Sprintf("0x%X", c.Field0))
	}
	for i, cl := range owner.clients {
		child := el.CreateElement("Client")
		child.CreateAttr("TypeID", strconv.Itoa(cl.Index))
		var unk [3]uint16
		if i < len(c.Unknown) {
			unk = c.Unknown[i]
		}
		for j, v := range unk {
			child.CreateAttr(fmt.Sprintf("U%d", j), fmt.Sprintf("0x%X", v))
		}
	}
	return nil
}

func (c *connEventReg) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	if attr := el.SelectAttr("Field0"); attr != nil {
		v, err := parseUint(attr.Value, 16)
		if err != nil {
			return fmt.Errorf("Field0: %w", err)
		}
		c.Field0 = uint16(v)
	}
	for _, child := range el.SelectElements("Client") {
		idStr, err := requireAttr(child, "TypeID")
		if err != nil {
			return err
		}
		id, err := parseInt(idStr)
		if err != nil {
			return fmt.Errorf("Client TypeID: %w", err)
		}
		owner.clients = append(owner.clients, IndexedClient(id))
		var unk [3]uint16
		for j := 0; j < 3; j++ {
			if attr := child.SelectAttr(fmt.Sprintf("U%d", j)); attr != nil {
				v, err := parseUint(attr.Value, 16)
				if err != nil {
					return fmt.Errorf("Client U%d: %w", j, err)
				}
				unk[j] = uint16(v)
			}
		}
		c.Unknown = append(c.Unknown, unk)
	}
	return nil
}

func (c *connDotNet) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	el.CreateAttr("Presence", fmt.Sprintf("0x%X", c.Presence))
	if c.Presence&dotNetHasAssembly != 0 {
		el.CreateAttr("Assembly", textenc.Default.Decode(c.Assembly))
	}
	if c.Presence&dotNetHasTypeName != 0 {
		el.CreateAttr("TypeName", textenc.Default.Decode(c.TypeName))
	}
	return nil
}

func (c *connDotNet) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	s, err := requireAttr(el, "Presence")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 32)
	if err != nil {
		return fmt.Errorf("Presence: %w", err)
	}
	c.Presence = uint32(v)
	if c.Presence&dotNetHasAssembly != 0 {
		s, err := requireAttr(el, "Assembly")
		if err != nil {
			return err
		}
		if c.Assembly, err = textenc.Default.Encode(s); err != nil {
			return fmt.Errorf("Assembly: %w", err)
		}
	}
	if c.Presence&dotNetHasTypeName != 0 {
		s, err := requireAttr(el, "TypeName")
		if err != nil {
			return err
		}
		if c.TypeName, err = textenc.Default.Encode(s); err != nil {
			return fmt.Errorf("TypeName: %w", err)
		}
	}
	return nil
}

func (c *connUDClassInst) exportXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	el.CreateAttr("Field0", fmt.Sprintf("0x%X", c.Field0))
	if c.Field2 != 0 {
		el.CreateAttr("Field2", fmt.Sprintf("0x%X", c.Field2))
	}
	if c.Multi {
		el.CreateAttr("Multi", "true")
	}
	for _, item := range c.Items {
		el.CreateElement("Item").SetText(hex.EncodeToString(item))
	}
	return nil
}

func (c *connUDClassInst) importXML(el *etree.Element, ctx *Context, owner *Refnum) error {
	s, err := requireAttr(el, "Field0")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 16)
	if err != nil {
		return fmt.Errorf("Field0: %w", err)
	}
	c.Field0 = uint16(v)
	if attr := el.SelectAttr("Field2"); attr != nil {
		v, err := parseUint(attr.Value, 32)
		if err != nil {
			return fmt.Errorf("Field2: %w", err)
		}
		c.Field2 = uint32(v)
	}
	c.Multi = el.SelectAttrValue("Multi", "") == "true"
	for _, child := range el.SelectElements("Item") {
		item, err := hex.DecodeString(child.Text())
		if err != nil {
			return fmt.Errorf("Item: %w", err)
		}
		c.Items = append(c.Items, item)
	}
	return nil
}
