// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package typedesc

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/textenc"
)

// ExportXML renders td as a child element of parent. Element names
// come from the kind (refnums render by their ref-type name); scalar
// fields become attributes and structural children nested elements.
func ExportXML(td TypeDesc, parent *etree.Element, ctx *Context) (*etree.Element, error) {
	name := td.Kind().XMLName()
	if rn, ok := td.(*Refnum); ok {
		// Unknown ref-types keep the generic element name; the body
		// carries the tag as a RefType attribute.
		name = rn.Ref.XMLName()
	}
	el := parent.CreateElement(name)
	if flags := td.Flags() &^ FlagHasLabel; flags != 0 {
		el.CreateAttr("Flags", fmt.Sprintf("0x%02X", flags))
	}
	if label := td.Label(); label != nil {
		el.CreateAttr("Label", textenc.Default.Decode(label))
	}
	if err := td.exportBody(el, ctx); err != nil {
		return nil, fmt.Errorf("exporting element %s: %w", name, err)
	}
	return el, nil
}

// ImportXML reconstructs a descriptor from el. The element name
// selects the kind; refnum connector names select a Refnum of that
// ref-type.
func ImportXML(el *etree.Element, ctx *Context) (TypeDesc, error) {
	var td TypeDesc
	if kind, ok := KindFromXMLName(el.Tag); ok {
		td = newForKind(kind)
		td.setHeader(0, kind)
	} else if rt, ok := RefTypeFromName(el.Tag); ok {
		rn := &Refnum{}
		rn.setHeader(0, KindRefnum)
		rn.Ref = rt
		if f, ok := connectorFactories[rt]; ok {
			rn.Conn = f()
		}
		td = rn
	} else if strings.HasPrefix(el.Tag, "Refnum") {
		rn := &Refnum{}
		rn.setHeader(0, KindRefnum)
		td = rn
	} else {
		return nil, fmt.Errorf("element %s: unknown type kind", el.Tag)
	}

	if attr := el.SelectAttr("Flags"); attr != nil {
		v, err := parseUint(attr.Value, 8)
		if err != nil {
			return nil, fmt.Errorf("element %s: Flags: %w", el.Tag, err)
		}
		td.setHeader(uint8(v), td.Kind())
	}
	if attr := el.SelectAttr("Label"); attr != nil {
		label, err := textenc.Default.Encode(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("element %s: Label: %w", el.Tag, err)
		}
		td.SetLabel(label)
	}
	if err := td.importBody(el, ctx); err != nil {
		return nil, fmt.Errorf("element %s: %w", el.Tag, err)
	}
	return td, nil
}

// parseUint accepts decimal or 0x-prefixed hex.
func parseUint(s string, bits int) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	return v, err
}

// requireAttr fetches a mandatory attribute.
func requireAttr(el *etree.Element, name string) (string, error) {
	if attr := el.SelectAttr(name); attr != nil {
		return attr.Value, nil
	}
	return "", fmt.Errorf("missing attribute %s", name)
}

// clientRefTag is the element name of an indexed client reference.
const clientRefTag = "TypeDesc"

// exportClients renders each client: indexed references as
// <TypeDesc TypeID="n"/>, nested children as their own full element.
func exportClients(clients []Client, el *etree.Element, ctx *Context) error {
	for _, c := range clients {
		if err := exportClient(c, el, ctx); err != nil {
			return err
		}
	}
	return nil
}

func exportClient(c Client, el *etree.Element, ctx *Context) error {
	if c.IsNested() {
		child, err := ExportXML(c.Nested, el, ctx)
		if err != nil {
			return err
		}
		if c.Flags != 0 {
			child.CreateAttr("ClientFlags", fmt.Sprintf("0x%X", c.Flags))
		}
		return nil
	}
	ref := el.CreateElement(clientRefTag)
	ref.CreateAttr("TypeID", strconv.Itoa(c.Index))
	if c.Flags != 0 {
		ref.CreateAttr("ClientFlags", fmt.Sprintf("0x%X", c.Flags))
	}
	return nil
}

// importClients parses every child element of el as a client.
func importClients(el *etree.Element, ctx *Context) ([]Client, error) {
	var clients []Client
	for _, child := range el.ChildElements() {
		c, err := importClient(child, ctx)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, nil
}

func importClient(child *etree.Element, ctx *Context) (Client, error) {
	var c Client
	if child.Tag == clientRefTag {
		idStr, err := requireAttr(child, "TypeID")
		if err != nil {
			return c, fmt.Errorf("element %s: %w", child.Tag, err)
		}
		id, err := parseInt(idStr)
		if err != nil {
			return c, fmt.Errorf("element %s: TypeID: %w", child.Tag, err)
		}
		c = IndexedClient(id)
	} else {
		nested, err := ImportXML(child, ctx)
		if err != nil {
			return c, err
		}
		c = NestedClient(nested)
	}
	if attr := child.SelectAttr("ClientFlags"); attr != nil {
		v, err := parseUint(attr.Value, 32)
		if err != nil {
			return c, fmt.Errorf("element %s: ClientFlags: %w", child.Tag, err)
		}
		c.Flags = uint32(v)
	}
	return c, nil
}

// --- per-variant bodies ---

func (t *Void) exportBody(el *etree.Element, ctx *Context) error { return nil }
func (t *Void) importBody(el *etree.Element, ctx *Context) error { return nil }

func (t *Bool) exportBody(el *etree.Element, ctx *Context) error { return nil }
func (t *Bool) importBody(el *etree.Element, ctx *Context) error { return nil }

func (t *LVVariant) exportBody(el *etree.Element, ctx *Context) error { return nil }
func (t *LVVariant) importBody(el *etree.Element, ctx *Context) error { return nil }

func (t *Numeric) exportBody(el *etree.Element, ctx *Context) error {
	for _, v := range t.Values {
		el.CreateElement("Value").SetText(textenc.Default.Decode(v))
	}
	return nil
}

func (t *Numeric) importBody(el *etree.Element, ctx *Context) error {
	for _, child := range el.SelectElements("Value") {
		b, err := textenc.Default.Encode(child.Text())
		if err != nil {
			return fmt.Errorf("Value: %w", err)
		}
		t.Values = append(t.Values, b)
	}
	return nil
}

func (t *Blob) exportBody(el *etree.Element, ctx *Context) error {
	if !t.sizeAbsent {
		el.CreateAttr("Size", fmt.Sprintf("0x%X", t.Size))
	}
	return nil
}

func (t *Blob) importBody(el *etree.Element, ctx *Context) error {
	attr := el.SelectAttr("Size")
	if attr == nil {
		t.Size = VariableSize
		t.sizeAbsent = true
		return nil
	}
	v, err := parseUint(attr.Value, 32)
	if err != nil {
		return fmt.Errorf("Size: %w", err)
	}
	t.Size = uint32(v)
	return nil
}

func (t *Raw) exportBody(el *etree.Element, ctx *Context) error {
	el.SetText(hex.EncodeToString(t.Data))
	return nil
}

func (t *Raw) importBody(el *etree.Element, ctx *Context) error {
	data, err := hex.DecodeString(strings.TrimSpace(el.Text()))
	if err != nil {
		return fmt.Errorf("body hex: %w", err)
	}
	t.Data = data
	return nil
}

func (t *Array) exportBody(el *etree.Element, ctx *Context) error {
	for _, d := range t.Dims {
		dim := el.CreateElement("Dim")
		dim.CreateAttr("Flags", fmt.Sprintf("0x%02X", d.Flags))
		dim.CreateAttr("Size", fmt.Sprintf("0x%X", d.Size))
	}
	return exportClients(t.clients, el, ctx)
}

func (t *Array) importBody(el *etree.Element, ctx *Context) error {
	for _, child := range el.ChildElements() {
		if child.Tag == "Dim" {
			flagsStr, err := requireAttr(child, "Flags")
			if err != nil {
				return err
			}
			flags, err := parseUint(flagsStr, 8)
			if err != nil {
				return fmt.Errorf("Dim Flags: %w", err)
			}
			sizeStr, err := requireAttr(child, "Size")
			if err != nil {
				return err
			}
			size, err := parseUint(sizeStr, 32)
			if err != nil {
				return fmt.Errorf("Dim Size: %w", err)
			}
			t.Dims = append(t.Dims, Dim{Flags: uint8(flags), Size: uint32(size)})
			continue
		}
		c, err := importClient(child, ctx)
		if err != nil {
			return err
		}
		t.clients = append(t.clients, c)
	}
	return nil
}

func (t *Cluster) exportBody(el *etree.Element, ctx *Context) error {
	return exportClients(t.clients, el, ctx)
}

func (t *Cluster) importBody(el *etree.Element, ctx *Context) error {
	clients, err := importClients(el, ctx)
	if err != nil {
		return err
	}
	t.clients = clients
	return nil
}

func (t *Block) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("BlockSize", fmt.Sprintf("0x%X", t.BlockSize))
	return nil
}

func (t *Block) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "BlockSize")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 32)
	if err != nil {
		return fmt.Errorf("BlockSize: %w", err)
	}
	t.BlockSize = uint32(v)
	return nil
}

func (t *AlignedBlock) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("BlockSize", fmt.Sprintf("0x%X", t.BlockSize))
	return exportClients(t.clients, el, ctx)
}

func (t *AlignedBlock) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "BlockSize")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 32)
	if err != nil {
		return fmt.Errorf("BlockSize: %w", err)
	}
	t.BlockSize = uint32(v)
	t.clients, err = importClients(el, ctx)
	return err
}

func (t *RepeatedBlock) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("NumRepeats", strconv.FormatUint(uint64(t.NumRepeats), 10))
	return exportClients(t.clients, el, ctx)
}

func (t *RepeatedBlock) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "NumRepeats")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 32)
	if err != nil {
		return fmt.Errorf("NumRepeats: %w", err)
	}
	t.NumRepeats = uint32(v)
	t.clients, err = importClients(el, ctx)
	return err
}

func (t *TypeDef) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Flag1", fmt.Sprintf("0x%X", t.Flag1))
	for _, part := range t.Name {
		el.CreateElement("Name").SetText(textenc.Default.Decode(part))
	}
	return exportClients(t.clients, el, ctx)
}

func (t *TypeDef) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "Flag1")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 32)
	if err != nil {
		return fmt.Errorf("Flag1: %w", err)
	}
	t.Flag1 = uint32(v)
	for _, child := range el.ChildElements() {
		if child.Tag == "Name" {
			part, err := textenc.Default.Encode(child.Text())
			if err != nil {
				return fmt.Errorf("Name: %w", err)
			}
			t.Name = append(t.Name, part)
			continue
		}
		c, err := importClient(child, ctx)
		if err != nil {
			return err
		}
		t.clients = append(t.clients, c)
	}
	return nil
}

func (t *MeasureData) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Flavor", FlavorName(t.Flavor))
	return nil
}

func (t *MeasureData) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "Flavor")
	if err != nil {
		return err
	}
	flavor, ok := FlavorFromName(s)
	if !ok {
		v, err := parseUint(s, 16)
		if err != nil {
			return fmt.Errorf("Flavor: %w", err)
		}
		flavor = uint16(v)
	}
	t.Flavor = flavor
	return nil
}

func (t *FixedPoint) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("Packed", fmt.Sprintf("0x%04X", t.Packed))
	for _, rec := range t.Ranges {
		rangeEl := el.CreateElement("Range")
		if rec.Extended {
			rangeEl.CreateAttr("Word1", fmt.Sprintf("0x%X", rec.Word1))
			rangeEl.CreateAttr("Word2", fmt.Sprintf("0x%X", rec.Word2))
			rangeEl.CreateAttr("IntPart", fmt.Sprintf("0x%X", rec.IntPart))
		}
		rangeEl.CreateAttr("Value", strconv.FormatFloat(rec.Value, 'g', -1, 64))
	}
	return nil
}

func (t *FixedPoint) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "Packed")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 16)
	if err != nil {
		return fmt.Errorf("Packed: %w", err)
	}
	t.Packed = uint16(v)
	ranges := el.SelectElements("Range")
	if len(ranges) != len(t.Ranges) {
		return fmt.Errorf("fixed point needs %d Range elements, has %d", len(t.Ranges), len(ranges))
	}
	for i, rangeEl := range ranges {
		var rec RangeRecord
		if attr := rangeEl.SelectAttr("Word1"); attr != nil {
			rec.Extended = true
			if v, err := parseUint(attr.Value, 16); err == nil {
				rec.Word1 = uint16(v)
			} else {
				return fmt.Errorf("Range Word1: %w", err)
			}
			w2, err := requireAttr(rangeEl, "Word2")
			if err != nil {
				return err
			}
			if v, err := parseUint(w2, 16); err == nil {
				rec.Word2 = uint16(v)
			} else {
				return fmt.Errorf("Range Word2: %w", err)
			}
			ip, err := requireAttr(rangeEl, "IntPart")
			if err != nil {
				return err
			}
			if v, err := parseUint(ip, 32); err == nil {
				rec.IntPart = uint32(v)
			} else {
				return fmt.Errorf("Range IntPart: %w", err)
			}
		}
		valStr, err := requireAttr(rangeEl, "Value")
		if err != nil {
			return err
		}
		if rec.Value, err = strconv.ParseFloat(valStr, 64); err != nil {
			return fmt.Errorf("Range Value: %w", err)
		}
		t.Ranges[i] = rec
	}
	return nil
}

func (t *Function) exportBody(el *etree.Element, ctx *Context) error {
	el.CreateAttr("FFlags", fmt.Sprintf("0x%04X", t.FFlags))
	el.CreateAttr("Pattern", fmt.Sprintf("0x%04X", t.Pattern))
	if err := exportClients(t.clients, el, ctx); err != nil {
		return err
	}
	for i, chain := range t.Thrall {
		if chain == nil {
			continue
		}
		th := el.CreateElement("Thrall")
		th.CreateAttr("Index", strconv.Itoa(i))
		parts := make([]string, len(chain))
		for j, v := range chain {
			parts[j] = strconv.Itoa(int(v))
		}
		th.SetText(strings.Join(parts, " "))
	}
	if t.Extra != nil {
		el.CreateAttr("Extra", hex.EncodeToString(t.Extra))
	}
	if t.Special != nil {
		special := el.CreateElement("Special")
		if err := exportClient(*t.Special, special, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Function) importBody(el *etree.Element, ctx *Context) error {
	s, err := requireAttr(el, "FFlags")
	if err != nil {
		return err
	}
	v, err := parseUint(s, 16)
	if err != nil {
		return fmt.Errorf("FFlags: %w", err)
	}
	t.FFlags = uint16(v)
	if s, err = requireAttr(el, "Pattern"); err != nil {
		return err
	}
	if v, err = parseUint(s, 16); err != nil {
		return fmt.Errorf("Pattern: %w", err)
	}
	t.Pattern = uint16(v)

	var thralls []*etree.Element
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "Thrall":
			thralls = append(thralls, child)
		case "Special":
			kids := child.ChildElements()
			if len(kids) != 1 {
				return fmt.Errorf("Special needs exactly one client, has %d", len(kids))
			}
			c, err := importClient(kids[0], ctx)
			if err != nil {
				return err
			}
			t.Special = &c
		default:
			c, err := importClient(child, ctx)
			if err != nil {
				return err
			}
			t.clients = append(t.clients, c)
		}
	}
	if t.FFlags&FuncFlagThrall != 0 {
		t.Thrall = make([][]uint8, len(t.clients))
		for _, th := range thralls {
			idxStr, err := requireAttr(th, "Index")
			if err != nil {
				return err
			}
			idx, err := parseInt(idxStr)
			if err != nil || idx < 0 || idx >= len(t.clients) {
				return fmt.Errorf("Thrall Index %q out of range", idxStr)
			}
			for _, field := range strings.Fields(th.Text()) {
				v, err := parseUint(field, 8)
				if err != nil {
					return fmt.Errorf("Thrall value %q: %w", field, err)
				}
				t.Thrall[idx] = append(t.Thrall[idx], uint8(v))
			}
		}
	}
	if attr := el.SelectAttr("Extra"); attr != nil {
		if t.Extra, err = hex.DecodeString(attr.Value); err != nil {
			return fmt.Errorf("Extra: %w", err)
		}
	}
	return nil
}

func (t *Refnum) exportBody(el *etree.Element, ctx *Context) error {
	if t.Conn == nil {
		if _, known := refTypeNames[t.Ref]; !known {
			el.CreateAttr("RefType", fmt.Sprintf("0x%04X", uint16(t.Ref)))
		}
		if len(t.RawTail) > 0 {
			el.SetText(hex.EncodeToString(t.RawTail))
		}
		return nil
	}
	return t.Conn.exportXML(el, ctx, t)
}

func (t *Refnum) importBody(el *etree.Element, ctx *Context) error {
	if t.Conn == nil {
		if attr := el.SelectAttr("RefType"); attr != nil {
			v, err := parseUint(attr.Value, 16)
			if err != nil {
				return fmt.Errorf("RefType: %w", err)
			}
			t.Ref = RefType(v)
		}
		if text := strings.TrimSpace(el.Text()); text != "" {
			tail, err := hex.DecodeString(text)
			if err != nil {
				return fmt.Errorf("payload hex: %w", err)
			}
			t.RawTail = tail
		}
		return nil
	}
	return t.Conn.importXML(el, ctx, t)
}
