// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"

	"github.com/vixen-tools/vixen/lib/binhash"
	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/blobstore"
	"github.com/vixen-tools/vixen/lib/config"
	"github.com/vixen-tools/vixen/lib/lvver"
	"github.com/vixen-tools/vixen/lib/rsrc"
	"github.com/vixen-tools/vixen/lib/typedesc"
)

// ManifestName is the file name of the XML manifest inside an
// extraction directory.
const ManifestName = "manifest.xml"

// blobDirName is the companion-file directory inside an extraction
// directory.
const blobDirName = "blobs"

// typeListSection is the name of the consolidated type table section.
const typeListSection = "VCTP"

// writeManifest renders doc as manifest.xml plus companion files
// under outDir. The type table section is decoded into an editable
// element tree; every other section survives verbatim as inline hex
// or a companion file, so a rebuild reproduces it byte for byte.
func writeManifest(doc *rsrc.Document, outDir string, cfg *config.Config, logger *slog.Logger) error {
	tag, err := blobstore.ParseTag(cfg.Blob.Compression)
	if err != nil {
		return err
	}
	store := blobstore.New(filepath.Join(outDir, blobDirName), tag)

	xmlDoc := etree.NewDocument()
	xmlDoc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := xmlDoc.CreateElement("Resource")
	root.CreateAttr("File", filepath.Base(doc.File()))
	root.CreateAttr("FileType", fourCC(doc.FileType))
	root.CreateAttr("Creator", fourCC(doc.Creator))

	ver, verErr := doc.FileVersion()
	if verErr == nil {
		root.CreateAttr("Version", ver.String())
	}

	for _, section := range doc.Sections() {
		el := root.CreateElement("Section")
		el.CreateAttr("Name", section.Name)
		el.CreateAttr("Compressed", strconv.FormatBool(section.Compressed))

		if section.Name == typeListSection && verErr == nil {
			tl, err := exportTypeList(section.Data(), doc.File(), ver, cfg)
			if err == nil {
				el.AddChild(tl)
				continue
			}
			// Fall back to raw bytes; the document stays fully
			// extractable, just not editable at the type level.
			logger.Warn("type table decode failed, keeping section raw",
				"section", section.Name, "error", err)
		}

		if err := exportRawSection(el, section.Data(), store, cfg); err != nil {
			return fmt.Errorf("section %s: %w", section.Name, err)
		}
	}

	xmlDoc.Indent(2)
	return xmlDoc.WriteToFile(filepath.Join(outDir, ManifestName))
}

// exportTypeList decodes the consolidated type table and renders it
// as a detached TypeList element with one child per table entry plus
// TopType markers. The caller attaches it only on success.
func exportTypeList(data []byte, file string, ver lvver.Version, cfg *config.Config) (*etree.Element, error) {
	ctx := typedesc.NewContext(file, ver)
	ctx.Limits = cfg.DecodeLimits()

	list, err := typedesc.DecodeList(binio.NewReader(data), ctx)
	if err != nil {
		return nil, err
	}

	el := etree.NewElement("TypeList")
	for _, td := range list.All() {
		if _, err := typedesc.ExportXML(td, el, ctx); err != nil {
			return nil, err
		}
	}
	for _, idx := range list.TopTypes {
		top := el.CreateElement("TopType")
		top.CreateAttr("Index", strconv.Itoa(idx))
	}
	return el, nil
}

// exportRawSection stores section bytes inline as hex, or as a
// companion file when they exceed the externalize threshold.
func exportRawSection(el *etree.Element, data []byte, store *blobstore.Store, cfg *config.Config) error {
	if len(data) <= cfg.ExternalizeThreshold() {
		el.CreateAttr("Hex", hex.EncodeToString(data))
		return nil
	}

	ref, err := store.Put(data)
	if err != nil {
		return err
	}
	el.CreateAttr("File", ref.File)
	el.CreateAttr("Format", "bin")
	el.CreateAttr("Size", strconv.Itoa(ref.Size))
	el.CreateAttr("Hash", binhash.FormatDigest(ref.Hash))
	el.CreateAttr("Compression", ref.Compression.String())
	return nil
}

// readManifest parses manifest.xml from dir and reconstructs the
// container document. Sections are restored in manifest order, which
// is the original section order, so an untouched extraction rebuilds
// byte-identically.
func readManifest(dir string, cfg *config.Config) (*rsrc.Document, error) {
	tag, err := blobstore.ParseTag(cfg.Blob.Compression)
	if err != nil {
		return nil, err
	}
	store := blobstore.New(filepath.Join(dir, blobDirName), tag)

	xmlDoc := etree.NewDocument()
	if err := xmlDoc.ReadFromFile(filepath.Join(dir, ManifestName)); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	root := xmlDoc.Root()
	if root == nil || root.Tag != "Resource" {
		return nil, fmt.Errorf("manifest root element must be Resource")
	}

	file := root.SelectAttrValue("File", "rebuilt.vi")
	fileType, err := parseFourCC(root, "FileType")
	if err != nil {
		return nil, err
	}
	creator, err := parseFourCC(root, "Creator")
	if err != nil {
		return nil, err
	}

	doc := rsrc.New(file, fileType, creator)

	// First pass: resolve raw section bytes. TypeList sections need
	// the file version, which lives inside the version section, so
	// their encode is deferred to a second pass.
	type pending struct {
		name       string
		compressed bool
		typeList   *etree.Element
		data       []byte
	}
	var sections []pending

	for _, el := range root.SelectElements("Section") {
		name := el.SelectAttrValue("Name", "")
		if name == "" {
			return nil, fmt.Errorf("Section element missing Name attribute")
		}
		compressed, err := strconv.ParseBool(el.SelectAttrValue("Compressed", "false"))
		if err != nil {
			return nil, fmt.Errorf("section %s: bad Compressed attribute: %w", name, err)
		}

		p := pending{name: name, compressed: compressed}
		if tl := el.SelectElement("TypeList"); tl != nil {
			p.typeList = tl
		} else {
			p.data, err = rawSectionBytes(el, store)
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", name, err)
			}
		}
		sections = append(sections, p)
	}

	// The version word gates every layout decision inside the type
	// table, so a manifest carrying a decoded TypeList must also
	// carry the version section.
	var ver lvver.Version
	verOK := false
	for _, p := range sections {
		if p.name == rsrc.VersionSection && len(p.data) >= 4 {
			word := uint32(p.data[0])<<24 | uint32(p.data[1])<<16 |
				uint32(p.data[2])<<8 | uint32(p.data[3])
			ver = lvver.DecodeWord(word)
			verOK = true
			break
		}
	}

	for _, p := range sections {
		data := p.data
		if p.typeList != nil {
			if !verOK {
				return nil, fmt.Errorf("manifest has a TypeList but no %s section to establish the file version",
					rsrc.VersionSection)
			}
			data, err = encodeTypeList(p.typeList, file, ver, cfg)
			if err != nil {
				return nil, fmt.Errorf("section %s: %w", p.name, err)
			}
		}
		if _, err := doc.AddSection(p.name, data, p.compressed); err != nil {
			return nil, fmt.Errorf("section %s: %w", p.name, err)
		}
	}

	return doc, nil
}

// rawSectionBytes resolves a Section element's content from its Hex
// attribute or companion file reference.
func rawSectionBytes(el *etree.Element, store *blobstore.Store) ([]byte, error) {
	if h := el.SelectAttrValue("Hex", ""); h != "" || el.SelectAttr("Hex") != nil {
		data, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("bad Hex attribute: %w", err)
		}
		return data, nil
	}

	file := el.SelectAttrValue("File", "")
	if file == "" {
		return nil, fmt.Errorf("section has neither Hex nor File")
	}
	size, err := strconv.Atoi(el.SelectAttrValue("Size", ""))
	if err != nil {
		return nil, fmt.Errorf("bad Size attribute: %w", err)
	}
	digest, err := binhash.ParseDigest(el.SelectAttrValue("Hash", ""))
	if err != nil {
		return nil, fmt.Errorf("bad Hash attribute: %w", err)
	}
	compression, err := blobstore.ParseTag(el.SelectAttrValue("Compression", "none"))
	if err != nil {
		return nil, err
	}

	return store.Get(blobstore.Ref{
		File:        file,
		Hash:        digest,
		Size:        size,
		Compression: compression,
	})
}

// encodeTypeList imports a TypeList element tree and encodes it back
// to consolidated-table section bytes.
func encodeTypeList(el *etree.Element, file string, ver lvver.Version, cfg *config.Config) ([]byte, error) {
	ctx := typedesc.NewContext(file, ver)
	ctx.Source = typedesc.SourceXML
	ctx.Limits = cfg.DecodeLimits()

	list := typedesc.NewConsolidatedList(file)
	ctx.List = list

	for _, child := range el.ChildElements() {
		if child.Tag == "TopType" {
			idx, err := strconv.Atoi(child.SelectAttrValue("Index", ""))
			if err != nil {
				return nil, fmt.Errorf("TopType: bad Index attribute: %w", err)
			}
			list.TopTypes = append(list.TopTypes, idx)
			continue
		}
		td, err := typedesc.ImportXML(child, ctx)
		if err != nil {
			return nil, err
		}
		list.Append(td)
	}

	w := binio.NewWriter()
	if err := typedesc.EncodeList(w, list, ctx); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// fourCC renders a four-byte identifier as a string.
func fourCC(b [4]byte) string {
	return string(b[:])
}

// parseFourCC reads a required four-character attribute.
func parseFourCC(el *etree.Element, name string) ([4]byte, error) {
	var out [4]byte
	s := el.SelectAttrValue(name, "")
	if len(s) != 4 {
		return out, fmt.Errorf("attribute %s must be exactly four characters, got %q", name, s)
	}
	copy(out[:], s)
	return out, nil
}
