// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package rsrc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"

	"github.com/vixen-tools/vixen/lib/binio"
	"github.com/vixen-tools/vixen/lib/diag"
	"github.com/vixen-tools/vixen/lib/lvver"
)

// Container layout: a 32-byte header at offset 0, repeated verbatim
// at the info offset, followed by the section table and the section
// data area.
//
//	0:  magic "RSRC\r\n"
//	6:  u16 format version
//	8:  4-byte file type
//	12: 4-byte creator
//	16: u32 info offset
//	20: u32 info size
//	24: u32 data offset
//	28: u32 data size
//
// Section table (at info offset + 32): u32 entry count, then per
// entry a 4-byte name, u32 data-area offset, u32 stored size, u32
// flags. Flag bit 0 marks zlib compression; compressed payloads
// start with the u32 uncompressed size.
var magic = []byte{'R', 'S', 'R', 'C', '\r', '\n'}

const (
	headerSize    = 32
	formatVersion = 3
	entrySize     = 16

	flagCompressed uint32 = 1 << 0

	// VersionSection holds the document version word in its first
	// four bytes.
	VersionSection = "vers"
)

// maxSectionSize bounds a single stored or decompressed section.
const maxSectionSize = 1 << 30

// Section is one named byte region of the container.
type Section struct {
	Name       string
	Compressed bool

	// data is the decompressed content; stored is the on-disk form,
	// kept so untouched sections rebuild byte-identically.
	data   []byte
	stored []byte
	dirty  bool
}

// Data returns the decompressed section content.
func (s *Section) Data() []byte { return s.data }

// SetData replaces the section content. The stored form is
// regenerated on the next encode.
func (s *Section) SetData(b []byte) {
	s.data = b
	s.dirty = true
}

// Document is a parsed container.
type Document struct {
	FileType [4]byte
	Creator  [4]byte

	file     string
	sections []*Section
	byName   map[string]*Section
}

// File returns the source identifier used in errors.
func (d *Document) File() string { return d.file }

// Sections returns the sections in table order.
func (d *Document) Sections() []*Section { return d.sections }

// Section returns the named section, or nil when absent.
func (d *Document) Section(name string) *Section {
	return d.byName[name]
}

// MustSection returns the named section or a structural error naming
// the document.
func (d *Document) MustSection(name string) (*Section, error) {
	if s := d.byName[name]; s != nil {
		return s, nil
	}
	return nil, diag.Structural(d.file, -1, name, "lookup",
		fmt.Errorf("section not present"))
}

// FileVersion reads the document version word from the version
// section.
func (d *Document) FileVersion() (lvver.Version, error) {
	s, err := d.MustSection(VersionSection)
	if err != nil {
		return lvver.Version{}, err
	}
	r := binio.NewReader(s.Data())
	word, err := r.U32()
	if err != nil {
		return lvver.Version{}, diag.Structural(d.file, -1, VersionSection, "decode", err)
	}
	return lvver.DecodeWord(word), nil
}

// Load reads and parses the container at path.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, path)
}

// Parse parses a container image. file is the identifier carried into
// errors and warnings.
func Parse(b []byte, file string) (*Document, error) {
	r := binio.NewReader(b)
	d := &Document{file: file, byName: make(map[string]*Section)}

	infoOffset, dataOffset, dataSize, err := d.parseHeader(r)
	if err != nil {
		return nil, err
	}

	// The header repeats at the info offset; a mismatch means a
	// truncated or doctored file.
	if err := r.Seek(int(infoOffset)); err != nil {
		return nil, diag.Structural(file, -1, "header", "decode",
			fmt.Errorf("info offset %d outside file", infoOffset))
	}
	second, err := r.Bytes(headerSize)
	if err != nil {
		return nil, diag.Structural(file, -1, "header", "decode", err)
	}
	if !bytes.Equal(second, b[:headerSize]) {
		diag.Sanity("second container header differs from the first", "file", file)
	}

	count, err := r.U32()
	if err != nil {
		return nil, diag.Structural(file, -1, "section table", "decode", err)
	}
	if int(count) > (len(b)-r.Pos())/entrySize {
		return nil, diag.Structural(file, -1, "section table", "decode",
			fmt.Errorf("%d entries do not fit in %d bytes", count, len(b)-r.Pos()))
	}
	for i := 0; i < int(count); i++ {
		nameBytes, err := r.Bytes(4)
		if err != nil {
			return nil, diag.Structural(file, i, "section table", "decode", err)
		}
		name := string(nameBytes)
		offset, err := r.U32()
		if err != nil {
			return nil, diag.Structural(file, i, name, "decode", err)
		}
		size, err := r.U32()
		if err != nil {
			return nil, diag.Structural(file, i, name, "decode", err)
		}
		flags, err := r.U32()
		if err != nil {
			return nil, diag.Structural(file, i, name, "decode", err)
		}
		if uint64(offset)+uint64(size) > uint64(dataSize) || size > maxSectionSize {
			return nil, diag.Structural(file, i, name, "decode",
				fmt.Errorf("data span %d+%d outside data area of %d bytes", offset, size, dataSize))
		}
		start := int(dataOffset) + int(offset)
		if start+int(size) > len(b) {
			return nil, diag.Structural(file, i, name, "decode",
				fmt.Errorf("data span reaches past end of file"))
		}
		stored := b[start : start+int(size)]

		s := &Section{
			Name:       name,
			Compressed: flags&flagCompressed != 0,
			stored:     append([]byte(nil), stored...),
		}
		if s.Compressed {
			s.data, err = decompress(stored)
			if err != nil {
				return nil, diag.Structural(file, i, name, "decompress", err)
			}
		} else {
			s.data = s.stored
		}
		d.sections = append(d.sections, s)
		if _, dup := d.byName[name]; dup {
			diag.Sanity("duplicate section name", "file", file, "section", name)
			continue
		}
		d.byName[name] = s
	}
	return d, nil
}

func (d *Document) parseHeader(r *binio.Reader) (infoOffset, dataOffset, dataSize uint32, err error) {
	head, err := r.Bytes(len(magic))
	if err != nil || !bytes.Equal(head, magic) {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode",
			fmt.Errorf("not a resource container"))
	}
	ver, err := r.U16()
	if err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	if ver != formatVersion {
		diag.Sanity("unexpected container format version",
			"file", d.file, "version", int(ver))
	}
	ft, err := r.Bytes(4)
	if err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	copy(d.FileType[:], ft)
	cr, err := r.Bytes(4)
	if err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	copy(d.Creator[:], cr)
	if infoOffset, err = r.U32(); err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	if _, err = r.U32(); err != nil { // info size
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	if dataOffset, err = r.U32(); err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	if dataSize, err = r.U32(); err != nil {
		return 0, 0, 0, diag.Structural(d.file, -1, "header", "decode", err)
	}
	return infoOffset, dataOffset, dataSize, nil
}

// Encode rebuilds the container image. Sections whose content was
// never replaced re-emit their stored bytes verbatim.
func (d *Document) Encode() ([]byte, error) {
	var data bytes.Buffer
	type entry struct {
		offset, size, flags uint32
	}
	entries := make([]entry, len(d.sections))
	for i, s := range d.sections {
		stored := s.stored
		flags := uint32(0)
		if s.Compressed {
			flags |= flagCompressed
		}
		if s.dirty {
			if s.Compressed {
				var err error
				stored, err = compress(s.data)
				if err != nil {
					return nil, diag.Structural(d.file, i, s.Name, "compress", err)
				}
			} else {
				stored = s.data
			}
		}
		entries[i] = entry{offset: uint32(data.Len()), size: uint32(len(stored)), flags: flags}
		data.Write(stored)
	}

	tableSize := 4 + entrySize*len(d.sections)
	dataOffset := headerSize
	infoOffset := dataOffset + data.Len()
	infoSize := headerSize + tableSize

	w := binio.NewWriter()
	writeHeader := func() {
		w.Raw(magic)
		w.U16(formatVersion)
		w.Raw(d.FileType[:])
		w.Raw(d.Creator[:])
		w.U32(uint32(infoOffset))
		w.U32(uint32(infoSize))
		w.U32(uint32(dataOffset))
		w.U32(uint32(data.Len()))
	}
	writeHeader()
	w.Raw(data.Bytes())
	writeHeader()
	w.U32(uint32(len(d.sections)))
	for i, s := range d.sections {
		name := []byte(s.Name)
		if len(name) != 4 {
			return nil, diag.Structural(d.file, i, s.Name, "encode",
				fmt.Errorf("section name must be exactly 4 bytes"))
		}
		w.Raw(name)
		w.U32(entries[i].offset)
		w.U32(entries[i].size)
		w.U32(entries[i].flags)
	}
	return w.Bytes(), nil
}

// AddSection appends a new section. Compressed sections are stored
// zlib-compressed on encode.
func (d *Document) AddSection(name string, data []byte, compressed bool) (*Section, error) {
	if len(name) != 4 {
		return nil, fmt.Errorf("section name %q must be exactly 4 bytes", name)
	}
	if _, dup := d.byName[name]; dup {
		return nil, fmt.Errorf("section %q already present", name)
	}
	s := &Section{Name: name, Compressed: compressed, data: data, dirty: true}
	d.sections = append(d.sections, s)
	d.byName[name] = s
	return s, nil
}

// New returns an empty container document.
func New(file string, fileType, creator [4]byte) *Document {
	return &Document{
		file:     file,
		FileType: fileType,
		Creator:  creator,
		byName:   make(map[string]*Section),
	}
}

// decompress inflates a stored section: u32 uncompressed size, then
// the zlib stream.
func decompress(stored []byte) ([]byte, error) {
	r := binio.NewReader(stored)
	size, err := r.U32()
	if err != nil {
		return nil, err
	}
	if size > maxSectionSize {
		return nil, fmt.Errorf("declared uncompressed size %d too large", size)
	}
	zr, err := zlib.NewReader(bytes.NewReader(r.Rest()))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	// A trailing byte here means the declared size lied; report it
	// rather than silently truncating.
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("stream longer than declared size %d", size)
	}
	return out, nil
}

// compress deflates section content into the stored form.
func compress(data []byte) ([]byte, error) {
	w := binio.NewWriter()
	w.U32(uint32(len(data)))
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	w.Raw(buf.Bytes())
	return w.Bytes(), nil
}
