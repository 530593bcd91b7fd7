package wasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/wasm2map/wasm/internal/binary"
)

// Parsing errors returned by ScanSections and ParseObject.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
	ErrSectionBounds  = errors.New("section extends past end of file")
)

// Section describes one section of a WebAssembly binary and where it lives
// in the file.
type Section struct {
	// Data is the section contents. For custom sections the name is
	// excluded, matching the base that relocation offsets are relative to.
	Data []byte

	// Name is the custom section name, or the canonical name of a known
	// section ("code", "data", ...).
	Name string

	// Offset is the file offset of the section id byte.
	Offset uint64

	// DataOffset is the file offset of Data.
	DataOffset uint64

	// Size is the total on-disk size: id byte, size prefix and payload.
	Size uint64

	// Index is the position of the section in the file, counting custom
	// sections. Relocation sections refer to their target by this index.
	Index int

	ID byte
}

// End returns the file offset one past the last byte of the section.
func (s *Section) End() uint64 {
	return s.Offset + s.Size
}

// IsCustom reports whether the section is a custom section.
func (s *Section) IsCustom() bool {
	return s.ID == SectionCustom
}

var sectionNames = map[byte]string{
	SectionType:      "type",
	SectionImport:    "import",
	SectionFunction:  "function",
	SectionTable:     "table",
	SectionMemory:    "memory",
	SectionGlobal:    "global",
	SectionExport:    "export",
	SectionStart:     "start",
	SectionElement:   "element",
	SectionCode:      "code",
	SectionData:      "data",
	SectionDataCount: "datacount",
	SectionTag:       "tag",
}

// ScanSections walks the section framing of a WebAssembly binary without
// interpreting section contents beyond custom section names.
func ScanSections(data []byte) ([]Section, error) {
	r := binary.NewReader(bytes.NewReader(data))

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	var sections []Section
	for {
		start := r.Position()
		id, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}

		payloadStart := r.Position()
		payloadEnd := payloadStart + int(size)
		if payloadEnd > len(data) || payloadEnd < payloadStart {
			return nil, r.WrapError("section data", ErrSectionBounds)
		}

		sec := Section{
			ID:         id,
			Index:      len(sections),
			Offset:     uint64(start),
			DataOffset: uint64(payloadStart),
			Size:       uint64(payloadEnd - start),
			Data:       data[payloadStart:payloadEnd],
		}

		if id == SectionCustom {
			sr := binary.NewReader(bytes.NewReader(sec.Data))
			name, err := sr.ReadName()
			if err != nil {
				return nil, fmt.Errorf("custom section at offset %d: %w", start, err)
			}
			sec.Name = name
			sec.DataOffset += uint64(sr.Position())
			sec.Data = sec.Data[sr.Position():]
		} else if name, ok := sectionNames[id]; ok {
			sec.Name = name
		} else {
			return nil, fmt.Errorf("unknown section ID: 0x%02x", id)
		}

		sections = append(sections, sec)

		if err := r.Reset(payloadEnd); err != nil {
			return nil, r.WrapError("section data", err)
		}
	}

	return sections, nil
}

// Object is a WebAssembly binary viewed as an object file: its sections,
// the symbol table from the linking section, and relocations grouped by
// the section they apply to.
type Object struct {
	Sections []Section
	Symbols  []Symbol

	// FuncBodies holds, for each defined function, the offset of its body
	// (at the body size prefix) relative to the code section contents.
	FuncBodies []uint64

	// DataSegments holds the constant start address of each data segment.
	DataSegments []uint64

	relocations map[int][]Relocation

	ImportedFuncs uint32
}

// ParseObject parses the section layout, function bodies, data segment
// addresses, linking symbols and relocations of a WebAssembly binary.
func ParseObject(data []byte) (*Object, error) {
	sections, err := ScanSections(data)
	if err != nil {
		return nil, err
	}

	obj := &Object{
		Sections:    sections,
		relocations: make(map[int][]Relocation),
	}

	for i := range sections {
		sec := &sections[i]
		switch {
		case sec.ID == SectionImport:
			if err := obj.parseImports(sec.Data); err != nil {
				return nil, fmt.Errorf("import section: %w", err)
			}
		case sec.ID == SectionCode:
			if err := obj.parseCode(sec.Data); err != nil {
				return nil, fmt.Errorf("code section: %w", err)
			}
		case sec.ID == SectionData:
			if err := obj.parseData(sec.Data); err != nil {
				return nil, fmt.Errorf("data section: %w", err)
			}
		case sec.IsCustom() && sec.Name == LinkingSectionName:
			symbols, err := parseLinking(sec.Data)
			if err != nil {
				return nil, fmt.Errorf("linking section: %w", err)
			}
			obj.Symbols = symbols
		case sec.IsCustom() && strings.HasPrefix(sec.Name, RelocSectionPrefix):
			target, relocs, err := parseRelocations(sec.Data)
			if err != nil {
				return nil, fmt.Errorf("%s section: %w", sec.Name, err)
			}
			if int(target) >= len(sections) {
				return nil, fmt.Errorf("%s section: target section %d out of range", sec.Name, target)
			}
			obj.relocations[int(target)] = append(obj.relocations[int(target)], relocs...)
		}
	}

	return obj, nil
}

// SectionByName returns the first section with the given name.
func (o *Object) SectionByName(name string) *Section {
	for i := range o.Sections {
		if o.Sections[i].Name == name {
			return &o.Sections[i]
		}
	}
	return nil
}

// SectionByID returns the first non-custom section with the given id.
func (o *Object) SectionByID(id byte) *Section {
	for i := range o.Sections {
		if o.Sections[i].ID == id && id != SectionCustom {
			return &o.Sections[i]
		}
	}
	return nil
}

// Relocations returns the relocation entries that apply to sec.
func (o *Object) Relocations(sec *Section) []Relocation {
	if sec == nil {
		return nil
	}
	return o.relocations[sec.Index]
}

func (o *Object) parseImports(data []byte) error {
	r := binary.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := r.ReadName(); err != nil {
			return err
		}
		if _, err := r.ReadName(); err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		switch kind {
		case KindFunc:
			if _, err := r.ReadU32(); err != nil {
				return err
			}
			o.ImportedFuncs++
		case KindTable:
			if err := skipRefType(r); err != nil {
				return err
			}
			if err := skipLimits(r); err != nil {
				return err
			}
		case KindMemory:
			if err := skipLimits(r); err != nil {
				return err
			}
		case KindGlobal:
			if err := skipRefType(r); err != nil {
				return err
			}
			if _, err := r.ReadByte(); err != nil {
				return err
			}
		case KindTag:
			if _, err := r.ReadByte(); err != nil {
				return err
			}
			if _, err := r.ReadU32(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown import kind 0x%02x", kind)
		}
	}
	return nil
}

func (o *Object) parseCode(data []byte) error {
	r := binary.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	o.FuncBodies = make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		start := r.Position()
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		if err := r.Skip(int(size)); err != nil {
			return fmt.Errorf("function body %d: %w", i, err)
		}
		o.FuncBodies = append(o.FuncBodies, uint64(start))
	}
	return nil
}

func (o *Object) parseData(data []byte) error {
	r := binary.NewReader(bytes.NewReader(data))
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	o.DataSegments = make([]uint64, 0, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 2 {
			return fmt.Errorf("invalid data segment flags: %d", flags)
		}

		var offset uint64
		if flags == 2 {
			if _, err := r.ReadU32(); err != nil {
				return err
			}
		}
		if flags != 1 {
			offset, err = readConstOffset(r)
			if err != nil {
				return fmt.Errorf("data segment %d: %w", i, err)
			}
		}

		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		if err := r.Skip(int(size)); err != nil {
			return fmt.Errorf("data segment %d: %w", i, err)
		}
		o.DataSegments = append(o.DataSegments, offset)
	}
	return nil
}

// readConstOffset evaluates a data segment offset expression. Only constant
// expressions yield an address; global.get offsets resolve to zero.
func readConstOffset(r *binary.Reader) (uint64, error) {
	op, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	var offset uint64
	switch op {
	case opI32Const, opI64Const:
		v, err := r.ReadS64()
		if err != nil {
			return 0, err
		}
		if op == opI32Const {
			offset = uint64(uint32(v))
		} else {
			offset = uint64(v)
		}
	case opGlobalGet:
		if _, err := r.ReadU32(); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unsupported offset expression opcode 0x%02x", op)
	}

	end, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if end != opEnd {
		return 0, fmt.Errorf("expected end of offset expression, got 0x%02x", end)
	}
	return offset, nil
}

func skipRefType(r *binary.Reader) error {
	t, err := r.ReadByte()
	if err != nil {
		return err
	}
	if t == valRefNull || t == valRef {
		_, err = r.ReadS64()
	}
	return err
}

func skipLimits(r *binary.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	if _, err := r.ReadU64(); err != nil {
		return err
	}
	if flags&0x01 != 0 {
		if _, err := r.ReadU64(); err != nil {
			return err
		}
	}
	return nil
}
