// Package wasmtest builds small WebAssembly binaries for tests.
package wasmtest

import (
	"github.com/wippyai/wasm2map/wasm"
	"github.com/wippyai/wasm2map/wasm/internal/binary"
)

// BodySize is the encoded size of each generated function body, including
// its size prefix.
const BodySize = 3

// Builder assembles a module section by section. Sections are emitted in
// the order they are added, so Len gives the index the next section will
// have.
type Builder struct {
	sections [][]byte
}

func New() *Builder {
	return &Builder{}
}

// Len returns the number of sections added so far.
func (b *Builder) Len() int {
	return len(b.sections)
}

// Section appends a section with an arbitrary id and payload.
func (b *Builder) Section(id byte, payload []byte) *Builder {
	w := binary.NewWriter()
	w.WriteSection(id, payload)
	b.sections = append(b.sections, w.Bytes())
	return b
}

// Custom appends a custom section.
func (b *Builder) Custom(name string, contents []byte) *Builder {
	b.sections = append(b.sections, wasm.EncodeCustomSection(name, contents))
	return b
}

// Raw appends pre-encoded section bytes unchanged.
func (b *Builder) Raw(section []byte) *Builder {
	b.sections = append(b.sections, section)
	return b
}

// Functions appends type, function and code sections declaring n functions
// of type [] -> []. Each body is a size byte, an empty locals vector and
// end, so body i starts at code payload offset CodeBodyOffset(n, i).
func (b *Builder) Functions(n int) *Builder {
	types := binary.NewWriter()
	types.WriteU32(1)
	types.Byte(0x60)
	types.WriteU32(0)
	types.WriteU32(0)
	b.Section(wasm.SectionType, types.Bytes())

	funcs := binary.NewWriter()
	funcs.WriteU32(uint32(n))
	for i := 0; i < n; i++ {
		funcs.WriteU32(0)
	}
	b.Section(wasm.SectionFunction, funcs.Bytes())

	code := binary.NewWriter()
	code.WriteU32(uint32(n))
	for i := 0; i < n; i++ {
		code.Byte(0x02)
		code.Byte(0x00)
		code.Byte(0x0b)
	}
	return b.Section(wasm.SectionCode, code.Bytes())
}

// CodeBodyOffset returns the offset of body i relative to the code section
// contents of a module built with Functions(n).
func CodeBodyOffset(n, i int) uint64 {
	return uint64(wasm.LEB128Size(uint64(n)) + BodySize*i)
}

// DataSegments appends a data section with one active segment per address.
func (b *Builder) DataSegments(addrs ...uint32) *Builder {
	w := binary.NewWriter()
	w.WriteU32(uint32(len(addrs)))
	for _, addr := range addrs {
		w.WriteU32(0)
		w.Byte(0x41)
		w.WriteS64(int64(int32(addr)))
		w.Byte(0x0b)
		w.WriteU32(1)
		w.Byte(0)
	}
	return b.Section(wasm.SectionData, w.Bytes())
}

// Linking appends a version 2 linking section holding a symbol table.
func (b *Builder) Linking(symbols ...wasm.Symbol) *Builder {
	table := binary.NewWriter()
	table.WriteU32(uint32(len(symbols)))
	for _, sym := range symbols {
		writeSymbol(table, sym)
	}

	w := binary.NewWriter()
	w.WriteU32(wasm.LinkingVersion)
	w.Byte(8)
	w.WriteU32(uint32(table.Len()))
	w.WriteBytes(table.Bytes())
	return b.Custom(wasm.LinkingSectionName, w.Bytes())
}

// Reloc appends a reloc.<name> section targeting the section at index
// target.
func (b *Builder) Reloc(name string, target int, relocs ...wasm.Relocation) *Builder {
	w := binary.NewWriter()
	w.WriteU32(uint32(target))
	w.WriteU32(uint32(len(relocs)))
	for _, rel := range relocs {
		w.Byte(byte(rel.Type))
		w.WriteU64(rel.Offset)
		w.WriteU32(rel.Index)
		if rel.Type.HasAddend() {
			w.WriteS64(rel.Addend)
		}
	}
	return b.Custom(wasm.RelocSectionPrefix+name, w.Bytes())
}

// Bytes returns the module: header followed by every section.
func (b *Builder) Bytes() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(wasm.Magic)
	w.WriteU32LE(wasm.Version)
	for _, s := range b.sections {
		w.WriteBytes(s)
	}
	return w.Bytes()
}

func writeSymbol(w *binary.Writer, sym wasm.Symbol) {
	w.Byte(byte(sym.Kind))
	w.WriteU32(sym.Flags)
	switch sym.Kind {
	case wasm.SymbolData:
		w.WriteName(sym.Name)
		if !sym.Undefined() {
			w.WriteU32(sym.Index)
			w.WriteU64(sym.Offset)
			w.WriteU64(sym.Size)
		}
	case wasm.SymbolSection:
		w.WriteU32(sym.Index)
	default:
		w.WriteU32(sym.Index)
		if !sym.Undefined() || sym.Flags&wasm.SymbolFlagExplicitName != 0 {
			w.WriteName(sym.Name)
		}
	}
}
