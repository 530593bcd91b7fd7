package wasm

import (
	"bytes"
	"fmt"

	"github.com/wippyai/wasm2map/wasm/internal/binary"
)

// Symbol is an entry of the linking section's symbol table.
type Symbol struct {
	Name string

	// Index is the function, global, tag or table index for those kinds,
	// the data segment index for data symbols and the section index for
	// section symbols.
	Index uint32

	// Offset and Size locate a defined data symbol inside its segment.
	Offset uint64
	Size   uint64

	Flags uint32
	Kind  SymbolKind
}

// Undefined reports whether the symbol is imported rather than defined.
func (s *Symbol) Undefined() bool {
	return s.Flags&SymbolFlagUndefined != 0
}

// Relocation is one entry of a reloc.* custom section. Offset is relative
// to the contents of the target section.
type Relocation struct {
	Offset uint64
	Addend int64
	Index  uint32
	Type   RelocType
}

// SymbolAddress returns the address a relocation against symbol index
// resolves to before the addend is applied. Function symbols resolve to the
// offset of their body in the code section, data symbols to their absolute
// memory address, and section symbols to zero.
func (o *Object) SymbolAddress(index uint32) (uint64, bool) {
	if int(index) >= len(o.Symbols) {
		return 0, false
	}
	sym := &o.Symbols[index]
	if sym.Undefined() {
		return 0, true
	}

	switch sym.Kind {
	case SymbolFunction:
		if sym.Index < o.ImportedFuncs {
			return 0, true
		}
		body := sym.Index - o.ImportedFuncs
		if int(body) >= len(o.FuncBodies) {
			return 0, false
		}
		return o.FuncBodies[body], true
	case SymbolData:
		if int(sym.Index) >= len(o.DataSegments) {
			return 0, false
		}
		return o.DataSegments[sym.Index] + sym.Offset, true
	case SymbolSection:
		return 0, true
	case SymbolGlobal, SymbolTag, SymbolTable:
		return uint64(sym.Index), true
	}
	return 0, false
}

func parseLinking(data []byte) ([]Symbol, error) {
	r := binary.NewReader(bytes.NewReader(data))

	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if version != LinkingVersion {
		return nil, fmt.Errorf("unsupported linking version %d", version)
	}

	var symbols []Symbol
	for r.Len() > 0 {
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if int(size) > r.Len() {
			return nil, r.WrapError("linking subsection", ErrSectionBounds)
		}

		if kind != linkingSymbolTable {
			// segment info, init funcs and comdats do not affect addresses
			if err := r.Skip(int(size)); err != nil {
				return nil, err
			}
			continue
		}

		end := r.Position() + int(size)
		symbols, err = readSymbolTable(r)
		if err != nil {
			return nil, fmt.Errorf("symbol table: %w", err)
		}
		if r.Position() != end {
			return nil, r.WrapError("symbol table", fmt.Errorf("subsection size mismatch"))
		}
	}
	return symbols, nil
}

func readSymbolTable(r *binary.Reader) ([]Symbol, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if remaining := r.Len(); remaining >= 0 && int(count) > remaining {
		return nil, r.WrapError("symbol count", ErrSectionBounds)
	}

	symbols := make([]Symbol, 0, count)
	for i := uint32(0); i < count; i++ {
		sym, err := readSymbol(r)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

func readSymbol(r *binary.Reader) (Symbol, error) {
	var sym Symbol

	kind, err := r.ReadByte()
	if err != nil {
		return sym, err
	}
	sym.Kind = SymbolKind(kind)

	if sym.Flags, err = r.ReadU32(); err != nil {
		return sym, err
	}

	switch sym.Kind {
	case SymbolFunction, SymbolGlobal, SymbolTag, SymbolTable:
		if sym.Index, err = r.ReadU32(); err != nil {
			return sym, err
		}
		if !sym.Undefined() || sym.Flags&SymbolFlagExplicitName != 0 {
			if sym.Name, err = r.ReadName(); err != nil {
				return sym, err
			}
		}
	case SymbolData:
		if sym.Name, err = r.ReadName(); err != nil {
			return sym, err
		}
		if !sym.Undefined() {
			if sym.Index, err = r.ReadU32(); err != nil {
				return sym, err
			}
			if sym.Offset, err = r.ReadU64(); err != nil {
				return sym, err
			}
			if sym.Size, err = r.ReadU64(); err != nil {
				return sym, err
			}
		}
	case SymbolSection:
		if sym.Index, err = r.ReadU32(); err != nil {
			return sym, err
		}
	default:
		return sym, fmt.Errorf("unknown symbol kind %d", kind)
	}
	return sym, nil
}

func parseRelocations(data []byte) (uint32, []Relocation, error) {
	r := binary.NewReader(bytes.NewReader(data))

	target, err := r.ReadU32()
	if err != nil {
		return 0, nil, err
	}
	count, err := r.ReadU32()
	if err != nil {
		return 0, nil, err
	}
	if int(count) > r.Len() {
		return 0, nil, r.WrapError("relocation count", ErrSectionBounds)
	}

	relocs := make([]Relocation, 0, count)
	for i := uint32(0); i < count; i++ {
		typ, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		rel := Relocation{Type: RelocType(typ)}
		if rel.Offset, err = r.ReadU64(); err != nil {
			return 0, nil, err
		}
		if rel.Index, err = r.ReadU32(); err != nil {
			return 0, nil, err
		}
		if rel.Type.HasAddend() {
			if rel.Addend, err = r.ReadS64(); err != nil {
				return 0, nil, err
			}
		}
		relocs = append(relocs, rel)
	}
	return target, relocs, nil
}
