package relocate

import (
	"encoding/binary"
	"sort"

	"github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/wasm"
)

// Kind classifies a relocation for resolution.
type Kind uint8

const (
	// KindAbsolute relocations store symbol address plus addend in a fixed
	// width field.
	KindAbsolute Kind = iota
	// KindOther covers every relocation the resolver does not apply.
	KindOther
)

func (k Kind) String() string {
	if k == KindAbsolute {
		return "absolute"
	}
	return "other"
}

// Classify maps a WebAssembly relocation type to its Kind.
func Classify(t wasm.RelocType) Kind {
	switch t {
	case wasm.RelocMemoryAddrI32, wasm.RelocMemoryAddrI64,
		wasm.RelocFunctionOffsetI32, wasm.RelocFunctionOffsetI64,
		wasm.RelocSectionOffsetI32, wasm.RelocGlobalIndexI32:
		return KindAbsolute
	}
	return KindOther
}

// Entry is a relocation as seen by the resolver.
type Entry struct {
	Offset    uint64
	Addend    int64
	Symbol    uint32
	HasSymbol bool
	Kind      Kind
	Type      wasm.RelocType
}

// Entries converts the object's relocations for sec into resolver entries.
func Entries(obj *wasm.Object, sec *wasm.Section) []Entry {
	relocs := obj.Relocations(sec)
	entries := make([]Entry, 0, len(relocs))
	for _, r := range relocs {
		entries = append(entries, Entry{
			Offset:    r.Offset,
			Addend:    r.Addend,
			Symbol:    r.Index,
			HasSymbol: true,
			Kind:      Classify(r.Type),
			Type:      r.Type,
		})
	}
	return entries
}

// SymbolTable resolves symbol indices to addresses.
type SymbolTable interface {
	SymbolAddress(index uint32) (uint64, bool)
}

// Correction is the resolved value stored at one section offset.
type Correction struct {
	Value uint64
	Width int
}

// Map holds the resolved corrections of one section keyed by byte offset.
// It is read-only once Resolve returns.
type Map struct {
	corrections map[uint64]Correction
	section     string
}

// Resolve builds the correction map for section from its relocation
// entries. Only absolute relocations are supported; a second relocation at
// an offset already in the map is rejected.
func Resolve(section string, entries []Entry, symbols SymbolTable) (*Map, error) {
	m := &Map{
		section:     section,
		corrections: make(map[uint64]Correction, len(entries)),
	}

	for _, e := range entries {
		if e.Kind != KindAbsolute {
			return nil, errors.UnsupportedRelocation(section, e.Offset, e.Type)
		}

		value := uint64(e.Addend)
		if e.HasSymbol {
			addr, ok := symbols.SymbolAddress(e.Symbol)
			if !ok {
				return nil, errors.UnresolvedSymbol(section, e.Offset, e.Symbol)
			}
			// wraps on overflow
			value = addr + uint64(e.Addend)
		}

		if _, dup := m.corrections[e.Offset]; dup {
			return nil, errors.DuplicateRelocation(section, e.Offset)
		}

		width := e.Type.Width()
		if width == 0 {
			width = 4
		}
		m.corrections[e.Offset] = Correction{Value: value, Width: width}
	}

	return m, nil
}

// Section returns the name of the section the map belongs to.
func (m *Map) Section() string {
	return m.section
}

// Len returns the number of corrections.
func (m *Map) Len() int {
	return len(m.corrections)
}

// Lookup returns the correction recorded at offset.
func (m *Map) Lookup(offset uint64) (Correction, bool) {
	c, ok := m.corrections[offset]
	return c, ok
}

// Value returns the value a reader should see at offset: the correction if
// one exists there, raw otherwise. Corrections replace the raw value.
func (m *Map) Value(offset, raw uint64) uint64 {
	if c, ok := m.corrections[offset]; ok {
		return c.Value
	}
	return raw
}

// Offsets returns the corrected offsets in ascending order.
func (m *Map) Offsets() []uint64 {
	offsets := make([]uint64, 0, len(m.corrections))
	for off := range m.corrections {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// Apply returns a copy of data with every correction written over the
// placeholder bytes at its offset. data itself is not modified.
func (m *Map) Apply(data []byte) ([]byte, error) {
	if len(m.corrections) == 0 {
		return data, nil
	}

	out := make([]byte, len(data))
	copy(out, data)

	for off, c := range m.corrections {
		end := off + uint64(c.Width)
		if end > uint64(len(out)) || end < off {
			return nil, errors.New(errors.PhaseRelocate, errors.KindMalformedContainer).
				Path(m.section).
				Value(off).
				Detail("relocation at offset 0x%08x extends past section end 0x%08x", off, len(out)).
				Build()
		}
		switch c.Width {
		case 8:
			binary.LittleEndian.PutUint64(out[off:end], c.Value)
		default:
			binary.LittleEndian.PutUint32(out[off:end], uint32(c.Value))
		}
	}
	return out, nil
}
