package relocate_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	wasmerrors "github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/relocate"
	"github.com/wippyai/wasm2map/wasm"
	"github.com/wippyai/wasm2map/wasm/wasmtest"
)

type symbolTable map[uint32]uint64

func (s symbolTable) SymbolAddress(index uint32) (uint64, bool) {
	addr, ok := s[index]
	return addr, ok
}

func absolute(offset uint64, symbol uint32, addend int64) relocate.Entry {
	return relocate.Entry{
		Offset:    offset,
		Symbol:    symbol,
		HasSymbol: true,
		Addend:    addend,
		Kind:      relocate.KindAbsolute,
		Type:      wasm.RelocFunctionOffsetI32,
	}
}

func TestResolve(t *testing.T) {
	symbols := symbolTable{0: 0x100, 1: math.MaxUint64}

	tests := []struct {
		name   string
		entry  relocate.Entry
		offset uint64
		want   uint64
	}{
		{"symbol plus addend", absolute(4, 0, 0x10), 4, 0x110},
		{"negative addend", absolute(8, 0, -1), 8, 0xff},
		{"wrapping", absolute(0, 1, 2), 0, 1},
		{
			name: "no symbol",
			entry: relocate.Entry{
				Offset: 12,
				Addend: 42,
				Kind:   relocate.KindAbsolute,
				Type:   wasm.RelocSectionOffsetI32,
			},
			offset: 12,
			want:   42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := relocate.Resolve(".debug_info", []relocate.Entry{tt.entry}, symbols)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			c, ok := m.Lookup(tt.offset)
			if !ok {
				t.Fatalf("no correction at offset %d", tt.offset)
			}
			if c.Value != tt.want {
				t.Errorf("Value = %#x, want %#x", c.Value, tt.want)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	symbols := symbolTable{0: 0x100}

	tests := []struct {
		name    string
		entries []relocate.Entry
		want    error
	}{
		{
			name: "unsupported kind",
			entries: []relocate.Entry{{
				Offset: 4,
				Kind:   relocate.KindOther,
				Type:   wasm.RelocTableIndexSLEB,
			}},
			want: wasmerrors.ErrUnsupportedRelocation,
		},
		{
			name:    "invalid symbol",
			entries: []relocate.Entry{absolute(4, 7, 0)},
			want:    wasmerrors.ErrUnresolvedSymbol,
		},
		{
			name:    "duplicate offset",
			entries: []relocate.Entry{absolute(4, 0, 0), absolute(4, 0, 8)},
			want:    wasmerrors.ErrDuplicateRelocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := relocate.Resolve(".debug_line", tt.entries, symbols)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	absoluteTypes := []wasm.RelocType{
		wasm.RelocMemoryAddrI32,
		wasm.RelocMemoryAddrI64,
		wasm.RelocFunctionOffsetI32,
		wasm.RelocFunctionOffsetI64,
		wasm.RelocSectionOffsetI32,
		wasm.RelocGlobalIndexI32,
	}
	for _, typ := range absoluteTypes {
		if relocate.Classify(typ) != relocate.KindAbsolute {
			t.Errorf("Classify(%s) = other, want absolute", typ)
		}
	}

	for _, typ := range []wasm.RelocType{wasm.RelocFunctionIndexLEB, wasm.RelocMemoryAddrSLEB, wasm.RelocTableIndexI32} {
		if relocate.Classify(typ) != relocate.KindOther {
			t.Errorf("Classify(%s) = absolute, want other", typ)
		}
	}
}

func TestMapValue(t *testing.T) {
	m, err := relocate.Resolve(".debug_info", []relocate.Entry{absolute(4, 0, 0)}, symbolTable{0: 0x20})
	if err != nil {
		t.Fatal(err)
	}

	if got := m.Value(4, 0xdead); got != 0x20 {
		t.Errorf("Value at relocated offset = %#x, want 0x20", got)
	}
	if got := m.Value(8, 0xdead); got != 0xdead {
		t.Errorf("Value at plain offset = %#x, want raw value", got)
	}
}

func TestMapApply(t *testing.T) {
	entries := []relocate.Entry{
		absolute(0, 0, 0),
		{
			Offset: 4, Symbol: 1, HasSymbol: true,
			Kind: relocate.KindAbsolute, Type: wasm.RelocMemoryAddrI64,
		},
	}
	m, err := relocate.Resolve(".debug_info", entries, symbolTable{0: 0x11223344, 1: 0x0102030405060708})
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 12)
	out, err := m.Apply(data)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := binary.LittleEndian.Uint32(out[0:4]); got != 0x11223344 {
		t.Errorf("i32 field = %#x", got)
	}
	if got := binary.LittleEndian.Uint64(out[4:12]); got != 0x0102030405060708 {
		t.Errorf("i64 field = %#x", got)
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("input modified at %d", i)
		}
	}
	if got := m.Offsets(); len(got) != 2 || got[0] != 0 || got[1] != 4 {
		t.Errorf("Offsets = %v", got)
	}
}

func TestMapApplyOutOfRange(t *testing.T) {
	m, err := relocate.Resolve(".debug_info", []relocate.Entry{absolute(6, 0, 0)}, symbolTable{0: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Apply(make([]byte, 8)); !errors.Is(err, wasmerrors.ErrMalformedContainer) {
		t.Errorf("Apply error = %v, want malformed container", err)
	}
}

func TestEntriesFromObject(t *testing.T) {
	b := wasmtest.New().Functions(2)
	debugIndex := b.Len()
	b.Custom(".debug_info", make([]byte, 8))
	b.Linking(
		wasm.Symbol{Kind: wasm.SymbolFunction, Index: 0, Name: "a"},
		wasm.Symbol{Kind: wasm.SymbolFunction, Index: 1, Name: "b"},
	)
	b.Reloc(".debug_info", debugIndex, wasm.Relocation{
		Type:   wasm.RelocFunctionOffsetI32,
		Offset: 4,
		Index:  1,
		Addend: 1,
	})

	obj, err := wasm.ParseObject(b.Bytes())
	if err != nil {
		t.Fatalf("ParseObject: %v", err)
	}
	sec := obj.SectionByName(".debug_info")
	entries := relocate.Entries(obj, sec)
	if len(entries) != 1 || entries[0].Kind != relocate.KindAbsolute {
		t.Fatalf("entries = %+v", entries)
	}

	m, err := relocate.Resolve(sec.Name, entries, obj)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out, err := m.Apply(sec.Data)
	if err != nil {
		t.Fatal(err)
	}

	want := uint32(wasmtest.CodeBodyOffset(2, 1) + 1)
	if got := binary.LittleEndian.Uint32(out[4:8]); got != want {
		t.Errorf("relocated value = %d, want %d", got, want)
	}
}
