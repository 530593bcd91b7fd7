package wasm2map_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/wippyai/wasm2map"
	wasmerrors "github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/internal/dwarftest"
	"github.com/wippyai/wasm2map/sourcemap"
	"github.com/wippyai/wasm2map/wasm"
	"github.com/wippyai/wasm2map/wasm/wasmtest"
)

func mainUnit() dwarftest.Unit {
	return dwarftest.Unit{
		Name:    "main.c",
		CompDir: "/src",
		Files:   []dwarftest.File{{Name: "main.c"}},
		Rows: []dwarftest.Row{
			{Address: 0, Line: 3, Column: 5, File: 1},
			{Address: 2, Line: 4, Column: 0, File: 1},
			{Address: 3, Line: 4, File: 1, EndSequence: true},
		},
	}
}

// object builds a two-function binary whose line program addresses are
// relocated against the first function, as a linker-less object has them.
func object(suffix string, relocate bool, units ...dwarftest.Unit) []byte {
	secs := dwarftest.Build(units...)

	b := wasmtest.New().Functions(2)
	lineIndex := -1
	for _, s := range secs.Named() {
		if s.Name == ".debug_line" {
			lineIndex = b.Len()
		}
		b.Custom(s.Name+suffix, s.Data)
	}
	if !relocate {
		return b.Bytes()
	}

	b.Linking(wasm.Symbol{Kind: wasm.SymbolFunction, Index: 0, Name: "main"})
	var rows []dwarftest.Row
	for _, u := range units {
		rows = append(rows, u.Rows...)
	}
	relocs := make([]wasm.Relocation, len(secs.AddressOffsets))
	for i, off := range secs.AddressOffsets {
		relocs[i] = wasm.Relocation{
			Type:   wasm.RelocFunctionOffsetI32,
			Offset: off,
			Index:  0,
			Addend: int64(rows[i].Address),
		}
	}
	b.Reloc(".debug_line", lineIndex, relocs...)
	return b.Bytes()
}

func codeOffset(t *testing.T, data []byte) uint64 {
	t.Helper()
	obj, err := wasm.ParseObject(data)
	if err != nil {
		t.Fatal(err)
	}
	return obj.SectionByID(wasm.SectionCode).DataOffset
}

func TestSessionBuild(t *testing.T) {
	data := object("", true, mainUnit())

	s, err := wasm2map.New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	offset, err := s.CodeOffset()
	if err != nil {
		t.Fatal(err)
	}
	if want := codeOffset(t, data); offset != want {
		t.Fatalf("CodeOffset = %d, want %d", offset, want)
	}

	table, err := s.Positions()
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	body := offset + wasmtest.CodeBodyOffset(2, 0)
	if p, ok := table.Get(body); !ok || p.Line != 3 || p.Column != 5 || p.Path != "/src/main.c" {
		t.Errorf("point at body start = %+v, %v", p, ok)
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}

	m, err := s.Build(wasm2map.BuildOptions{File: "app.wasm"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Sources) != 1 || m.Sources[0] != "/src/main.c" {
		t.Errorf("Sources = %v", m.Sources)
	}

	got, err := sourcemap.DecodeMappings(m.Mappings)
	if err != nil {
		t.Fatal(err)
	}
	want := []sourcemap.Mapping{
		{GeneratedColumn: int64(body), Line: 2, Column: 4, HasSource: true},
		{GeneratedColumn: int64(body) + 2, Line: 3, Column: 0, HasSource: true},
	}
	if len(got) != len(want) {
		t.Fatalf("mappings = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mapping[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	raw, err := m.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var artifact struct {
		Version int    `json:"version"`
		File    string `json:"file"`
	}
	if err := json.Unmarshal(raw, &artifact); err != nil {
		t.Fatalf("artifact is not JSON: %v\n%s", err, raw)
	}
	if artifact.Version != 3 || artifact.File != "app.wasm" {
		t.Errorf("artifact = %+v", artifact)
	}
}

func TestSessionPositionsCached(t *testing.T) {
	s, err := wasm2map.New(object("", true, mainUnit()))
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Positions()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Positions()
	if a != b {
		t.Error("Positions rebuilt the table")
	}
}

func TestSessionBundleAndLibraryRoots(t *testing.T) {
	unit := dwarftest.Unit{
		Name:  "app",
		Files: []dwarftest.File{{Name: "app.c"}, {Name: "std:alloc.c"}},
		Rows: []dwarftest.Row{
			{Address: 0, Line: 1, Column: 1, File: 1},
			{Address: 1, Line: 7, Column: 2, File: 2},
			{Address: 2, Line: 7, File: 2, EndSequence: true},
		},
	}
	s, err := wasm2map.New(object("", false, unit), wasm2map.WithLibraryRoots("std"))
	if err != nil {
		t.Fatal(err)
	}

	reads := map[string]int{}
	m, err := s.Build(wasm2map.BuildOptions{
		BundleSources: true,
		ReadFile: func(name string) ([]byte, error) {
			reads[name]++
			if name == "app.c" {
				return []byte("int main() {}\n"), nil
			}
			return nil, os.ErrNotExist
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Sources) != 2 || m.Sources[0] != "app.c" || m.Sources[1] != "alloc.c" {
		t.Fatalf("Sources = %v", m.Sources)
	}
	if len(m.SourcesContent) != 2 || m.SourcesContent[0] == nil || *m.SourcesContent[0] != "int main() {}\n" {
		t.Errorf("SourcesContent[0] = %v", m.SourcesContent)
	}
	if m.SourcesContent[1] != nil {
		t.Errorf("library source bundled: %q", *m.SourcesContent[1])
	}
	if reads["std:alloc.c"] != 0 || reads["alloc.c"] != 0 {
		t.Errorf("library source read: %v", reads)
	}
}

func TestSessionDWOParent(t *testing.T) {
	dwo := object(".dwo", false, mainUnit())
	skeleton := object("", false, dwarftest.Unit{
		Name:    "skel.c",
		CompDir: "/skel",
		Files:   []dwarftest.File{{Name: "skel.c"}},
		Rows: []dwarftest.Row{
			{Address: 10, Line: 9, Column: 1, File: 1},
			{Address: 11, Line: 9, File: 1, EndSequence: true},
		},
	})

	s, err := wasm2map.New(dwo, wasm2map.WithDWOParent(skeleton))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table, err := s.Positions()
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}

	offset, _ := s.CodeOffset()
	if p, ok := table.Get(offset); !ok || p.Path != "/src/main.c" {
		t.Errorf("dwo point = %+v, %v", p, ok)
	}
	if p, ok := table.Get(offset + 10); !ok || p.Path != "/skel/skel.c" {
		t.Errorf("parent point = %+v, %v", p, ok)
	}
}

func TestSessionDWOParentWithoutDebugInfo(t *testing.T) {
	dwo := object(".dwo", false, mainUnit())
	s, err := wasm2map.New(dwo, wasm2map.WithDWOParent(wasmtest.New().Functions(1).Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	table, err := s.Positions()
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if table.Len() == 0 {
		t.Error("no points from the split object")
	}
}

func TestSessionInvalidParent(t *testing.T) {
	_, err := wasm2map.New(object("", false, mainUnit()), wasm2map.WithDWOParent([]byte("ELF")))
	if !errors.Is(err, wasmerrors.ErrMalformedContainer) {
		t.Fatalf("error = %v, want malformed container", err)
	}
}

func TestSessionErrors(t *testing.T) {
	t.Run("not wasm", func(t *testing.T) {
		_, err := wasm2map.New([]byte("garbage"))
		if !errors.Is(err, wasmerrors.ErrMalformedContainer) {
			t.Fatalf("error = %v", err)
		}
	})

	t.Run("no code section", func(t *testing.T) {
		secs := dwarftest.Build(mainUnit())
		b := wasmtest.New()
		for _, sec := range secs.Named() {
			b.Custom(sec.Name, sec.Data)
		}
		s, err := wasm2map.New(b.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Build(wasm2map.BuildOptions{}); !errors.Is(err, wasmerrors.ErrMissingSection) {
			t.Fatalf("error = %v, want missing section", err)
		}
	})

	t.Run("no debug info", func(t *testing.T) {
		s, err := wasm2map.New(wasmtest.New().Functions(1).Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Positions(); !errors.Is(err, wasmerrors.ErrMissingSection) {
			t.Fatalf("error = %v, want missing section", err)
		}
	})
}
