package position_test

import (
	"errors"
	"math"
	"testing"

	"github.com/wippyai/wasm2map/debuginfo"
	wasmerrors "github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/internal/dwarftest"
	"github.com/wippyai/wasm2map/position"
)

func open(t *testing.T, units ...dwarftest.Unit) *debuginfo.Data {
	t.Helper()
	return openSections(t, dwarftest.Build(units...))
}

func openSections(t *testing.T, secs *dwarftest.Sections) *debuginfo.Data {
	t.Helper()
	d, err := debuginfo.Open(map[string][]byte{
		".debug_abbrev": secs.Abbrev,
		".debug_info":   secs.Info,
		".debug_line":   secs.Line,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return d
}

func simpleUnit(file string, rows ...dwarftest.Row) dwarftest.Unit {
	return dwarftest.Unit{
		Name:    file,
		CompDir: "/src",
		Files:   []dwarftest.File{{Name: file}},
		Rows:    rows,
	}
}

func TestBuild(t *testing.T) {
	d := open(t, simpleUnit("main.c",
		dwarftest.Row{Address: 0, Line: 3, Column: 5, File: 1},
		dwarftest.Row{Address: 2, Line: 4, Column: 0, File: 1},
		dwarftest.Row{Address: 6, Line: 4, File: 1, EndSequence: true},
	))

	table, err := position.Build(100, d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []position.CodePoint{
		{Path: "/src/main.c", Address: 100, Line: 3, Column: 5},
		{Path: "/src/main.c", Address: 102, Line: 4, Column: 0},
		{Path: "/src/main.c", Address: 105, Line: 4, Column: 0},
	}
	got := table.Points()
	if len(got) != len(want) {
		t.Fatalf("points = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildEndSequenceStaysInsideFunction(t *testing.T) {
	d := open(t, simpleUnit("a.c",
		dwarftest.Row{Address: 0, Line: 1, Column: 1, File: 1},
		dwarftest.Row{Address: 4, Line: 2, Column: 1, File: 1, EndSequence: true},
		dwarftest.Row{Address: 4, Line: 10, Column: 1, File: 1},
		dwarftest.Row{Address: 9, Line: 10, Column: 1, File: 1, EndSequence: true},
	))

	table, err := position.Build(0, d)
	if err != nil {
		t.Fatal(err)
	}

	if p, ok := table.Get(3); !ok || p.Line != 2 {
		t.Errorf("end of first sequence = %+v, %v; want line 2 at 3", p, ok)
	}
	if p, ok := table.Get(4); !ok || p.Line != 10 {
		t.Errorf("start of second sequence = %+v, %v; want line 10 at 4", p, ok)
	}
	if _, ok := table.Get(9); ok {
		t.Error("end of sequence produced a point past the last instruction")
	}
	if table.Len() != 4 {
		t.Errorf("Len = %d, want 4", table.Len())
	}
}

// Two units attributing the same address: the unit walked last wins.
func TestBuildLastWriteWins(t *testing.T) {
	d := open(t,
		simpleUnit("first.c", dwarftest.Row{Address: 8, Line: 1, Column: 1, File: 1}),
		simpleUnit("second.c", dwarftest.Row{Address: 8, Line: 7, Column: 2, File: 1}),
	)

	table, err := position.Build(0, d)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := table.Get(8)
	if !ok {
		t.Fatal("no point at 8")
	}
	if p.Path != "/src/second.c" || p.Line != 7 || p.Column != 2 {
		t.Errorf("point = %+v, want second.c:7:2", p)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
}

func TestBuildSkipsUndecodableUnit(t *testing.T) {
	bad := dwarftest.Unit{
		Name: "bad.c",
		// unit_length 2, line table version 9
		Raw: []byte{2, 0, 0, 0, 9, 0},
	}
	d := open(t, bad, simpleUnit("good.c", dwarftest.Row{Address: 1, Line: 2, Column: 3, File: 1}))

	b := position.NewBuilder(0)
	if err := b.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if b.Skipped() != 1 || b.Units() != 1 {
		t.Errorf("skipped = %d, units = %d; want 1, 1", b.Skipped(), b.Units())
	}
	if p, ok := b.Table().Get(1); !ok || p.Path != "/src/good.c" {
		t.Errorf("point = %+v, %v", p, ok)
	}
}

func TestBuildSkipsUnitWithBadRootEntry(t *testing.T) {
	secs := dwarftest.Build(
		simpleUnit("broken.c", dwarftest.Row{Address: 0, Line: 1, Column: 1, File: 1}),
		simpleUnit("good.c", dwarftest.Row{Address: 4, Line: 2, Column: 3, File: 1}),
	)
	// abbreviation code of the first unit's root entry, right after its
	// 11-byte header
	secs.Info[11] = 0x7f
	d := openSections(t, secs)

	b := position.NewBuilder(0)
	if err := b.Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if b.Skipped() != 1 || b.Units() != 1 {
		t.Errorf("skipped = %d, units = %d; want 1, 1", b.Skipped(), b.Units())
	}
	if p, ok := b.Table().Get(4); !ok || p.Path != "/src/good.c" || p.Line != 2 {
		t.Errorf("point = %+v, %v", p, ok)
	}
	if _, ok := b.Table().Get(0); ok {
		t.Error("point from the broken unit")
	}
}

func TestBuildLineZero(t *testing.T) {
	d := open(t, simpleUnit("gen.c", dwarftest.Row{Address: 0, Line: 0, File: 1}))

	table, err := position.Build(0, d)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := table.Get(0); !ok || p.Line != 0 {
		t.Errorf("point = %+v, %v; want line 0", p, ok)
	}
}

func TestBuildOverflow(t *testing.T) {
	d := open(t, simpleUnit("big.c", dwarftest.Row{Address: 0, Line: math.MaxInt32 + 1, File: 1}))

	_, err := position.Build(0, d)
	if !errors.Is(err, wasmerrors.ErrOverflow) {
		t.Fatalf("error = %v, want overflow", err)
	}
}

func TestBuildResolvesDirectories(t *testing.T) {
	d := open(t, dwarftest.Unit{
		Name:    "lib.c",
		CompDir: "/work",
		Dirs:    []string{"include", "/abs/dir"},
		Files: []dwarftest.File{
			{Name: "a.h", Dir: 1},
			{Name: "b.h", Dir: 2},
			{Name: "../c.c", Dir: 0},
		},
		Rows: []dwarftest.Row{
			{Address: 0, Line: 1, File: 1},
			{Address: 1, Line: 1, File: 2},
			{Address: 2, Line: 1, File: 3},
		},
	})

	table, err := position.Build(0, d)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"/work/include/a.h", "/abs/dir/b.h", "/c.c"}
	for i, p := range table.Points() {
		if p.Path != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, p.Path, want[i])
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{`C:\src\main.c`, "C:/src/main.c"},
		{"/a/./b/../c.c", "/a/c.c"},
		{`dir\sub/../x.c`, "dir/x.c"},
	}
	for _, tt := range tests {
		if got := position.NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableOrder(t *testing.T) {
	table := position.NewTable()
	for _, addr := range []uint64{30, 10, 20} {
		table.Insert(position.CodePoint{Address: addr, Line: 1})
	}
	table.Insert(position.CodePoint{Address: 5, Line: 1})

	var got []uint64
	table.Each(func(p position.CodePoint) bool {
		got = append(got, p.Address)
		return true
	})
	want := []uint64{5, 10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
