package position

import "sort"

// CodePoint attributes one code address to a source position. Line 0 means
// the address has no attributable source line. Column 0 is the left edge.
type CodePoint struct {
	Path    string
	Address uint64
	Line    int32
	Column  int32
}

// Table is an address-ordered set of code points with one point per
// address. Inserting at an occupied address replaces the earlier point.
type Table struct {
	points map[uint64]CodePoint
	sorted []uint64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{points: make(map[uint64]CodePoint)}
}

// Insert stores p at p.Address, replacing any point already there.
func (t *Table) Insert(p CodePoint) {
	if _, ok := t.points[p.Address]; !ok {
		t.sorted = nil
	}
	t.points[p.Address] = p
}

// Get returns the point stored at addr.
func (t *Table) Get(addr uint64) (CodePoint, bool) {
	p, ok := t.points[addr]
	return p, ok
}

// Len returns the number of addresses in the table.
func (t *Table) Len() int {
	return len(t.points)
}

// Points returns every point in ascending address order.
func (t *Table) Points() []CodePoint {
	keys := t.keys()
	out := make([]CodePoint, len(keys))
	for i, k := range keys {
		out[i] = t.points[k]
	}
	return out
}

// Each calls fn for every point in ascending address order until fn
// returns false.
func (t *Table) Each(fn func(CodePoint) bool) {
	for _, k := range t.keys() {
		if !fn(t.points[k]) {
			return
		}
	}
}

func (t *Table) keys() []uint64 {
	if t.sorted == nil || len(t.sorted) != len(t.points) {
		t.sorted = make([]uint64, 0, len(t.points))
		for k := range t.points {
			t.sorted = append(t.sorted, k)
		}
		sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i] < t.sorted[j] })
	}
	return t.sorted
}
