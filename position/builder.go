package position

import (
	"debug/dwarf"
	"io"
	"math"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm2map/debuginfo"
	"github.com/wippyai/wasm2map/errors"
)

// Builder collects code points from the line programs of one or more DWARF
// readers into a single Table.
type Builder struct {
	table *Table

	// CodeOffset is the file offset of the code section contents. Line
	// program addresses are relative to it.
	CodeOffset uint64

	units   int
	skipped int
}

// NewBuilder returns a builder for a binary whose code section contents
// start at codeOffset.
func NewBuilder(codeOffset uint64) *Builder {
	return &Builder{
		CodeOffset: codeOffset,
		table:      NewTable(),
	}
}

// Build walks every compile unit of the given readers and returns the
// resulting table.
func Build(codeOffset uint64, readers ...*debuginfo.Data) (*Table, error) {
	b := NewBuilder(codeOffset)
	for _, d := range readers {
		if err := b.Add(d); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// Table returns the table built so far.
func (b *Builder) Table() *Table {
	return b.table
}

// Units returns the number of compile units whose rows were added.
func (b *Builder) Units() int {
	return b.units
}

// Skipped returns the number of compile units that failed to decode.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Add walks the line program of every compile unit in d. A unit whose root
// entry or line program cannot be decoded is skipped and logged. Points
// from a unit are inserted in row order once the whole unit has decoded, so
// later rows win over earlier ones at the same address.
func (b *Builder) Add(d *debuginfo.Data) error {
	if len(d.Units) == 0 {
		return b.walk(d.Data)
	}

	r := d.Reader()
	for _, off := range d.Units {
		r.Seek(off)
		e, err := r.Next()
		if err != nil {
			b.skip(zap.Uint64("offset", uint64(off)), err)
			continue
		}
		if e == nil {
			continue
		}
		if err := b.entry(d.Data, e); err != nil {
			return err
		}
	}
	return nil
}

// walk reads units in order when their offsets are unknown. A decode error
// ends the walk since the next unit cannot be located.
func (b *Builder) walk(d *dwarf.Data) error {
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			b.skip(zap.Uint64("offset", uint64(r.Offset())), err)
			return nil
		}
		if e == nil {
			return nil
		}
		r.SkipChildren()
		if err := b.entry(d, e); err != nil {
			return err
		}
	}
}

// entry adds the rows of a unit's root entry. Entries that are not compile
// units are ignored.
func (b *Builder) entry(d *dwarf.Data, e *dwarf.Entry) error {
	switch e.Tag {
	case dwarf.TagCompileUnit, dwarf.TagPartialUnit, dwarf.TagSkeletonUnit:
	default:
		return nil
	}

	name, _ := e.Val(dwarf.AttrName).(string)
	points, err := b.unit(d, e)
	if err != nil {
		if _, fatal := err.(*errors.Error); fatal {
			return err
		}
		b.skip(zap.String("unit", name), err)
		return nil
	}

	for _, p := range points {
		b.table.Insert(p)
	}
	b.units++
	Logger().Debug("compile unit",
		zap.String("unit", name),
		zap.Int("rows", len(points)))
	return nil
}

func (b *Builder) skip(where zap.Field, err error) {
	b.skipped++
	Logger().Warn("skipping compile unit", where, zap.Error(err))
}

// unit decodes the rows of one compile unit. Decoding failures come back as
// plain errors; overflow is returned as *errors.Error and aborts the build.
func (b *Builder) unit(d *dwarf.Data, cu *dwarf.Entry) ([]CodePoint, error) {
	lr, err := d.LineReader(cu)
	if err != nil {
		return nil, err
	}
	if lr == nil {
		return nil, nil
	}

	var (
		points []CodePoint
		row    dwarf.LineEntry
	)
	for {
		if err := lr.Next(&row); err != nil {
			if err == io.EOF {
				return points, nil
			}
			return nil, err
		}

		p, err := b.point(&row)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
}

func (b *Builder) point(row *dwarf.LineEntry) (CodePoint, error) {
	if row.Address > math.MaxInt64-b.CodeOffset {
		return CodePoint{}, errors.Overflow(errors.PhasePosition, row.Address, "int64 address")
	}
	addr := row.Address + b.CodeOffset

	// An end-of-sequence row addresses the first byte past the sequence;
	// pull it back onto the last instruction.
	if row.EndSequence && addr > 0 {
		addr--
	}

	if row.Line < 0 || row.Line > math.MaxInt32 {
		return CodePoint{}, errors.Overflow(errors.PhasePosition, row.Line, "int32 line")
	}
	if row.Column < 0 || row.Column > math.MaxInt32 {
		return CodePoint{}, errors.Overflow(errors.PhasePosition, row.Column, "int32 column")
	}

	var file string
	if row.File != nil {
		file = NormalizePath(row.File.Name)
	}

	return CodePoint{
		Path:    file,
		Address: addr,
		Line:    int32(row.Line),
		Column:  int32(row.Column),
	}, nil
}

// NormalizePath converts backslashes to forward slashes and cleans the
// result.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}
