// Package dwarftest assembles minimal DWARF 4 sections (abbrev, info and
// line) for tests that drive the line-program walk without a compiler.
package dwarftest

import (
	"bytes"
	"encoding/binary"
)

// File is a file_names entry. Dir indexes Unit.Dirs plus one; zero means
// the compilation directory.
type File struct {
	Name string
	Dir  int
}

// Row is one emitted line-table row. File is one-based.
type Row struct {
	Address     uint32
	Line        int
	Column      int
	File        int
	EndSequence bool
}

// Unit is a compilation unit with its own line program.
type Unit struct {
	Name    string
	CompDir string
	Dirs    []string
	Files   []File
	Rows    []Row

	// Raw, when set, replaces the generated line program bytes for this
	// unit, header included.
	Raw []byte
}

// Sections holds the assembled section contents.
type Sections struct {
	Abbrev []byte
	Info   []byte
	Line   []byte

	// AddressOffsets holds, for every row in order, the offset within Line
	// of the DW_LNE_set_address operand. Relocation tests patch these.
	AddressOffsets []uint64

	// StmtListOffsets holds the offset within Info of each unit's
	// DW_AT_stmt_list value.
	StmtListOffsets []uint64
}

// Named returns the sections in file order, paired with their names.
func (s *Sections) Named() []struct {
	Name string
	Data []byte
} {
	return []struct {
		Name string
		Data []byte
	}{
		{".debug_abbrev", s.Abbrev},
		{".debug_info", s.Info},
		{".debug_line", s.Line},
	}
}

const (
	tagCompileUnit = 0x11
	attrName       = 0x03
	attrStmtList   = 0x10
	attrCompDir    = 0x1b
	formString     = 0x08
	formSecOffset  = 0x17

	lnsCopy        = 0x01
	lnsAdvanceLine = 0x03
	lnsSetFile     = 0x04
	lnsSetColumn   = 0x05
	lneEndSequence = 0x01
	lneSetAddress  = 0x02
)

var standardOpcodeLengths = []byte{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}

// Build assembles the sections for units. All units share one abbreviation
// table.
func Build(units ...Unit) *Sections {
	s := &Sections{Abbrev: abbrev()}

	var info, line bytes.Buffer
	for _, u := range units {
		stmtList := uint32(line.Len())

		var prog []byte
		if u.Raw != nil {
			prog = u.Raw
		} else {
			var offsets []uint64
			prog, offsets = program(u)
			for _, off := range offsets {
				s.AddressOffsets = append(s.AddressOffsets, uint64(stmtList)+off)
			}
		}
		line.Write(prog)

		var die bytes.Buffer
		die.WriteByte(1)
		cstring(&die, u.Name)
		cstring(&die, u.CompDir)
		stmtListAt := die.Len()
		u32(&die, stmtList)

		// unit_length, version 4, abbrev offset 0, address size 4
		header := 4 + 2 + 4 + 1
		s.StmtListOffsets = append(s.StmtListOffsets, uint64(info.Len()+header+stmtListAt))
		u32(&info, uint32(2+4+1+die.Len()))
		u16(&info, 4)
		u32(&info, 0)
		info.WriteByte(4)
		info.Write(die.Bytes())
	}

	s.Info = info.Bytes()
	s.Line = line.Bytes()
	return s
}

func abbrev() []byte {
	var b bytes.Buffer
	uleb(&b, 1)
	uleb(&b, tagCompileUnit)
	b.WriteByte(0)
	for _, spec := range [][2]uint64{
		{attrName, formString},
		{attrCompDir, formString},
		{attrStmtList, formSecOffset},
		{0, 0},
	} {
		uleb(&b, spec[0])
		uleb(&b, spec[1])
	}
	b.WriteByte(0)
	return b.Bytes()
}

// program encodes a version 4 line program and returns the offsets of the
// set_address operands relative to its start.
func program(u Unit) ([]byte, []uint64) {
	var hdr bytes.Buffer
	hdr.WriteByte(1)
	hdr.WriteByte(1)
	hdr.WriteByte(1)
	hdr.WriteByte(byte(0xfb)) // line_base -5
	hdr.WriteByte(14)
	hdr.WriteByte(byte(len(standardOpcodeLengths) + 1))
	hdr.Write(standardOpcodeLengths)
	for _, d := range u.Dirs {
		cstring(&hdr, d)
	}
	hdr.WriteByte(0)
	for _, f := range u.Files {
		cstring(&hdr, f.Name)
		uleb(&hdr, uint64(f.Dir))
		uleb(&hdr, 0)
		uleb(&hdr, 0)
	}
	hdr.WriteByte(0)

	// unit_length(4) version(2) header_length(4)
	progStart := 4 + 2 + 4 + hdr.Len()

	var ops bytes.Buffer
	var offsets []uint64
	line, column, file := 1, 0, 1
	for _, row := range u.Rows {
		ops.WriteByte(0)
		uleb(&ops, 5)
		ops.WriteByte(lneSetAddress)
		offsets = append(offsets, uint64(progStart+ops.Len()))
		u32(&ops, row.Address)

		if row.File != 0 && row.File != file {
			ops.WriteByte(lnsSetFile)
			uleb(&ops, uint64(row.File))
			file = row.File
		}
		if row.Line != line {
			ops.WriteByte(lnsAdvanceLine)
			sleb(&ops, int64(row.Line-line))
			line = row.Line
		}
		if row.Column != column {
			ops.WriteByte(lnsSetColumn)
			uleb(&ops, uint64(row.Column))
			column = row.Column
		}

		if row.EndSequence {
			ops.WriteByte(0)
			uleb(&ops, 1)
			ops.WriteByte(lneEndSequence)
			line, column, file = 1, 0, 1
			continue
		}
		ops.WriteByte(lnsCopy)
	}

	var out bytes.Buffer
	u32(&out, uint32(2+4+hdr.Len()+ops.Len()))
	u16(&out, 4)
	u32(&out, uint32(hdr.Len()))
	out.Write(hdr.Bytes())
	out.Write(ops.Bytes())
	return out.Bytes(), offsets
}

func cstring(b *bytes.Buffer, s string) {
	b.WriteString(s)
	b.WriteByte(0)
}

func u16(b *bytes.Buffer, v uint16) {
	b.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func u32(b *bytes.Buffer, v uint32) {
	b.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func uleb(b *bytes.Buffer, v uint64) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b.WriteByte(c)
		if v == 0 {
			return
		}
	}
}

func sleb(b *bytes.Buffer, v int64) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			b.WriteByte(c)
			return
		}
		b.WriteByte(c | 0x80)
	}
}
