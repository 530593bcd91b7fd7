package debuginfo

import (
	"debug/dwarf"
	"encoding/binary"
)

// DWARF 5 unit types that carry extra header fields.
const (
	unitTypeType         = 0x02
	unitTypeSkeleton     = 0x04
	unitTypeSplitCompile = 0x05
	unitTypeSplitType    = 0x06
)

// Data is an open DWARF reader together with the offset of the first entry
// of every unit in .debug_info. The offsets let a walk resume at the next
// unit when one unit's entries fail to decode.
type Data struct {
	*dwarf.Data

	Units []dwarf.Offset
}

// UnitOffsets scans the unit headers of a little-endian .debug_info section
// and returns the offset of each unit's first entry. Scanning stops at the
// first header that does not fit in info.
func UnitOffsets(info []byte) []dwarf.Offset {
	le := binary.LittleEndian

	var out []dwarf.Offset
	for off := uint64(0); off+4 <= uint64(len(info)); {
		length := uint64(le.Uint32(info[off:]))
		off += 4

		offsetSize := uint64(4)
		switch {
		case length == 0xffffffff:
			if off+8 > uint64(len(info)) {
				return out
			}
			length = le.Uint64(info[off:])
			off += 8
			offsetSize = 8
		case length >= 0xfffffff0:
			return out
		}

		next := off + length
		if next < off || next > uint64(len(info)) || length < 2 {
			return out
		}

		version := le.Uint16(info[off:])
		header := uint64(2)
		if version >= 5 {
			if length < 3 {
				return out
			}
			// unit_type, address_size, debug_abbrev_offset
			header += 2 + offsetSize
			switch info[off+2] {
			case unitTypeSkeleton, unitTypeSplitCompile:
				header += 8
			case unitTypeType, unitTypeSplitType:
				header += 8 + offsetSize
			}
		} else {
			// debug_abbrev_offset, address_size
			header += offsetSize + 1
		}
		if header > length {
			return out
		}

		out = append(out, dwarf.Offset(off+header))
		off = next
	}
	return out
}
