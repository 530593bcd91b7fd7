package sourcemap

import "fmt"

// Mapping is one decoded segment with absolute, zero-based positions.
type Mapping struct {
	GeneratedLine   int64
	GeneratedColumn int64
	Source          int64
	Line            int64
	Column          int64
	HasSource       bool
}

// DecodeMappings decodes a mappings string into absolute positions.
// Segments of one field carry no source; segments of four or five fields
// carry a source position. A fifth field (name index) is accepted and
// ignored.
func DecodeMappings(s string) ([]Mapping, error) {
	var (
		out  []Mapping
		cur  Mapping
		line int64
	)

	for pos := 0; pos < len(s); {
		switch s[pos] {
		case ';':
			line++
			cur.GeneratedColumn = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		var fields [5]int64
		n := 0
		for pos < len(s) && s[pos] != ',' && s[pos] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("mappings: segment at %d has too many fields", pos)
			}
			v, used, err := DecodeVLQ(s[pos:])
			if err != nil {
				return nil, fmt.Errorf("mappings: at %d: %w", pos, err)
			}
			fields[n] = v
			n++
			pos += used
		}

		switch n {
		case 1:
			cur.GeneratedColumn += fields[0]
			out = append(out, Mapping{GeneratedLine: line, GeneratedColumn: cur.GeneratedColumn})
		case 4, 5:
			cur.GeneratedColumn += fields[0]
			cur.Source += fields[1]
			cur.Line += fields[2]
			cur.Column += fields[3]
			m := cur
			m.GeneratedLine = line
			m.HasSource = true
			out = append(out, m)
		default:
			return nil, fmt.Errorf("mappings: segment before %d has %d fields", pos, n)
		}
	}
	return out, nil
}
