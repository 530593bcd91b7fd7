package sourcemap

import (
	"io"
	"strconv"
)

// Version is the only source map version produced.
const Version = 3

// SourceMap is a version 3 source map. Every code point lives on generated
// line zero with its code address as the generated column.
type SourceMap struct {
	File       string
	SourceRoot string
	Mappings   string
	Names      []string
	Sources    []string

	// SourcesContent is parallel to Sources when sources are bundled, nil
	// otherwise. A nil element serializes as null.
	SourcesContent []*string

	Version int
}

// MarshalJSON renders the map with keys in a fixed order: version, file
// (omitted when empty), sourceRoot, names, sources, sourcesContent (only
// when bundling) and mappings.
func (m *SourceMap) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64+len(m.Mappings))

	buf = append(buf, `{"version":`...)
	buf = strconv.AppendInt(buf, int64(m.Version), 10)

	if m.File != "" {
		buf = append(buf, `,"file":`...)
		buf = AppendEscaped(buf, m.File)
	}

	buf = append(buf, `,"sourceRoot":`...)
	buf = AppendEscaped(buf, m.SourceRoot)

	buf = append(buf, `,"names":`...)
	buf = appendStrings(buf, m.Names)

	buf = append(buf, `,"sources":`...)
	buf = appendStrings(buf, m.Sources)

	if m.SourcesContent != nil {
		buf = append(buf, `,"sourcesContent":[`...)
		for i, c := range m.SourcesContent {
			if i > 0 {
				buf = append(buf, ',')
			}
			if c == nil {
				buf = append(buf, "null"...)
				continue
			}
			buf = AppendEscaped(buf, *c)
		}
		buf = append(buf, ']')
	}

	buf = append(buf, `,"mappings":`...)
	buf = AppendEscaped(buf, m.Mappings)
	buf = append(buf, '}')

	return buf, nil
}

// WriteTo writes the JSON form of the map to w.
func (m *SourceMap) WriteTo(w io.Writer) (int64, error) {
	data, _ := m.MarshalJSON()
	n, err := w.Write(data)
	return int64(n), err
}

func appendStrings(buf []byte, ss []string) []byte {
	buf = append(buf, '[')
	for i, s := range ss {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = AppendEscaped(buf, s)
	}
	return append(buf, ']')
}
