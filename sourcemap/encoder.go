package sourcemap

import (
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm2map/position"
)

// Options controls map generation.
type Options struct {
	// ReadFile loads source text when bundling. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// File is written to the map's "file" key when set.
	File string

	// LibraryRoots lists discriminators marking library sources. A source
	// path "root:rest" is emitted as "rest" and its text is never bundled.
	LibraryRoots []string

	// BundleSources embeds each source file's text in sourcesContent.
	// Files that cannot be read are recorded as null.
	BundleSources bool
}

// Encode builds a source map from the points of t in address order.
// Points with line 0 carry no source attribution and are left out. Points
// with an empty path are left out as well rather than listed under an empty
// source name; they come from rows without a file entry.
func Encode(t *position.Table, opts Options) *SourceMap {
	var (
		sources  = newSourceTable()
		mappings []byte
		last     = segment{address: 0, source: 0, line: 1, column: 1}
		first    = true
	)

	t.Each(func(p position.CodePoint) bool {
		if p.Line == 0 || p.Path == "" {
			return true
		}

		cur := segment{
			address: int64(p.Address),
			source:  int64(sources.id(p.Path)),
			line:    int64(p.Line),
			column:  int64(p.Column),
		}
		// left edge maps onto the first column
		if cur.column == 0 {
			cur.column = 1
		}

		if !first {
			mappings = append(mappings, ',')
		}
		first = false

		mappings = AppendVLQ(mappings, cur.address-last.address)
		mappings = AppendVLQ(mappings, cur.source-last.source)
		mappings = AppendVLQ(mappings, cur.line-last.line)
		mappings = AppendVLQ(mappings, cur.column-last.column)
		last = cur
		return true
	})

	m := &SourceMap{
		Version:  Version,
		File:     opts.File,
		Names:    []string{},
		Sources:  make([]string, len(sources.paths)),
		Mappings: string(mappings),
	}
	for i, p := range sources.paths {
		m.Sources[i], _ = stripLibraryRoot(p, opts.LibraryRoots)
	}

	if opts.BundleSources {
		m.SourcesContent = bundle(sources.paths, opts)
	}

	Logger().Debug("encoded source map",
		zap.Int("sources", len(m.Sources)),
		zap.Int("mappings_bytes", len(m.Mappings)))
	return m
}

type segment struct {
	address int64
	source  int64
	line    int64
	column  int64
}

// sourceTable assigns ids in first-seen order.
type sourceTable struct {
	ids   map[string]int
	paths []string
}

func newSourceTable() *sourceTable {
	return &sourceTable{ids: make(map[string]int)}
}

func (s *sourceTable) id(path string) int {
	if id, ok := s.ids[path]; ok {
		return id
	}
	id := len(s.paths)
	s.ids[path] = id
	s.paths = append(s.paths, path)
	return id
}

func stripLibraryRoot(path string, roots []string) (string, bool) {
	for _, root := range roots {
		if rest, ok := strings.CutPrefix(path, root+":"); ok {
			return rest, true
		}
	}
	return path, false
}

func bundle(paths []string, opts Options) []*string {
	read := opts.ReadFile
	if read == nil {
		read = os.ReadFile
	}

	contents := make([]*string, len(paths))
	for i, p := range paths {
		if _, library := stripLibraryRoot(p, opts.LibraryRoots); library {
			continue
		}
		data, err := read(p)
		if err != nil {
			Logger().Debug("source not bundled", zap.String("path", p), zap.Error(err))
			continue
		}
		text := string(data)
		contents[i] = &text
	}
	return contents
}
