package wasm2map

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm2map/debuginfo"
	"github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/position"
	"github.com/wippyai/wasm2map/sourcemap"
	"github.com/wippyai/wasm2map/wasm"
)

// Session holds one parsed binary and the position table derived from its
// debug information. A Session is not safe for concurrent use.
type Session struct {
	obj    *wasm.Object
	parent *wasm.Object

	parentData   []byte
	libraryRoots []string

	table *position.Table
}

// Option configures a Session.
type Option func(*Session)

// WithDWOParent marks the binary as a split debug object whose skeleton
// lives in parent. The binary's debug sections are then read from their
// ".dwo" names without relocation, and the parent's own units are added.
func WithDWOParent(parent []byte) Option {
	return func(s *Session) {
		s.parentData = parent
	}
}

// WithLibraryRoots lists discriminators marking library sources. A source
// path "root:rest" is emitted as "rest" and never bundled.
func WithLibraryRoots(roots ...string) Option {
	return func(s *Session) {
		s.libraryRoots = append(s.libraryRoots, roots...)
	}
}

// New parses data as a WebAssembly object file.
func New(data []byte, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}

	obj, err := wasm.ParseObject(data)
	if err != nil {
		return nil, errors.MalformedContainer(errors.PhaseLoad, "parse module", err)
	}
	s.obj = obj

	if s.parentData != nil {
		parent, err := wasm.ParseObject(s.parentData)
		if err != nil {
			return nil, errors.MalformedContainer(errors.PhaseLoad, "DWO parent is not a WebAssembly file", err)
		}
		s.parent = parent
	}

	Logger().Debug("parsed module",
		zap.Int("sections", len(obj.Sections)),
		zap.Int("symbols", len(obj.Symbols)),
		zap.Bool("split", s.parent != nil))
	return s, nil
}

// Object returns the parsed binary.
func (s *Session) Object() *wasm.Object {
	return s.obj
}

// CodeOffset returns the file offset of the code section contents, the
// origin line-program addresses are relative to.
func (s *Session) CodeOffset() (uint64, error) {
	code := s.obj.SectionByID(wasm.SectionCode)
	if code == nil {
		return 0, errors.MissingSection(errors.PhaseLoad, "code", "binary has no code section")
	}
	return code.DataOffset, nil
}

// Positions builds the position table on first use and returns it.
func (s *Session) Positions() (*position.Table, error) {
	if s.table != nil {
		return s.table, nil
	}

	offset, err := s.CodeOffset()
	if err != nil {
		return nil, err
	}

	readers, err := s.readers()
	if err != nil {
		return nil, err
	}

	b := position.NewBuilder(offset)
	for _, d := range readers {
		if err := b.Add(d); err != nil {
			return nil, err
		}
	}

	s.table = b.Table()
	Logger().Info("built position table",
		zap.Uint64("code_offset", offset),
		zap.Int("units", b.Units()),
		zap.Int("skipped_units", b.Skipped()),
		zap.Int("points", s.table.Len()))
	return s.table, nil
}

func (s *Session) readers() ([]*debuginfo.Data, error) {
	main, err := debuginfo.Load(s.obj, debuginfo.Options{Split: s.parent != nil})
	if err != nil {
		return nil, err
	}
	if s.parent == nil {
		return []*debuginfo.Data{main}, nil
	}

	parent, err := debuginfo.Load(s.parent, debuginfo.Options{})
	if err != nil {
		if errors.Is(err, errors.ErrMissingSection) {
			Logger().Debug("DWO parent has no debug info")
			return []*debuginfo.Data{main}, nil
		}
		return nil, err
	}
	return []*debuginfo.Data{main, parent}, nil
}

// BuildOptions controls source map generation.
type BuildOptions struct {
	// ReadFile loads source text when bundling. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// File is written to the map's "file" key when set.
	File string

	// BundleSources embeds source text in sourcesContent.
	BundleSources bool
}

// Build generates the source map for the binary.
func (s *Session) Build(opts BuildOptions) (*sourcemap.SourceMap, error) {
	table, err := s.Positions()
	if err != nil {
		return nil, err
	}
	return sourcemap.Encode(table, sourcemap.Options{
		ReadFile:      opts.ReadFile,
		File:          opts.File,
		LibraryRoots:  s.libraryRoots,
		BundleSources: opts.BundleSources,
	}), nil
}
