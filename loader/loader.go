package loader

import (
	"fmt"
	"os"

	"github.com/wippyai/wasm2map/errors"
)

// Strategy selects how a file is brought into memory.
type Strategy string

const (
	// StrategyRead copies the whole file into a heap buffer.
	StrategyRead Strategy = "read"

	// StrategyMmap maps the file read-only. Platforms without mmap fall
	// back to StrategyRead.
	StrategyMmap Strategy = "mmap"
)

// ParseStrategy converts a configuration value to a Strategy. The empty
// string selects StrategyRead.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyRead:
		return StrategyRead, nil
	case StrategyMmap:
		return StrategyMmap, nil
	}
	return "", fmt.Errorf("unknown loader %q (want %q or %q)", s, StrategyRead, StrategyMmap)
}

// File is the contents of a loaded file. Data must not be modified and
// must not be used after Close.
type File struct {
	Data []byte
	Path string

	release func() error
}

// Close releases the file contents. It is safe to call more than once.
func (f *File) Close() error {
	if f == nil || f.release == nil {
		return nil
	}
	release := f.release
	f.release = nil
	f.Data = nil
	if err := release(); err != nil {
		return errors.IO(errors.PhaseLoad, f.Path, err)
	}
	return nil
}

// Open loads path with the given strategy.
func Open(path string, strategy Strategy) (*File, error) {
	switch strategy {
	case StrategyRead, "":
		return Read(path)
	case StrategyMmap:
		return Mmap(path)
	}
	return nil, errors.New(errors.PhaseLoad, errors.KindIO).
		Path(path).
		Detail("unknown loader %q", strategy).
		Build()
}

// Read copies the file into memory.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, path, err)
	}
	return &File{Data: data, Path: path, release: func() error { return nil }}, nil
}
