//go:build unix

package loader

import (
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/wippyai/wasm2map/errors"
)

// Mmap maps the file read-only. The mapping stays valid if the file is
// later replaced by rename, since it pins the original inode.
func Mmap(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, path, err)
	}
	if info.IsDir() {
		return nil, errors.IO(errors.PhaseLoad, path, unix.EISDIR)
	}

	size := info.Size()
	if size == 0 {
		// mmap rejects zero-length mappings
		return &File{Data: []byte{}, Path: path, release: func() error { return nil }}, nil
	}
	if int64(int(size)) != size {
		return nil, errors.Overflow(errors.PhaseLoad, size, "int file size")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, path, err)
	}

	Logger().Debug("mapped file", zap.String("path", path), zap.Int64("size", size))
	return &File{
		Data:    data,
		Path:    path,
		release: func() error { return unix.Munmap(data) },
	}, nil
}
