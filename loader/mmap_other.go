//go:build !unix

package loader

import "go.uber.org/zap"

// Mmap falls back to Read where memory mapping is unavailable.
func Mmap(path string) (*File, error) {
	Logger().Debug("mmap unavailable, reading file", zap.String("path", path))
	return Read(path)
}
