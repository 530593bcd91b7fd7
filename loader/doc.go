// Package loader reads WebAssembly binaries from disk, either into memory
// or by mapping the file read-only.
package loader
