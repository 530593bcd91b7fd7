// Package wasm2map generates source maps for WebAssembly binaries from
// their DWARF debug information.
//
// Browsers map a WebAssembly code address to source through a version 3
// source map in which the whole binary is one generated line and the byte
// offset of each instruction in the file is the generated column. This
// package reads the line programs of a binary's compile units, shifts
// their addresses from code-section-relative to file-relative offsets, and
// encodes the result.
//
// # Packages
//
//	wasm2map/           Session: one binary from parse to source map
//	├── wasm/           Section layout, symbols and relocations
//	├── relocate/       Relocation correction maps for debug sections
//	├── debuginfo/      Relocated DWARF sections opened with debug/dwarf
//	├── position/       Address-ordered table of code points
//	├── sourcemap/      VLQ mappings and the JSON artifact
//	├── patch/          sourceMappingURL section writer
//	├── verify/         Post-patch check through wazero
//	├── loader/         Read or mmap input files
//	├── errors/         Structured errors with phase and kind
//	└── cmd/wasm2map/   Command-line tool
//
// # Quick Start
//
//	data, _ := os.ReadFile("app.wasm")
//	s, err := wasm2map.New(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := s.Build(wasm2map.BuildOptions{BundleSources: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, _ := os.Create("app.wasm.map")
//	m.WriteTo(f)
//
// Then point the binary at the map:
//
//	p, _ := patch.Open("app.wasm")
//	p.Patch(patch.MappingURL("http://localhost:8080", "app.wasm.map"))
//
// # Split DWARF
//
// When debug information was split into a separate object, pass that
// object as the binary and the skeleton as its parent:
//
//	s, err := wasm2map.New(dwo, wasm2map.WithDWOParent(skeleton))
//
// # Error Handling
//
// Errors are *errors.Error values carrying the phase and kind of failure:
//
//	if errors.Is(err, errors.ErrMissingSection) {
//	    // binary was built without debug info
//	}
package wasm2map
