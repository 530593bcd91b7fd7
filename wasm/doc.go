// Package wasm reads the container layout of WebAssembly binaries.
//
// It does not decode instructions or validate modules. It walks section
// framing, records where each section lives in the file, and parses the
// parts of an object file that debug information depends on: function
// body offsets, data segment addresses, the linking symbol table and the
// reloc.* sections.
//
// # Sections
//
// ScanSections returns every section with its file offsets. For custom
// sections the name is stripped from Data, so offsets inside Data are the
// ones relocation entries use:
//
//	sections, err := wasm.ScanSections(data)
//	for _, s := range sections {
//	    fmt.Printf("%-20s 0x%08x %d\n", s.Name, s.Offset, s.Size)
//	}
//
// # Objects
//
// ParseObject adds symbols and relocations:
//
//	obj, err := wasm.ParseObject(data)
//	info := obj.SectionByName(".debug_info")
//	for _, rel := range obj.Relocations(info) {
//	    addr, ok := obj.SymbolAddress(rel.Index)
//	    ...
//	}
//
// # sourceMappingURL
//
// EncodeSourceMappingURL and DecodeSourceMappingURL handle the custom
// section browsers read to locate a module's source map.
package wasm
