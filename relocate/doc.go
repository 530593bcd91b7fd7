// Package relocate resolves WebAssembly object-file relocations against
// debug sections.
//
// Debug sections of a relocatable object hold placeholder values where
// addresses and section offsets belong. Resolve turns a section's
// relocation entries into a Map from byte offset to the resolved value
// (symbol address plus addend, with wrapping arithmetic), and Apply writes
// those values into a copy of the section so a DWARF reader sees linked
// addresses:
//
//	obj, _ := wasm.ParseObject(data)
//	sec := obj.SectionByName(".debug_line")
//	m, err := relocate.Resolve(sec.Name, relocate.Entries(obj, sec), obj)
//	if err != nil {
//	    return err
//	}
//	fixed, err := m.Apply(sec.Data)
//
// Only absolute relocations are supported. Any other kind, a relocation
// naming an invalid symbol, or two relocations at one offset fail the whole
// section.
package relocate
