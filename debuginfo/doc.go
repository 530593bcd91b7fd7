// Package debuginfo extracts the DWARF sections of a WebAssembly binary and
// opens them with debug/dwarf.
//
// Relocatable objects carry placeholder addresses in their debug sections;
// Sections resolves each section's relocations and hands back patched
// copies so the DWARF reader only ever sees linked values. Split debug
// objects (sections named ".debug_*.dwo") are read as-is.
//
// Open also records where each unit's entries start, so a walk can move on
// to the next unit after one fails to decode.
package debuginfo
