// Package sourcemap encodes a position table as a Source Map v3 document.
//
// The whole code section is modelled as one generated line: each code
// point's address is its generated column, and segments are separated by
// commas only. Each segment holds four base64 VLQ deltas (address, source
// index, line, column) against the previous segment, starting from the
// baseline (0, 0, 1, 1) so one-based DWARF lines and columns come out
// zero-based.
//
//	m := sourcemap.Encode(table, sourcemap.Options{File: "app.wasm"})
//	data, _ := m.MarshalJSON()
//
// JSON is written by hand so key order is fixed and string escaping is
// exactly: short escapes for \b \t \n \f \r, \u00XX for other control
// bytes, backslash before '"' and '\', and everything else untouched.
package sourcemap
