// Package patch writes a sourceMappingURL custom section onto the end of a
// WebAssembly binary.
//
// The section is encoded as
//
//	0x00 | uleb(payload size) | uleb(16) "sourceMappingURL" | uleb(len(url)) url
//
// Open records the size of a sourceMappingURL section already at the tail
// of the file. Patch cuts that section off, appends the new one and
// remembers its size, so patching repeatedly in one session always leaves
// exactly one section holding the latest url.
//
// Only a trailing section can be replaced this way. A sourceMappingURL
// section with other sections after it makes Open fail rather than risk
// truncating them.
package patch
