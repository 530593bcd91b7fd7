package wasm

// LEB128Size returns the number of bytes the unsigned LEB128 encoding of v
// occupies. Section and body size prefixes use this encoding, so it gives
// the distance from a prefix to the payload it measures.
func LEB128Size(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
