// Package position turns DWARF line programs into an address-ordered table
// of code points.
//
// Every row of every compile unit becomes a CodePoint whose address is the
// row address plus the file offset of the code section contents, so points
// line up with offsets in the binary. End-of-sequence rows are moved back
// one byte onto the last instruction of their sequence. The table holds one
// point per address and the most recently inserted point wins.
//
// A compile unit whose root entry or line program fails to decode is
// skipped and the walk resumes at the next unit; a value
// that does not fit its target width aborts the build.
package position
