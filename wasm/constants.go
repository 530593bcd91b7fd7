package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs define the binary identifiers for each module section.
// Sections must appear in increasing order by ID (except custom sections).
const (
	SectionCustom    byte = 0  // Custom section (can appear anywhere)
	SectionType      byte = 1  // Type section (function signatures)
	SectionImport    byte = 2  // Import section
	SectionFunction  byte = 3  // Function section (type indices)
	SectionTable     byte = 4  // Table section
	SectionMemory    byte = 5  // Memory section
	SectionGlobal    byte = 6  // Global section
	SectionExport    byte = 7  // Export section
	SectionStart     byte = 8  // Start section
	SectionElement   byte = 9  // Element section
	SectionCode      byte = 10 // Code section (function bodies)
	SectionData      byte = 11 // Data section
	SectionDataCount byte = 12 // Data count section (bulk memory)
	SectionTag       byte = 13 // Tag section (exception handling)
)

// Import descriptor kinds identify the type of imported item.
const (
	KindFunc   byte = 0 // Function import
	KindTable  byte = 1 // Table import
	KindMemory byte = 2 // Memory import
	KindGlobal byte = 3 // Global import
	KindTag    byte = 4 // Tag import (exception handling)
)

// Reference type bytes that carry a trailing heap type.
const (
	valRefNull byte = 0x63
	valRef     byte = 0x64
)

// Constant expression opcodes recognised in data segment offsets.
const (
	opEnd       byte = 0x0B
	opGlobalGet byte = 0x23
	opI32Const  byte = 0x41
	opI64Const  byte = 0x42
)

// Well-known custom section names.
const (
	// LinkingSectionName is the custom section holding the symbol table of
	// a relocatable object.
	LinkingSectionName = "linking"

	// RelocSectionPrefix prefixes the custom sections holding relocations
	// for the section whose name follows the prefix.
	RelocSectionPrefix = "reloc."

	// SourceMappingURLSectionName is the custom section browsers read to
	// locate a module's source map.
	SourceMappingURLSectionName = "sourceMappingURL"
)

// LinkingVersion is the only linking metadata version understood.
const LinkingVersion uint32 = 2

// Linking subsection types.
const (
	linkingSegmentInfo byte = 5
	linkingInitFuncs   byte = 6
	linkingComdatInfo  byte = 7
	linkingSymbolTable byte = 8
)

// SymbolKind identifies what a linking symbol refers to.
type SymbolKind byte

const (
	SymbolFunction SymbolKind = 0
	SymbolData     SymbolKind = 1
	SymbolGlobal   SymbolKind = 2
	SymbolSection  SymbolKind = 3
	SymbolTag      SymbolKind = 4
	SymbolTable    SymbolKind = 5
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolData:
		return "data"
	case SymbolGlobal:
		return "global"
	case SymbolSection:
		return "section"
	case SymbolTag:
		return "tag"
	case SymbolTable:
		return "table"
	default:
		return "unknown"
	}
}

// Symbol flags.
const (
	SymbolFlagBindingWeak  uint32 = 0x01
	SymbolFlagBindingLocal uint32 = 0x02
	SymbolFlagUndefined    uint32 = 0x10
	SymbolFlagExplicitName uint32 = 0x40
)

// RelocType is a WebAssembly object-file relocation type (R_WASM_*).
type RelocType byte

const (
	RelocFunctionIndexLEB     RelocType = 0
	RelocTableIndexSLEB       RelocType = 1
	RelocTableIndexI32        RelocType = 2
	RelocMemoryAddrLEB        RelocType = 3
	RelocMemoryAddrSLEB       RelocType = 4
	RelocMemoryAddrI32        RelocType = 5
	RelocTypeIndexLEB         RelocType = 6
	RelocGlobalIndexLEB       RelocType = 7
	RelocFunctionOffsetI32    RelocType = 8
	RelocSectionOffsetI32     RelocType = 9
	RelocTagIndexLEB          RelocType = 10
	RelocMemoryAddrRelSLEB    RelocType = 11
	RelocTableIndexRelSLEB    RelocType = 12
	RelocGlobalIndexI32       RelocType = 13
	RelocMemoryAddrLEB64      RelocType = 14
	RelocMemoryAddrSLEB64     RelocType = 15
	RelocMemoryAddrI64        RelocType = 16
	RelocMemoryAddrRelSLEB64  RelocType = 17
	RelocTableIndexSLEB64     RelocType = 18
	RelocTableIndexI64        RelocType = 19
	RelocTableNumberLEB       RelocType = 20
	RelocMemoryAddrTLSSLEB    RelocType = 21
	RelocFunctionOffsetI64    RelocType = 22
	RelocMemoryAddrLocRelI32  RelocType = 23
	RelocTableIndexRelSLEB64  RelocType = 24
	RelocMemoryAddrTLSSLEB64  RelocType = 25
	RelocFunctionIndexI32     RelocType = 26
)

var relocNames = map[RelocType]string{
	RelocFunctionIndexLEB:    "R_WASM_FUNCTION_INDEX_LEB",
	RelocTableIndexSLEB:      "R_WASM_TABLE_INDEX_SLEB",
	RelocTableIndexI32:       "R_WASM_TABLE_INDEX_I32",
	RelocMemoryAddrLEB:       "R_WASM_MEMORY_ADDR_LEB",
	RelocMemoryAddrSLEB:      "R_WASM_MEMORY_ADDR_SLEB",
	RelocMemoryAddrI32:       "R_WASM_MEMORY_ADDR_I32",
	RelocTypeIndexLEB:        "R_WASM_TYPE_INDEX_LEB",
	RelocGlobalIndexLEB:      "R_WASM_GLOBAL_INDEX_LEB",
	RelocFunctionOffsetI32:   "R_WASM_FUNCTION_OFFSET_I32",
	RelocSectionOffsetI32:    "R_WASM_SECTION_OFFSET_I32",
	RelocTagIndexLEB:         "R_WASM_TAG_INDEX_LEB",
	RelocMemoryAddrRelSLEB:   "R_WASM_MEMORY_ADDR_REL_SLEB",
	RelocTableIndexRelSLEB:   "R_WASM_TABLE_INDEX_REL_SLEB",
	RelocGlobalIndexI32:      "R_WASM_GLOBAL_INDEX_I32",
	RelocMemoryAddrLEB64:     "R_WASM_MEMORY_ADDR_LEB64",
	RelocMemoryAddrSLEB64:    "R_WASM_MEMORY_ADDR_SLEB64",
	RelocMemoryAddrI64:       "R_WASM_MEMORY_ADDR_I64",
	RelocMemoryAddrRelSLEB64: "R_WASM_MEMORY_ADDR_REL_SLEB64",
	RelocTableIndexSLEB64:    "R_WASM_TABLE_INDEX_SLEB64",
	RelocTableIndexI64:       "R_WASM_TABLE_INDEX_I64",
	RelocTableNumberLEB:      "R_WASM_TABLE_NUMBER_LEB",
	RelocMemoryAddrTLSSLEB:   "R_WASM_MEMORY_ADDR_TLS_SLEB",
	RelocFunctionOffsetI64:   "R_WASM_FUNCTION_OFFSET_I64",
	RelocMemoryAddrLocRelI32: "R_WASM_MEMORY_ADDR_LOCREL_I32",
	RelocTableIndexRelSLEB64: "R_WASM_TABLE_INDEX_REL_SLEB64",
	RelocMemoryAddrTLSSLEB64: "R_WASM_MEMORY_ADDR_TLS_SLEB64",
	RelocFunctionIndexI32:    "R_WASM_FUNCTION_INDEX_I32",
}

func (t RelocType) String() string {
	if name, ok := relocNames[t]; ok {
		return name
	}
	return "R_WASM_UNKNOWN"
}

// HasAddend reports whether entries of this type carry an addend field.
func (t RelocType) HasAddend() bool {
	switch t {
	case RelocMemoryAddrLEB, RelocMemoryAddrSLEB, RelocMemoryAddrI32,
		RelocFunctionOffsetI32, RelocSectionOffsetI32, RelocMemoryAddrRelSLEB,
		RelocMemoryAddrLEB64, RelocMemoryAddrSLEB64, RelocMemoryAddrI64,
		RelocMemoryAddrRelSLEB64, RelocMemoryAddrTLSSLEB, RelocFunctionOffsetI64,
		RelocMemoryAddrLocRelI32, RelocMemoryAddrTLSSLEB64:
		return true
	}
	return false
}

// Width returns the byte width of the fixed-size field the relocation
// rewrites, or 0 for LEB-encoded fields.
func (t RelocType) Width() int {
	switch t {
	case RelocTableIndexI32, RelocMemoryAddrI32, RelocFunctionOffsetI32,
		RelocSectionOffsetI32, RelocGlobalIndexI32, RelocMemoryAddrLocRelI32,
		RelocFunctionIndexI32:
		return 4
	case RelocMemoryAddrI64, RelocTableIndexI64, RelocFunctionOffsetI64:
		return 8
	}
	return 0
}
