package wasm

// WebAssembly binary format magic number and versions.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the core module binary format version.
	Version uint32 = 0x01

	// ComponentVersion and ComponentLayer form the preamble of a component
	// binary (version 0x0d, layer 1, each a little-endian u16).
	ComponentVersion uint16 = 0x0d
	ComponentLayer   uint16 = 0x01

	// HeaderSize is the length of the magic plus version preamble.
	HeaderSize = 8
)

// Section IDs define the binary identifiers for each core module section.
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

// Component section IDs that embed complete nested binaries.
const (
	ComponentSectionCoreModule byte = 1 // nested core module
	ComponentSectionComponent  byte = 4 // nested component
)

// BinaryKind distinguishes a core module from a component.
type BinaryKind uint8

const (
	BinaryModule BinaryKind = iota + 1
	BinaryComponent
)

func (k BinaryKind) String() string {
	switch k {
	case BinaryModule:
		return "module"
	case BinaryComponent:
		return "component"
	default:
		return "unknown"
	}
}
