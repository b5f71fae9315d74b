// Package section implements the byte layout of an asset section.
//
// The layout is frozen. Every integer is little-endian, the byte order
// WebAssembly itself uses:
//
//	[version:u32][count:u32]
//	{ [id:16 bytes][len:u32][payload:len bytes] } × count
//
// The codec knows nothing about files or schemas; payloads are opaque.
// Decoding validates the header eagerly and everything else lazily, handing out
// payload slices that alias the input.
package section
