// Package schema is a reference adapter that stores text, binary and
// structured assets.
//
// The asset kind follows the file extension:
//
//	.txt .md                     text (must be valid UTF-8)
//	.yaml .yml .json .jsonc      record (a mapping)
//	anything else                binary
//
// Per-file metadata from Wasset.yaml adjusts encoding:
//
//	kind: text|binary|record     overrides the extension
//	append: "..."                text appended to a text asset
//	compress: zstd|lz4|none      payload compression
//
// Payloads are CBOR envelopes in Core Deterministic Encoding, so identical
// input always yields identical bytes. Compression that does not shrink the
// body is dropped and the body stored as is.
package schema
