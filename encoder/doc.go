// Package encoder turns an asset directory into asset section bytes and
// splices the section into a WebAssembly module.
//
// Build walks the root in lexicographic path order, resolves each file's
// identifier through the manifest, encodes the file with the schema adapter
// and appends one record per file. Any failure aborts the build; no partial
// section is returned.
//
// A directory may carry a Wasset.yaml mapping file names to arbitrary
// metadata, which is handed to the adapter with the file:
//
//	intro.txt:
//	  append: " (draft)"
//	atlas.bin:
//	  compress: zstd
package encoder
