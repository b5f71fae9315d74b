// Package codegen emits Go source naming every asset identifier.
//
// For an asset root containing a.txt, b.bin and sub/c.txt, Generate produces
//
//	var Assets = struct {
//		A   assetid.ID // a.txt
//		B   assetid.ID // b.bin
//		Sub struct {
//			C assetid.ID // sub/c.txt
//		}
//	}{...}
//
// plus an AssetsPaths table mapping identifiers back to paths. Scan resolves
// paths through the same manifest the encoder uses, so the constants always
// agree with the section records whichever of the two runs first.
package codegen
