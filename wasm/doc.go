// Package wasm scans and splices the section framing of WebAssembly binaries.
//
// Only the outer structure is read: the preamble, then each section's id byte
// and LEB128 size. Non-custom sections are never decoded, so arbitrary modules
// (including ones using proposals this package knows nothing about) can be
// scanned and rewritten without loss. Both core modules and components are
// accepted; for components the nested core modules and components are scanned
// recursively.
//
// # Scanning
//
//	for s, err := range wasm.Sections(data) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(s.ID, len(s.Data))
//	}
//
//	customs, err := wasm.CustomSections(data)
//
// Returned slices alias the input; callers must not modify the input while
// holding them.
//
// # Splicing
//
//	out, err := wasm.SetCustomSection(module, "my-section", payload)
//	out, n, err := wasm.RemoveCustomSections(module, "my-section")
//
// Sections that are not touched keep their exact byte encoding, including
// non-minimal LEB128 size prefixes.
package wasm
