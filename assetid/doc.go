// Package assetid defines the 128-bit asset identifier shared by the build-time
// encoder, the generated constants compiled into guest code, and the host parser.
//
// An ID carries no meaning beyond uniqueness. Its text form is the canonical
// UUID string, which is what manifests store and tools print:
//
//	id, err := assetid.Parse("ae189ff9-b0d4-48fc-b0e1-3093d53bff85")
//
// New identifiers come from a Generator. Random mints version 4 UUIDs from a
// cryptographic source; NewCounter returns a deterministic generator for tests.
package assetid
