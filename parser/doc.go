// Package parser reads the asset section of a WebAssembly module on the host.
//
// A Parser holds sub-slices of the caller's module bytes and never copies or
// modifies them; the caller must keep the buffer alive and unchanged while the
// parser is in use. Payloads are decoded only when reached, so a record that
// fails to decode affects that record alone. A truncated section is reported
// once, with assetid.Nil, and ends the traversal.
//
// Parsers are immutable and safe for concurrent use; every All or IDs call
// starts an independent traversal.
package parser
