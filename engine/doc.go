// Package engine reads custom sections through wazero.
//
// The wasm package scans module framing directly; this package is for hosts
// that compile modules with wazero anyway and want the sections wazero kept.
// Compilation validates the whole module, so Validate doubles as a check that
// an embedded module still loads.
//
// Components are not supported: wazero compiles core modules only. Use
// wasm.CustomSections for components.
//
// # Usage
//
//	eng := engine.NewWazeroEngine(ctx)
//	defer eng.Close(ctx)
//
//	sections, err := eng.CustomSections(ctx, module)
//	if err != nil {
//	    return err
//	}
//	p, err := parser.FromSections(sections, schema.Adapter{})
package engine
