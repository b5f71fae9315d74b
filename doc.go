// Package wasset embeds a directory of assets into a WebAssembly module as a
// custom section and reads them back on the host.
//
// The build side walks an asset root, assigns every file a stable 128-bit
// identifier through a persisted manifest, encodes each file with a schema
// adapter and packs the results into one section named SectionName. The host
// side locates that section, iterates its records lazily and decodes payloads
// with the same adapter.
//
// # Architecture Overview
//
//	wasset/             Adapter contract shared by encoder and parser
//	├── assetid/        128-bit asset identifiers and generators
//	├── section/        Asset section wire format
//	├── manifest/       Path to identifier manifest with file locking
//	├── encoder/        Directory to section bytes, section to module
//	├── codegen/        Go constants naming every asset identifier
//	├── walk/           Asset enumeration shared by encoder and codegen
//	├── parser/         Host-side lazy section reader
//	├── schema/         Reference adapter for text, binary and records
//	├── wasm/           Module framing scanner and custom section splicing
//	├── engine/         wazero-backed section source and validation
//	├── config/         YAML configuration for the CLI
//	├── errors/         Structured error types
//	└── cmd/wasset/     Command line tool
//
// # Quick Start
//
// Build time:
//
//	store, err := manifest.Open(ctx, manifestPath, manifest.OpenOptions{})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	out, err := encoder.EncodeModule(ctx, module, encoder.Config{
//	    Root:     "assets",
//	    Adapter:  schema.Adapter{},
//	    Manifest: store.Manifest(),
//	})
//	if err != nil {
//	    return err
//	}
//	return store.Save()
//
// Host time:
//
//	p, err := parser.Open[schema.Asset](module, schema.Adapter{})
//	if err != nil {
//	    return err
//	}
//	for id, res := range p.All() {
//	    if res.Err != nil {
//	        log.Printf("%s: %v", id, res.Err)
//	        continue
//	    }
//	    use(id, res.Value)
//	}
//
// # Thread Safety
//
// Parsers and section readers are immutable and safe for concurrent use.
// Manifests are not; Store serializes manifest access across processes.
package wasset
