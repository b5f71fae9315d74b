package codegen

import (
	"context"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
	"github.com/wippyai/wasset/manifest"
)

// Scan walks root as the encoder does and resolves every selected file through
// m, minting identifiers for new paths. File contents are not read.
// Pass opts through encoder.WalkOptions to apply an adapter's selection.
func Scan(ctx context.Context, root string, m *manifest.Manifest, opts walk.Options) (*encoder.Tree, error) {
	return scan(ctx, root, opts, m.Resolve)
}

// ScanKnown is Scan without minting: a path missing from m is an
// IdentifierNotFound error.
func ScanKnown(ctx context.Context, root string, m *manifest.Manifest, opts walk.Options) (*encoder.Tree, error) {
	return scan(ctx, root, opts, func(p string) (assetid.ID, error) {
		id, ok := m.Lookup(p)
		if !ok {
			return id, errors.New(errors.PhaseGenerate, errors.KindNotFound).
				Path(p).
				Detail("no manifest entry; run the encoder or gen without --check").
				Build()
		}
		return id, nil
	})
}

func scan(ctx context.Context, root string, opts walk.Options, resolve func(string) (assetid.ID, error)) (*encoder.Tree, error) {
	files, err := walk.Collect(ctx, root, opts)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseGenerate, root, "walk asset root", err)
	}

	assets := make([]encoder.Asset, 0, len(files))
	for _, f := range files {
		id, err := resolve(f.Path)
		if err != nil {
			return nil, err
		}
		assets = append(assets, encoder.Asset{Path: f.Path, ID: id, Size: f.Size})
	}
	return encoder.NewTree(assets), nil
}
