package encoder

import (
	"context"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
	"github.com/wippyai/wasset/manifest"
	"github.com/wippyai/wasset/section"
)

// Config configures an Encoder.
type Config struct {
	Adapter  wasset.Encoder
	Manifest *manifest.Manifest
	Logger   *zap.Logger // defaults to the package logger
	Root     string
	Walk     walk.Options
}

// Result is the outcome of a successful build.
type Result struct {
	Tree    *Tree
	Section []byte
	Assets  []Asset // in record order
}

// Encoder builds asset sections from a directory.
type Encoder struct {
	cfg Config
	log *zap.Logger
}

// New validates cfg and returns an Encoder.
func New(cfg Config) (*Encoder, error) {
	switch {
	case cfg.Root == "":
		return nil, errors.InvalidInput(errors.PhaseEncode, "", "asset root is required", nil)
	case cfg.Adapter == nil:
		return nil, errors.InvalidInput(errors.PhaseEncode, cfg.Root, "schema adapter is required", nil)
	case cfg.Manifest == nil:
		return nil, errors.InvalidInput(errors.PhaseEncode, cfg.Root, "manifest is required", nil)
	}
	if err := walk.ValidatePatterns(cfg.Walk.Include); err != nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, cfg.Root, "include pattern", err)
	}
	if err := walk.ValidatePatterns(cfg.Walk.Exclude); err != nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, cfg.Root, "exclude pattern", err)
	}

	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	return &Encoder{cfg: cfg, log: log.With(zap.String("root", cfg.Root))}, nil
}

// WalkOptions returns opts with enc's selection, if any, combined into
// opts.Select. Callers that enumerate assets without encoding them use it to
// make the same choices the encoder makes.
func WalkOptions(opts walk.Options, enc wasset.Encoder) walk.Options {
	sel := wasset.SelectFunc(enc)
	if sel == nil {
		return opts
	}
	if prev := opts.Select; prev != nil {
		opts.Select = func(p string) bool { return prev(p) && sel(p) }
	} else {
		opts.Select = sel
	}
	return opts
}

// Build encodes every selected file under the root into section bytes.
// New paths are recorded in the manifest; persisting it is up to the caller.
func (e *Encoder) Build(ctx context.Context) (*Result, error) {
	files, err := walk.Collect(ctx, e.cfg.Root, WalkOptions(e.cfg.Walk, e.cfg.Adapter))
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, e.cfg.Root, "walk asset root", err)
	}

	var total int64
	for _, f := range files {
		total += section.RecordHeaderSize + f.Size
	}
	w := section.NewWriterSize(int(total))
	meta := newMetadata(e.cfg.Root, e.log)
	seen := make(map[assetid.ID]string, len(files))
	assets := make([]Asset, 0, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := e.cfg.Manifest.Resolve(f.Path)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[id]; dup {
			return nil, errors.IdentifierCollision(errors.PhaseEncode, id.String(), f.Path, other)
		}
		seen[id] = f.Path

		payload, err := e.encodeFile(ctx, f, meta)
		if err != nil {
			return nil, err
		}
		if err := w.Add(id, payload); err != nil {
			return nil, err
		}

		assets = append(assets, Asset{Path: f.Path, ID: id, Size: f.Size})
		e.log.Debug("encoded asset",
			zap.String("path", f.Path),
			zap.Stringer("id", id),
			zap.Int64("size", f.Size),
			zap.Int("payload", len(payload)))
	}

	out := w.Bytes()
	e.log.Info("built asset section", zap.Int("assets", len(assets)), zap.Int("bytes", len(out)))
	return &Result{
		Tree:    NewTree(assets),
		Section: out,
		Assets:  assets,
	}, nil
}

func (e *Encoder) encodeFile(ctx context.Context, f walk.File, meta *metadata) ([]byte, error) {
	data, err := os.ReadFile(f.OS)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, f.Path, "read asset", err)
	}
	md, err := meta.lookup(f.Path)
	if err != nil {
		return nil, err
	}

	src := &wasset.Source{
		Metadata: md,
		Path:     f.Path,
		Ext:      strings.ToLower(strings.TrimPrefix(path.Ext(f.Path), ".")),
		Data:     data,
	}
	payload, err := e.cfg.Adapter.Encode(ctx, src)
	if err != nil {
		return nil, errors.AdapterEncode(f.Path, err)
	}
	return payload, nil
}

// Build is shorthand for New followed by Build.
func Build(ctx context.Context, cfg Config) (*Result, error) {
	enc, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return enc.Build(ctx)
}
