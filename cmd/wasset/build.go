package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasset/codegen"
	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/engine"
	"github.com/wippyai/wasset/walk"
	"github.com/wippyai/wasset/manifest"
	"github.com/wippyai/wasset/wasm"
)

// sourceFlags locate the asset root and its manifest.
type sourceFlags struct {
	root     string
	manifest string
}

func (s *sourceFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&s.root, "root", "", "asset directory (default: config root)")
	fs.StringVar(&s.manifest, "manifest", "", "identifier manifest (default: <root>.wasset.jsonc beside the root)")
}

// resolve applies config defaults and returns the root, manifest path and
// walk options.
func (s *sourceFlags) resolve(a *app) (string, string, walk.Options, error) {
	cfg := *a.cfg
	if s.root != "" {
		cfg.Root = s.root
	}
	if s.manifest != "" {
		cfg.Manifest = s.manifest
	}
	if cfg.Root == "" {
		return "", "", walk.Options{}, fmt.Errorf("--root is required")
	}

	mpath, err := cfg.ManifestPath()
	if err != nil {
		return "", "", walk.Options{}, err
	}
	root := cfg.Root

	opts := cfg.WalkOptions()
	opts.Skip = []string{mpath, mpath + ".lock"}
	return root, mpath, opts, nil
}

func (a *app) openStore(ctx context.Context, path string, readOnly bool) (*manifest.Store, error) {
	return manifest.Open(ctx, path, manifest.OpenOptions{
		ReadOnly:    readOnly,
		LockTimeout: a.cfg.LockDuration(),
	})
}

// build runs the encoder under the manifest lock and saves new identifiers.
func (a *app) build(ctx context.Context, src *sourceFlags, prune bool) (res *encoder.Result, err error) {
	root, mpath, opts, err := src.resolve(a)
	if err != nil {
		return nil, err
	}
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx, mpath, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	res, err = encoder.Build(ctx, encoder.Config{
		Adapter:  adapter,
		Manifest: store.Manifest(),
		Logger:   a.log.Named("encoder"),
		Root:     root,
		Walk:     opts,
	})
	if err != nil {
		return nil, err
	}

	if prune {
		live := make(map[string]struct{}, len(res.Assets))
		for _, asset := range res.Assets {
			live[asset.Path] = struct{}{}
		}
		removed := store.Manifest().Prune(func(p string) bool {
			_, ok := live[p]
			return ok
		})
		if len(removed) > 0 {
			a.log.Info("pruned stale manifest entries", zap.Strings("paths", removed))
		}
	}

	if err := store.Save(); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func runEncode(ctx context.Context, a *app, args []string) error {
	var (
		src   sourceFlags
		out   string
		prune bool
	)
	fs := a.newFlagSet("encode", "--root DIR --out FILE [flags]")
	src.add(fs)
	fs.StringVarP(&out, "out", "o", "", "section output file (- for stdout)")
	fs.BoolVar(&prune, "prune", false, "drop manifest entries for files no longer present")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	res, err := a.build(ctx, &src, prune)
	if err != nil {
		return err
	}
	a.log.Info("encoded assets", zap.Int("assets", len(res.Assets)), zap.Int("bytes", len(res.Section)))
	return a.writeOutput(out, res.Section)
}

func runEmbed(ctx context.Context, a *app, args []string) error {
	var (
		src    sourceFlags
		module string
		out    string
		prune  bool
		verify bool
		engCfg = a.cfg.EngineConfig()
	)
	fs := a.newFlagSet("embed", "--module IN.wasm --root DIR --out OUT.wasm [flags]")
	src.add(fs)
	fs.StringVarP(&module, "module", "m", "", "input module or component")
	fs.StringVarP(&out, "out", "o", "", "output module (defaults to overwriting --module)")
	fs.BoolVar(&prune, "prune", false, "drop manifest entries for files no longer present")
	fs.BoolVar(&verify, "verify", false, "compile the result with wazero")
	fs.BoolVar(&engCfg.EnableThreads, "threads", engCfg.EnableThreads, "accept the threads proposal when verifying")
	fs.Uint32Var(&engCfg.MemoryLimitPages, "memory-limit-pages", engCfg.MemoryLimitPages, "reject modules declaring more memory pages when verifying (0: wazero default)")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if module == "" {
		return fmt.Errorf("--module is required")
	}
	if out == "" {
		out = module
	}

	input, err := os.ReadFile(module)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}
	res, err := a.build(ctx, &src, prune)
	if err != nil {
		return err
	}
	output, err := encoder.Embed(input, res.Section)
	if err != nil {
		return err
	}

	if verify {
		if wasm.IsComponent(output) {
			a.log.Warn("skipping verification: wazero does not compile components")
		} else if err := verifyModule(ctx, engCfg, output); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	}

	a.log.Info("embedded assets",
		zap.String("module", out),
		zap.Int("assets", len(res.Assets)),
		zap.Int("section", len(res.Section)))
	return a.writeOutput(out, output)
}

// verifyModule compiles module with an engine built from cfg.
func verifyModule(ctx context.Context, cfg *engine.Config, module []byte) (err error) {
	eng := engine.NewWazeroEngineWithConfig(ctx, cfg)
	defer func() {
		err = multierr.Append(err, eng.Close(ctx))
	}()
	return eng.Validate(ctx, module)
}

func runGen(ctx context.Context, a *app, args []string) (err error) {
	var (
		src   sourceFlags
		opts  codegen.Options
		out   string
		check bool
	)
	fs := a.newFlagSet("gen", "--root DIR --out FILE.go [flags]")
	src.add(fs)
	fs.StringVar(&opts.Package, "package", a.cfg.Package, "generated package name")
	fs.StringVar(&opts.Var, "var", a.cfg.Var, "generated variable name")
	fs.StringVarP(&out, "out", "o", a.cfg.Output, "generated file (- for stdout)")
	fs.BoolVar(&check, "check", false, "fail if the generated file is missing or stale; never writes")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	root, mpath, walkOpts, err := src.resolve(a)
	if err != nil {
		return err
	}
	adapter, err := a.adapter()
	if err != nil {
		return err
	}
	walkOpts = encoder.WalkOptions(walkOpts, adapter)

	store, err := a.openStore(ctx, mpath, check)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	var tree *encoder.Tree
	if check {
		tree, err = codegen.ScanKnown(ctx, root, store.Manifest(), walkOpts)
	} else {
		tree, err = codegen.Scan(ctx, root, store.Manifest(), walkOpts)
	}
	if err != nil {
		return err
	}
	source, err := codegen.Generate(tree, opts)
	if err != nil {
		return err
	}

	if check {
		if out == "" || out == "-" {
			return fmt.Errorf("--check needs --out")
		}
		existing, err := os.ReadFile(out)
		if err != nil {
			return fmt.Errorf("read %s: %w", out, err)
		}
		if !bytes.Equal(existing, source) {
			return fmt.Errorf("%s is out of date; run wasset gen", out)
		}
		return nil
	}

	if err := store.Save(); err != nil {
		return err
	}
	a.log.Info("generated identifiers", zap.String("out", out), zap.Int("assets", tree.Len()))
	return a.writeOutput(out, source)
}
