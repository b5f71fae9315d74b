package engine

import (
	"context"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/wasm"
)

// WazeroEngine compiles core modules with custom sections retained.
// It is safe for concurrent use.
type WazeroEngine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages caps declared memory in pages (64KB each); modules
	// declaring more fail to compile. 0 means the wazero default.
	MemoryLimitPages uint32

	// EnableThreads accepts modules using the threads proposal.
	EnableThreads bool
}

// NewWazeroEngine creates an engine with the default configuration.
func NewWazeroEngine(ctx context.Context) *WazeroEngine {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates an engine with custom configuration.
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) *WazeroEngine {
	runtimeCfg := wazero.NewRuntimeConfig().WithCustomSections(true)
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.EnableThreads {
			runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
		}
	}
	return &WazeroEngine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}
}

// Close releases the underlying runtime.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *WazeroEngine) compile(ctx context.Context, module []byte) (wazero.CompiledModule, error) {
	if wasm.IsComponent(module) {
		return nil, errors.InvalidInput(errors.PhaseParse, "", "wazero cannot compile components", nil)
	}
	compiled, err := e.runtime.CompileModule(ctx, module)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseParse, "", "compile module", err)
	}
	return compiled, nil
}

// CustomSections compiles module and returns its custom sections in binary
// order. Section data is copied out of the compiled module.
func (e *WazeroEngine) CustomSections(ctx context.Context, module []byte) (out []wasset.CustomSection, err error) {
	compiled, err := e.compile(ctx, module)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, compiled.Close(ctx))
	}()

	for _, s := range compiled.CustomSections() {
		out = append(out, wasset.CustomSection{Name: s.Name(), Data: slices.Clone(s.Data())})
	}
	Logger().Debug("compiled module for custom sections",
		zap.Int("size", len(module)),
		zap.Int("sections", len(out)))
	return out, nil
}

// Validate reports whether module compiles.
func (e *WazeroEngine) Validate(ctx context.Context, module []byte) error {
	compiled, err := e.compile(ctx, module)
	if err != nil {
		return err
	}
	return compiled.Close(ctx)
}

// CustomSections compiles module with a temporary engine and returns its
// custom sections.
func CustomSections(ctx context.Context, module []byte) (out []wasset.CustomSection, err error) {
	e := NewWazeroEngine(ctx)
	defer func() {
		err = multierr.Append(err, e.Close(ctx))
	}()
	return e.CustomSections(ctx, module)
}

// Validate compiles module with a temporary engine.
func Validate(ctx context.Context, module []byte) (err error) {
	e := NewWazeroEngine(ctx)
	defer func() {
		err = multierr.Append(err, e.Close(ctx))
	}()
	return e.Validate(ctx, module)
}
