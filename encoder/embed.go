package encoder

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/wasm"
)

// Embed returns module with sectionBytes as its asset section. An existing
// asset section, including ones inside nested component modules, is replaced
// so rebuilt modules keep exactly one. The input is not modified.
func Embed(module, sectionBytes []byte) ([]byte, error) {
	out, err := wasm.SetCustomSection(module, wasset.SectionName, sectionBytes)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseEmbed, "", "invalid module", err)
	}
	Logger().Debug("embedded asset section",
		zap.Int("section", len(sectionBytes)),
		zap.Int("module", len(out)))
	return out, nil
}

// EncodeModule builds the asset section described by cfg and embeds it into
// module.
func EncodeModule(ctx context.Context, module []byte, cfg Config) ([]byte, error) {
	res, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Embed(module, res.Section)
}
