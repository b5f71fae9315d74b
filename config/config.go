package config

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/engine"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
	"github.com/wippyai/wasset/manifest"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "WASSET_CONFIG"

// Config is the wasset CLI configuration.
type Config struct {
	// Root is the asset directory.
	Root string `yaml:"root"`

	// Manifest is the identifier manifest path.
	// Default: <parent of root>/<root name>.wasset.jsonc
	Manifest string `yaml:"manifest"`

	// Include and Exclude filter asset paths (path.Match syntax, matched
	// against the relative path and the base name).
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Extensions restricts the reference schema to these extensions.
	Extensions []string `yaml:"extensions"`

	// Compression is the default payload compression: zstd, lz4 or none.
	Compression string `yaml:"compression"`

	// Package and Var name the generated Go package and variable.
	Package string `yaml:"package"`
	Var     string `yaml:"var"`

	// Output is the generated Go file.
	Output string `yaml:"output"`

	// SectionName may be set to document the section name; it must equal
	// the reserved name.
	SectionName string `yaml:"section_name"`

	// LockTimeout bounds manifest lock acquisition.
	// Default: 30s
	LockTimeout string `yaml:"lock_timeout"`

	// MemoryLimitPages caps module memory when verifying embedded modules.
	// 0 keeps the wazero default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// Threads accepts modules using the threads proposal when verifying.
	Threads bool `yaml:"threads"`
}

// maxMemoryPages is the 4 GiB ceiling of 32-bit linear memory.
const maxMemoryPages = 65536

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Package:     "assets",
		Var:         "Assets",
		LockTimeout: manifest.DefaultLockTimeout.String(),
	}
}

// Load loads the file named by WASSET_CONFIG, or returns Default when the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over Default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, path, "read config", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.InvalidInput(errors.PhaseConfig, path, "parse config", err)
	}

	cfg.expandVariables()
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, path, "invalid config", err)
	}
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Root, &c.Manifest, &c.Output} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	c.Root = expandVars(c.Root)
	c.Manifest = expandVars(c.Manifest)
	c.Output = expandVars(c.Output)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs error

	if c.SectionName != "" && c.SectionName != wasset.SectionName {
		errs = multierr.Append(errs, fmt.Errorf("section_name must be %q, got %q", wasset.SectionName, c.SectionName))
	}
	if c.LockTimeout != "" {
		if _, err := time.ParseDuration(c.LockTimeout); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lock_timeout: %w", err))
		}
	}
	if err := walk.ValidatePatterns(c.Include); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("include: %w", err))
	}
	if err := walk.ValidatePatterns(c.Exclude); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("exclude: %w", err))
	}
	if c.Package != "" && !token.IsIdentifier(c.Package) {
		errs = multierr.Append(errs, fmt.Errorf("package %q is not a Go identifier", c.Package))
	}
	if c.Var != "" && (!token.IsIdentifier(c.Var) || !token.IsExported(c.Var)) {
		errs = multierr.Append(errs, fmt.Errorf("var %q is not an exported Go identifier", c.Var))
	}
	if c.MemoryLimitPages > maxMemoryPages {
		errs = multierr.Append(errs, fmt.Errorf("memory_limit_pages must be at most %d, got %d", maxMemoryPages, c.MemoryLimitPages))
	}
	switch c.Compression {
	case "", "none", "zstd", "lz4":
	default:
		errs = multierr.Append(errs, fmt.Errorf("compression must be one of zstd, lz4, none; got %q", c.Compression))
	}
	return errs
}

// LockDuration returns LockTimeout parsed, or the manifest default.
func (c *Config) LockDuration() time.Duration {
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil || c.LockTimeout == "" {
		return manifest.DefaultLockTimeout
	}
	return d
}

// EngineConfig returns the wazero settings used to verify modules.
func (c *Config) EngineConfig() *engine.Config {
	return &engine.Config{
		MemoryLimitPages: c.MemoryLimitPages,
		EnableThreads:    c.Threads,
	}
}

// WalkOptions returns the include and exclude filters.
func (c *Config) WalkOptions() walk.Options {
	return walk.Options{Include: c.Include, Exclude: c.Exclude}
}

// ManifestPath returns Manifest, or the default sidecar path for Root.
func (c *Config) ManifestPath() (string, error) {
	if c.Manifest != "" {
		return c.Manifest, nil
	}
	if c.Root == "" {
		return "", errors.InvalidInput(errors.PhaseConfig, "", "asset root is required", nil)
	}
	return manifest.DefaultPath(c.Root)
}
