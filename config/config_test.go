package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/manifest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wasset.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Package != "assets" || cfg.Var != "Assets" {
		t.Errorf("package/var = %s/%s, want assets/Assets", cfg.Package, cfg.Var)
	}
	if cfg.LockDuration() != manifest.DefaultLockTimeout {
		t.Errorf("LockDuration = %v, want %v", cfg.LockDuration(), manifest.DefaultLockTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_Unset(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Var != Default().Var {
		t.Errorf("Load without %s did not return defaults", EnvVar)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "root: assets\nvar: Files\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "assets"); cfg.Root != want {
		t.Errorf("Root = %q, want %q", cfg.Root, want)
	}
	if cfg.Var != "Files" || cfg.Package != "assets" {
		t.Errorf("Var/Package = %s/%s", cfg.Var, cfg.Package)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("WASSET_TEST_ROOT", "/srv/assets")
	path := writeConfig(t, `
root: ${WASSET_TEST_ROOT}
manifest: ${WASSET_TEST_UNSET:-ids.jsonc}
include: ["*.txt"]
exclude: [drafts]
package: embedded
var: Embedded
output: gen/assets.go
section_name: __wasset_assets
lock_timeout: 5s
compression: lz4
memory_limit_pages: 256
threads: true
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	dir := filepath.Dir(path)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"root", cfg.Root, "/srv/assets"},
		{"manifest", cfg.Manifest, filepath.Join(dir, "ids.jsonc")},
		{"output", cfg.Output, filepath.Join(dir, "gen/assets.go")},
		{"package", cfg.Package, "embedded"},
		{"var", cfg.Var, "Embedded"},
		{"compression", cfg.Compression, "lz4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	if cfg.LockDuration() != 5*time.Second {
		t.Errorf("LockDuration = %v, want 5s", cfg.LockDuration())
	}
	opts := cfg.WalkOptions()
	if len(opts.Include) != 1 || len(opts.Exclude) != 1 {
		t.Errorf("WalkOptions = %+v", opts)
	}
	mp, err := cfg.ManifestPath()
	if err != nil || mp != cfg.Manifest {
		t.Errorf("ManifestPath = %q, %v", mp, err)
	}
	if ec := cfg.EngineConfig(); ec.MemoryLimitPages != 256 || !ec.EnableThreads {
		t.Errorf("EngineConfig = %+v, want 256 pages with threads", ec)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "rooot: x\n"},
		{"bad yaml", "root: [\n"},
		{"wrong section name", "section_name: other\n"},
		{"bad timeout", "lock_timeout: soon\n"},
		{"bad pattern", "include: ['[']\n"},
		{"bad package", "package: 'not ok'\n"},
		{"unexported var", "var: assets\n"},
		{"bad compression", "compression: brotli\n"},
		{"memory limit too large", "memory_limit_pages: 65537\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("LoadFile error = %v, want invalid input", err)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("missing file error = %v, want invalid input", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Package != "assets" {
		t.Errorf("Package = %q, want default", cfg.Package)
	}
}

func TestManifestPath_Default(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Root = filepath.Join(dir, "assets")
	got, err := cfg.ManifestPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "assets.wasset.jsonc"); got != want {
		t.Errorf("ManifestPath = %q, want %q", got, want)
	}

	if _, err := Default().ManifestPath(); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ManifestPath without root error = %v", err)
	}
}
