// Package config loads wasset CLI configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the WASSET_CONFIG environment variable. There is no discovery of files in
// the working directory or elsewhere: without either, Default applies.
//
//	root: assets
//	manifest: assets.wasset.jsonc
//	include: ["*.txt", "*.yaml"]
//	exclude: ["drafts"]
//	package: assets
//	var: Assets
//	output: assets_gen.go
//	compression: zstd
//	lock_timeout: 30s
//
// Relative paths are resolved against the directory holding the file, and
// ${VAR} / ${VAR:-default} references are expanded from the environment.
// Command line flags override file values.
package config
