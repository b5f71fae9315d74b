// Package walk enumerates asset files under a root directory. The encoder and
// the code generator both call Collect so that they see the same files under
// the same normalized paths.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Per-directory metadata file names. They are never assets themselves.
const (
	MetadataFile    = "Wasset.yaml"
	MetadataFileAlt = "Wasset.yml"
)

// File is one asset source file.
type File struct {
	Path string // normalized path relative to the root, slash separated
	OS   string // path usable with os.Open
	Size int64
}

// Dir returns the normalized parent directory of the file, "" at the root.
func (f File) Dir() string {
	d := path.Dir(f.Path)
	if d == "." {
		return ""
	}
	return d
}

// Name returns the file's base name.
func (f File) Name() string {
	return path.Base(f.Path)
}

// Options filters the walk.
type Options struct {
	// Select, when set, must return true for a file to be included.
	Select func(path string) bool

	// Include patterns (path.Match syntax). Empty means everything. A pattern
	// matches either the full relative path or the base name.
	Include []string

	// Exclude patterns. Matching directories are skipped entirely.
	Exclude []string

	// Skip lists OS paths never to include, such as a manifest sidecar kept
	// inside the root.
	Skip []string
}

// Normalize converts p to the canonical relative form used as a manifest key:
// slash separated, cleaned, relative, and not escaping the root.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty asset path")
	}
	s := path.Clean(filepath.ToSlash(p))
	switch {
	case s == ".":
		return "", fmt.Errorf("asset path %q names the root", p)
	case strings.HasPrefix(s, "/") || filepath.IsAbs(p):
		return "", fmt.Errorf("asset path %q is absolute", p)
	case s == ".." || strings.HasPrefix(s, "../"):
		return "", fmt.Errorf("asset path %q escapes the root", p)
	}
	return s, nil
}

// Collect walks root recursively and returns the selected regular files sorted
// by normalized path. Hidden entries (leading dot), metadata files and
// symlinks are ignored.
func Collect(ctx context.Context, root string, opts Options) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory", root)
	}

	skip := make(map[string]struct{}, len(opts.Skip))
	for _, s := range opts.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			skip[abs] = struct{}{}
		}
	}

	var files []File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		norm, err := Normalize(rel)
		if err != nil {
			return err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(opts.Exclude, norm) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if name == MetadataFile || name == MetadataFileAlt {
			return nil
		}
		if abs, err := filepath.Abs(p); err == nil {
			if _, ok := skip[abs]; ok {
				return nil
			}
		}
		if len(opts.Include) > 0 && !matchAny(opts.Include, norm) {
			return nil
		}
		if opts.Select != nil && !opts.Select(norm) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{Path: norm, OS: p, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// ValidatePatterns reports the first malformed pattern.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if _, err := path.Match(pat, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", pat, err)
		}
	}
	return nil
}
