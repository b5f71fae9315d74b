package encoder

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
)

// metadata caches each directory's Wasset.yaml, keyed by normalized directory.
type metadata struct {
	log  *zap.Logger
	root string
	dirs map[string]map[string]any
}

func newMetadata(root string, log *zap.Logger) *metadata {
	return &metadata{log: log, root: root, dirs: make(map[string]map[string]any)}
}

// lookup returns the metadata for the file at the normalized path p, or nil.
func (m *metadata) lookup(p string) (map[string]any, error) {
	dir := path.Dir(p)
	entries, ok := m.dirs[dir]
	if !ok {
		var err error
		entries, err = m.load(dir)
		if err != nil {
			return nil, err
		}
		m.dirs[dir] = entries
	}

	v, ok := entries[path.Base(p)]
	if !ok || v == nil {
		return nil, nil
	}
	meta, ok := v.(map[string]any)
	if !ok {
		return nil, errors.AdapterEncode(p, fmt.Errorf("metadata for %s is %T, want a mapping", path.Base(p), v))
	}
	return meta, nil
}

func (m *metadata) load(dir string) (map[string]any, error) {
	osDir := filepath.Join(m.root, filepath.FromSlash(dir))

	var (
		data  []byte
		found string
	)
	for _, name := range []string{walk.MetadataFile, walk.MetadataFileAlt} {
		b, err := os.ReadFile(filepath.Join(osDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.InvalidInput(errors.PhaseEncode, path.Join(dir, name), "read metadata", err)
		}
		if found != "" {
			return nil, errors.InvalidInput(errors.PhaseEncode, path.Join(dir, name),
				fmt.Sprintf("both %s and %s present", walk.MetadataFile, walk.MetadataFileAlt), nil)
		}
		data, found = b, name
	}
	if found == "" {
		return nil, nil
	}

	var entries map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, path.Join(dir, found), "parse metadata", err)
	}
	m.log.Debug("loaded directory metadata", zap.String("path", path.Join(dir, found)), zap.Int("entries", len(entries)))
	return entries, nil
}
