package manifest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
)

// FormatVersion is the manifest document version.
const FormatVersion = 1

// Banner heads every written manifest.
const Banner = "// Code generated by wasset. DO NOT EDIT.\n"

// Extension is appended to the asset root's name to form the default path.
const Extension = ".wasset.jsonc"

var checksumKey = func() [32]byte {
	var k [32]byte
	copy(k[:], "wasset manifest checksum v1")
	return k
}()

type document struct {
	Version  int               `json:"version"`
	Checksum string            `json:"checksum,omitempty"`
	Entries  map[string]string `json:"entries"`
}

// DefaultPath returns the sidecar manifest location for an asset root:
// <parent>/<root-name>.wasset.jsonc.
func DefaultPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.InvalidInput(errors.PhaseManifest, root, "resolve asset root", err)
	}
	name := filepath.Base(abs)
	if name == string(filepath.Separator) || name == "." {
		return "", errors.InvalidInput(errors.PhaseManifest, root, "asset root has no name", nil)
	}
	return filepath.Join(filepath.Dir(abs), name+Extension), nil
}

// Checksum computes the keyed BLAKE3 digest of the manifest's entries.
func (m *Manifest) Checksum() string {
	h, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic(fmt.Sprintf("manifest: blake3 key: %v", err))
	}
	for p, id := range m.Entries() {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(id[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Marshal renders the manifest document. Output is deterministic.
func (m *Manifest) Marshal() ([]byte, error) {
	doc := document{
		Version:  FormatVersion,
		Checksum: m.Checksum(),
		Entries:  make(map[string]string, m.Len()),
	}
	for p, id := range m.Entries() {
		doc.Entries[p] = id.String()
	}

	var buf bytes.Buffer
	buf.WriteString(Banner)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes a manifest document. path is used for error reporting only.
// A document without a checksum is accepted; one with a wrong checksum is not.
func Parse(data []byte, path string, gen assetid.Generator) (*Manifest, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.ManifestUnreadable(path, "invalid document", err)
	}
	if doc.Version != FormatVersion {
		return nil, errors.ManifestUnreadable(path, fmt.Sprintf("unsupported version %d", doc.Version), nil)
	}

	m := New(gen)
	for p, s := range doc.Entries {
		norm, err := walk.Normalize(p)
		if err != nil || norm != p {
			return nil, errors.ManifestUnreadable(path, fmt.Sprintf("invalid entry path %q", p), err)
		}
		id, err := assetid.Parse(s)
		if err != nil {
			return nil, errors.ManifestUnreadable(path, fmt.Sprintf("invalid identifier for %q", p), err)
		}
		if err := m.insert(norm, id); err != nil {
			return nil, errors.ManifestUnreadable(path, "duplicate identifier", err)
		}
	}

	if doc.Checksum != "" && !strings.EqualFold(doc.Checksum, m.Checksum()) {
		return nil, errors.ManifestUnreadable(path, "checksum mismatch", nil)
	}
	m.MarkClean()
	return m, nil
}

// Load reads the manifest at path. A missing file yields an empty manifest.
func Load(path string, gen assetid.Generator) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(gen), nil
		}
		return nil, errors.ManifestUnreadable(path, "read manifest", err)
	}
	return Parse(data, path, gen)
}

// WriteFile writes the manifest to path atomically: the document goes to a
// temporary file in the same directory which is synced and renamed over path.
func WriteFile(path string, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	tmpName = ""
	return nil
}
