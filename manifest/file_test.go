package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
)

func sample(t *testing.T) *Manifest {
	t.Helper()
	m := New(assetid.NewCounter(42))
	for _, p := range []string{"b.bin", "a.txt", "sub/c.md"} {
		if _, err := m.Resolve(p); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestMarshal_RoundTrip(t *testing.T) {
	m := sample(t)
	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(Banner)) {
		t.Errorf("missing banner:\n%s", data)
	}
	if ia, ib := bytes.Index(data, []byte(`"a.txt"`)), bytes.Index(data, []byte(`"b.bin"`)); ia > ib {
		t.Error("entries not written in sorted order")
	}

	loaded, err := Parse(data, "m.jsonc", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if loaded.Dirty() {
		t.Error("freshly parsed manifest is dirty")
	}
	for p, id := range m.Entries() {
		got, ok := loaded.Lookup(p)
		if !ok || got != id {
			t.Errorf("Lookup(%q) = %s, %v; want %s", p, got, ok, id)
		}
	}

	again, err := loaded.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round trip not byte-identical:\n%s\n---\n%s", data, again)
	}
}

func TestParse_AcceptsComments(t *testing.T) {
	doc := `// hand written
{
  /* no checksum */
  "version": 1,
  "entries": {
    "a.txt": "ae189ff9-b0d4-48fc-b0e1-3093d53bff85", // trailing comma next
  },
}`
	m, err := Parse([]byte(doc), "m.jsonc", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, ok := m.Lookup("a.txt")
	if !ok || id.String() != "ae189ff9-b0d4-48fc-b0e1-3093d53bff85" {
		t.Errorf("Lookup = %s, %v", id, ok)
	}
}

func TestParse_Unreadable(t *testing.T) {
	const (
		idA = "ae189ff9-b0d4-48fc-b0e1-3093d53bff85"
		idB = "0cf0f2c5-0d43-4b33-9e2e-4c6a1f1b59f4"
	)
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"wrong version", `{"version":2,"entries":{}}`},
		{"bad uuid", `{"version":1,"entries":{"a":"nope"}}`},
		{"duplicate id", `{"version":1,"entries":{"a":"` + idA + `","b":"` + idA + `"}}`},
		{"unnormalized path", `{"version":1,"entries":{"./a":"` + idA + `"}}`},
		{"escaping path", `{"version":1,"entries":{"../a":"` + idA + `"}}`},
		{"checksum mismatch", `{"version":1,"checksum":"00","entries":{"a":"` + idA + `","b":"` + idB + `"}}`},
		{"unknown field", `{"version":1,"entries":{},"extra":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "m.jsonc", nil)
			if !errors.Is(err, errors.ErrManifestUnreadable) {
				t.Errorf("Parse error = %v, want manifest unreadable", err)
			}
		})
	}
}

func TestParse_TamperedEntry(t *testing.T) {
	data, err := sample(t).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	tampered := bytes.Replace(data, []byte(`"a.txt"`), []byte(`"z.txt"`), 1)
	if _, err := Parse(tampered, "m.jsonc", nil); !errors.Is(err, errors.ErrManifestUnreadable) {
		t.Errorf("Parse error = %v, want manifest unreadable", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.jsonc"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Len() != 0 || m.Dirty() {
		t.Errorf("missing manifest: Len=%d Dirty=%v", m.Len(), m.Dirty())
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.wasset.jsonc")
	m := sample(t)

	if err := WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Checksum() != m.Checksum() {
		t.Error("checksum differs after reload")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	got, err := DefaultPath(filepath.Join(dir, "assets") + string(filepath.Separator))
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "assets.wasset.jsonc")
	if got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}
