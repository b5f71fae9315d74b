package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/engine"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/manifest"
	"github.com/wippyai/wasset/section"
	"github.com/wippyai/wasset/wasm"
)

var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

var stringDecoder = wasset.DecoderFunc[string](func(p []byte) (string, error) {
	if bytes.Equal(p, []byte("bad")) {
		return "", fmt.Errorf("refusing payload")
	}
	return string(p), nil
})

func records(t *testing.T, payloads ...string) ([]section.Record, []byte) {
	t.Helper()
	gen := assetid.NewCounter(5)
	recs := make([]section.Record, len(payloads))
	for i, p := range payloads {
		id, _ := gen.NewID()
		recs[i] = section.Record{ID: id, Payload: []byte(p)}
	}
	data, err := section.Encode(recs)
	if err != nil {
		t.Fatal(err)
	}
	return recs, data
}

func embed(t *testing.T, sectionBytes []byte) []byte {
	t.Helper()
	mod, err := encoder.Embed(emptyModule, sectionBytes)
	if err != nil {
		t.Fatal(err)
	}
	return mod
}

func TestOpen_BuiltModule(t *testing.T) {
	root := t.TempDir()
	files := map[string][]byte{"a.txt": []byte("hello"), "b.bin": {0x00, 0x01, 0x02}}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(root, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := manifest.New(nil)
	mod, err := encoder.EncodeModule(context.Background(), emptyModule, encoder.Config{
		Root: root, Adapter: wasset.Bytes{}, Manifest: m,
	})
	if err != nil {
		t.Fatalf("EncodeModule: %v", err)
	}

	p, err := Open[[]byte](mod, wasset.Bytes{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}

	var order []assetid.ID
	for id, res := range p.All() {
		if res.Err != nil {
			t.Fatalf("record %s: %v", id, res.Err)
		}
		path, ok := m.PathOf(id)
		if !ok {
			t.Fatalf("record %s not in manifest", id)
		}
		if !bytes.Equal(res.Value, files[path]) {
			t.Errorf("%s = %v, want %v", path, res.Value, files[path])
		}
		order = append(order, id)
	}
	a, _ := m.Lookup("a.txt")
	b, _ := m.Lookup("b.bin")
	if len(order) != 2 || order[0] != a || order[1] != b {
		t.Errorf("record order = %v, want [%s %s]", order, a, b)
	}

	got, err := p.Lookup(b)
	if err != nil || !bytes.Equal(got, files["b.bin"]) {
		t.Errorf("Lookup(b.bin) = %v, %v", got, err)
	}
}

func TestOpen_NoSection(t *testing.T) {
	mod, err := wasm.AppendCustomSection(emptyModule, "other", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	for name, m := range map[string][]byte{"empty": emptyModule, "other section": mod} {
		t.Run(name, func(t *testing.T) {
			p, err := Open[string](m, stringDecoder)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !p.Empty() || p.Len() != 0 {
				t.Errorf("Empty=%v Len=%d", p.Empty(), p.Len())
			}
			for range p.All() {
				t.Error("empty parser yielded a record")
			}
			if _, err := p.Lookup(assetid.MustParse("00000000-0000-0000-0000-000000000001")); !errors.Is(err, errors.ErrNotFound) {
				t.Errorf("Lookup error = %v, want not found", err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, data := records(t, "x")
	twice, err := wasm.AppendCustomSection(embed(t, data), wasset.SectionName, data)
	if err != nil {
		t.Fatal(err)
	}
	badVersion := bytes.Clone(data)
	badVersion[0] = 9

	tests := []struct {
		name   string
		module []byte
		want   error
	}{
		{"bad magic", []byte("\x00wat\x01\x00\x00\x00"), errors.ErrSectionFormat},
		{"truncated module", embed(t, data)[:12], errors.ErrSectionFormat},
		{"two asset sections", twice, errors.ErrSectionFormat},
		{"unknown version", embed(t, badVersion), errors.ErrSectionFormat},
		{"short header", embed(t, data[:5]), errors.ErrSectionTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open[string](tt.module, stringDecoder)
			if !errors.Is(err, tt.want) {
				t.Errorf("Open error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpen_RequiresDecoder(t *testing.T) {
	ctx := context.Background()
	_, data := records(t, "x")
	mod := embed(t, data)
	var nilFunc wasset.DecoderFunc[string]

	tests := []struct {
		name string
		open func(dec wasset.Decoder[string]) (*Parser[string], error)
	}{
		{"Open", func(dec wasset.Decoder[string]) (*Parser[string], error) { return Open(mod, dec) }},
		{"Open without section", func(dec wasset.Decoder[string]) (*Parser[string], error) { return Open(emptyModule, dec) }},
		{"FromSection", func(dec wasset.Decoder[string]) (*Parser[string], error) { return FromSection(data, dec) }},
		{"FromSections", func(dec wasset.Decoder[string]) (*Parser[string], error) { return FromSections(nil, dec) }},
		{"OpenCompiled", func(dec wasset.Decoder[string]) (*Parser[string], error) { return OpenCompiled(ctx, nil, mod, dec) }},
	}
	for _, tt := range tests {
		for _, dec := range []wasset.Decoder[string]{nil, nilFunc} {
			t.Run(tt.name, func(t *testing.T) {
				p, err := tt.open(dec)
				if !errors.Is(err, errors.ErrInvalidInput) {
					t.Errorf("error = %v, want invalid input", err)
				}
				if p != nil {
					t.Error("got a parser for a missing decoder")
				}
			})
		}
	}
}

func TestAll_IsolatedDecodeFailure(t *testing.T) {
	recs, data := records(t, "one", "bad", "three")
	p, err := FromSection(data, stringDecoder)
	if err != nil {
		t.Fatal(err)
	}

	i := 0
	for id, res := range p.All() {
		if id != recs[i].ID {
			t.Errorf("record %d id = %s, want %s", i, id, recs[i].ID)
		}
		switch i {
		case 1:
			if !errors.Is(res.Err, errors.ErrRecordDecode) {
				t.Errorf("record 1 error = %v, want decode failure", res.Err)
			}
			var e *errors.Error
			if errors.As(res.Err, &e) && e.ID != id.String() {
				t.Errorf("error id = %s, want %s", e.ID, id)
			}
		default:
			if res.Err != nil || res.Value != string(recs[i].Payload) {
				t.Errorf("record %d = %q, %v", i, res.Value, res.Err)
			}
		}
		i++
	}
	if i != 3 {
		t.Errorf("yielded %d records, want 3", i)
	}

	if _, err := p.Lookup(recs[1].ID); !errors.Is(err, errors.ErrRecordDecode) {
		t.Errorf("Lookup error = %v, want decode failure", err)
	}
	if raw, err := p.Raw(recs[1].ID); err != nil || string(raw) != "bad" {
		t.Errorf("Raw = %q, %v", raw, err)
	}
}

func TestAll_Truncated(t *testing.T) {
	recs, data := records(t, "first", "second")
	p, err := FromSection(data[:len(data)-3], stringDecoder)
	if err != nil {
		t.Fatalf("FromSection: %v", err)
	}

	var ids []assetid.ID
	var last error
	for id, res := range p.All() {
		ids = append(ids, id)
		last = res.Err
	}
	if len(ids) != 2 || ids[0] != recs[0].ID || ids[1] != assetid.Nil {
		t.Fatalf("ids = %v", ids)
	}
	if !errors.Is(last, errors.ErrSectionTruncated) {
		t.Errorf("final error = %v, want truncated", last)
	}
	if !errors.Is(p.Check(), errors.ErrSectionTruncated) {
		t.Errorf("Check = %v, want truncated", p.Check())
	}

	if v, err := p.Lookup(recs[0].ID); err != nil || v != "first" {
		t.Errorf("Lookup before truncation = %q, %v", v, err)
	}
	if _, err := p.Lookup(recs[1].ID); !errors.Is(err, errors.ErrSectionTruncated) {
		t.Errorf("Lookup past truncation error = %v, want truncated", err)
	}
}

func TestIDs(t *testing.T) {
	recs, data := records(t, "bad", "bad")
	p, err := FromSection(data, stringDecoder)
	if err != nil {
		t.Fatal(err)
	}
	i := 0
	for id := range p.IDs() {
		if id != recs[i].ID {
			t.Errorf("id %d = %s, want %s", i, id, recs[i].ID)
		}
		i++
	}
	if i != 2 {
		t.Errorf("IDs yielded %d, want 2", i)
	}
}

func TestLookup_Concurrent(t *testing.T) {
	recs, data := records(t, "a", "b", "c", "d")
	p, err := FromSection(data, stringDecoder)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range recs {
				rec := recs[(i+g)%len(recs)]
				v, err := p.Lookup(rec.ID)
				if err != nil || v != string(rec.Payload) {
					t.Errorf("Lookup(%s) = %q, %v", rec.ID, v, err)
				}
			}
			n := 0
			for range p.All() {
				n++
			}
			if n != len(recs) {
				t.Errorf("All yielded %d, want %d", n, len(recs))
			}
		}()
	}
	wg.Wait()
}

func TestFromSections(t *testing.T) {
	_, data := records(t, "x")
	tests := []struct {
		name     string
		sections []wasset.CustomSection
		wantLen  int
		wantErr  error
	}{
		{"none", []wasset.CustomSection{{Name: "other"}}, 0, nil},
		{"one", []wasset.CustomSection{{Name: "other"}, {Name: wasset.SectionName, Data: data}}, 1, nil},
		{"two", []wasset.CustomSection{{Name: wasset.SectionName, Data: data}, {Name: wasset.SectionName, Data: data}}, 0, errors.ErrSectionFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromSections(tt.sections, stringDecoder)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Len() != tt.wantLen {
				t.Errorf("Len = %d, want %d", p.Len(), tt.wantLen)
			}
		})
	}
}

func TestOpenCompiled(t *testing.T) {
	ctx := context.Background()
	recs, data := records(t, "compiled")
	mod := embed(t, data)

	eng := engine.NewWazeroEngine(ctx)
	defer eng.Close(ctx)

	for name, e := range map[string]*engine.WazeroEngine{"shared engine": eng, "temporary engine": nil} {
		t.Run(name, func(t *testing.T) {
			p, err := OpenCompiled(ctx, e, mod, stringDecoder)
			if err != nil {
				t.Fatalf("OpenCompiled: %v", err)
			}
			v, err := p.Lookup(recs[0].ID)
			if err != nil || v != "compiled" {
				t.Errorf("Lookup = %q, %v", v, err)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	_, data := records(t, "x")
	withOther, err := wasm.AppendCustomSection(emptyModule, "keep", []byte("me"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		module []byte
		want   []byte
	}{
		{"embedded", embed(t, data), emptyModule},
		{"no section", withOther, withOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Strip(tt.module)
			if err != nil {
				t.Fatalf("Strip: %v", err)
			}
			if !bytes.Equal(out, tt.want) {
				t.Errorf("Strip = %x, want %x", out, tt.want)
			}
		})
	}

	withBoth, err := encoder.Embed(withOther, data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Strip(withBoth)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, withOther) {
		t.Errorf("Strip changed other sections: %x, want %x", out, withOther)
	}

	if _, err := Strip([]byte("junk")); !errors.Is(err, errors.ErrSectionFormat) {
		t.Errorf("Strip(junk) error = %v, want format", err)
	}
}
