package codegen

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
	"github.com/wippyai/wasset/manifest"
)

func TestFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"some_text", "SomeText"},
		{"more-text", "MoreText"},
		{"camelCase", "CamelCase"},
		{"a", "A"},
		{"a.txt", "ATxt"},
		{"9lives", "X9lives"},
		{"two words", "TwoWords"},
		{"日本", "X日本"},
		{"élan", "Élan"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FieldName(tt.in); got != tt.want {
				t.Errorf("FieldName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// squash collapses whitespace so assertions do not depend on gofmt alignment.
func squash(b []byte) string {
	return strings.Join(strings.Fields(string(b)), " ")
}

func tree(t *testing.T, paths ...string) *encoder.Tree {
	t.Helper()
	gen := assetid.NewCounter(0xabcdef)
	var assets []encoder.Asset
	for _, p := range paths {
		id, err := gen.NewID()
		if err != nil {
			t.Fatal(err)
		}
		assets = append(assets, encoder.Asset{Path: p, ID: id})
	}
	return encoder.NewTree(assets)
}

func TestGenerate(t *testing.T) {
	tr := tree(t, "a.txt", "b.bin", "sub/some_text.md")
	out, err := Generate(tr, Options{Package: "embedded", Var: "Files"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := squash(out)

	if !bytes.HasPrefix(out, []byte(Header+"\n")) {
		t.Errorf("missing header:\n%s", src)
	}
	for _, want := range []string{
		"package embedded",
		`import "github.com/wippyai/wasset/assetid"`,
		"var Files = struct {",
		"A assetid.ID // a.txt",
		"Sub struct {",
		"SomeText assetid.ID // sub/some_text.md",
		"var FilesPaths = map[assetid.ID]string{",
		`"sub/some_text.md",`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("output lacks %q:\n%s", want, src)
		}
	}

	for a := range tr.Assets() {
		if !strings.Contains(src, a.ID.GoString()) {
			t.Errorf("output lacks identifier of %s", a.Path)
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	tr := tree(t, "x/y/z.txt", "x/a.txt", "b")
	first, err := Generate(tr, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(tr, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Generate is not deterministic")
	}
	if !bytes.Contains(first, []byte("package "+DefaultPackage)) || !bytes.Contains(first, []byte("var "+DefaultVar+" =")) {
		t.Errorf("defaults not applied:\n%s", first)
	}
}

func TestGenerate_Empty(t *testing.T) {
	out, err := Generate(tree(t), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.Contains(out, []byte("struct{}{}")) || !bytes.Contains(out, []byte("map[assetid.ID]string{}")) {
		t.Errorf("empty tree output:\n%s", out)
	}
}

func TestGenerate_Naming(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"stem collision", []string{"a.txt", "a.bin"}, []string{"ABin assetid.ID", "ATxt assetid.ID"}},
		{"file versus directory", []string{"a.txt", "a/b"}, []string{"ATxt assetid.ID", "A struct {"}},
		{"leading digit", []string{"1.txt"}, []string{"X1 assetid.ID"}},
		{"no stem", []string{"_.md"}, []string{"Md assetid.ID"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(tree(t, tt.paths...), Options{})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			src := squash(out)
			for _, w := range tt.want {
				if !strings.Contains(src, w) {
					t.Errorf("output lacks %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		opts  Options
	}{
		{"unresolvable collision", []string{"a-b.txt", "a_b.txt"}, Options{}},
		{"bad package", nil, Options{Package: "not valid"}},
		{"unexported var", nil, Options{Var: "assets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tree(t, tt.paths...), tt.opts)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("error = %v, want invalid input", err)
			}
		})
	}
}

func writeRoot(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScan_AgreesWithEncoder(t *testing.T) {
	ctx := context.Background()
	root := writeRoot(t, "a.txt", "b.bin", "dir/c.txt")
	m := manifest.New(nil)

	scanned, err := Scan(ctx, root, m, walk.Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res, err := encoder.Build(ctx, encoder.Config{Root: root, Adapter: wasset.Bytes{}, Manifest: m})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := map[string]assetid.ID{}
	for _, a := range res.Assets {
		want[a.Path] = a.ID
	}
	n := 0
	for a := range scanned.Assets() {
		n++
		if want[a.Path] != a.ID {
			t.Errorf("%s: scanned %s, encoded %s", a.Path, a.ID, want[a.Path])
		}
	}
	if n != len(res.Assets) {
		t.Errorf("scanned %d assets, encoded %d", n, len(res.Assets))
	}

	first, _ := Generate(scanned, Options{})
	second, _ := Generate(res.Tree, Options{})
	if !bytes.Equal(first, second) {
		t.Error("generated source differs between scan and build trees")
	}
}

func TestScanKnown(t *testing.T) {
	ctx := context.Background()
	root := writeRoot(t, "a.txt")
	m := manifest.New(nil)

	if _, err := ScanKnown(ctx, root, m, walk.Options{}); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
	if m.Len() != 0 {
		t.Error("ScanKnown minted an identifier")
	}

	if _, err := m.Resolve("a.txt"); err != nil {
		t.Fatal(err)
	}
	tr, err := ScanKnown(ctx, root, m, walk.Options{})
	if err != nil {
		t.Fatalf("ScanKnown: %v", err)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

// importerFunc serves a stand-in assetid package so generated files can be
// type-checked without building the module.
type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

func assetidPackage() *types.Package {
	pkg := types.NewPackage("github.com/wippyai/wasset/assetid", "assetid")
	name := types.NewTypeName(token.NoPos, pkg, "ID", nil)
	types.NewNamed(name, types.NewArray(types.Typ[types.Byte], assetid.Size), nil)
	pkg.Scope().Insert(name)
	pkg.MarkComplete()
	return pkg
}

// literalID evaluates an assetid.ID{0x.., ...} composite literal.
func literalID(t *testing.T, e ast.Expr) assetid.ID {
	t.Helper()
	lit, ok := e.(*ast.CompositeLit)
	if !ok || len(lit.Elts) != assetid.Size {
		t.Fatalf("expression is not an identifier literal: %T", e)
	}
	var id assetid.ID
	for i, elt := range lit.Elts {
		b, ok := elt.(*ast.BasicLit)
		if !ok {
			t.Fatalf("element %d is %T", i, elt)
		}
		v, err := strconv.ParseUint(b.Value, 0, 8)
		if err != nil {
			t.Fatalf("element %d: %v", i, err)
		}
		id[i] = byte(v)
	}
	return id
}

// fieldValue follows keys through nested composite literals.
func fieldValue(t *testing.T, lit *ast.CompositeLit, keys ...string) ast.Expr {
	t.Helper()
	for i, key := range keys {
		var next ast.Expr
		for _, elt := range lit.Elts {
			kv := elt.(*ast.KeyValueExpr)
			if ident, ok := kv.Key.(*ast.Ident); ok && ident.Name == key {
				next = kv.Value
			}
		}
		if next == nil {
			t.Fatalf("no field %s", strings.Join(keys[:i+1], "."))
		}
		if i == len(keys)-1 {
			return next
		}
		lit = next.(*ast.CompositeLit)
	}
	return lit
}

func TestGenerate_TypeChecksAndMatchesManifest(t *testing.T) {
	ctx := context.Background()
	root := writeRoot(t, "a.txt", "b.bin", "dir/sub/more-text.md", "dir/some_text.txt")
	m := manifest.New(assetid.NewCounter(42))

	tr, err := Scan(ctx, root, m, walk.Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	src, err := Generate(tr, Options{Package: "bundle", Var: "Files"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "files.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse generated source: %v\n%s", err, src)
	}
	conf := types.Config{Importer: importerFunc(func(path string) (*types.Package, error) {
		if path != "github.com/wippyai/wasset/assetid" {
			return nil, fmt.Errorf("unexpected import %q", path)
		}
		return assetidPackage(), nil
	})}
	if _, err := conf.Check("bundle", fset, []*ast.File{file}, nil); err != nil {
		t.Fatalf("generated source does not type-check: %v\n%s", err, src)
	}

	values := map[string]*ast.CompositeLit{}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		spec := gen.Specs[0].(*ast.ValueSpec)
		values[spec.Names[0].Name] = spec.Values[0].(*ast.CompositeLit)
	}

	fields := []struct {
		path string
		keys []string
	}{
		{"a.txt", []string{"A"}},
		{"b.bin", []string{"B"}},
		{"dir/some_text.txt", []string{"Dir", "SomeText"}},
		{"dir/sub/more-text.md", []string{"Dir", "Sub", "MoreText"}},
	}
	for _, f := range fields {
		want, ok := m.Lookup(f.path)
		if !ok {
			t.Fatalf("manifest has no %s", f.path)
		}
		if got := literalID(t, fieldValue(t, values["Files"], f.keys...)); got != want {
			t.Errorf("Files.%s = %s, want %s", strings.Join(f.keys, "."), got, want)
		}
		if !bytes.Contains(src, []byte("// "+f.path+" "+want.String())) {
			t.Errorf("field comment for %s lacks its identifier", f.path)
		}
	}

	paths := values["FilesPaths"]
	if len(paths.Elts) != m.Len() {
		t.Fatalf("FilesPaths has %d entries, want %d", len(paths.Elts), m.Len())
	}
	for _, elt := range paths.Elts {
		kv := elt.(*ast.KeyValueExpr)
		p, err := strconv.Unquote(kv.Value.(*ast.BasicLit).Value)
		if err != nil {
			t.Fatal(err)
		}
		if want, _ := m.Lookup(p); literalID(t, kv.Key) != want {
			t.Errorf("FilesPaths entry for %s does not match the manifest", p)
		}
	}
}
