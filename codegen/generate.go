package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/errors"
)

// Header is the first line of every generated file.
const Header = "// Code generated by wasset. DO NOT EDIT."

// Defaults for Options.
const (
	DefaultPackage = "assets"
	DefaultVar     = "Assets"
)

// Options controls the generated file.
type Options struct {
	Package string
	Var     string
}

type field struct {
	dir   *encoder.Tree
	asset *encoder.Asset
	name  string
}

type generator struct {
	buf    bytes.Buffer
	fields map[*encoder.Tree][]field
}

// Generate renders tree as a gofmt-formatted Go source file. The output
// depends only on tree and opts.
func Generate(tree *encoder.Tree, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.Var == "" {
		opts.Var = DefaultVar
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "", fmt.Sprintf("invalid package name %q", opts.Package), nil)
	}
	if !token.IsIdentifier(opts.Var) || !token.IsExported(opts.Var) {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "", fmt.Sprintf("variable name %q is not an exported identifier", opts.Var), nil)
	}

	g := &generator{fields: make(map[*encoder.Tree][]field)}
	if err := g.layout(tree); err != nil {
		return nil, err
	}

	g.printf("%s\n\n", Header)
	g.printf("package %s\n\n", opts.Package)
	g.printf("import \"github.com/wippyai/wasset/assetid\"\n\n")

	g.printf("// %s holds the identifier of every embedded asset.\n", opts.Var)
	g.printf("var %s = ", opts.Var)
	g.structType(tree, true)
	g.values(tree)
	g.printf("\n\n")

	g.printf("// %sPaths maps each identifier in %s to its asset path.\n", opts.Var, opts.Var)
	g.printf("var %sPaths = map[assetid.ID]string{", opts.Var)
	if tree.Len() > 0 {
		g.printf("\n")
		for a := range tree.Assets() {
			g.printf("%#v: %s,\n", a.ID, strconv.Quote(a.Path))
		}
	}
	g.printf("}\n")

	out, err := format.Source(g.buf.Bytes())
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
			Detail("format generated source").
			Cause(err).
			Build()
	}
	return out, nil
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *generator) structType(t *encoder.Tree, comments bool) {
	if len(g.fields[t]) == 0 {
		g.printf("struct{}")
		return
	}
	g.printf("struct {\n")
	for _, f := range g.fields[t] {
		if f.dir != nil {
			g.printf("%s ", f.name)
			g.structType(f.dir, comments)
			g.printf("\n")
			continue
		}
		g.printf("%s assetid.ID", f.name)
		if comments {
			g.printf(" // %s %s", commentText(f.asset.Path), f.asset.ID)
		}
		g.printf("\n")
	}
	g.printf("}")
}

func (g *generator) values(t *encoder.Tree) {
	if len(g.fields[t]) == 0 {
		g.printf("{}")
		return
	}
	g.printf("{\n")
	for _, f := range g.fields[t] {
		if f.dir != nil {
			g.printf("%s: ", f.name)
			g.structType(f.dir, false)
			g.values(f.dir)
			g.printf(",\n")
			continue
		}
		g.printf("%s: %#v,\n", f.name, f.asset.ID)
	}
	g.printf("}")
}

// layout assigns field names for every directory in t.
func (g *generator) layout(t *encoder.Tree) error {
	var fields []field
	for _, d := range t.Dirs {
		fields = append(fields, field{dir: d, name: FieldName(d.Name)})
	}
	for i := range t.Files {
		a := &t.Files[i]
		name := a.Name()
		fields = append(fields, field{asset: a, name: FieldName(strings.TrimSuffix(name, path.Ext(name)))})
	}

	// Files whose stem clashes with a sibling fall back to the full name.
	counts := nameCounts(fields)
	for i := range fields {
		f := &fields[i]
		if f.asset != nil && (f.name == "" || counts[f.name] > 1) {
			f.name = FieldName(f.asset.Name())
		}
	}

	counts = nameCounts(fields)
	for _, f := range fields {
		if f.name == "" || counts[f.name] > 1 {
			return errors.InvalidInput(errors.PhaseGenerate, entryPath(f),
				fmt.Sprintf("cannot derive a unique field name (got %q)", f.name), nil)
		}
	}

	slices.SortFunc(fields, func(a, b field) int { return strings.Compare(a.name, b.name) })
	g.fields[t] = fields

	for _, d := range t.Dirs {
		if err := g.layout(d); err != nil {
			return err
		}
	}
	return nil
}

func nameCounts(fields []field) map[string]int {
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f.name]++
	}
	return counts
}

func entryPath(f field) string {
	if f.dir != nil {
		return f.dir.Path
	}
	return f.asset.Path
}

// FieldName converts a file or directory name into an exported Go identifier.
// Runs of characters that are neither letters nor digits separate words, and
// each word is capitalized: "some_text" becomes "SomeText". A name that does
// not start with an upper-case letter afterwards gets an "X" prefix. It
// returns "" when s has no letters or digits.
func FieldName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" {
		return ""
	}
	if first, _ := utf8.DecodeRuneInString(name); !unicode.IsUpper(first) {
		name = "X" + name
	}
	return name
}

func commentText(p string) string {
	if strings.ContainsFunc(p, unicode.IsControl) {
		return strconv.Quote(p)
	}
	return p
}
