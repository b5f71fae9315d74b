package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasset"
)

// Metadata keys read from Wasset.yaml.
const (
	MetaKind     = "kind"
	MetaAppend   = "append"
	MetaCompress = "compress"
)

// maxBodySize bounds the decompressed size a payload may declare.
const maxBodySize = 1 << 30

// Adapter encodes files as Assets. The zero value accepts every file and
// compresses nothing.
type Adapter struct {
	// Extensions, when set, restricts selection to these lowercase
	// extensions without the dot.
	Extensions []string

	// Compression applies to files whose metadata does not name one.
	Compression Compression
}

var (
	_ wasset.Adapter[Asset] = Adapter{}
	_ wasset.Selector       = Adapter{}
)

// Select reports whether p has one of the configured extensions.
func (a Adapter) Select(p string) bool {
	if len(a.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	return slices.Contains(a.Extensions, ext)
}

// Encode converts src into a CBOR envelope.
func (a Adapter) Encode(_ context.Context, src *wasset.Source) ([]byte, error) {
	kind := KindForExt(src.Ext)
	if v, ok := src.Metadata[MetaKind]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("metadata %q must be a string, got %T", MetaKind, v)
		}
		k, err := ParseKind(s)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	comp := a.Compression
	if v, ok := src.Metadata[MetaCompress]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("metadata %q must be a string, got %T", MetaCompress, v)
		}
		c, err := ParseCompression(s)
		if err != nil {
			return nil, err
		}
		comp = c
	}

	var (
		body []byte
		err  error
	)
	switch kind {
	case KindText:
		body, err = encodeText(src)
	case KindRecord:
		body, err = encodeRecord(src)
	default:
		body = src.Data
	}
	if err != nil {
		return nil, err
	}

	size := len(body)
	body, comp, err = compress(body, comp)
	if err != nil {
		return nil, err
	}

	env := envelope{Kind: kind, Compression: comp, Body: body}
	if comp != CompressionNone {
		env.Size = size
	}
	return encMode.Marshal(env)
}

func encodeText(src *wasset.Source) ([]byte, error) {
	if !utf8.Valid(src.Data) {
		return nil, fmt.Errorf("%s is not valid UTF-8", src.Path)
	}
	v, ok := src.Metadata[MetaAppend]
	if !ok {
		return src.Data, nil
	}
	suffix, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("metadata %q must be a string, got %T", MetaAppend, v)
	}
	out := make([]byte, 0, len(src.Data)+len(suffix))
	out = append(out, src.Data...)
	return append(out, suffix...), nil
}

func encodeRecord(src *wasset.Source) ([]byte, error) {
	rec := map[string]any{}
	switch src.Ext {
	case "json", "jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(src.Data)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.Path, err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: record must be an object, got %T", src.Path, v)
		}
		rec = normalizeJSON(m).(map[string]any)
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(src.Data, &node); err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.Path, err)
		}
		if len(node.Content) > 0 {
			doc := resolveAlias(node.Content[0])
			if doc.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%s: record must be a mapping", src.Path)
			}
			var err error
			if rec, err = yamlMapping(doc); err != nil {
				return nil, fmt.Errorf("decode %s: %w", src.Path, err)
			}
		}
	}
	return encMode.Marshal(rec)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// yamlValue converts n into the record model: string-keyed maps, slices and
// scalars. Timestamps keep their source text, so every value survives a
// CBOR round trip unchanged.
func yamlValue(n *yaml.Node) (any, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		return yamlMapping(n)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!timestamp", "!!binary":
			return n.Value, nil
		case "!!int":
			var i int64
			if err := n.Decode(&i); err == nil {
				return i, nil
			}
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// yamlMapping converts a mapping node. Scalar keys are kept as their source
// text ("200", "true"); complex keys and duplicates are rejected. Merge keys
// (<<) contribute entries the mapping does not set itself.
func yamlMapping(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := resolveAlias(n.Content[i]), n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
		}
		if k.ShortTag() == "!!merge" {
			merges = append(merges, resolveAlias(v))
			continue
		}
		if _, dup := out[k.Value]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
		}
		val, err := yamlValue(v)
		if err != nil {
			return nil, err
		}
		out[k.Value] = val
	}

	for _, m := range merges {
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = sources[:0]
			for _, c := range m.Content {
				sources = append(sources, resolveAlias(c))
			}
		}
		for _, src := range sources {
			if src.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge value must be a mapping", src.Line)
			}
			merged, err := yamlMapping(src)
			if err != nil {
				return nil, err
			}
			for k, v := range merged {
				if _, ok := out[k]; !ok {
					out[k] = v
				}
			}
		}
	}
	return out, nil
}

// normalizeJSON converts json.Number values to int64 when integral and
// float64 otherwise, so integers survive without float rounding.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeJSON(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeJSON(e)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	}
	return v
}

// Decode restores an Asset from a payload produced by Encode.
func (a Adapter) Decode(payload []byte) (Asset, error) {
	var env envelope
	if err := decMode.Unmarshal(payload, &env); err != nil {
		return Asset{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Size < 0 || env.Size > maxBodySize {
		return Asset{}, fmt.Errorf("declared body size %d out of range", env.Size)
	}

	body, err := decompress(env.Body, env.Compression, env.Size)
	if err != nil {
		return Asset{}, err
	}

	switch env.Kind {
	case KindText:
		if !utf8.Valid(body) {
			return Asset{}, fmt.Errorf("text asset is not valid UTF-8")
		}
		return Asset{Kind: KindText, Text: string(body)}, nil
	case KindBinary:
		return Asset{Kind: KindBinary, Binary: body}, nil
	case KindRecord:
		var rec map[string]any
		if err := decMode.Unmarshal(body, &rec); err != nil {
			return Asset{}, fmt.Errorf("decode record: %w", err)
		}
		if rec == nil {
			rec = map[string]any{}
		}
		return Asset{Kind: KindRecord, Record: rec}, nil
	}
	return Asset{}, fmt.Errorf("unknown asset kind %q", env.Kind)
}
