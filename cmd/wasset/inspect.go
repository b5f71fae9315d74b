package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/manifest"
	"github.com/wippyai/wasset/parser"
	"github.com/wippyai/wasset/schema"
)

// entry is one row of list output.
type entry struct {
	ID     assetid.ID `json:"id"`
	Path   string     `json:"path,omitempty"`
	Kind   string     `json:"kind"`
	Digest string     `json:"blake3"`
	Size   int        `json:"size"`
	data   []byte
}

// readEntries decodes every record of module. A record whose payload the
// reference schema cannot decode is listed with kind "?".
func (a *app) readEntries(module []byte, m *manifest.Manifest) ([]entry, error) {
	p, err := parser.Open[[]byte](module, wasset.Bytes{})
	if err != nil {
		return nil, err
	}
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, p.Len())
	for id, res := range p.All() {
		if res.Err != nil {
			return entries, res.Err
		}
		digest := blake3.Sum256(res.Value)
		e := entry{
			ID:     id,
			Kind:   "?",
			Digest: hex.EncodeToString(digest[:]),
			Size:   len(res.Value),
			data:   res.Value,
		}
		if asset, err := adapter.Decode(res.Value); err == nil {
			e.Kind = string(asset.Kind)
		}
		if m != nil {
			e.Path, _ = m.PathOf(id)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (a *app) readModule(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	return data, nil
}

// loadManifest loads an optional manifest for path annotations.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		return nil, nil
	}
	return manifest.Load(path, nil)
}

func runList(_ context.Context, a *app, args []string) error {
	var (
		asJSON   bool
		mpath    string
		fullHash bool
	)
	fs := a.newFlagSet("list", "MODULE [flags]")
	fs.BoolVar(&asJSON, "json", false, "print JSON")
	fs.StringVar(&mpath, "manifest", "", "manifest used to show asset paths")
	fs.BoolVar(&fullHash, "full", false, "print full digests")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("list takes exactly one module")
	}

	module, err := a.readModule(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := loadManifest(mpath)
	if err != nil {
		return err
	}
	entries, err := a.readEntries(module, m)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tKIND\tSIZE\tBLAKE3")
	for _, e := range entries {
		digest := e.Digest
		if !fullHash {
			digest = digest[:16]
		}
		p := e.Path
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.ID, p, e.Kind, e.Size, digest)
	}
	return w.Flush()
}

// render returns a human readable form of asset: text as is, binary data
// unchanged and records as YAML.
func render(asset schema.Asset) ([]byte, error) {
	if asset.Kind == schema.KindRecord {
		return yaml.Marshal(asset.Record)
	}
	return asset.Bytes()
}

func runCat(_ context.Context, a *app, args []string) error {
	var raw bool
	fs := a.newFlagSet("cat", "MODULE ID [flags]")
	fs.BoolVar(&raw, "raw", false, "write the encoded payload instead of the decoded asset")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("cat takes a module and an asset id")
	}

	id, err := assetid.Parse(fs.Arg(1))
	if err != nil {
		return err
	}
	module, err := a.readModule(fs.Arg(0))
	if err != nil {
		return err
	}

	if raw {
		p, err := parser.Open[[]byte](module, wasset.Bytes{})
		if err != nil {
			return err
		}
		payload, err := p.Raw(id)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(payload)
		return err
	}

	adapter, err := a.adapter()
	if err != nil {
		return err
	}
	p, err := parser.Open[schema.Asset](module, adapter)
	if err != nil {
		return err
	}
	asset, err := p.Lookup(id)
	if err != nil {
		return err
	}
	out, err := render(asset)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(out)
	return err
}

func runStrip(_ context.Context, a *app, args []string) error {
	var out string
	fs := a.newFlagSet("strip", "MODULE --out FILE")
	fs.StringVarP(&out, "out", "o", "", "output module (- for stdout)")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("strip takes exactly one module")
	}
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	module, err := a.readModule(fs.Arg(0))
	if err != nil {
		return err
	}
	stripped, err := parser.Strip(module)
	if err != nil {
		return err
	}
	a.log.Info("stripped asset section", zap.Int("removed", len(module)-len(stripped)))
	return a.writeOutput(out, stripped)
}
