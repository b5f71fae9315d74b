package encoder

import (
	"iter"
	"path"
	"slices"
	"strings"

	"github.com/wippyai/wasset/assetid"
)

// Asset is one encoded file.
type Asset struct {
	Path string
	Size int64
	ID   assetid.ID
}

// Name returns the asset's base name.
func (a Asset) Name() string {
	return path.Base(a.Path)
}

// Tree is the directory hierarchy of a set of assets. Subdirectories and files
// are each kept sorted by name.
type Tree struct {
	Name  string // directory name, "" for the root
	Path  string // normalized directory path, "" for the root
	Dirs  []*Tree
	Files []Asset
}

// NewTree arranges assets by directory.
func NewTree(assets []Asset) *Tree {
	root := &Tree{}
	for _, a := range assets {
		dir := root
		if d := path.Dir(a.Path); d != "." {
			for _, part := range strings.Split(d, "/") {
				dir = dir.child(part)
			}
		}
		dir.Files = append(dir.Files, a)
	}
	root.sort()
	return root
}

func (t *Tree) child(name string) *Tree {
	for _, d := range t.Dirs {
		if d.Name == name {
			return d
		}
	}
	p := name
	if t.Path != "" {
		p = t.Path + "/" + name
	}
	d := &Tree{Name: name, Path: p}
	t.Dirs = append(t.Dirs, d)
	return d
}

func (t *Tree) sort() {
	slices.SortFunc(t.Dirs, func(a, b *Tree) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(t.Files, func(a, b Asset) int { return strings.Compare(a.Name(), b.Name()) })
	for _, d := range t.Dirs {
		d.sort()
	}
}

// Dir returns the subtree at the normalized directory path p, or nil.
func (t *Tree) Dir(p string) *Tree {
	if p == "" || p == "." {
		return t
	}
	cur := t
	for _, part := range strings.Split(p, "/") {
		var next *Tree
		for _, d := range cur.Dirs {
			if d.Name == part {
				next = d
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// Len returns the number of files in the tree.
func (t *Tree) Len() int {
	n := len(t.Files)
	for _, d := range t.Dirs {
		n += d.Len()
	}
	return n
}

// Assets iterates every file, files of a directory before its subdirectories.
func (t *Tree) Assets() iter.Seq[Asset] {
	return func(yield func(Asset) bool) {
		t.each(yield)
	}
}

func (t *Tree) each(yield func(Asset) bool) bool {
	for _, a := range t.Files {
		if !yield(a) {
			return false
		}
	}
	for _, d := range t.Dirs {
		if !d.each(yield) {
			return false
		}
	}
	return true
}
