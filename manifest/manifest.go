package manifest

import (
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/walk"
)

// Manifest maps normalized asset paths to identifiers. It is not safe for
// concurrent use; Store provides cross-process exclusion.
type Manifest struct {
	gen    assetid.Generator
	byPath map[string]assetid.ID
	byID   map[assetid.ID]string
	dirty  bool
}

// New returns an empty manifest minting identifiers with gen, or with
// assetid.Random when gen is nil.
func New(gen assetid.Generator) *Manifest {
	if gen == nil {
		gen = assetid.Random
	}
	return &Manifest{
		gen:    gen,
		byPath: make(map[string]assetid.ID),
		byID:   make(map[assetid.ID]string),
	}
}

// SetGenerator replaces the identifier generator.
func (m *Manifest) SetGenerator(gen assetid.Generator) {
	if gen == nil {
		gen = assetid.Random
	}
	m.gen = gen
}

// Resolve returns the identifier recorded for p, minting and recording a new
// one if p is unknown. A minted identifier that is already held by another
// path is rejected with an IdentifierCollision error and nothing is recorded.
func (m *Manifest) Resolve(p string) (assetid.ID, error) {
	norm, err := walk.Normalize(p)
	if err != nil {
		return assetid.Nil, errors.InvalidInput(errors.PhaseManifest, p, "invalid asset path", err)
	}
	if id, ok := m.byPath[norm]; ok {
		return id, nil
	}

	id, err := m.gen.NewID()
	if err != nil {
		return assetid.Nil, errors.New(errors.PhaseManifest, errors.KindInvalidInput).
			Path(norm).
			Detail("mint identifier").
			Cause(err).
			Build()
	}
	if err := m.insert(norm, id); err != nil {
		return assetid.Nil, err
	}

	Logger().Debug("minted asset identifier", zap.String("path", norm), zap.Stringer("id", id))
	return id, nil
}

// Lookup returns the identifier recorded for p without minting.
func (m *Manifest) Lookup(p string) (assetid.ID, bool) {
	norm, err := walk.Normalize(p)
	if err != nil {
		return assetid.Nil, false
	}
	id, ok := m.byPath[norm]
	return id, ok
}

// PathOf returns the path holding id.
func (m *Manifest) PathOf(id assetid.ID) (string, bool) {
	p, ok := m.byID[id]
	return p, ok
}

// Insert records an explicit mapping. Re-inserting an identical mapping is a
// no-op; changing a path's identifier or reusing an identifier is an error.
func (m *Manifest) Insert(p string, id assetid.ID) error {
	norm, err := walk.Normalize(p)
	if err != nil {
		return errors.InvalidInput(errors.PhaseManifest, p, "invalid asset path", err)
	}
	if old, ok := m.byPath[norm]; ok {
		if old == id {
			return nil
		}
		return errors.New(errors.PhaseManifest, errors.KindIdentifierCollision).
			Path(norm).
			ID(id.String()).
			Detail("path already has identifier %s", old).
			Build()
	}
	return m.insert(norm, id)
}

func (m *Manifest) insert(norm string, id assetid.ID) error {
	if id.IsNil() {
		return errors.New(errors.PhaseManifest, errors.KindIdentifierCollision).
			Path(norm).
			Detail("nil identifier").
			Build()
	}
	if other, ok := m.byID[id]; ok {
		return errors.IdentifierCollision(errors.PhaseManifest, id.String(), norm, other)
	}
	m.byPath[norm] = id
	m.byID[id] = norm
	m.dirty = true
	return nil
}

// Prune removes entries for which keep returns false and returns the removed
// paths in sorted order.
func (m *Manifest) Prune(keep func(path string) bool) []string {
	var removed []string
	for p, id := range m.byPath {
		if keep(p) {
			continue
		}
		delete(m.byPath, p)
		delete(m.byID, id)
		removed = append(removed, p)
	}
	if len(removed) > 0 {
		m.dirty = true
		slices.Sort(removed)
	}
	return removed
}

// Paths returns all recorded paths in sorted order.
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.byPath))
	for p := range m.byPath {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Entries iterates path/identifier pairs in sorted path order.
func (m *Manifest) Entries() iter.Seq2[string, assetid.ID] {
	return func(yield func(string, assetid.ID) bool) {
		for _, p := range m.Paths() {
			if !yield(p, m.byPath[p]) {
				return
			}
		}
	}
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.byPath)
}

// Dirty reports whether the manifest changed since it was loaded or last
// marked clean.
func (m *Manifest) Dirty() bool {
	return m.dirty
}

// MarkClean clears the dirty flag after a successful save.
func (m *Manifest) MarkClean() {
	m.dirty = false
}
