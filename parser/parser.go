package parser

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/wippyai/wasset"
	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/engine"
	"github.com/wippyai/wasset/errors"
	"github.com/wippyai/wasset/section"
	"github.com/wippyai/wasset/wasm"
)

// Result is one decoded asset or the error decoding it.
type Result[T any] struct {
	Value T
	Err   error
}

// Parser iterates the records of one asset section.
type Parser[T any] struct {
	reader *section.Reader // nil for a module without an asset section
	dec    wasset.Decoder[T]

	indexOnce sync.Once
	index     map[assetid.ID][]byte
	indexErr  error
}

// Open locates the asset section in a module or component. A binary without
// one yields an empty parser. More than one asset section, or a binary whose
// framing is broken, is a SectionFormat error.
func Open[T any](module []byte, dec wasset.Decoder[T]) (*Parser[T], error) {
	if err := checkDecoder(dec); err != nil {
		return nil, err
	}
	found, err := wasm.FindCustomSections(module, wasset.SectionName)
	if err != nil {
		return nil, errors.SectionFormat("invalid module framing", err)
	}
	switch len(found) {
	case 0:
		return empty(dec), nil
	case 1:
		return FromSection(found[0].Data, dec)
	default:
		return nil, errors.SectionFormat(fmt.Sprintf("%d %s sections", len(found), wasset.SectionName), nil)
	}
}

// FromSection opens raw asset section bytes.
func FromSection[T any](data []byte, dec wasset.Decoder[T]) (*Parser[T], error) {
	if err := checkDecoder(dec); err != nil {
		return nil, err
	}
	r, err := section.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Parser[T]{reader: r, dec: dec}, nil
}

// FromSections opens the asset section among already enumerated custom
// sections, such as those returned by engine.CustomSections.
func FromSections[T any](sections []wasset.CustomSection, dec wasset.Decoder[T]) (*Parser[T], error) {
	if err := checkDecoder(dec); err != nil {
		return nil, err
	}
	var (
		data  []byte
		count int
	)
	for _, s := range sections {
		if s.Name == wasset.SectionName {
			data = s.Data
			count++
		}
	}
	switch count {
	case 0:
		return empty(dec), nil
	case 1:
		return FromSection(data, dec)
	default:
		return nil, errors.SectionFormat(fmt.Sprintf("%d %s sections", count, wasset.SectionName), nil)
	}
}

// OpenCompiled enumerates sections by compiling module with eng, or with a
// temporary engine when eng is nil. Only core modules are supported.
func OpenCompiled[T any](ctx context.Context, eng *engine.WazeroEngine, module []byte, dec wasset.Decoder[T]) (*Parser[T], error) {
	if err := checkDecoder(dec); err != nil {
		return nil, err
	}
	var (
		sections []wasset.CustomSection
		err      error
	)
	if eng != nil {
		sections, err = eng.CustomSections(ctx, module)
	} else {
		sections, err = engine.CustomSections(ctx, module)
	}
	if err != nil {
		return nil, err
	}
	return FromSections(sections, dec)
}

func checkDecoder[T any](dec wasset.Decoder[T]) error {
	if f, ok := dec.(wasset.DecoderFunc[T]); dec == nil || (ok && f == nil) {
		return errors.InvalidInput(errors.PhaseParse, "", "decoder is required", nil)
	}
	return nil
}

func empty[T any](dec wasset.Decoder[T]) *Parser[T] {
	return &Parser[T]{dec: dec}
}

// Len returns the number of records the section declares.
func (p *Parser[T]) Len() int {
	if p.reader == nil {
		return 0
	}
	return p.reader.Count()
}

// Empty reports whether there are no records, including when the module had
// no asset section.
func (p *Parser[T]) Empty() bool {
	return p.Len() == 0
}

// All iterates every record in section order, decoding each payload as it is
// reached. A decode failure is reported in that record's Result and traversal
// continues. A section framing error is yielded with assetid.Nil and ends the
// traversal.
func (p *Parser[T]) All() iter.Seq2[assetid.ID, Result[T]] {
	return func(yield func(assetid.ID, Result[T]) bool) {
		if p.reader == nil {
			return
		}
		for rec, err := range p.reader.Records() {
			if err != nil {
				yield(assetid.Nil, Result[T]{Err: err})
				return
			}
			if !yield(rec.ID, p.decode(rec.ID, rec.Payload)) {
				return
			}
		}
	}
}

// IDs iterates record identifiers without decoding. It stops early at a
// framing error; Check reports that error.
func (p *Parser[T]) IDs() iter.Seq[assetid.ID] {
	return func(yield func(assetid.ID) bool) {
		if p.reader == nil {
			return
		}
		for rec, err := range p.reader.Records() {
			if err != nil || !yield(rec.ID) {
				return
			}
		}
	}
}

// Check walks the whole section and returns its first framing error.
func (p *Parser[T]) Check() error {
	if p.reader == nil {
		return nil
	}
	for _, err := range p.reader.Records() {
		if err != nil {
			return err
		}
	}
	return nil
}

// Raw returns the undecoded payload of id. The slice aliases the module.
func (p *Parser[T]) Raw(id assetid.ID) ([]byte, error) {
	p.indexOnce.Do(p.buildIndex)
	if payload, ok := p.index[id]; ok {
		return payload, nil
	}
	if p.indexErr != nil {
		return nil, p.indexErr
	}
	return nil, errors.NotFound(id.String())
}

// Lookup decodes the payload of id. The first call indexes the section
// without decoding any payload. A missing identifier is IdentifierNotFound; a
// payload that fails to decode is RecordDecodeFailure.
func (p *Parser[T]) Lookup(id assetid.ID) (T, error) {
	payload, err := p.Raw(id)
	if err != nil {
		var zero T
		return zero, err
	}
	res := p.decode(id, payload)
	return res.Value, res.Err
}

// buildIndex records every payload reachable before any framing error. The
// first record wins when an identifier repeats.
func (p *Parser[T]) buildIndex() {
	p.index = make(map[assetid.ID][]byte, p.Len())
	if p.reader == nil {
		return
	}
	for rec, err := range p.reader.Records() {
		if err != nil {
			p.indexErr = err
			return
		}
		if _, dup := p.index[rec.ID]; !dup {
			p.index[rec.ID] = rec.Payload
		}
	}
}

func (p *Parser[T]) decode(id assetid.ID, payload []byte) Result[T] {
	v, err := p.dec.Decode(payload)
	if err != nil {
		return Result[T]{Err: errors.RecordDecode(id.String(), err)}
	}
	return Result[T]{Value: v}
}

// Strip returns module without its asset section. Every other section is kept
// byte for byte. A module without an asset section is returned unchanged.
func Strip(module []byte) ([]byte, error) {
	out, _, err := wasm.RemoveCustomSections(module, wasset.SectionName)
	if err != nil {
		return nil, errors.SectionFormat("invalid module framing", err)
	}
	return out, nil
}
