package wasset

import "context"

// SectionName is the reserved custom section name holding the asset section.
const SectionName = "__wasset_assets"

// Source is one asset file handed to an Encoder.
type Source struct {
	// Metadata holds the file's entry from the directory's Wasset.yaml, or nil.
	Metadata map[string]any
	// Path is the slash-separated path relative to the asset root.
	Path string
	// Ext is the lowercase extension without the dot.
	Ext  string
	Data []byte
}

// Encoder turns an asset file into a record payload.
type Encoder interface {
	Encode(ctx context.Context, src *Source) ([]byte, error)
}

// Decoder turns a record payload back into an asset value.
type Decoder[T any] interface {
	Decode(payload []byte) (T, error)
}

// Adapter is a schema adapter: the encoder and decoder for one asset type.
// Decode(Encode(x)) must yield the value Encode was built from.
type Adapter[T any] interface {
	Encoder
	Decoder[T]
}

// Selector is optionally implemented by an Encoder to exclude files before
// identifiers are assigned. Excluded files get no manifest entry, no record
// and no generated constant.
type Selector interface {
	Select(path string) bool
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(ctx context.Context, src *Source) ([]byte, error)

func (f EncoderFunc) Encode(ctx context.Context, src *Source) ([]byte, error) {
	return f(ctx, src)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc[T any] func(payload []byte) (T, error)

func (f DecoderFunc[T]) Decode(payload []byte) (T, error) {
	return f(payload)
}

// Bytes is the identity adapter: payloads are the file contents.
type Bytes struct{}

var _ Adapter[[]byte] = Bytes{}

func (Bytes) Encode(_ context.Context, src *Source) ([]byte, error) {
	return src.Data, nil
}

// Decode returns the payload itself, sharing its backing array.
func (Bytes) Decode(payload []byte) ([]byte, error) {
	return payload, nil
}

// CustomSection is a named custom section taken from a module by any
// enumerator.
type CustomSection struct {
	Name string
	Data []byte
}

// SelectFunc returns the selection predicate of enc, or nil if enc does not
// implement Selector.
func SelectFunc(enc Encoder) func(string) bool {
	if s, ok := enc.(Selector); ok {
		return s.Select
	}
	return nil
}

