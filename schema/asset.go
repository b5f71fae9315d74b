package schema

import (
	"fmt"
	"strings"
)

// Kind is the type of an asset.
type Kind string

const (
	KindText   Kind = "text"
	KindBinary Kind = "binary"
	KindRecord Kind = "record"
)

// ParseKind accepts "text", "binary" or "record".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindText, KindBinary, KindRecord:
		return k, nil
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

// KindForExt returns the kind used for a lowercase extension without the dot.
func KindForExt(ext string) Kind {
	switch ext {
	case "txt", "md":
		return KindText
	case "yaml", "yml", "json", "jsonc":
		return KindRecord
	default:
		return KindBinary
	}
}

// Asset is a decoded asset. Exactly one of Text, Binary and Record is set,
// according to Kind.
type Asset struct {
	Record map[string]any
	Kind   Kind
	Text   string
	Binary []byte
}

// Bytes returns the asset's content as bytes: the UTF-8 text, the binary data,
// or the record's CBOR encoding.
func (a Asset) Bytes() ([]byte, error) {
	switch a.Kind {
	case KindText:
		return []byte(a.Text), nil
	case KindBinary:
		return a.Binary, nil
	case KindRecord:
		return encMode.Marshal(a.Record)
	}
	return nil, fmt.Errorf("unknown asset kind %q", a.Kind)
}

// String returns a short description for listings.
func (a Asset) String() string {
	switch a.Kind {
	case KindText:
		return fmt.Sprintf("text(%d bytes)", len(a.Text))
	case KindBinary:
		return fmt.Sprintf("binary(%d bytes)", len(a.Binary))
	case KindRecord:
		return fmt.Sprintf("record(%d keys)", len(a.Record))
	}
	return string(a.Kind)
}
