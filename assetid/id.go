package assetid

import (
	"fmt"

	"github.com/google/uuid"
)

// Size is the byte length of an ID.
const Size = 16

// ID is a 128-bit asset identifier. IDs are comparable and usable as map keys;
// their byte order implies nothing.
type ID [Size]byte

// Nil is the zero ID. It is never minted and marks "no identifier".
var Nil ID

// FromBytes copies a 16-byte slice into an ID.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != Size {
		return id, fmt.Errorf("assetid: need %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Parse decodes the canonical UUID text form (and the other forms accepted by
// uuid.Parse, such as the urn: prefix or braces).
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("assetid: %w", err)
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on malformed input.
// Intended for tests and static tables.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical lowercase UUID form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero ID.
func (id ID) IsNil() bool {
	return id == Nil
}

// Bytes returns a copy of the raw bytes.
func (id ID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// GoString renders the ID as a composite literal, the form generated code uses.
func (id ID) GoString() string {
	b := make([]byte, 0, 6+Size*6)
	b = append(b, "assetid.ID{"...)
	for i, v := range id {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = fmt.Appendf(b, "0x%02x", v)
	}
	return string(append(b, '}'))
}
