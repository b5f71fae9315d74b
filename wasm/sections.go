package wasm

import (
	"encoding/binary"
	"errors"
	"io"
	"iter"

	wbin "github.com/wippyai/wasset/wasm/internal/binary"
)

// Parsing errors returned by the section scanner.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseError carries the byte position of a framing error.
type ParseError = wbin.ParseError

// Section is one raw section of a module or component. All slices alias the
// scanned binary.
type Section struct {
	Raw    []byte // id byte, size prefix and payload exactly as encoded
	Data   []byte // payload after the size prefix
	Offset int    // offset of Data within the scanned binary
	ID     byte
}

// ReadHeader validates the preamble and reports what kind of binary follows.
func ReadHeader(data []byte) (BinaryKind, error) {
	if len(data) < HeaderSize {
		return 0, &ParseError{Section: "header", Position: len(data), Err: io.ErrUnexpectedEOF}
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return 0, ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	switch {
	case version == Version:
		return BinaryModule, nil
	case uint16(version) == ComponentVersion && uint16(version>>16) == ComponentLayer:
		return BinaryComponent, nil
	default:
		return 0, ErrInvalidVersion
	}
}

// IsComponent reports whether data starts with a component preamble.
func IsComponent(data []byte) bool {
	kind, err := ReadHeader(data)
	return err == nil && kind == BinaryComponent
}

// Sections iterates the top-level sections of a module or component without
// decoding them. A framing error is yielded once and ends the sequence.
func Sections(data []byte) iter.Seq2[Section, error] {
	return func(yield func(Section, error) bool) {
		if _, err := ReadHeader(data); err != nil {
			yield(Section{}, err)
			return
		}

		r := wbin.NewReader(data[HeaderSize:])
		for r.Len() > 0 {
			start := r.Position()
			id, _ := r.ReadByte()

			size, err := r.ReadU32()
			if err != nil {
				yield(Section{}, r.WrapError("section size", HeaderSize, err))
				return
			}

			payloadStart := r.Position()
			payload, err := r.ReadBytes(int(size))
			if err != nil {
				yield(Section{}, r.WrapError("section data", HeaderSize, err))
				return
			}

			s := Section{
				ID:     id,
				Data:   payload,
				Offset: HeaderSize + payloadStart,
				Raw:    data[HeaderSize+start : HeaderSize+r.Position() : HeaderSize+r.Position()],
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// nested reports whether a component section holds a complete nested binary.
func nested(kind BinaryKind, id byte) bool {
	return kind == BinaryComponent && (id == ComponentSectionCoreModule || id == ComponentSectionComponent)
}

func writeSection(w *wbin.Writer, id byte, data []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)
}
