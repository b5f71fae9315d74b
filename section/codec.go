package section

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
)

const (
	// Version is the only section format version this package reads or writes.
	Version uint32 = 1

	// HeaderSize is the size of the version and count fields.
	HeaderSize = 8

	// RecordHeaderSize is the size of a record's identifier and length fields.
	RecordHeaderSize = assetid.Size + 4
)

// Record is one identifier and its payload.
type Record struct {
	Payload []byte
	ID      assetid.ID
}

// Writer accumulates records into section bytes. The zero value is not usable;
// call NewWriter.
type Writer struct {
	buf   []byte
	count uint32
}

// NewWriter returns a Writer with the header reserved.
func NewWriter() *Writer {
	return NewWriterSize(0)
}

// NewWriterSize returns a Writer whose buffer can hold n payload bytes without
// growing.
func NewWriterSize(n int) *Writer {
	w := &Writer{buf: make([]byte, HeaderSize, HeaderSize+n)}
	binary.LittleEndian.PutUint32(w.buf[0:4], Version)
	return w
}

// Add appends one record.
func (w *Writer) Add(id assetid.ID, payload []byte) error {
	if w.count == math.MaxUint32 {
		return errors.InvalidInput(errors.PhaseEncode, "", "section record count exceeds u32", nil)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			ID(id.String()).
			Detail("payload of %d bytes exceeds u32 length field", len(payload)).
			Build()
	}

	w.buf = append(w.buf, id[:]...)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(payload)))
	w.buf = append(w.buf, payload...)
	w.count++
	return nil
}

// Count returns the number of records added.
func (w *Writer) Count() int {
	return int(w.count)
}

// Len returns the current encoded size in bytes.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded section. The slice aliases the Writer's buffer
// until the next Add.
func (w *Writer) Bytes() []byte {
	binary.LittleEndian.PutUint32(w.buf[4:8], w.count)
	return w.buf
}

// Encode serializes records in the given order. Identical input always yields
// identical bytes.
func Encode(records []Record) ([]byte, error) {
	return AppendEncode(nil, records)
}

// AppendEncode appends the section encoding of records to dst.
func AppendEncode(dst []byte, records []Record) ([]byte, error) {
	if uint64(len(records)) > math.MaxUint32 {
		return dst, errors.InvalidInput(errors.PhaseEncode, "", "section record count exceeds u32", nil)
	}
	size := HeaderSize
	for _, rec := range records {
		if uint64(len(rec.Payload)) > math.MaxUint32 {
			return dst, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				ID(rec.ID.String()).
				Detail("payload of %d bytes exceeds u32 length field", len(rec.Payload)).
				Build()
		}
		size += RecordHeaderSize + len(rec.Payload)
	}

	dst = slices.Grow(dst, size)
	dst = binary.LittleEndian.AppendUint32(dst, Version)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(records)))
	for _, rec := range records {
		dst = append(dst, rec.ID[:]...)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(rec.Payload)))
		dst = append(dst, rec.Payload...)
	}
	return dst, nil
}

// Reader is a validated, read-only view over section bytes. It is immutable
// and safe for concurrent use.
type Reader struct {
	data    []byte
	version uint32
	count   uint32
}

// Decode validates the header of data. Records are read lazily.
//
// A buffer too short for the header, or one that cannot possibly hold the
// declared record count, is a truncation error. An unknown version is a format
// error.
func Decode(data []byte) (*Reader, error) {
	if len(data) < HeaderSize {
		return nil, errors.SectionTruncated(len(data), fmt.Sprintf("header needs %d bytes, have %d", HeaderSize, len(data)))
	}

	version := binary.LittleEndian.Uint32(data[0:4])
	if version != Version {
		return nil, errors.New(errors.PhaseParse, errors.KindSectionFormat).
			Detail("unsupported section version %d (want %d)", version, Version).
			Build()
	}

	count := binary.LittleEndian.Uint32(data[4:8])
	if uint64(count)*RecordHeaderSize > uint64(len(data)-HeaderSize) {
		return nil, errors.SectionTruncated(HeaderSize,
			fmt.Sprintf("%d records declared but only %d bytes follow the header", count, len(data)-HeaderSize))
	}

	return &Reader{data: data, version: version, count: count}, nil
}

// Version returns the format version from the header.
func (r *Reader) Version() uint32 {
	return r.version
}

// Count returns the declared record count.
func (r *Reader) Count() int {
	return int(r.count)
}

// Size returns the section length in bytes.
func (r *Reader) Size() int {
	return len(r.data)
}

// Cursor starts a fresh traversal from the first record.
func (r *Reader) Cursor() *Cursor {
	return &Cursor{data: r.data, pos: HeaderSize, remaining: r.count}
}

// Collect reads every record into a slice. Payloads still alias the section.
func (r *Reader) Collect() ([]Record, error) {
	out := make([]Record, 0, r.count)
	c := r.Cursor()
	for c.Next() {
		out = append(out, c.Record())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
