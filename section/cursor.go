package section

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
)

// Cursor walks the records of one section. A Cursor is not safe for
// concurrent use; start one per goroutine with Reader.Cursor.
type Cursor struct {
	err       error
	data      []byte
	rec       Record
	pos       int
	remaining uint32
	done      bool
}

// Next advances to the next record. It returns false at the end of the
// section or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}

	if c.remaining == 0 {
		c.done = true
		if c.pos != len(c.data) {
			c.err = errors.New(errors.PhaseParse, errors.KindSectionFormat).
				Offset(c.pos).
				Detail("%d trailing bytes after last record", len(c.data)-c.pos).
				Build()
		}
		return false
	}

	avail := len(c.data) - c.pos
	if avail < RecordHeaderSize {
		return c.fail(fmt.Sprintf("record header needs %d bytes, have %d", RecordHeaderSize, avail))
	}

	id := assetid.ID(c.data[c.pos : c.pos+assetid.Size])
	length := binary.LittleEndian.Uint32(c.data[c.pos+assetid.Size : c.pos+RecordHeaderSize])
	start := c.pos + RecordHeaderSize
	if uint64(length) > uint64(len(c.data)-start) {
		return c.fail(fmt.Sprintf("record %s declares %d payload bytes, have %d", id, length, len(c.data)-start))
	}

	end := start + int(length)
	c.rec = Record{ID: id, Payload: c.data[start:end:end]}
	c.pos = end
	c.remaining--
	return true
}

func (c *Cursor) fail(detail string) bool {
	c.err = errors.SectionTruncated(c.pos, detail)
	c.done = true
	c.rec = Record{}
	return false
}

// Record returns the current record. Valid after Next returns true.
func (c *Cursor) Record() Record {
	return c.rec
}

// Offset returns the byte offset of the next unread record.
func (c *Cursor) Offset() int {
	return c.pos
}

// Err returns the error that stopped the traversal, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Records returns a lazy sequence over the section's records. Every call
// starts over from the first record. A truncation or trailing-bytes error is
// yielded once, with a zero Record, and ends the sequence.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		c := r.Cursor()
		for c.Next() {
			if !yield(c.Record(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(Record{}, err)
		}
	}
}
