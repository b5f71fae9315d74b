package wasm

import (
	"fmt"
	"math"

	wbin "github.com/wippyai/wasset/wasm/internal/binary"
)

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name   string
	Data   []byte // aliases the scanned binary
	Offset int    // offset of Data within the outermost binary
	Depth  int    // 0 at top level, deeper inside nested component binaries
}

// ParseCustomSection splits a raw custom section into name and payload.
func ParseCustomSection(s Section) (CustomSection, error) {
	if s.ID != SectionCustom {
		return CustomSection{}, fmt.Errorf("section id %d is not a custom section", s.ID)
	}
	r := wbin.NewReader(s.Data)
	name, err := r.ReadName()
	if err != nil {
		return CustomSection{}, r.WrapError("custom section name", s.Offset, err)
	}
	off := s.Offset + r.Position()
	return CustomSection{
		Name:   name,
		Data:   r.ReadRemaining(),
		Offset: off,
	}, nil
}

// CustomSections lists every custom section in order of appearance. For
// components, custom sections of nested modules and components are included
// with their Depth set.
func CustomSections(data []byte) ([]CustomSection, error) {
	return collectCustom(data, 0, 0, nil)
}

// FindCustomSections lists the custom sections named name.
func FindCustomSections(data []byte, name string) ([]CustomSection, error) {
	all, err := CustomSections(data)
	if err != nil {
		return nil, err
	}
	var out []CustomSection
	for _, cs := range all {
		if cs.Name == name {
			out = append(out, cs)
		}
	}
	return out, nil
}

func collectCustom(data []byte, base, depth int, out []CustomSection) ([]CustomSection, error) {
	kind, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	for s, err := range Sections(data) {
		if err != nil {
			return nil, err
		}
		switch {
		case s.ID == SectionCustom:
			cs, err := ParseCustomSection(s)
			if err != nil {
				return nil, err
			}
			cs.Offset += base
			cs.Depth = depth
			out = append(out, cs)
		case nested(kind, s.ID):
			out, err = collectCustom(s.Data, base+s.Offset, depth+1, out)
			if err != nil {
				return nil, fmt.Errorf("nested binary at %d: %w", base+s.Offset, err)
			}
		}
	}
	return out, nil
}

// AppendCustomSection returns a copy of data with a custom section appended at
// the top level. The input is validated for framing first.
func AppendCustomSection(data []byte, name string, payload []byte) ([]byte, error) {
	for _, err := range Sections(data) {
		if err != nil {
			return nil, err
		}
	}

	size := uint64(SizeLEB128u(uint32(len(name)))) + uint64(len(name)) + uint64(len(payload))
	if uint64(len(name)) > math.MaxUint32 || size > math.MaxUint32 {
		return nil, fmt.Errorf("custom section %q too large: %d bytes", name, size)
	}

	w := wbin.NewWriterSize(len(data) + int(size) + 6)
	w.WriteBytes(data)
	w.Byte(SectionCustom)
	w.WriteU32(uint32(size))
	w.WriteName(name)
	w.WriteBytes(payload)
	return w.Bytes(), nil
}

// RemoveCustomSections drops every custom section named name, descending into
// nested component binaries. All other sections keep their exact encoding.
// When nothing matches, data itself is returned with a zero count.
func RemoveCustomSections(data []byte, name string) ([]byte, int, error) {
	kind, err := ReadHeader(data)
	if err != nil {
		return nil, 0, err
	}

	w := wbin.NewWriterSize(len(data))
	w.WriteBytes(data[:HeaderSize])
	removed := 0

	for s, err := range Sections(data) {
		if err != nil {
			return nil, 0, err
		}
		switch {
		case s.ID == SectionCustom:
			cs, err := ParseCustomSection(s)
			if err != nil {
				return nil, 0, err
			}
			if cs.Name == name {
				removed++
				continue
			}
		case nested(kind, s.ID):
			inner, n, err := RemoveCustomSections(s.Data, name)
			if err != nil {
				return nil, 0, fmt.Errorf("nested binary at %d: %w", s.Offset, err)
			}
			if n > 0 {
				removed += n
				writeSection(w, s.ID, inner)
				continue
			}
		}
		w.WriteBytes(s.Raw)
	}

	if removed == 0 {
		return data, 0, nil
	}
	return w.Bytes(), removed, nil
}

// SetCustomSection replaces all custom sections named name with a single
// top-level section holding payload.
func SetCustomSection(data []byte, name string, payload []byte) ([]byte, error) {
	stripped, _, err := RemoveCustomSections(data, name)
	if err != nil {
		return nil, err
	}
	return AppendCustomSection(stripped, name, payload)
}
