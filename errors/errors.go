package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // directory to section bytes
	PhaseEmbed    Phase = "embed"    // section bytes into a module
	PhaseManifest Phase = "manifest" // identifier manifest load/save
	PhaseParse    Phase = "parse"    // module and section framing
	PhaseDecode   Phase = "decode"   // record payload to typed asset
	PhaseGenerate Phase = "generate" // symbolic constant emission
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindManifestUnreadable  Kind = "manifest_unreadable"
	KindIdentifierCollision Kind = "identifier_collision"
	KindAdapterEncode       Kind = "adapter_encode_failure"
	KindSectionFormat       Kind = "section_format"
	KindSectionTruncated    Kind = "section_truncated"
	KindRecordDecode        Kind = "record_decode_failure"
	KindNotFound            Kind = "identifier_not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindLocked              Kind = "locked"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrManifestUnreadable  = &Error{Kind: KindManifestUnreadable}
	ErrIdentifierCollision = &Error{Kind: KindIdentifierCollision}
	ErrAdapterEncode       = &Error{Kind: KindAdapterEncode}
	ErrSectionFormat       = &Error{Kind: KindSectionFormat}
	ErrSectionTruncated    = &Error{Kind: KindSectionTruncated}
	ErrRecordDecode        = &Error{Kind: KindRecordDecode}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrLocked              = &Error{Kind: KindLocked}
)

// Error is the structured error type used throughout wasset
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Path   string // asset path relative to the asset root, or a file path
	ID     string // asset identifier in canonical text form
	Detail string
	Offset int // byte offset inside the section, zero when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.ID != "" {
		b.WriteString(" (id ")
		b.WriteString(e.ID)
		b.WriteByte(')')
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " @%d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Kinds must be equal; the phase is compared only when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Phase == "" || e.Phase == t.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the asset or file path
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// ID sets the asset identifier
func (b *Builder) ID(id string) *Builder {
	b.err.ID = id
	return b
}

// Offset sets the section byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ManifestUnreadable reports a manifest file that exists but cannot be trusted.
func ManifestUnreadable(path string, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseManifest,
		Kind:   KindManifestUnreadable,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// IdentifierCollision reports two distinct paths mapped to one identifier.
func IdentifierCollision(phase Phase, id, path, other string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIdentifierCollision,
		Path:   path,
		ID:     id,
		Detail: fmt.Sprintf("identifier already assigned to %q", other),
	}
}

// AdapterEncode reports a schema adapter rejecting one source file.
func AdapterEncode(path string, cause error) *Error {
	return &Error{
		Phase: PhaseEncode,
		Kind:  KindAdapterEncode,
		Path:  path,
		Cause: cause,
	}
}

// SectionFormat reports a malformed or unsupported asset section or module.
func SectionFormat(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSectionFormat,
		Detail: detail,
		Cause:  cause,
	}
}

// SectionTruncated reports declared sizes exceeding the available bytes.
func SectionTruncated(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSectionTruncated,
		Offset: offset,
		Detail: detail,
	}
}

// RecordDecode reports a single record the schema adapter could not decode.
func RecordDecode(id string, cause error) *Error {
	return &Error{
		Phase: PhaseDecode,
		Kind:  KindRecordDecode,
		ID:    id,
		Cause: cause,
	}
}

// NotFound creates an identifier lookup miss
func NotFound(id string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNotFound,
		ID:     id,
		Detail: "no record with this identifier",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// Locked reports failure to acquire the manifest lock
func Locked(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseManifest,
		Kind:   KindLocked,
		Path:   path,
		Detail: "manifest is locked by another process",
		Cause:  cause,
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
