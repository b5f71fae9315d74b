// Package errors provides structured error types for wasset.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the asset path, the asset identifier, a detail message,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindAdapterEncode).
//		Path("textures/grass.png").
//		Detail("unsupported pixel format").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SectionTruncated(offset, "record payload")
//	err := errors.NotFound(id.String())
//
// Callers match kinds with the sentinel values:
//
//	if errors.Is(err, wasseterrors.ErrSectionTruncated) { ... }
package errors
