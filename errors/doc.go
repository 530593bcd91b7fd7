// Package errors provides structured error types for wasm2map.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRelocate, errors.KindUnsupportedRelocation).
//		Path(".debug_info").
//		Detail("relocation type %d at offset 0x%08x", typ, off).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateRelocation(".debug_line", 0x40)
//	err := errors.IO(errors.PhasePatch, path, cause)
//
// Callers that only care about the category can match the kind sentinels:
//
//	if errors.Is(err, wmerrors.ErrIO) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
