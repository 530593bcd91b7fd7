package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // container parsing and file loading
	PhaseRelocate Phase = "relocate" // relocation resolution
	PhasePosition Phase = "position" // line-program walk
	PhaseEncode   Phase = "encode"   // source map generation
	PhasePatch    Phase = "patch"    // binary patching
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedContainer    Kind = "malformed_container"
	KindMissingSection        Kind = "missing_section"
	KindUnsupportedRelocation Kind = "unsupported_relocation"
	KindDuplicateRelocation   Kind = "duplicate_relocation"
	KindUnresolvedSymbol      Kind = "unresolved_symbol"
	KindDebugInfo             Kind = "debug_info"
	KindOverflow              Kind = "overflow"
	KindIO                    Kind = "io"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
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
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrMalformedContainer    = &Error{Kind: KindMalformedContainer}
	ErrMissingSection        = &Error{Kind: KindMissingSection}
	ErrUnsupportedRelocation = &Error{Kind: KindUnsupportedRelocation}
	ErrDuplicateRelocation   = &Error{Kind: KindDuplicateRelocation}
	ErrUnresolvedSymbol      = &Error{Kind: KindUnresolvedSymbol}
	ErrDebugInfo             = &Error{Kind: KindDebugInfo}
	ErrOverflow              = &Error{Kind: KindOverflow}
	ErrIO                    = &Error{Kind: KindIO}
)

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

// Path sets the location path (section name, file, ...)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// MalformedContainer creates an error for input that is not a well-formed WASM object
func MalformedContainer(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedContainer,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingSection creates an error for a required section that is absent or incomplete
func MissingSection(phase Phase, section, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingSection,
		Path:   []string{section},
		Detail: detail,
	}
}

// UnsupportedRelocation creates an error for a relocation kind the resolver cannot apply
func UnsupportedRelocation(section string, offset uint64, kind any) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindUnsupportedRelocation,
		Path:   []string{section},
		Detail: fmt.Sprintf("unsupported relocation %v at offset 0x%08x", kind, offset),
		Value:  offset,
	}
}

// DuplicateRelocation creates an error for a second relocation at one offset
func DuplicateRelocation(section string, offset uint64) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindDuplicateRelocation,
		Path:   []string{section},
		Detail: fmt.Sprintf("multiple relocations at offset 0x%08x", offset),
		Value:  offset,
	}
}

// UnresolvedSymbol creates an error for a relocation that names an invalid symbol
func UnresolvedSymbol(section string, offset uint64, symbol uint32) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindUnresolvedSymbol,
		Path:   []string{section},
		Detail: fmt.Sprintf("relocation at offset 0x%08x references invalid symbol %d", offset, symbol),
		Value:  symbol,
	}
}

// DebugInfo wraps an error reported by the DWARF reader
func DebugInfo(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDebugInfo,
		Detail: detail,
		Cause:  cause,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// IO wraps a read, seek, write or truncate failure
func IO(phase Phase, path string, cause error) *Error {
	e := &Error{
		Phase: phase,
		Kind:  KindIO,
		Cause: cause,
	}
	if path != "" {
		e.Path = []string{path}
	}
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
