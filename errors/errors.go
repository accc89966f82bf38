package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc    Phase = "alloc"    // arena reservation and growth
	PhaseEncode   Phase = "encode"   // value to records
	PhaseDecode   Phase = "decode"   // records to value
	PhaseConvert  Phase = "convert"  // host value to value
	PhaseEvaluate Phase = "evaluate" // evaluator calls
	PhaseLoad     Phase = "load"     // module and snapshot loading
	PhaseConfig   Phase = "config"   // configuration
)

// Kind categorizes the error
type Kind string

const (
	KindArenaOverflow   Kind = "arena_overflow"
	KindUnsupportedType Kind = "unsupported_type"
	KindUnknownTag      Kind = "unknown_tag"
	KindInvalidKeyType  Kind = "invalid_key_type"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindDepthExceeded   Kind = "depth_exceeded"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindInstantiation   Kind = "instantiation"
	KindChecksum        Kind = "checksum"
	KindTrap            Kind = "trap"
)

// Sentinels match any error of the same kind regardless of phase.
var (
	ErrArenaOverflow   = &Error{Kind: KindArenaOverflow}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	ErrUnknownTag      = &Error{Kind: KindUnknownTag}
	ErrInvalidKeyType  = &Error{Kind: KindInvalidKeyType}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	Detail     string
	Path       []string
	Address    uint32
	HasAddress bool
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
		b.WriteString(FormatPath(e.Path))
	}

	if e.HasAddress {
		b.WriteString(" @")
		b.WriteString(strconv.FormatUint(uint64(e.Address), 10))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// FormatPath joins path segments. Index segments ("[3]") attach directly,
// everything else is dot separated.
func FormatPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
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

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Address sets the arena address the error refers to
func (b *Builder) Address(addr uint32) *Builder {
	b.err.Address = addr
	b.err.HasAddress = true
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
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

// ArenaOverflow creates an error for an allocation that does not fit.
func ArenaOverflow(requested uint64, cursor, capacity uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindArenaOverflow,
		Detail: fmt.Sprintf("cannot allocate %d bytes at cursor %d (capacity %d)", requested, cursor, capacity),
		Value:  requested,
	}
}

// UnsupportedType creates an error for a value outside the domain.
func UnsupportedType(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedType,
		Path:   path,
		GoType: goType,
		Detail: "not representable",
	}
}

// UnknownTag creates an error for a record tag outside the active format.
func UnknownTag(path []string, addr, tag uint32, format string) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindUnknownTag,
		Path:       path,
		Address:    addr,
		HasAddress: true,
		Detail:     fmt.Sprintf("tag %d not in %s format", tag, format),
		Value:      tag,
	}
}

// InvalidKeyType creates an error for an object key that is not a string.
func InvalidKeyType(path []string, addr, tag uint32) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindInvalidKeyType,
		Path:       path,
		Address:    addr,
		HasAddress: true,
		Detail:     fmt.Sprintf("object key record has tag %d, want string", tag),
		Value:      tag,
	}
}

// OutOfBounds creates an error for an access past the end of memory.
func OutOfBounds(phase Phase, path []string, addr uint32, cause error) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOutOfBounds,
		Path:       path,
		Address:    addr,
		HasAddress: true,
		Cause:      cause,
	}
}

// DepthExceeded creates an error for nesting deeper than the decoder allows.
func DepthExceeded(path []string, addr uint32, limit int) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindDepthExceeded,
		Path:       path,
		Address:    addr,
		HasAddress: true,
		Detail:     fmt.Sprintf("nesting exceeds %d levels", limit),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEvaluate,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// Trap creates an error for a guest call that trapped
func Trap(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseEvaluate,
		Kind:   KindTrap,
		Detail: fmt.Sprintf("call to %q trapped", export),
		Cause:  cause,
	}
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

// Load creates a loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// HasKind reports whether err is, or wraps, an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInvalidData when there is none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindInvalidData
}
