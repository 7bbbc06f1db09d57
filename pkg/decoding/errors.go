package decoding

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies a decode failure.
type Kind int

const (
	// KindStructuralMismatch means a value does not have the shape the
	// selected schema requires.
	KindStructuralMismatch Kind = iota + 1
	// KindUnrecognizedSchema means no known schema generation matched the document.
	KindUnrecognizedSchema
	// KindUnknownSeverity means a severity string is not in the severity table.
	KindUnknownSeverity
	// KindMalformedVersion is reserved for version fields that must parse exactly.
	// Every current version field degrades to an unparsable version instead,
	// so no decoder produces it today.
	KindMalformedVersion
)

// Sentinel errors matched by DecodeError.Is, one per kind.
var (
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrUnrecognizedSchema = errors.New("unrecognized schema")
	ErrUnknownSeverity    = errors.New("unknown severity")
	ErrMalformedVersion   = errors.New("malformed version")
)

func (k Kind) String() string {
	switch k {
	case KindStructuralMismatch:
		return "structural mismatch"
	case KindUnrecognizedSchema:
		return "unrecognized schema"
	case KindUnknownSeverity:
		return "unknown severity"
	case KindMalformedVersion:
		return "malformed version"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStructuralMismatch:
		return ErrStructuralMismatch
	case KindUnrecognizedSchema:
		return ErrUnrecognizedSchema
	case KindUnknownSeverity:
		return ErrUnknownSeverity
	case KindMalformedVersion:
		return ErrMalformedVersion
	default:
		return nil
	}
}

// maxRawLen bounds the rendering of the offending value kept in a DecodeError.
const maxRawLen = 120

// DecodeError is the single fatal error a decode call returns. It locates the
// failure in the source document and keeps a short rendering of the value found there.
type DecodeError struct {
	Kind     Kind
	Path     Path
	Raw      string
	Expected string
	Message  string
	Err      error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s", e.Kind, e.Path)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Expected != "" || e.Raw != "" {
		b.WriteString(" (")
		if e.Expected != "" {
			b.WriteString("expected ")
			b.WriteString(e.Expected)
		}
		if e.Raw != "" {
			if e.Expected != "" {
				b.WriteString(", ")
			}
			b.WriteString("got ")
			b.WriteString(e.Raw)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the kind.
func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Newf builds a DecodeError without a source value, for failures that concern
// the document as a whole rather than one value.
func Newf(kind Kind, path Path, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsDecodeError unwraps err into a *DecodeError.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Snippet renders raw JSON text on one line, truncated to a bounded length.
func Snippet(raw []byte) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if len(s) <= maxRawLen {
		return s
	}
	cut := maxRawLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
