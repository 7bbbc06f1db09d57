// Package version normalizes the version strings found in package-manager
// reports. Parsing never fails: every input maps to one of four kinds, and
// only two exact versions can be ordered.
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind tells which form a version string took.
type Kind int

const (
	// KindUnparsable keeps text that is neither a version nor a range,
	// such as git URLs, tarball URLs or local paths.
	KindUnparsable Kind = iota
	// KindExact is a single semantic version.
	KindExact
	// KindRange is a range expression (caret, tilde, comparators, hyphen, x-ranges).
	KindRange
	// KindUnbounded is "latest", "*" or "x": any version.
	KindUnbounded
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	case KindUnbounded:
		return "unbounded"
	default:
		return "unparsable"
	}
}

// ErrIncomparable is returned when ordering is asked of versions that are
// not both exact.
var ErrIncomparable = errors.New("versions are not comparable")

// unboundedTokens are the spellings npm uses for "any version".
var unboundedTokens = map[string]struct{}{
	"latest": {},
	"*":      {},
	"x":      {},
	"X":      {},
}

// Version is the result of normalizing a version-like string. The original
// text is always kept, whatever the kind.
type Version struct {
	kind       Kind
	raw        string
	exact      *semver.Version
	constraint *semver.Constraints
}

// Parse normalizes s. It never fails; text that cannot be read as a version
// or a range yields an unparsable version.
func Parse(s string) Version {
	v := Version{raw: s}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return v
	}
	if _, ok := unboundedTokens[trimmed]; ok {
		v.kind = KindUnbounded
		return v
	}
	if sv, err := semver.StrictNewVersion(strings.TrimLeft(trimmed, "=vV")); err == nil {
		v.kind = KindExact
		v.exact = sv
		return v
	}
	if c, err := semver.NewConstraint(trimmed); err == nil {
		v.kind = KindRange
		v.constraint = c
		return v
	}
	return v
}

// MustExact parses s and panics unless it is an exact version. Meant for
// constants and tests.
func MustExact(s string) Version {
	v := Parse(s)
	if v.kind != KindExact {
		panic(fmt.Sprintf("version: %q is not an exact version", s))
	}
	return v
}

// Kind returns the form the version took.
func (v Version) Kind() Kind { return v.kind }

// Raw returns the text the version was parsed from.
func (v Version) Raw() string { return v.raw }

// IsExact reports whether v is a single semantic version.
func (v Version) IsExact() bool { return v.kind == KindExact }

// Semver returns the parsed semantic version of an exact version.
func (v Version) Semver() (*semver.Version, bool) {
	return v.exact, v.kind == KindExact
}

// String renders an exact version in canonical form (no "v" prefix) and
// every other kind as its original text.
func (v Version) String() string {
	if v.kind == KindExact {
		return v.exact.String()
	}
	return v.raw
}

// Equal reports whether both versions are the same kind and value. Exact
// versions also compare their build metadata, which precedence ignores.
func (v Version) Equal(o Version) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindExact:
		return v.exact.Equal(o.exact) && v.exact.Metadata() == o.exact.Metadata()
	case KindUnbounded:
		return true
	case KindRange:
		return strings.TrimSpace(v.raw) == strings.TrimSpace(o.raw)
	default:
		return v.raw == o.raw
	}
}

// Compare orders two exact versions by semantic-version precedence and
// returns -1, 0 or 1. Any other pairing returns ErrIncomparable.
func Compare(a, b Version) (int, error) {
	if a.kind != KindExact || b.kind != KindExact {
		return 0, fmt.Errorf("%w: %s %q and %s %q", ErrIncomparable, a.kind, a.raw, b.kind, b.raw)
	}
	return a.exact.Compare(b.exact), nil
}

// LessThan reports whether v has lower precedence than o.
func (v Version) LessThan(o Version) (bool, error) {
	c, err := Compare(v, o)
	return c < 0, err
}

// Satisfies reports whether the exact version v is allowed by r. An
// unbounded r allows everything and an exact r allows only equal precedence.
func (v Version) Satisfies(r Version) (bool, error) {
	if v.kind != KindExact {
		return false, fmt.Errorf("%w: %s %q is not an exact version", ErrIncomparable, v.kind, v.raw)
	}
	switch r.kind {
	case KindUnbounded:
		return true, nil
	case KindRange:
		return r.constraint.Check(v.exact), nil
	case KindExact:
		return v.exact.Compare(r.exact) == 0, nil
	default:
		return false, fmt.Errorf("%w: %q is not a range", ErrIncomparable, r.raw)
	}
}

// MarshalText renders String().
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses text with Parse.
func (v *Version) UnmarshalText(text []byte) error {
	*v = Parse(string(text))
	return nil
}
