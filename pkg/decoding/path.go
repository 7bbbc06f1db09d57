package decoding

import (
	"regexp"
	"strconv"
	"strings"
)

// Segment is one navigation step from a parent JSON value to a child:
// either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns an object-key segment.
func Key(k string) Segment {
	return Segment{Key: k}
}

// Index returns an array-index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

var plainKeyRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if plainKeyRE.MatchString(s.Key) {
		return "." + s.Key
	}
	return "[" + strconv.Quote(s.Key) + "]"
}

// Path is the ordered sequence of segments leading from the document root
// to a value. The empty path designates the root itself.
type Path []Segment

// Child returns a new path extended with s. The receiver is never modified,
// so sibling paths never share a backing array.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Key is a shorthand for p.Child(Key(k)).
func (p Path) Key(k string) Path {
	return p.Child(Key(k))
}

// Index is a shorthand for p.Child(Index(i)).
func (p Path) Index(i int) Path {
	return p.Child(Index(i))
}

// Equal reports whether both paths designate the same location.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the path as `$.advisories["1179"].findings[0]`.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// MarshalText renders String().
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
