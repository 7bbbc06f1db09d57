package outdated

import (
	"fmt"
	"strings"

	"github.com/lerenn/npmreport/pkg/version"
)

// DependencyType tells how the outdated package is declared in package.json.
type DependencyType int

const (
	// Dependencies is a direct production dependency. Packages missing from
	// package.json are reported under this type too.
	Dependencies DependencyType = iota
	// DevDependencies is a development dependency.
	DevDependencies
	// PeerDependencies is a peer dependency.
	PeerDependencies
	// OptionalDependencies is an optional dependency.
	OptionalDependencies
)

// dependencyTypes maps lower-cased spellings to their type.
var dependencyTypes = map[string]DependencyType{
	"dependencies":         Dependencies,
	"prod":                 Dependencies,
	"devdependencies":      DevDependencies,
	"dev":                  DevDependencies,
	"peerdependencies":     PeerDependencies,
	"peer":                 PeerDependencies,
	"optionaldependencies": OptionalDependencies,
	"optional":             OptionalDependencies,
}

// ParseDependencyType looks s up case-insensitively.
func ParseDependencyType(s string) (DependencyType, bool) {
	t, ok := dependencyTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

func (t DependencyType) String() string {
	switch t {
	case Dependencies:
		return "dependencies"
	case DevDependencies:
		return "devDependencies"
	case PeerDependencies:
		return "peerDependencies"
	case OptionalDependencies:
		return "optionalDependencies"
	default:
		return fmt.Sprintf("DependencyType(%d)", int(t))
	}
}

// MarshalText renders String().
func (t DependencyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Package is one entry of an outdated report. A nil version field was absent
// from the source; at least one of Current, Wanted and Latest is set.
type Package struct {
	Name      string           `json:"name"`
	Current   *version.Version `json:"current,omitempty"`
	Wanted    *version.Version `json:"wanted,omitempty"`
	Latest    *version.Version `json:"latest,omitempty"`
	Location  string           `json:"location,omitempty"`
	Dependent string           `json:"dependent,omitempty"`
	Type      DependencyType   `json:"type"`
	Homepage  string           `json:"homepage,omitempty"`
}

// Behind reports whether the installed version has lower precedence than
// target. It fails with version.ErrIncomparable when either side is missing
// or is not an exact version.
func (p Package) Behind(target *version.Version) (bool, error) {
	if p.Current == nil || target == nil {
		return false, fmt.Errorf("%w: %s has no version to compare", version.ErrIncomparable, p.Name)
	}
	return p.Current.LessThan(*target)
}
