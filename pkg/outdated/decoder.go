//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=decoder.go -destination=mock.gen.go -package=outdated

// Package outdated decodes the JSON printed by `npm outdated --json`.
package outdated

import (
	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/version"
	"go.uber.org/zap"
)

// Decoder turns an outdated report into packages, in the order the report
// lists them.
type Decoder interface {
	Decode(data []byte) ([]Package, error)
}

// Option configures a Decoder.
type Option func(*decoder)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(d *decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

type decoder struct {
	logger *zap.Logger
}

// Ensure decoder implements Decoder.
var _ Decoder = (*decoder)(nil)

// NewDecoder creates a Decoder. It is stateless and safe for concurrent use.
func NewDecoder(opts ...Option) Decoder {
	d := &decoder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes data with a default Decoder.
func Decode(data []byte) ([]Package, error) {
	return NewDecoder().Decode(data)
}

const expectedTypes = "dependencies, devDependencies, peerDependencies or optionalDependencies"

// Decode implements Decoder. A single malformed entry fails the whole
// document; a version field that cannot be parsed only degrades that field.
func (d *decoder) Decode(data []byte) ([]Package, error) {
	root, err := decoding.Root(data)
	if err != nil {
		return nil, err
	}
	if root.Absent() {
		return []Package{}, nil
	}
	obj, err := root.Object()
	if err != nil {
		return nil, err
	}

	pkgs := make([]Package, 0, obj.Len())
	for _, m := range obj.Members() {
		p, err := d.decodePackage(m)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

func (d *decoder) decodePackage(m decoding.Member) (Package, error) {
	if m.Key == "" {
		return Package{}, m.Value.Mismatch("non-empty package name", "empty package name")
	}
	obj, err := m.Value.Object()
	if err != nil {
		return Package{}, err
	}

	p := Package{Name: m.Key}
	if p.Current, err = d.optVersion(obj.Get("current")); err != nil {
		return Package{}, err
	}
	if p.Wanted, err = d.optVersion(obj.Get("wanted")); err != nil {
		return Package{}, err
	}
	if p.Latest, err = d.optVersion(obj.Get("latest")); err != nil {
		return Package{}, err
	}
	if p.Current == nil && p.Wanted == nil && p.Latest == nil {
		return Package{}, m.Value.Mismatch("at least one of current, wanted or latest", "entry carries no version")
	}

	if p.Location, _, err = obj.Get("location").OptString(); err != nil {
		return Package{}, err
	}
	if p.Dependent, _, err = obj.Get("dependent").OptString(); err != nil {
		return Package{}, err
	}
	if p.Homepage, _, err = obj.Get("homepage").OptString(); err != nil {
		return Package{}, err
	}

	typeNode := obj.Get("type")
	s, ok, err := typeNode.OptString()
	if err != nil {
		return Package{}, err
	}
	if ok {
		t, known := ParseDependencyType(s)
		if !known {
			return Package{}, typeNode.Mismatch(expectedTypes, "unknown dependency type")
		}
		p.Type = t
	}
	return p, nil
}

func (d *decoder) optVersion(n decoding.Node) (*version.Version, error) {
	s, ok, err := n.OptString()
	if err != nil || !ok {
		return nil, err
	}
	v := version.Parse(s)
	if v.Kind() == version.KindUnparsable {
		d.logger.Debug("Unparsable version kept as text",
			zap.Stringer("path", n.Path()),
			zap.String("raw", s))
	}
	return &v, nil
}
