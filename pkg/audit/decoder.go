//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=decoder.go -destination=mock.gen.go -package=audit

// Package audit decodes the JSON printed by `npm audit --json`. npm changed
// that schema incompatibly between releases; each generation is a disjoint
// shape recognised by a marker field and decoded on its own.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/lerenn/npmreport/pkg/decoding"
	"go.uber.org/zap"
)

// Decoder turns an audit report into a Report.
type Decoder interface {
	Decode(data []byte) (*Report, error)
}

// SummaryPolicy decides what a summary count that disagrees with the
// decoded data does to the decode.
type SummaryPolicy int

const (
	// SummaryWarn attaches a warning to the report.
	SummaryWarn SummaryPolicy = iota
	// SummaryFail fails the decode with a structural mismatch.
	SummaryFail
)

// ParseSummaryPolicy reads "warn" or "fail".
func ParseSummaryPolicy(s string) (SummaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return SummaryWarn, nil
	case "fail":
		return SummaryFail, nil
	default:
		return SummaryWarn, fmt.Errorf("invalid summary policy %q: want warn or fail", s)
	}
}

func (p SummaryPolicy) String() string {
	if p == SummaryFail {
		return "fail"
	}
	return "warn"
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

// WithSummaryPolicy sets how summary mismatches are reported.
func WithSummaryPolicy(p SummaryPolicy) Option {
	return func(d *decoder) {
		d.policy = p
	}
}

type decoder struct {
	logger *zap.Logger
	policy SummaryPolicy
}

// Ensure decoder implements Decoder.
var _ Decoder = (*decoder)(nil)

// NewDecoder creates a Decoder. It is stateless and safe for concurrent use.
func NewDecoder(opts ...Option) Decoder {
	d := &decoder{logger: zap.NewNop(), policy: SummaryWarn}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes data with a default Decoder.
func Decode(data []byte) (*Report, error) {
	return NewDecoder().Decode(data)
}

// schema is one audit JSON generation.
type schema struct {
	generation Generation
	marker     string
	keys       []string
	decode     func(*decoder, decoding.Object) (*Report, error)
}

// schemas are tried in order, newest first.
var schemas = []schema{
	{
		generation: GenerationV2,
		marker:     "vulnerabilities",
		keys:       []string{"auditReportVersion", "vulnerabilities", "metadata"},
		decode:     (*decoder).decodeV2,
	},
	{
		generation: GenerationV1,
		marker:     "advisories",
		keys:       []string{"actions", "advisories", "muted", "metadata", "runId"},
		decode:     (*decoder).decodeV1,
	},
}

// Decode implements Decoder.
func (d *decoder) Decode(data []byte) (*Report, error) {
	root, err := decoding.Root(data)
	if err != nil {
		return nil, err
	}
	if root.Type() != jsonparser.Object {
		return nil, root.Fail(decoding.KindUnrecognizedSchema, "an audit report object", "document is not an object")
	}
	obj, err := root.Object()
	if err != nil {
		return nil, err
	}

	for _, s := range schemas {
		if !obj.Has(s.marker) {
			d.logger.Debug("Audit schema rejected",
				zap.Stringer("generation", s.generation),
				zap.String("missing", s.marker))
			continue
		}
		if err := rejectForeign(obj, s); err != nil {
			return nil, err
		}
		report, err := s.decode(d, obj)
		if err != nil {
			return nil, err
		}
		report.Generation = s.generation
		d.logger.Debug("Audit report decoded",
			zap.Stringer("generation", s.generation),
			zap.Int("advisories", len(report.Advisories)),
			zap.Int("warnings", len(report.Warnings)))
		return report, nil
	}
	return nil, unrecognized(obj)
}

// rejectForeign fails when the document also carries the marker of another
// generation: generations never mix.
func rejectForeign(obj decoding.Object, selected schema) error {
	for _, other := range schemas {
		if other.generation == selected.generation {
			continue
		}
		if n := obj.Get(other.marker); n.Exists() {
			return n.Mismatch(
				"no field of the "+other.generation.String()+" schema",
				"field of another schema generation next to "+fmt.Sprintf("%q", selected.marker))
		}
	}
	return nil
}

func unrecognized(obj decoding.Object) error {
	if e := obj.Get("error"); e.Type() == jsonparser.Object {
		eo, err := e.Object()
		if err != nil {
			return err
		}
		code, _, _ := eo.Get("code").OptString()
		summary, _, _ := eo.Get("summary").OptString()
		return e.Fail(decoding.KindUnrecognizedSchema, "", fmt.Sprintf("npm reported error %s: %s", code, summary))
	}

	known := make(map[string]struct{})
	markers := make([]string, 0, len(schemas))
	for _, s := range schemas {
		markers = append(markers, fmt.Sprintf("%q", s.marker))
		for _, k := range s.keys {
			known[k] = struct{}{}
		}
	}
	expected := "a " + strings.Join(markers, " or ") + " field"
	for _, m := range obj.Members() {
		if _, ok := known[m.Key]; !ok {
			return m.Value.Fail(decoding.KindUnrecognizedSchema, expected, "unexpected top-level field")
		}
	}
	return obj.Node().Fail(decoding.KindUnrecognizedSchema, expected, "no known audit schema matched")
}

// Helpers shared by the generations.

func newCounts() Counts {
	c := make(Counts, len(Severities()))
	for _, s := range Severities() {
		c[s] = 0
	}
	return c
}

func severityOf(o decoding.Object) (Severity, error) {
	n, err := o.Require("severity")
	if err != nil {
		return 0, err
	}
	s, err := n.String()
	if err != nil {
		return 0, err
	}
	sev, ok := ParseSeverity(s)
	if !ok {
		return 0, n.Fail(decoding.KindUnknownSeverity, expectedSeverity, "severity not recognised")
	}
	return sev, nil
}

func optTime(n decoding.Node) (*time.Time, error) {
	s, ok, err := n.OptString()
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, n.Wrap(err, "RFC 3339 timestamp")
	}
	return &t, nil
}

func optIntPtr(n decoding.Node) (*int, error) {
	i, ok, err := n.OptInt()
	if err != nil || !ok {
		return nil, err
	}
	v := int(i)
	return &v, nil
}

func optInt(n decoding.Node) (int, error) {
	i, _, err := n.OptInt()
	return int(i), err
}

type stringField struct {
	key string
	dst *string
}

// readStrings fills optional string fields in order, so the first bad field
// is the one reported.
func readStrings(o decoding.Object, fields []stringField) error {
	for _, f := range fields {
		s, _, err := o.Get(f.key).OptString()
		if err != nil {
			return err
		}
		*f.dst = s
	}
	return nil
}

type intField struct {
	key string
	dst *int
}
