package audit

import (
	"fmt"
	"strconv"

	"github.com/lerenn/npmreport/pkg/decoding"
	"go.uber.org/zap"
)

// summary is the severity block a report declares about itself.
type summary struct {
	counts    Counts
	total     *int
	paths     map[Severity]decoding.Path
	totalPath decoding.Path
}

func readSummary(n decoding.Node) (summary, error) {
	var s summary
	if n.Absent() {
		return s, nil
	}
	obj, err := n.Object()
	if err != nil {
		return s, err
	}
	s.counts = make(Counts, obj.Len())
	s.paths = make(map[Severity]decoding.Path, obj.Len())
	for _, m := range obj.Members() {
		count, err := m.Value.Int()
		if err != nil {
			return s, err
		}
		if m.Key == "total" {
			total := int(count)
			s.total = &total
			s.totalPath = m.Value.Path()
			continue
		}
		sev, ok := ParseSeverity(m.Key)
		if !ok {
			return s, m.Value.Fail(decoding.KindUnknownSeverity, expectedSeverity, "unknown severity in summary")
		}
		s.counts[sev] += int(count)
		if _, seen := s.paths[sev]; !seen {
			s.paths[sev] = m.Value.Path()
		}
	}
	return s, nil
}

// checkSummary compares the declared summary with the decoded counts. A
// total is only compared when every severity agrees, so one miscount yields
// one warning.
func (d *decoder) checkSummary(r *Report, s summary) error {
	r.Declared = s.counts
	r.DeclaredTotal = s.total

	var warnings []Warning
	for _, sev := range Severities() {
		declared, ok := s.counts[sev]
		if !ok {
			continue
		}
		if parsed := r.Counts[sev]; parsed != declared {
			warnings = append(warnings, Warning{
				Kind:     WarningSummaryMismatch,
				Path:     s.paths[sev],
				Field:    sev.String(),
				Declared: declared,
				Parsed:   parsed,
			})
		}
	}
	if len(warnings) == 0 && s.total != nil && *s.total != r.Counts.Total() {
		warnings = append(warnings, Warning{
			Kind:     WarningSummaryMismatch,
			Path:     s.totalPath,
			Field:    "total",
			Declared: *s.total,
			Parsed:   r.Counts.Total(),
		})
	}

	for _, w := range warnings {
		if d.policy == SummaryFail {
			return &decoding.DecodeError{
				Kind:     decoding.KindStructuralMismatch,
				Path:     w.Path,
				Raw:      strconv.Itoa(w.Declared),
				Expected: fmt.Sprintf("%d as decoded", w.Parsed),
				Message:  "summary count disagrees with decoded data",
			}
		}
		d.logger.Warn("Audit summary mismatch",
			zap.Stringer("path", w.Path),
			zap.String("field", w.Field),
			zap.Int("declared", w.Declared),
			zap.Int("parsed", w.Parsed))
	}
	r.Warnings = warnings
	return nil
}
