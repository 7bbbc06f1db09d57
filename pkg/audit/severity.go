package audit

import (
	"fmt"
	"strings"
)

// Severity is the closed set of advisory severities.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityCritical
)

// severities maps lower-cased spellings seen across npm releases to their
// severity. New spellings are added here, not in the decoders.
var severities = map[string]Severity{
	"info":          SeverityInfo,
	"informational": SeverityInfo,
	"none":          SeverityInfo,
	"low":           SeverityLow,
	"moderate":      SeverityModerate,
	"medium":        SeverityModerate,
	"high":          SeverityHigh,
	"critical":      SeverityCritical,
}

const expectedSeverity = "info, low, moderate, high or critical"

// ParseSeverity looks s up case-insensitively.
func ParseSeverity(s string) (Severity, bool) {
	sev, ok := severities[strings.ToLower(strings.TrimSpace(s))]
	return sev, ok
}

// Severities lists every severity from least to most severe.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical}
}

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityModerate:
		return "moderate"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText renders String().
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses text with ParseSeverity.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", text)
	}
	*s = sev
	return nil
}

// Counts holds a number per severity.
type Counts map[Severity]int

// Total sums every severity.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
