package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeverity_CaseVariants(t *testing.T) {
	for _, s := range []string{"high", "HIGH", "High", " hIgH "} {
		sev, ok := ParseSeverity(s)
		require.True(t, ok, s)
		require.Equal(t, SeverityHigh, sev, s)
	}
}

func TestParseSeverity_SpellingVariants(t *testing.T) {
	cases := map[string]Severity{
		"info":          SeverityInfo,
		"informational": SeverityInfo,
		"none":          SeverityInfo,
		"low":           SeverityLow,
		"moderate":      SeverityModerate,
		"Medium":        SeverityModerate,
		"critical":      SeverityCritical,
	}
	for in, want := range cases {
		got, ok := ParseSeverity(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}

	_, ok := ParseSeverity("severe")
	require.False(t, ok)
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range Severities() {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, s, back)
	}

	var s Severity
	require.Error(t, s.UnmarshalText([]byte("urgent")))
}

func TestCounts_Total(t *testing.T) {
	c := Counts{SeverityLow: 2, SeverityHigh: 3}
	require.Equal(t, 5, c.Total())
}

func TestParseSummaryPolicy(t *testing.T) {
	p, err := ParseSummaryPolicy("FAIL")
	require.NoError(t, err)
	require.Equal(t, SummaryFail, p)

	p, err = ParseSummaryPolicy("")
	require.NoError(t, err)
	require.Equal(t, SummaryWarn, p)

	_, err = ParseSummaryPolicy("ignore")
	require.Error(t, err)
}
