//go:build unit
// +build unit

package inspect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lerenn/npmreport/pkg/audit"
	"github.com/lerenn/npmreport/pkg/config"
	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/outdated"
	"github.com/lerenn/npmreport/pkg/version"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestInspector holds the inspector under test and its mocked decoders.
type TestInspector struct {
	Inspector    *Inspector
	MockOutdated *outdated.MockDecoder
	MockAudit    *audit.MockDecoder
}

func newTestInspector(t *testing.T, concurrency int) *TestInspector {
	ctrl := gomock.NewController(t)
	mockOutdated := outdated.NewMockDecoder(ctrl)
	mockAudit := audit.NewMockDecoder(ctrl)

	cfg := &config.Config{Batch: config.Batch{Concurrency: concurrency}}
	return &TestInspector{
		Inspector: &Inspector{
			config:   cfg,
			outdated: mockOutdated,
			audit:    mockAudit,
			stdin:    strings.NewReader(""),
		},
		MockOutdated: mockOutdated,
		MockAudit:    mockAudit,
	}
}

func writeReports(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(contents))
	for n, c := range contents {
		p := filepath.Join(dir, string(rune('a'+n))+".json")
		require.NoError(t, os.WriteFile(p, []byte(c), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestOutdated(t *testing.T) {
	ti := newTestInspector(t, 1)
	current := version.MustExact("1.0.0")
	pkgs := []outdated.Package{{Name: "pkg-a", Current: &current}}
	ti.MockOutdated.EXPECT().Decode([]byte(`{"pkg-a":{}}`)).Return(pkgs, nil)

	res, err := ti.Inspector.Outdated(context.Background(), "report.json", strings.NewReader(`{"pkg-a":{}}`))
	require.NoError(t, err)
	require.Equal(t, "report.json", res.Source)
	require.Equal(t, pkgs, res.Packages)
}

func TestOutdated_DecodeErrorKeepsDetails(t *testing.T) {
	ti := newTestInspector(t, 1)
	decodeErr := &decoding.DecodeError{
		Kind: decoding.KindStructuralMismatch,
		Path: decoding.Path{}.Key("pkg-a"),
	}
	ti.MockOutdated.EXPECT().Decode(gomock.Any()).Return(nil, decodeErr)

	_, err := ti.Inspector.Outdated(context.Background(), "report.json", strings.NewReader("[]"))
	require.ErrorContains(t, err, "report.json")
	de, ok := decoding.AsDecodeError(err)
	require.True(t, ok)
	require.Equal(t, `$["pkg-a"]`, de.Path.String())
	require.True(t, errors.Is(err, decoding.ErrStructuralMismatch))
}

func TestAudit(t *testing.T) {
	ti := newTestInspector(t, 1)
	report := &audit.Report{
		Generation: audit.GenerationV1,
		Warnings: []audit.Warning{{
			Kind:     audit.WarningSummaryMismatch,
			Field:    "high",
			Declared: 3,
			Parsed:   2,
		}},
	}
	ti.MockAudit.EXPECT().Decode([]byte(`{"advisories":{}}`)).Return(report, nil)

	res, err := ti.Inspector.Audit(context.Background(), "audit.json", strings.NewReader(`{"advisories":{}}`))
	require.NoError(t, err)
	require.Same(t, report, res.Report)
}

func TestAuditFiles_PreservesOrder(t *testing.T) {
	ti := newTestInspector(t, 3)
	paths := writeReports(t, "first", "second", "third", "fourth")

	ti.MockAudit.EXPECT().Decode(gomock.Any()).Times(4).DoAndReturn(func(data []byte) (*audit.Report, error) {
		return &audit.Report{RunID: string(data)}, nil
	})

	results, err := ti.Inspector.AuditFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for n, want := range []string{"first", "second", "third", "fourth"} {
		require.Equal(t, paths[n], results[n].Source)
		require.Equal(t, want, results[n].Report.RunID)
	}
}

func TestAuditFiles_FailsOnDecodeError(t *testing.T) {
	ti := newTestInspector(t, 1)
	paths := writeReports(t, "ok", "bad")

	ti.MockAudit.EXPECT().Decode([]byte("ok")).Return(&audit.Report{}, nil)
	ti.MockAudit.EXPECT().Decode([]byte("bad")).Return(nil, decoding.ErrUnrecognizedSchema)

	results, err := ti.Inspector.AuditFiles(context.Background(), paths)
	require.Nil(t, results)
	require.ErrorIs(t, err, decoding.ErrUnrecognizedSchema)
	require.ErrorContains(t, err, paths[1])
}

func TestOutdatedFiles_MissingFile(t *testing.T) {
	ti := newTestInspector(t, 2)
	missing := filepath.Join(t.TempDir(), "missing.json")

	_, err := ti.Inspector.OutdatedFiles(context.Background(), []string{missing})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutdatedFiles_Stdin(t *testing.T) {
	ti := newTestInspector(t, 2)
	ti.Inspector.stdin = strings.NewReader(`{}`)
	ti.MockOutdated.EXPECT().Decode([]byte(`{}`)).Return([]outdated.Package{}, nil)

	results, err := ti.Inspector.OutdatedFiles(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, Stdin, results[0].Source)
	require.Empty(t, results[0].Packages)
}

func TestOutdatedFiles_StdinTwice(t *testing.T) {
	ti := newTestInspector(t, 2)

	_, err := ti.Inspector.OutdatedFiles(context.Background(), []string{Stdin, Stdin})
	require.Error(t, err)
}

func TestAuditFiles_CancelledContext(t *testing.T) {
	ti := newTestInspector(t, 1)
	paths := writeReports(t, "{}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ti.Inspector.AuditFiles(ctx, paths)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	_, err := New(&config.Config{Audit: config.Audit{SummaryMismatch: "ignore"}})
	require.Error(t, err)

	i, err := New(&config.Config{Audit: config.Audit{SummaryMismatch: "fail"}})
	require.NoError(t, err)
	require.NotNil(t, i.audit)
	require.NotNil(t, i.outdated)
}
