// Package inspect reads npm report files and runs them through the
// outdated and audit decoders.
package inspect

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lerenn/npmreport/pkg/audit"
	"github.com/lerenn/npmreport/pkg/config"
	"github.com/lerenn/npmreport/pkg/logging"
	"github.com/lerenn/npmreport/pkg/outdated"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stdin is the source name that reads standard input.
const Stdin = "-"

// OutdatedResult is the decoded content of one outdated report.
type OutdatedResult struct {
	Source   string             `json:"source"`
	Packages []outdated.Package `json:"packages"`
}

// AuditResult is the decoded content of one audit report.
type AuditResult struct {
	Source string        `json:"source"`
	Report *audit.Report `json:"report"`
}

// Inspector decodes report sources with the configured decoders.
type Inspector struct {
	config   *config.Config
	outdated outdated.Decoder
	audit    audit.Decoder
	stdin    io.Reader
}

// New creates an Inspector whose decoders log through the global logger.
func New(cfg *config.Config) (*Inspector, error) {
	policy, err := audit.ParseSummaryPolicy(cfg.Audit.SummaryMismatch)
	if err != nil {
		return nil, fmt.Errorf("failed to create inspector: %w", err)
	}

	logger := logging.L().Logger
	return &Inspector{
		config:   cfg,
		outdated: outdated.NewDecoder(outdated.WithLogger(logger)),
		audit: audit.NewDecoder(
			audit.WithLogger(logger),
			audit.WithSummaryPolicy(policy)),
		stdin: os.Stdin,
	}, nil
}

// Outdated decodes one outdated report read from r.
func (i *Inspector) Outdated(ctx context.Context, source string, r io.Reader) (OutdatedResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return OutdatedResult{}, fmt.Errorf("failed to read %s: %w", source, err)
	}

	pkgs, err := i.outdated.Decode(data)
	if err != nil {
		return OutdatedResult{}, fmt.Errorf("failed to decode outdated report %s: %w", source, err)
	}

	logging.C(ctx).Debug("Outdated report decoded",
		zap.String("file", source),
		zap.Int("packages", len(pkgs)))
	return OutdatedResult{Source: source, Packages: pkgs}, nil
}

// Audit decodes one audit report read from r. Summary warnings are logged.
func (i *Inspector) Audit(ctx context.Context, source string, r io.Reader) (AuditResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return AuditResult{}, fmt.Errorf("failed to read %s: %w", source, err)
	}

	report, err := i.audit.Decode(data)
	if err != nil {
		return AuditResult{}, fmt.Errorf("failed to decode audit report %s: %w", source, err)
	}

	logger := logging.C(ctx)
	for _, w := range report.Warnings {
		logger.Warn("Audit report inconsistent",
			zap.String("file", source),
			zap.String("warning", w.String()))
	}
	logger.Debug("Audit report decoded",
		zap.String("file", source),
		zap.Stringer("generation", report.Generation),
		zap.Int("advisories", len(report.Advisories)),
		zap.Int("warnings", len(report.Warnings)))
	return AuditResult{Source: source, Report: report}, nil
}

// OutdatedFiles decodes every source concurrently. Results follow the
// order of sources; the first failure cancels the remaining reads.
func (i *Inspector) OutdatedFiles(ctx context.Context, sources []string) ([]OutdatedResult, error) {
	return batch(ctx, i, sources, i.Outdated)
}

// AuditFiles decodes every source concurrently. Results follow the order
// of sources; the first failure cancels the remaining reads.
func (i *Inspector) AuditFiles(ctx context.Context, sources []string) ([]AuditResult, error) {
	return batch(ctx, i, sources, i.Audit)
}

func batch[T any](
	ctx context.Context,
	i *Inspector,
	sources []string,
	decode func(context.Context, string, io.Reader) (T, error),
) ([]T, error) {
	if len(sources) == 0 {
		sources = []string{Stdin}
	}
	if err := checkStdinOnce(sources); err != nil {
		return nil, err
	}

	results := make([]T, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency())
	for idx, source := range sources {
		idx, source := idx, source
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, closer, err := i.open(source)
			if err != nil {
				return err
			}
			defer closer()

			res, err := decode(gctx, source, r)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Inspector) concurrency() int {
	if i.config == nil || i.config.Batch.Concurrency < 1 {
		return 1
	}
	return i.config.Batch.Concurrency
}

func (i *Inspector) open(source string) (io.Reader, func(), error) {
	if source == Stdin {
		return i.stdin, func() {}, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open report: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func checkStdinOnce(sources []string) error {
	seen := false
	for _, s := range sources {
		if s != Stdin {
			continue
		}
		if seen {
			return fmt.Errorf("standard input given more than once")
		}
		seen = true
	}
	return nil
}
