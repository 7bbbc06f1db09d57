package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lerenn/npmreport/pkg/audit"
	"github.com/lerenn/npmreport/pkg/config"
	"github.com/lerenn/npmreport/pkg/version"
)

// RenderOutdated writes results as an indented JSON array or as one table
// per source.
func RenderOutdated(w io.Writer, format string, results []OutdatedResult) error {
	if format == config.FormatJSON {
		return renderJSON(w, results)
	}

	for n, res := range results {
		if err := header(w, n, len(results), res.Source); err != nil {
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "PACKAGE\tCURRENT\tWANTED\tLATEST\tTYPE\tLOCATION")
		for _, p := range res.Packages {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				p.Name, cell(p.Current), cell(p.Wanted), cell(p.Latest), p.Type, orDash(p.Location))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// RenderAudit writes results as an indented JSON array or as a per-source
// advisory table followed by severity counts and warnings.
func RenderAudit(w io.Writer, format string, results []AuditResult) error {
	if format == config.FormatJSON {
		return renderJSON(w, results)
	}

	for n, res := range results {
		if err := header(w, n, len(results), res.Source); err != nil {
			return err
		}
		r := res.Report
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tSEVERITY\tMODULE\tFINDINGS\tTITLE")
		for _, id := range r.AdvisoryIDs() {
			a := r.Advisories[id]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", id, a.Severity, a.Module, len(a.Findings), orDash(a.Title))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		counts := make([]string, 0, len(audit.Severities()))
		for _, sev := range audit.Severities() {
			counts = append(counts, fmt.Sprintf("%s=%d", sev, r.Counts[sev]))
		}
		if _, err := fmt.Fprintf(w, "schema %s: %s\n", r.Generation, strings.Join(counts, " ")); err != nil {
			return err
		}
		for _, warning := range r.Warnings {
			if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func header(w io.Writer, n, total int, source string) error {
	if total < 2 {
		return nil
	}
	sep := ""
	if n > 0 {
		sep = "\n"
	}
	_, err := fmt.Fprintf(w, "%s==> %s <==\n", sep, source)
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func cell(v *version.Version) string {
	if v == nil {
		return "-"
	}
	return orDash(v.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
