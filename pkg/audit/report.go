package audit

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/version"
)

// Generation identifies the npm audit JSON schema a report was decoded from.
type Generation int

const (
	// GenerationV1 is the npm 6 schema, keyed by "advisories".
	GenerationV1 Generation = iota + 1
	// GenerationV2 is the npm 7+ schema, keyed by "vulnerabilities".
	GenerationV2
)

func (g Generation) String() string {
	switch g {
	case GenerationV1:
		return "v1"
	case GenerationV2:
		return "v2"
	default:
		return fmt.Sprintf("Generation(%d)", int(g))
	}
}

// MarshalText renders String().
func (g Generation) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// AdvisoryID identifies an advisory. npm 6 used numbers, later registries
// may use strings, so the canonical form is text.
type AdvisoryID string

// Int returns the numeric value of a numeric identifier.
func (id AdvisoryID) Int() (int64, bool) {
	i, err := strconv.ParseInt(string(id), 10, 64)
	return i, err == nil
}

// Report is a decoded audit run, whatever generation it came from.
type Report struct {
	Generation Generation              `json:"generation"`
	Advisories map[AdvisoryID]Advisory `json:"advisories"`
	Packages   []VulnerablePackage     `json:"packages,omitempty"`
	Actions    []Action                `json:"actions,omitempty"`
	RunID      string                  `json:"runId,omitempty"`
	// Counts is computed from the decoded data: advisories per severity for
	// v1, vulnerable packages per severity for v2.
	Counts Counts `json:"counts"`
	// Declared is the summary block of the source, nil when absent.
	Declared      Counts           `json:"declared,omitempty"`
	DeclaredTotal *int             `json:"declaredTotal,omitempty"`
	Dependencies  DependencyCounts `json:"dependencies"`
	Timestamp     *time.Time       `json:"timestamp,omitempty"`
	Warnings      []Warning        `json:"warnings,omitempty"`
}

// AdvisoryIDs returns the advisory identifiers, numeric ones first in
// numeric order, then the others lexically.
func (r *Report) AdvisoryIDs() []AdvisoryID {
	ids := make([]AdvisoryID, 0, len(r.Advisories))
	for id := range r.Advisories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aNum := ids[i].Int()
		b, bNum := ids[j].Int()
		switch {
		case aNum && bNum:
			return a < b
		case aNum != bNum:
			return aNum
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// TotalDependencies returns the dependency count reported by the source.
func (r *Report) TotalDependencies() int {
	return r.Dependencies.Total
}

// DependencyCounts are the dependency totals of the audited tree. npm 6 only
// reports prod, dev, optional and total.
type DependencyCounts struct {
	Prod         int `json:"prod"`
	Dev          int `json:"dev"`
	Optional     int `json:"optional"`
	Peer         int `json:"peer"`
	PeerOptional int `json:"peerOptional"`
	Total        int `json:"total"`
}

// Advisory is one reported vulnerability.
type Advisory struct {
	ID    AdvisoryID `json:"id"`
	Title string     `json:"title"`
	// Module is the vulnerable package.
	Module string `json:"module"`
	// VulnerableVersions is the raw affected range; ranges are not versions.
	VulnerableVersions string           `json:"vulnerableVersions,omitempty"`
	Severity           Severity         `json:"severity"`
	PatchedIn          *version.Version `json:"patchedIn,omitempty"`
	Findings           []Finding        `json:"findings"`
	URL                string           `json:"url,omitempty"`
	CWE                []string         `json:"cwe,omitempty"`
	CVEs               []string         `json:"cves,omitempty"`
	GitHubAdvisoryID   string           `json:"githubAdvisoryId,omitempty"`
	Overview           string           `json:"overview,omitempty"`
	Recommendation     string           `json:"recommendation,omitempty"`
	References         string           `json:"references,omitempty"`
	CVSS               *CVSS            `json:"cvss,omitempty"`
	Created            *time.Time       `json:"created,omitempty"`
	Updated            *time.Time       `json:"updated,omitempty"`
	Deleted            *time.Time       `json:"deleted,omitempty"`
}

// CVSS is the score attached to v2 advisories.
type CVSS struct {
	Score        float64 `json:"score"`
	VectorString string  `json:"vectorString,omitempty"`
}

// Finding is one place an advisory's module was found in the dependency
// tree. Each path is a dependency chain from the project root to the module.
// Version is nil for v2 reports, which do not record it.
type Finding struct {
	Version  *version.Version `json:"version,omitempty"`
	Paths    [][]string       `json:"paths"`
	Dev      bool             `json:"dev,omitempty"`
	Optional bool             `json:"optional,omitempty"`
	Bundled  bool             `json:"bundled,omitempty"`
}

// VulnerablePackage is a v2 entry: a package that is vulnerable either
// through its own advisories or through vulnerable dependencies.
type VulnerablePackage struct {
	Name     string       `json:"name"`
	Severity Severity     `json:"severity"`
	IsDirect bool         `json:"isDirect"`
	Via      []AdvisoryID `json:"via,omitempty"`
	// ViaPackages are the dependencies this package is vulnerable through.
	ViaPackages []string `json:"viaPackages,omitempty"`
	Effects     []string `json:"effects,omitempty"`
	Range       string   `json:"range,omitempty"`
	Nodes       []string `json:"nodes,omitempty"`
	Fix         Fix      `json:"fix"`
}

// Fix describes the fixAvailable field of a v2 entry. Name and Version are
// only known when npm reported a concrete fix.
type Fix struct {
	Available     bool             `json:"available"`
	Name          string           `json:"name,omitempty"`
	Version       *version.Version `json:"version,omitempty"`
	IsSemVerMajor bool             `json:"isSemVerMajor,omitempty"`
}

// ActionKind is the remediation type of a v1 action.
type ActionKind int

const (
	ActionInstall ActionKind = iota + 1
	ActionUpdate
	ActionReview
)

var actionKinds = map[string]ActionKind{
	"install": ActionInstall,
	"update":  ActionUpdate,
	"review":  ActionReview,
}

func (k ActionKind) String() string {
	switch k {
	case ActionInstall:
		return "install"
	case ActionUpdate:
		return "update"
	case ActionReview:
		return "review"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// MarshalText renders String().
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is a v1 remediation step. Target is empty for reviews and IsMajor
// is only meaningful for installs.
type Action struct {
	Kind     ActionKind `json:"action"`
	Module   string     `json:"module"`
	Target   string     `json:"target,omitempty"`
	IsMajor  bool       `json:"isMajor,omitempty"`
	Depth    *int       `json:"depth,omitempty"`
	Resolves []Resolve  `json:"resolves"`
}

// Resolve is an advisory occurrence an action fixes.
type Resolve struct {
	ID       AdvisoryID `json:"id"`
	Path     []string   `json:"path"`
	Dev      bool       `json:"dev,omitempty"`
	Optional bool       `json:"optional,omitempty"`
	Bundled  bool       `json:"bundled,omitempty"`
}

// WarningKind classifies non-fatal decode findings.
type WarningKind int

const (
	// WarningSummaryMismatch means a declared summary count differs from the
	// count of the decoded data.
	WarningSummaryMismatch WarningKind = iota + 1
)

func (k WarningKind) String() string {
	if k == WarningSummaryMismatch {
		return "summary mismatch"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// MarshalText renders String().
func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Warning is attached to a successfully decoded report.
type Warning struct {
	Kind WarningKind   `json:"kind"`
	Path decoding.Path `json:"path"`
	// Field is the summary entry that disagrees: a severity name or "total".
	Field    string `json:"field"`
	Declared int    `json:"declared"`
	Parsed   int    `json:"parsed"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %s: declared %d, decoded %d", w.Kind, w.Path, w.Declared, w.Parsed)
}
