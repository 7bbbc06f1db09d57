package audit

import (
	"strings"

	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/version"
)

// decodeV1 decodes the npm 6 schema: advisories keyed by id, each listing
// its findings, plus remediation actions.
func (d *decoder) decodeV1(obj decoding.Object) (*Report, error) {
	r := &Report{
		Advisories: make(map[AdvisoryID]Advisory),
		Counts:     newCounts(),
	}

	advisories, err := obj.Get("advisories").Object()
	if err != nil {
		return nil, err
	}
	for _, m := range advisories.Members() {
		a, err := decodeV1Advisory(m)
		if err != nil {
			return nil, err
		}
		if _, dup := r.Advisories[a.ID]; dup {
			return nil, m.Value.Mismatch("unique advisory ids", "duplicate advisory "+string(a.ID))
		}
		r.Advisories[a.ID] = a
		r.Counts[a.Severity]++
	}

	actions, err := obj.Get("actions").OptArray()
	if err != nil {
		return nil, err
	}
	for _, n := range actions {
		a, err := decodeAction(n)
		if err != nil {
			return nil, err
		}
		r.Actions = append(r.Actions, a)
	}

	if r.RunID, _, err = obj.Get("runId").OptString(); err != nil {
		return nil, err
	}

	var s summary
	if meta := obj.Get("metadata"); !meta.Absent() {
		mo, err := meta.Object()
		if err != nil {
			return nil, err
		}
		if s, err = readSummary(mo.Get("vulnerabilities")); err != nil {
			return nil, err
		}
		deps := &r.Dependencies
		for _, f := range []intField{
			{"dependencies", &deps.Prod},
			{"devDependencies", &deps.Dev},
			{"optionalDependencies", &deps.Optional},
			{"totalDependencies", &deps.Total},
		} {
			if *f.dst, err = optInt(mo.Get(f.key)); err != nil {
				return nil, err
			}
		}
		if r.Timestamp, err = optTime(mo.Get("timestamp")); err != nil {
			return nil, err
		}
	}
	if err := d.checkSummary(r, s); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeV1Advisory(m decoding.Member) (Advisory, error) {
	o, err := m.Value.Object()
	if err != nil {
		return Advisory{}, err
	}

	a := Advisory{ID: AdvisoryID(m.Key)}
	if id := o.Get("id"); !id.Absent() {
		s, err := id.StringOrNumber()
		if err != nil {
			return Advisory{}, err
		}
		a.ID = AdvisoryID(s)
	}
	if a.Severity, err = severityOf(o); err != nil {
		return Advisory{}, err
	}

	if err := readStrings(o, []stringField{
		{"title", &a.Title},
		{"module_name", &a.Module},
		{"vulnerable_versions", &a.VulnerableVersions},
		{"url", &a.URL},
		{"overview", &a.Overview},
		{"recommendation", &a.Recommendation},
		{"references", &a.References},
		{"github_advisory_id", &a.GitHubAdvisoryID},
	}); err != nil {
		return Advisory{}, err
	}

	patched, ok, err := o.Get("patched_versions").OptString()
	if err != nil {
		return Advisory{}, err
	}
	if ok {
		v := version.Parse(patched)
		a.PatchedIn = &v
	}

	if a.CWE, err = o.Get("cwe").Strings(); err != nil {
		return Advisory{}, err
	}
	if a.CVEs, err = o.Get("cves").Strings(); err != nil {
		return Advisory{}, err
	}
	if a.Created, err = optTime(o.Get("created")); err != nil {
		return Advisory{}, err
	}
	if a.Updated, err = optTime(o.Get("updated")); err != nil {
		return Advisory{}, err
	}
	if a.Deleted, err = optTime(o.Get("deleted")); err != nil {
		return Advisory{}, err
	}

	findings, err := o.Get("findings").OptArray()
	if err != nil {
		return Advisory{}, err
	}
	a.Findings = make([]Finding, 0, len(findings))
	for _, n := range findings {
		f, err := decodeV1Finding(n)
		if err != nil {
			return Advisory{}, err
		}
		a.Findings = append(a.Findings, f)
	}
	return a, nil
}

func decodeV1Finding(n decoding.Node) (Finding, error) {
	o, err := n.Object()
	if err != nil {
		return Finding{}, err
	}
	var f Finding
	s, ok, err := o.Get("version").OptString()
	if err != nil {
		return Finding{}, err
	}
	if ok {
		v := version.Parse(s)
		f.Version = &v
	}
	paths, err := o.Get("paths").Strings()
	if err != nil {
		return Finding{}, err
	}
	f.Paths = make([][]string, 0, len(paths))
	for _, p := range paths {
		f.Paths = append(f.Paths, splitChain(p))
	}
	if f.Dev, err = o.Get("dev").OptBool(); err != nil {
		return Finding{}, err
	}
	if f.Optional, err = o.Get("optional").OptBool(); err != nil {
		return Finding{}, err
	}
	if f.Bundled, err = o.Get("bundled").OptBool(); err != nil {
		return Finding{}, err
	}
	return f, nil
}

func decodeAction(n decoding.Node) (Action, error) {
	o, err := n.Object()
	if err != nil {
		return Action{}, err
	}
	kindNode, err := o.Require("action")
	if err != nil {
		return Action{}, err
	}
	kind, err := kindNode.String()
	if err != nil {
		return Action{}, err
	}
	a := Action{}
	var ok bool
	if a.Kind, ok = actionKinds[kind]; !ok {
		return Action{}, kindNode.Mismatch("install, update or review", "unknown action")
	}

	module, err := o.Require("module")
	if err != nil {
		return Action{}, err
	}
	if a.Module, err = module.String(); err != nil {
		return Action{}, err
	}
	if a.Kind != ActionReview {
		target, err := o.Require("target")
		if err != nil {
			return Action{}, err
		}
		if a.Target, err = target.String(); err != nil {
			return Action{}, err
		}
	}
	if a.IsMajor, err = o.Get("isMajor").OptBool(); err != nil {
		return Action{}, err
	}
	if a.Depth, err = optIntPtr(o.Get("depth")); err != nil {
		return Action{}, err
	}

	resolves, err := o.Get("resolves").OptArray()
	if err != nil {
		return Action{}, err
	}
	a.Resolves = make([]Resolve, 0, len(resolves))
	for _, rn := range resolves {
		res, err := decodeResolve(rn)
		if err != nil {
			return Action{}, err
		}
		a.Resolves = append(a.Resolves, res)
	}
	return a, nil
}

func decodeResolve(n decoding.Node) (Resolve, error) {
	o, err := n.Object()
	if err != nil {
		return Resolve{}, err
	}
	idNode, err := o.Require("id")
	if err != nil {
		return Resolve{}, err
	}
	id, err := idNode.StringOrNumber()
	if err != nil {
		return Resolve{}, err
	}
	r := Resolve{ID: AdvisoryID(id)}
	path, _, err := o.Get("path").OptString()
	if err != nil {
		return Resolve{}, err
	}
	r.Path = splitChain(path)
	if r.Dev, err = o.Get("dev").OptBool(); err != nil {
		return Resolve{}, err
	}
	if r.Optional, err = o.Get("optional").OptBool(); err != nil {
		return Resolve{}, err
	}
	if r.Bundled, err = o.Get("bundled").OptBool(); err != nil {
		return Resolve{}, err
	}
	return r, nil
}

// splitChain splits an npm 6 dependency path such as "a>b>c".
func splitChain(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ">")
}
