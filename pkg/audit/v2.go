package audit

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/version"
)

const auditReportVersion = 2

// decodeV2 decodes the npm 7+ schema: vulnerable packages keyed by name,
// whose "via" lists either advisories or the dependencies that carry them.
// Advisories are collected from every package they appear under.
func (d *decoder) decodeV2(obj decoding.Object) (*Report, error) {
	if n := obj.Get("auditReportVersion"); !n.Absent() {
		v, err := n.Int()
		if err != nil {
			return nil, err
		}
		if v != auditReportVersion {
			return nil, n.Mismatch("2", "unsupported audit report version")
		}
	}

	r := &Report{
		Advisories: make(map[AdvisoryID]Advisory),
		Counts:     newCounts(),
	}
	vulns, err := obj.Get("vulnerabilities").Object()
	if err != nil {
		return nil, err
	}
	r.Packages = make([]VulnerablePackage, 0, vulns.Len())
	for _, m := range vulns.Members() {
		pkg, advisories, err := decodeV2Package(m)
		if err != nil {
			return nil, err
		}
		r.Packages = append(r.Packages, pkg)
		r.Counts[pkg.Severity]++
		for _, a := range advisories {
			if seen, ok := r.Advisories[a.ID]; ok {
				seen.Findings = append(seen.Findings, a.Findings...)
				a = seen
			}
			r.Advisories[a.ID] = a
		}
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
		if r.Dependencies, err = decodeDependencyCounts(mo.Get("dependencies")); err != nil {
			return nil, err
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

func decodeV2Package(m decoding.Member) (VulnerablePackage, []Advisory, error) {
	o, err := m.Value.Object()
	if err != nil {
		return VulnerablePackage{}, nil, err
	}

	p := VulnerablePackage{Name: m.Key}
	if name, ok, err := o.Get("name").OptString(); err != nil {
		return VulnerablePackage{}, nil, err
	} else if ok && name != "" {
		p.Name = name
	}
	if p.Severity, err = severityOf(o); err != nil {
		return VulnerablePackage{}, nil, err
	}
	if p.IsDirect, err = o.Get("isDirect").OptBool(); err != nil {
		return VulnerablePackage{}, nil, err
	}
	if p.Range, _, err = o.Get("range").OptString(); err != nil {
		return VulnerablePackage{}, nil, err
	}
	if p.Effects, err = o.Get("effects").Strings(); err != nil {
		return VulnerablePackage{}, nil, err
	}
	if p.Nodes, err = o.Get("nodes").Strings(); err != nil {
		return VulnerablePackage{}, nil, err
	}
	if p.Fix, err = decodeFix(o.Get("fixAvailable")); err != nil {
		return VulnerablePackage{}, nil, err
	}

	chains := make([][]string, 0, len(p.Nodes))
	for _, node := range p.Nodes {
		chains = append(chains, nodeChain(node))
	}

	via, err := o.Get("via").OptArray()
	if err != nil {
		return VulnerablePackage{}, nil, err
	}
	var advisories []Advisory
	for _, n := range via {
		switch n.Type() {
		case jsonparser.String:
			dep, err := n.String()
			if err != nil {
				return VulnerablePackage{}, nil, err
			}
			p.ViaPackages = append(p.ViaPackages, dep)
		case jsonparser.Object:
			a, err := decodeV2Advisory(n, p.Name, chains)
			if err != nil {
				return VulnerablePackage{}, nil, err
			}
			p.Via = append(p.Via, a.ID)
			advisories = append(advisories, a)
		default:
			return VulnerablePackage{}, nil, n.Mismatch("package name or advisory object", "unexpected "+n.Type().String())
		}
	}
	return p, advisories, nil
}

func decodeV2Advisory(n decoding.Node, pkg string, chains [][]string) (Advisory, error) {
	o, err := n.Object()
	if err != nil {
		return Advisory{}, err
	}
	src, err := o.Require("source")
	if err != nil {
		return Advisory{}, err
	}
	id, err := src.StringOrNumber()
	if err != nil {
		return Advisory{}, err
	}

	a := Advisory{ID: AdvisoryID(id)}
	var name string
	if err := readStrings(o, []stringField{
		{"name", &name},
		{"dependency", &a.Module},
		{"title", &a.Title},
		{"url", &a.URL},
		{"range", &a.VulnerableVersions},
	}); err != nil {
		return Advisory{}, err
	}
	if a.Module == "" {
		a.Module = name
	}
	if a.Module == "" {
		a.Module = pkg
	}
	if a.Severity, err = severityOf(o); err != nil {
		return Advisory{}, err
	}
	if a.CWE, err = o.Get("cwe").Strings(); err != nil {
		return Advisory{}, err
	}
	if a.CVSS, err = decodeCVSS(o.Get("cvss")); err != nil {
		return Advisory{}, err
	}
	a.Findings = []Finding{{Paths: chains}}
	return a, nil
}

func decodeCVSS(n decoding.Node) (*CVSS, error) {
	if n.Absent() {
		return nil, nil
	}
	o, err := n.Object()
	if err != nil {
		return nil, err
	}
	c := &CVSS{}
	if score := o.Get("score"); !score.Absent() {
		if c.Score, err = score.Float(); err != nil {
			return nil, err
		}
	}
	if c.VectorString, _, err = o.Get("vectorString").OptString(); err != nil {
		return nil, err
	}
	return c, nil
}

// decodeFix reads fixAvailable, a boolean or a {name, version,
// isSemVerMajor} object.
func decodeFix(n decoding.Node) (Fix, error) {
	switch n.Type() {
	case jsonparser.NotExist, jsonparser.Null:
		return Fix{}, nil
	case jsonparser.Boolean:
		b, err := n.Bool()
		return Fix{Available: b}, err
	case jsonparser.Object:
	default:
		return Fix{}, n.Mismatch("boolean or fix object", "unexpected "+n.Type().String())
	}

	o, err := n.Object()
	if err != nil {
		return Fix{}, err
	}
	f := Fix{Available: true}
	if f.Name, _, err = o.Get("name").OptString(); err != nil {
		return Fix{}, err
	}
	s, ok, err := o.Get("version").OptString()
	if err != nil {
		return Fix{}, err
	}
	if ok {
		v := version.Parse(s)
		f.Version = &v
	}
	if f.IsSemVerMajor, err = o.Get("isSemVerMajor").OptBool(); err != nil {
		return Fix{}, err
	}
	return f, nil
}

func decodeDependencyCounts(n decoding.Node) (DependencyCounts, error) {
	var c DependencyCounts
	if n.Absent() {
		return c, nil
	}
	o, err := n.Object()
	if err != nil {
		return c, err
	}
	for _, f := range []intField{
		{"prod", &c.Prod},
		{"dev", &c.Dev},
		{"optional", &c.Optional},
		{"peer", &c.Peer},
		{"peerOptional", &c.PeerOptional},
		{"total", &c.Total},
	} {
		if *f.dst, err = optInt(o.Get(f.key)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// nodeChain turns an installed location such as
// "node_modules/a/node_modules/@scope/b" into the chain [a, @scope/b].
func nodeChain(node string) []string {
	parts := strings.Split(node, "node_modules/")
	chain := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			chain = append(chain, p)
		}
	}
	return chain
}
