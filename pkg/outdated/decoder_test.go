package outdated

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lerenn/npmreport/pkg/decoding"
	"github.com/lerenn/npmreport/pkg/version"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecode_SinglePackage(t *testing.T) {
	data := []byte(`{"pkg-a": {"current": "1.0.0", "wanted": "1.2.0", "latest": "2.0.0", "location": "node_modules/pkg-a", "type": "dependencies"}}`)

	pkgs, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	p := pkgs[0]
	require.Equal(t, "pkg-a", p.Name)
	require.Equal(t, "node_modules/pkg-a", p.Location)
	require.Equal(t, Dependencies, p.Type)
	for _, v := range []*version.Version{p.Current, p.Wanted, p.Latest} {
		require.NotNil(t, v)
		require.True(t, v.IsExact())
	}

	lt, err := p.Current.LessThan(*p.Wanted)
	require.NoError(t, err)
	require.True(t, lt)
	lt, err = p.Wanted.LessThan(*p.Latest)
	require.NoError(t, err)
	require.True(t, lt)

	behind, err := p.Behind(p.Latest)
	require.NoError(t, err)
	require.True(t, behind)
}

func TestDecode_NPM8PreservesOrder(t *testing.T) {
	pkgs, err := Decode(readFixture(t, "npm8_outdated.json"))
	require.NoError(t, err)

	var names []string
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"typescript", "@babel/core", "left-pad", "private-lib"}, names)

	ts := pkgs[0]
	require.Equal(t, DevDependencies, ts.Type)
	require.Equal(t, "web-app", ts.Dependent)
	require.Equal(t, "https://www.typescriptlang.org/", ts.Homepage)

	leftPad := pkgs[2]
	require.Nil(t, leftPad.Current)
	require.Equal(t, OptionalDependencies, leftPad.Type)
	_, err = leftPad.Behind(leftPad.Latest)
	require.ErrorIs(t, err, version.ErrIncomparable)

	private := pkgs[3]
	require.Equal(t, version.KindUnparsable, private.Current.Kind())
	require.Equal(t, "git+ssh://git@github.com/acme/private-lib.git#4f1c2d9", private.Current.Raw())
	require.Equal(t, version.KindUnparsable, private.Latest.Kind())
}

func TestDecode_NPM6WithoutType(t *testing.T) {
	pkgs, err := Decode(readFixture(t, "npm6_outdated.json"))
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	require.Equal(t, "express", pkgs[0].Name)
	require.Equal(t, Dependencies, pkgs[0].Type)
	require.Equal(t, "", pkgs[0].Dependent)
}

func TestDecode_EmptyInputs(t *testing.T) {
	for _, in := range []string{"", "  \n", "{}", "null"} {
		pkgs, err := Decode([]byte(in))
		require.NoError(t, err, in)
		require.Empty(t, pkgs, in)
	}
}

func TestDecode_StructuralMismatch(t *testing.T) {
	cases := []struct {
		name string
		in   string
		path string
	}{
		{"top level array", `[1, 2]`, "$"},
		{"entry not an object", `{"a": {"current": "1.0.0"}, "b": "1.0.0"}`, "$.b"},
		{"empty name", `{"": {"current": "1.0.0"}}`, `$[""]`},
		{"no versions", `{"a": {"location": "node_modules/a"}}`, "$.a"},
		{"version not a string", `{"a": {"current": 1}}`, "$.a.current"},
		{"unknown type", `{"a": {"current": "1.0.0", "type": "bundledDependencies"}}`, "$.a.type"},
		{"malformed json", `{"a": `, "$"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pkgs, err := Decode([]byte(c.in))
			require.Nil(t, pkgs)
			require.True(t, errors.Is(err, decoding.ErrStructuralMismatch))
			de, ok := decoding.AsDecodeError(err)
			require.True(t, ok)
			require.Equal(t, c.path, de.Path.String())
		})
	}
}

func TestDecode_TypeSpellings(t *testing.T) {
	pkgs, err := Decode([]byte(`{
		"a": {"wanted": "1.0.0", "type": "DEV"},
		"b": {"wanted": "1.0.0", "type": "peerDependencies"},
		"c": {"wanted": "1.0.0", "type": "Optional"}
	}`))
	require.NoError(t, err)
	require.Equal(t, DevDependencies, pkgs[0].Type)
	require.Equal(t, PeerDependencies, pkgs[1].Type)
	require.Equal(t, OptionalDependencies, pkgs[2].Type)
}

func TestDecode_RangesAndLatest(t *testing.T) {
	pkgs, err := Decode([]byte(`{"a": {"current": "1.0.0", "wanted": "^1.0.0", "latest": "latest"}}`))
	require.NoError(t, err)
	require.Equal(t, version.KindRange, pkgs[0].Wanted.Kind())
	require.Equal(t, version.KindUnbounded, pkgs[0].Latest.Kind())
}
