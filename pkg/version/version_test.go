package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/mod/semver"
)

func TestParse_Kinds(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"1.2.3", KindExact},
		{"v1.2.3", KindExact},
		{"=1.2.3", KindExact},
		{" 1.0.0-beta.2+exp.sha.5114f85 ", KindExact},
		{"^1.2.3", KindRange},
		{"~0.4.1", KindRange},
		{">=1.0.0 <2.0.0", KindRange},
		{"1.2.3 - 2.3.4", KindRange},
		{"1.x", KindRange},
		{"1.2", KindRange},
		{"<0.2.1 || >=1.0.0", KindRange},
		{"latest", KindUnbounded},
		{"*", KindUnbounded},
		{"x", KindUnbounded},
		{"git+https://github.com/user/repo.git#abc1234", KindUnparsable},
		{"github:user/repo", KindUnparsable},
		{"file:../local-pkg", KindUnparsable},
		{"linked", KindUnparsable},
		{"", KindUnparsable},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			v := Parse(c.in)
			require.Equal(t, c.kind, v.Kind(), "kind of %q", c.in)
			require.Equal(t, c.in, v.Raw())
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"0.0.0",
		"1.2.3",
		"v4.17.21",
		"10.20.30-rc.1",
		"1.0.0-alpha.beta.1",
		"1.0.0+20130313144700",
		"2.0.0-beta+exp.sha.5114f85",
	} {
		v := Parse(s)
		require.True(t, v.IsExact(), s)
		again := Parse(v.String())
		require.True(t, v.Equal(again), "%q -> %q", s, v.String())
	}
}

func TestParse_UnparsableKeepsText(t *testing.T) {
	raw := "git+ssh://git@github.com:npm/cli.git#v1.0.27"
	v := Parse(raw)
	require.Equal(t, KindUnparsable, v.Kind())
	require.Equal(t, raw, v.String())
	_, ok := v.Semver()
	require.False(t, ok)
}

func TestCompare_Precedence(t *testing.T) {
	ordered := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"1.10.0",
		"2.0.0",
		"10.0.0",
	}
	for i := range ordered {
		for j := range ordered {
			a, b := Parse(ordered[i]), Parse(ordered[j])
			got, err := Compare(a, b)
			require.NoError(t, err)
			want := semver.Compare("v"+ordered[i], "v"+ordered[j])
			require.Equal(t, want, got, "%s vs %s", ordered[i], ordered[j])
		}
	}
}

func TestCompare_IgnoresBuildMetadata(t *testing.T) {
	a := Parse("1.0.0+build.1")
	b := Parse("1.0.0+build.2")
	c, err := Compare(a, b)
	require.NoError(t, err)
	require.Zero(t, c)
	require.False(t, a.Equal(b))
}

func TestCompare_Incomparable(t *testing.T) {
	exact := Parse("1.0.0")
	for _, other := range []Version{Parse("^1.0.0"), Parse("latest"), Parse("git://host/repo")} {
		_, err := Compare(exact, other)
		require.True(t, errors.Is(err, ErrIncomparable), other.Raw())
		_, err = Compare(other, exact)
		require.True(t, errors.Is(err, ErrIncomparable), other.Raw())
	}
}

func TestLessThan(t *testing.T) {
	lt, err := Parse("1.0.0").LessThan(Parse("1.2.0"))
	require.NoError(t, err)
	require.True(t, lt)

	lt, err = Parse("2.0.0").LessThan(Parse("1.2.0"))
	require.NoError(t, err)
	require.False(t, lt)
}

func TestSatisfies(t *testing.T) {
	v := Parse("4.17.11")

	ok, err := v.Satisfies(Parse("<4.17.12"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Satisfies(Parse(">=4.17.12"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = v.Satisfies(Parse("latest"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = v.Satisfies(Parse("file:../x"))
	require.ErrorIs(t, err, ErrIncomparable)

	_, err = Parse("^1.0.0").Satisfies(Parse("*"))
	require.ErrorIs(t, err, ErrIncomparable)
}

func TestText(t *testing.T) {
	text, err := Parse("v1.2.3").MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1.2.3", string(text))

	var v Version
	require.NoError(t, v.UnmarshalText([]byte("^2.0.0")))
	require.Equal(t, KindRange, v.Kind())
}

func TestMustExact_Panics(t *testing.T) {
	require.NotPanics(t, func() { MustExact("1.0.0") })
	require.Panics(t, func() { MustExact("^1.0.0") })
}
