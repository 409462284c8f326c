package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseVersionVendorFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in                  string
		major, minor, patch int
		qualifier, build    string
	}{
		{`openjdk version "17.0.9" 2023-10-17`, 17, 0, 9, "", ""},
		{`java version "1.8.0_392"`, 8, 0, 392, "", ""},
		{"1.8.0_392-b08", 8, 0, 392, "", "b08"},
		{"17.0.9+9", 17, 0, 9, "", "9"},
		{"21-ea", 21, 0, 0, "ea", ""},
		{"21.0.1-ea+7", 21, 0, 1, "ea", "7"},
		{"11.0.20.1+1-LTS", 11, 0, 20, "", "1-LTS"},
		{"11", 11, 0, 0, "", ""},
		{`"17.0.2"`, 17, 0, 2, "", ""},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.major, v.Major, tt.in)
		assert.Equal(t, tt.minor, v.Minor, tt.in)
		assert.Equal(t, tt.patch, v.Patch, tt.in)
		assert.Equal(t, tt.qualifier, v.Qualifier, tt.in)
		assert.Equal(t, tt.build, v.Build, tt.in)
	}
}

func TestParseVersionRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseVersion("no digits here")
	assert.Error(t, err)
}

func TestCompareOrdering(t *testing.T) {
	t.Parallel()

	ordered := []string{"1.8.0_202", "11.0.2", "17-ea", "17.0.0", "17.0.9", "17.0.10", "21.0.1"}
	for i := 1; i < len(ordered); i++ {
		lo, hi := MustParseVersion(ordered[i-1]), MustParseVersion(ordered[i])
		assert.True(t, lo.Less(hi), "%s < %s", lo, hi)
		assert.False(t, hi.Less(lo), "%s !< %s", hi, lo)
	}
}

func TestCompareIsTotalOrder(t *testing.T) {
	gen := rapid.Custom(func(t *rapid.T) Version {
		return Version{
			Major:     rapid.IntRange(8, 25).Draw(t, "major"),
			Minor:     rapid.IntRange(0, 2).Draw(t, "minor"),
			Patch:     rapid.IntRange(0, 12).Draw(t, "patch"),
			Qualifier: rapid.SampledFrom([]string{"", "ea", "beta"}).Draw(t, "qualifier"),
			Build:     rapid.SampledFrom([]string{"", "7", "12", "b08", "LTS"}).Draw(t, "build"),
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		a, b, c := gen.Draw(t, "a"), gen.Draw(t, "b"), gen.Draw(t, "c")

		if a.Compare(b) != -b.Compare(a) {
			t.Fatalf("antisymmetry violated for %v and %v", a, b)
		}
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 && a.Compare(c) > 0 {
			t.Fatalf("transitivity violated for %v <= %v <= %v", a, b, c)
		}
	})
}

func TestSemverConversion(t *testing.T) {
	t.Parallel()

	sv := MustParseVersion("21.0.1-ea+7").Semver()
	assert.Equal(t, "21.0.1-ea+7", sv.String())

	sv = MustParseVersion("11.0.20.1+1-LTS").Semver()
	assert.Equal(t, uint64(20), sv.Patch())
}
