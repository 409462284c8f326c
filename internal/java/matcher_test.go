package java

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func inst(version string, src Source, path string) Installation {
	return Installation{Path: path, Version: MustParseVersion(version), Architecture: "x64", Source: src}
}

func TestSelectPicksHighestSatisfying(t *testing.T) {
	t.Parallel()

	cands := []Installation{
		inst("11.0.2", SourceInstallRoot, "/usr/lib/jvm/java-11/bin/java"),
		inst("17.0.9", SourceInstallRoot, "/usr/lib/jvm/java-17/bin/java"),
	}
	c, err := ParseConstraint(">= 17")
	require.NoError(t, err)

	got, ok := Select(cands, c)
	require.True(t, ok)
	assert.Equal(t, "17.0.9", got.Version.String())
}

func TestSelectNotFound(t *testing.T) {
	t.Parallel()

	cands := []Installation{inst("11.0.2", SourceInstallRoot, "/a")}
	_, ok := Select(cands, AtLeast(17))
	assert.False(t, ok)

	_, ok = Select(nil, Constraint{})
	assert.False(t, ok)
}

func TestSelectUpperBound(t *testing.T) {
	t.Parallel()

	cands := []Installation{
		inst("17.0.9", SourceInstallRoot, "/a"),
		inst("21.0.1", SourceInstallRoot, "/b"),
		inst("23.0.1", SourceInstallRoot, "/c"),
	}
	c, err := ParseConstraint(">= 17, < 22")
	require.NoError(t, err)

	got, ok := Select(cands, c)
	require.True(t, ok)
	assert.Equal(t, 21, got.Version.Major)
}

func TestSelectTieBreaksBySource(t *testing.T) {
	t.Parallel()

	cands := []Installation{
		inst("17.0.9", SourceInstallRoot, "/a"),
		inst("17.0.9", SourceSearchPath, "/b"),
		inst("17.0.9", SourceBundled, "/c"),
		inst("17.0.9", SourceOverride, "/d"),
	}

	got, ok := Select(cands, AtLeast(17))
	require.True(t, ok)
	assert.Equal(t, SourceOverride, got.Source)

	got, ok = Select(cands[:3], AtLeast(17))
	require.True(t, ok)
	assert.Equal(t, SourceBundled, got.Source)

	got, ok = Select(cands[:2], AtLeast(17))
	require.True(t, ok)
	assert.Equal(t, SourceSearchPath, got.Source)
}

func TestSelectSkipsEarlyAccessUnlessRequested(t *testing.T) {
	t.Parallel()

	cands := []Installation{
		inst("21-ea", SourceInstallRoot, "/ea"),
		inst("17.0.9", SourceInstallRoot, "/ga"),
	}

	got, ok := Select(cands, AtLeast(17))
	require.True(t, ok)
	assert.Equal(t, "/ga", got.Path)
}

func TestParseConstraintForms(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"17", "17+", ">= 17", ">=17.0.1", ">= 17, < 22"} {
		c, err := ParseConstraint(s)
		require.NoError(t, err, s)
		assert.True(t, c.Allows(MustParseVersion("21.0.1")), s)
		assert.False(t, c.Allows(MustParseVersion("11.0.2")), s)
	}

	all, err := ParseConstraint("")
	require.NoError(t, err)
	assert.True(t, all.IsAny())
	assert.Equal(t, "*", all.String())

	_, err = ParseConstraint(">>> nonsense")
	assert.Error(t, err)
}

func TestConstraintAnd(t *testing.T) {
	t.Parallel()

	upper, err := ParseConstraint("< 21")
	require.NoError(t, err)
	c := AtLeast(17).And(upper)

	assert.True(t, c.Allows(MustParseVersion("17.0.9")))
	assert.False(t, c.Allows(MustParseVersion("21.0.1")))
	assert.False(t, c.Allows(MustParseVersion("11.0.2")))
	assert.Equal(t, AtLeast(11).And(Constraint{}).String(), AtLeast(11).String())
}

func TestSelectNeverBelowMinimumAndAlwaysMaximum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		cands := make([]Installation, n)
		for i := range cands {
			v := fmt.Sprintf("%d.0.%d",
				rapid.IntRange(8, 25).Draw(t, fmt.Sprintf("major%d", i)),
				rapid.IntRange(0, 15).Draw(t, fmt.Sprintf("patch%d", i)))
			src := Source(rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("src%d", i)))
			cands[i] = inst(v, src, fmt.Sprintf("/jdk%d/bin/java", i))
		}
		minMajor := rapid.IntRange(8, 25).Draw(t, "min")
		c := AtLeast(minMajor)

		got, ok := Select(cands, c)

		var max *Installation
		for i := range cands {
			if cands[i].Version.Major < minMajor {
				continue
			}
			if max == nil || cands[i].Version.Compare(max.Version) > 0 {
				max = &cands[i]
			}
		}

		if max == nil {
			if ok {
				t.Fatalf("selected %v although nothing satisfies >= %d", got, minMajor)
			}
			return
		}
		if !ok {
			t.Fatalf("nothing selected although %v satisfies >= %d", max, minMajor)
		}
		if got.Version.Major < minMajor {
			t.Fatalf("selected %v below minimum %d", got, minMajor)
		}
		if got.Version.Compare(max.Version) != 0 {
			t.Fatalf("selected %v but maximum is %v", got, max)
		}
	})
}
