package java

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a Java runtime version parsed from vendor-specific text.
// Legacy "1.x" numbering is folded so that "1.8.0_392" becomes 8.0.392.
type Version struct {
	Major     int
	Minor     int
	Patch     int
	Qualifier string // pre-release marker such as "ea"; empty for GA builds
	Build     string
	Raw       string
}

// versionToken matches the first version-looking token in a line, e.g.
// 17.0.9+9, 1.8.0_392-b08, 21-ea, 11.0.20.1
var versionToken = regexp.MustCompile(`(\d+(?:\.\d+)*)(?:_(\d+))?(?:-([0-9A-Za-z][0-9A-Za-z.]*))?(?:\+([0-9A-Za-z][0-9A-Za-z.\-]*))?`)

var semverUnsafe = regexp.MustCompile(`[^0-9A-Za-z.\-]`)

// ParseVersion extracts a Version from text such as `openjdk version "17.0.9" 2023-10-17`
// or a bare release-file value. Surrounding vendor text is ignored.
func ParseVersion(text string) (Version, error) {
	raw := strings.TrimSpace(text)
	m := versionToken.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, fmt.Errorf("no version number in %q", raw)
	}

	parts := strings.Split(m[1], ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version component %q in %q", p, raw)
		}
		nums = append(nums, n)
	}

	v := Version{Raw: m[0]}
	legacy := nums[0] == 1 && len(nums) > 1
	if legacy {
		v.Major = nums[1]
		if m[2] != "" {
			v.Patch, _ = strconv.Atoi(m[2])
		}
	} else {
		v.Major = nums[0]
		if len(nums) > 1 {
			v.Minor = nums[1]
		}
		if len(nums) > 2 {
			v.Patch = nums[2]
		}
	}

	switch {
	case m[3] != "" && legacy && strings.HasPrefix(m[3], "b"):
		// 1.8.0_392-b08: the dash suffix is a build number, not a pre-release
		v.Build = m[3]
	default:
		v.Qualifier = m[3]
		v.Build = m[4]
	}

	return v, nil
}

// MustParseVersion is ParseVersion for literals known to be valid
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders versions: numeric components first, then a GA build
// ranks above any qualified build, then qualifier and build text.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	if v.Qualifier != o.Qualifier {
		switch {
		case v.Qualifier == "":
			return 1
		case o.Qualifier == "":
			return -1
		}
		return strings.Compare(v.Qualifier, o.Qualifier)
	}
	return compareBuild(v.Build, o.Build)
}

// Less reports whether v orders before o
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// IsZero reports whether no version was parsed
func (v Version) IsZero() bool {
	return v.Raw == "" && v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

// Semver converts to a semantic version for constraint checks
func (v Version) Semver() *semver.Version {
	pre := strings.Trim(semverUnsafe.ReplaceAllString(v.Qualifier, "-"), ".-")
	meta := strings.Trim(semverUnsafe.ReplaceAllString(v.Build, "-"), ".-")
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), pre, meta)
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Qualifier != "" {
		s += "-" + v.Qualifier
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareBuild sorts numeric builds ("9", "b08") before free-form ones,
// numerically among themselves.
func compareBuild(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	an, aerr := strconv.Atoi(strings.TrimPrefix(a, "b"))
	bn, berr := strconv.Atoi(strings.TrimPrefix(b, "b"))
	switch {
	case aerr == nil && berr == nil:
		if c := cmpInt(an, bn); c != 0 {
			return c
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
