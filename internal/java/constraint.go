package java

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var bareMinimum = regexp.MustCompile(`^(\d+(?:\.\d+){0,2})\+?$`)

// Constraint is a minimum Java version, optionally bounded above.
// The zero value accepts every version.
type Constraint struct {
	text  []string
	parts []*semver.Constraints
}

// ParseConstraint accepts "17" or "17+" (meaning >= 17) or semver syntax
// such as ">= 17, < 22". An empty string or "*" accepts everything.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Constraint{}, nil
	}
	if m := bareMinimum.FindStringSubmatch(s); m != nil {
		s = ">= " + m[1]
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return Constraint{}, fmt.Errorf("invalid Java version constraint %q: %w", s, err)
	}
	return Constraint{text: []string{s}, parts: []*semver.Constraints{c}}, nil
}

// AtLeast returns the constraint ">= major"
func AtLeast(major int) Constraint {
	c, err := ParseConstraint(fmt.Sprintf("%d", major))
	if err != nil {
		panic(err)
	}
	return c
}

// And returns a constraint satisfied only when both c and o are
func (c Constraint) And(o Constraint) Constraint {
	return Constraint{
		text:  append(append([]string{}, c.text...), o.text...),
		parts: append(append([]*semver.Constraints{}, c.parts...), o.parts...),
	}
}

// Allows reports whether v satisfies every part of the constraint.
// Qualified builds such as "21-ea" only match constraints naming a pre-release.
func (c Constraint) Allows(v Version) bool {
	sv := v.Semver()
	for _, p := range c.parts {
		if !p.Check(sv) {
			return false
		}
	}
	return true
}

// IsAny reports whether the constraint accepts every version
func (c Constraint) IsAny() bool {
	return len(c.parts) == 0
}

func (c Constraint) String() string {
	if c.IsAny() {
		return "*"
	}
	return strings.Join(c.text, " && ")
}
