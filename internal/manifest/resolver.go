package manifest

import (
	"fmt"
	"sort"

	"fxlaunch/internal/apperr"
	"fxlaunch/internal/platform"
)

// javaFloor maps a JavaFX major to the minimum Java major it runs on
var javaFloor = map[int]int{
	0:  17,
	23: 21,
	25: 23,
}

// RequiredJava returns the minimum Java major for a JavaFX major
func RequiredJava(javafxMajor int) int {
	floors := make([]int, 0, len(javaFloor))
	for k := range javaFloor {
		floors = append(floors, k)
	}
	sort.Ints(floors)

	required := javaFloor[0]
	for _, k := range floors {
		if javafxMajor >= k {
			required = javaFloor[k]
		}
	}
	return required
}

// Resolver turns a (version, platform) requirement into a Descriptor.
// Resolution is a pure table lookup and never touches the network.
type Resolver struct {
	manifest *Manifest
}

// NewResolver creates a resolver over a loaded manifest
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{manifest: m}
}

// Manifest returns the table the resolver reads from
func (r *Resolver) Manifest() *Manifest {
	return r.manifest
}

// Resolve looks up the exact version for the platform
func (r *Resolver) Resolve(version string, key platform.Key) (Descriptor, error) {
	desc, hasVersion, hasPlatform := r.manifest.lookup(version, key)
	switch {
	case !hasVersion:
		return Descriptor{}, apperr.New(apperr.UnknownVersion, "resolve",
			fmt.Errorf("JavaFX %s is not in the manifest", version))
	case !hasPlatform:
		return Descriptor{}, apperr.New(apperr.UnsupportedPlatform, "resolve",
			fmt.Errorf("JavaFX %s is not published for %s", version, key))
	}
	return desc, nil
}

// Latest returns the newest release published for the platform whose Java
// requirement does not exceed javaMajor. A javaMajor of 0 disables the check.
func (r *Resolver) Latest(key platform.Key, javaMajor int) (Descriptor, error) {
	published := false
	for _, version := range r.manifest.versions {
		desc, _, ok := r.manifest.lookup(version, key)
		if !ok {
			continue
		}
		published = true
		if javaMajor > 0 && desc.RequiresJava > javaMajor {
			continue
		}
		return desc, nil
	}

	if !published {
		return Descriptor{}, apperr.New(apperr.UnsupportedPlatform, "resolve",
			fmt.Errorf("no JavaFX release is published for %s", key))
	}
	return Descriptor{}, apperr.New(apperr.UnknownVersion, "resolve",
		fmt.Errorf("no JavaFX release for %s runs on Java %d", key, javaMajor))
}
