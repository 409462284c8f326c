package java

import "sort"

// Select picks the best installation satisfying the constraint: the highest
// version, ties broken by source (override, bundled, search path, install
// root) and then by path. The boolean is false when nothing qualifies.
func Select(candidates []Installation, c Constraint) (Installation, bool) {
	var best Installation
	found := false

	for _, cand := range candidates {
		if !c.Allows(cand.Version) {
			continue
		}
		if !found || better(cand, best) {
			best = cand
			found = true
		}
	}

	return best, found
}

func better(a, b Installation) bool {
	if cmp := a.Version.Compare(b.Version); cmp != 0 {
		return cmp > 0
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Path < b.Path
}

// Satisfying returns every installation the constraint allows, best first
func Satisfying(candidates []Installation, c Constraint) []Installation {
	out := make([]Installation, 0, len(candidates))
	for _, cand := range candidates {
		if c.Allows(cand.Version) {
			out = append(out, cand)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return better(out[i], out[j])
	})
	return out
}
