package campaign

import "strings"

// NormalizeNiches lowercases, trims and dedupes niche tags.
func NormalizeNiches(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))

	for _, n := range in {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)

		if len(out) >= 20 { // cap
			break
		}
	}

	return out
}

// MatchesNiches reports whether a creator with the given niches qualifies for
// a campaign filter. An empty filter matches every creator.
func MatchesNiches(filter, niches []string) bool {
	if len(filter) == 0 {
		return true
	}
	set := map[string]struct{}{}
	for _, n := range niches {
		set[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	for _, f := range filter {
		if _, ok := set[strings.ToLower(strings.TrimSpace(f))]; ok {
			return true
		}
	}
	return false
}
