package main

import "strings"

// NameMatcher resolves a student name against records exported by another
// system, where spellings drift (nicknames, married surnames, diacritics).
// The fallback chain is fixed policy: exact match, then the curated alias
// table, then a partial match requiring both the first and last name
// tokens as substrings. The chain stops at the first stage that matches;
// no match means the student simply has no records of that type.
type NameMatcher struct {
	aliases map[string][]string
}

// NewNameMatcher builds a matcher over a canonical-name -> known-variants
// alias table.
func NewNameMatcher(aliases map[string][]string) *NameMatcher {
	if aliases == nil {
		aliases = map[string][]string{}
	}
	return &NameMatcher{aliases: aliases}
}

// Match returns the candidate names that resolve to name, in candidate
// order. An empty result is not an error.
func (m *NameMatcher) Match(name string, candidates []string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	// Stage 1: exact.
	var out []string
	for _, c := range candidates {
		if c == name {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Stage 2: alias table.
	for _, alt := range m.aliases[name] {
		for _, c := range candidates {
			if c == alt {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	// Stage 3: first + last token as substrings.
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return nil
	}
	first, last := parts[0], parts[len(parts)-1]
	for _, c := range candidates {
		if strings.Contains(c, first) && strings.Contains(c, last) {
			out = append(out, c)
		}
	}
	return out
}

// MatchOne returns the first matching candidate, or "" and false.
func (m *NameMatcher) MatchOne(name string, candidates []string) (string, bool) {
	matches := m.Match(name, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}
