package main

import (
	"regexp"
	"strings"
)

var slugJunk = regexp.MustCompile(`[^a-z0-9_-]`)

// anonymizeName shortens "Love Lalla-Pagan" to "Love L." for display.
func anonymizeName(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + strings.ToUpper(string(last[0])) + "."
}

// baseSlug derives a URL-safe filename stem from a display name.
func baseSlug(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "ö", "oe")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "")
	return slugJunk.ReplaceAllString(s, "")
}

// resolveSlugs assigns a unique Slug to every student. Two passes: base
// slugs first, then collisions get the full last name appended so the
// page filenames stay stable for non-colliding students.
func resolveSlugs(students []*StudentMetrics) {
	byBase := map[string][]*StudentMetrics{}
	for _, s := range students {
		base := baseSlug(s.Name)
		byBase[base] = append(byBase[base], s)
	}
	for base, group := range byBase {
		if len(group) == 1 {
			group[0].Slug = base
			continue
		}
		for _, s := range group {
			parts := strings.Fields(s.OriginalName)
			last := ""
			if len(parts) > 0 {
				last = strings.ToLower(parts[len(parts)-1])
			}
			last = slugJunk.ReplaceAllString(last, "")
			s.Slug = base + "_" + last
		}
	}
}
