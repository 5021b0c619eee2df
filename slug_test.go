package main

import "testing"

func TestAnonymizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Love Lalla-Pagan", "Love L."},
		{"Jane Smith", "Jane S."},
		{"Cher", "Cher"},
		{"  Ana  Maria  Ruiz  ", "Ana R."},
		{"", ""},
	}
	for _, tc := range cases {
		if got := anonymizeName(tc.in); got != tc.want {
			t.Fatalf("anonymizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBaseSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Jane S.", "jane_s"},
		{"Löve L.", "loeve_l"},
		{"Ana-Maria R.", "ana-maria_r"},
		{"José Q.", "jos_q"},
	}
	for _, tc := range cases {
		if got := baseSlug(tc.in); got != tc.want {
			t.Fatalf("baseSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveSlugCollisions(t *testing.T) {
	students := []*StudentMetrics{
		{Name: "Jane S.", OriginalName: "Jane Smith"},
		{Name: "Jane S.", OriginalName: "Jane Sanchez"},
		{Name: "Omar K.", OriginalName: "Omar Khan"},
	}
	resolveSlugs(students)

	if students[0].Slug != "jane_s_smith" {
		t.Fatalf("expected jane_s_smith, got %q", students[0].Slug)
	}
	if students[1].Slug != "jane_s_sanchez" {
		t.Fatalf("expected jane_s_sanchez, got %q", students[1].Slug)
	}
	if students[2].Slug != "omar_k" {
		t.Fatalf("non-colliding slug must stay short, got %q", students[2].Slug)
	}

	seen := map[string]bool{}
	for _, s := range students {
		if seen[s.Slug] {
			t.Fatalf("duplicate slug %q", s.Slug)
		}
		seen[s.Slug] = true
	}
}
