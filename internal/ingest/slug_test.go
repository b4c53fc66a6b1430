package ingest

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"basic", "Code Review Assistant", "code-review-assistant"},
		{"punctuation stripped", "What's the BEST prompt?!", "whats-the-best-prompt"},
		{"accents folded", "Café Résumé Générator", "cafe-resume-generator"},
		{"whitespace collapsed", "  many    spaces\t here ", "many-spaces-here"},
		{"hyphens collapsed", "a -- b --- c", "a-b-c"},
		{"leading trailing hyphens trimmed", "- edge case -", "edge-case"},
		{"only symbols yields empty", "!!! ### $$$", ""},
		{"cjk yields empty", "写作助手", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.title); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := Slugify(long)
	if len(got) > maxSlugLen {
		t.Fatalf("slug length %d exceeds cap %d", len(got), maxSlugLen)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Fatalf("truncated slug has dangling hyphen: %q", got)
	}
}

func TestUniqueSlug_CollisionSuffixes(t *testing.T) {
	used := NewSlugSet()
	first := UniqueSlug("Daily Standup Prompt", "1", used)
	second := UniqueSlug("Daily Standup Prompt", "2", used)
	third := UniqueSlug("Daily Standup Prompt", "3", used)

	if first != "daily-standup-prompt" {
		t.Fatalf("first slug = %q", first)
	}
	if second != "daily-standup-prompt-1" {
		t.Fatalf("second slug = %q", second)
	}
	if third != "daily-standup-prompt-2" {
		t.Fatalf("third slug = %q", third)
	}
}

func TestUniqueSlug_FallbackForUnslugifiableTitle(t *testing.T) {
	used := NewSlugSet()
	got := UniqueSlug("写作助手", "141add05-4415-4938-b5a1-17e0d3171aff", used)
	if got != "prompt-141add05" {
		t.Fatalf("fallback slug = %q, want prompt-141add05", got)
	}

	// No id at all still yields something non-empty and unique.
	other := UniqueSlug("!!!", "", used)
	if other == "" {
		t.Fatalf("expected non-empty fallback slug")
	}
	if other == got {
		t.Fatalf("fallback slugs collided: %q", other)
	}
}

func TestUniqueSlug_RegistersWinner(t *testing.T) {
	used := NewSlugSet("taken")
	got := UniqueSlug("Taken", "9", used)
	if got != "taken-1" {
		t.Fatalf("got %q, want taken-1", got)
	}
	if !used.Has("taken-1") {
		t.Fatalf("winner was not registered in the set")
	}
}
