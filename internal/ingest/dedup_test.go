package ingest

import (
	"strings"
	"testing"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

func TestDeduper_TitleSignal(t *testing.T) {
	d := NewDeduper(nil)
	first := prompt("Act as a code reviewer", "body one", "s")
	if !d.Admit(first) {
		t.Fatalf("first record must be admitted")
	}

	// Same title, different casing and padding.
	dup := prompt("  ACT AS A CODE REVIEWER  ", "completely different body", "s")
	dup.Slug = "different-slug-here"
	if d.Admit(dup) {
		t.Fatalf("case-insensitive title match must be rejected")
	}
}

func TestDeduper_ShortTitleNotASignal(t *testing.T) {
	d := NewDeduper(nil)
	a := prompt("Short", "body a", "s")
	b := prompt("Short", "body b", "s")
	a.Slug, b.Slug = "x1", "x2" // keep the slug signal out of the way
	if !d.Admit(a) || !d.Admit(b) {
		t.Fatalf("titles at or below the gate must not count as duplicates")
	}
}

func TestDeduper_BodyPrefixSignal(t *testing.T) {
	d := NewDeduper(nil)
	shared := strings.Repeat("identical opening text ", 10) // > 200 chars
	a := prompt("First posting of this prompt", shared+"original tail", "s")
	b := prompt("Totally different reposted title", shared+"different tail", "s")
	if !d.Admit(a) {
		t.Fatalf("first record must be admitted")
	}
	if d.Admit(b) {
		t.Fatalf("same 200-char body prefix must be rejected")
	}
}

func TestDeduper_SlugSignalUsesDerivedSlug(t *testing.T) {
	existing := []domain.Prompt{{
		Title:      "unrelated stored title xyz",
		Slug:       "prompt-engineering-guide",
		PromptText: "stored body",
	}}
	d := NewDeduper(existing)

	// Candidate without an assigned slug whose title slugifies to the stored slug.
	cand := prompt("Prompt Engineering Guide", "fresh body", "s")
	cand.Slug = ""
	if d.Admit(cand) {
		t.Fatalf("derived slug matching an existing slug must be rejected")
	}
}

func TestDeduper_SeededWithExistingCorpus(t *testing.T) {
	existing := []domain.Prompt{prompt("A title from the archive", strings.Repeat("archived body ", 20), "s")}
	d := NewDeduper(existing)
	if d.Admit(prompt("A title from the archive", "new body", "s")) {
		t.Fatalf("existing corpus must count as seen")
	}
}

func TestDeduper_IndependentInstances(t *testing.T) {
	a := NewDeduper(nil)
	b := NewDeduper(nil)
	p := prompt("Shared between two runs", "some body", "s")
	if !a.Admit(p) {
		t.Fatalf("first deduper must admit")
	}
	if !b.Admit(p) {
		t.Fatalf("second deduper must not share state with the first")
	}
}
