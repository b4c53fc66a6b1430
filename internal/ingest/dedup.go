package ingest

import (
	"strings"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// Signal length gates. Short titles, short excerpts, and short slugs are too
// generic to be trusted as duplicate evidence, so each signal only fires
// above its threshold.
const (
	titleGate   = 10  // exact-title signal requires len > 10
	excerptLen  = 200 // body signal compares the first 200 characters
	excerptGate = 50  // body signal requires excerpt len > 50
	slugGate    = 5   // slug signal requires len > 5
)

// Deduper decides whether a candidate prompt duplicates a record that is
// already in the corpus or was accepted earlier in the same run. It holds
// explicit per-run state: the merge step owns one instance per invocation,
// there are no package-level seen-sets.
//
// A candidate is a duplicate when ANY of three independent signals matches,
// each compared case-insensitively on trimmed text:
//
//   - exact title (gated on title length),
//   - first 200 characters of the body (gated on excerpt length),
//   - exact slug (gated on slug length).
//
// The body-prefix signal catches reworded reposts of the same content; the
// gates keep trivially short titles and snippets from causing false hits.
type Deduper struct {
	titles   map[string]struct{}
	excerpts map[string]struct{}
	slugs    map[string]struct{}
}

// NewDeduper builds a Deduper seeded with the signals of every record in the
// existing corpus, so history counts as "seen" from the first candidate on.
func NewDeduper(existing []domain.Prompt) *Deduper {
	d := &Deduper{
		titles:   make(map[string]struct{}, len(existing)),
		excerpts: make(map[string]struct{}, len(existing)),
		slugs:    make(map[string]struct{}, len(existing)),
	}
	for _, p := range existing {
		d.Remember(p)
	}
	return d
}

// IsDuplicate reports whether p matches any remembered record. Candidates
// without an assigned slug are compared on the slug their title would
// produce, mirroring how the record will be addressed once admitted.
func (d *Deduper) IsDuplicate(p domain.Prompt) bool {
	if t := normKey(p.Title); len(t) > titleGate {
		if _, hit := d.titles[t]; hit {
			return true
		}
	}
	if e := excerptKey(p.PromptText); len(e) > excerptGate {
		if _, hit := d.excerpts[e]; hit {
			return true
		}
	}
	if s := slugKey(p); len(s) > slugGate {
		if _, hit := d.slugs[s]; hit {
			return true
		}
	}
	return false
}

// Remember registers p's signals. Sub-gate signals are not recorded, so they
// can never suppress a later candidate.
func (d *Deduper) Remember(p domain.Prompt) {
	if t := normKey(p.Title); len(t) > titleGate {
		d.titles[t] = struct{}{}
	}
	if e := excerptKey(p.PromptText); len(e) > excerptGate {
		d.excerpts[e] = struct{}{}
	}
	if s := slugKey(p); len(s) > slugGate {
		d.slugs[s] = struct{}{}
	}
}

// Admit is the usual call pattern: check, and remember when new.
// It returns true when the prompt was admitted (i.e. not a duplicate).
func (d *Deduper) Admit(p domain.Prompt) bool {
	if d.IsDuplicate(p) {
		return false
	}
	d.Remember(p)
	return true
}

func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func excerptKey(body string) string {
	if len(body) > excerptLen {
		body = body[:excerptLen]
	}
	return normKey(body)
}

func slugKey(p domain.Prompt) string {
	if p.Slug != "" {
		return normKey(p.Slug)
	}
	return Slugify(p.Title)
}
