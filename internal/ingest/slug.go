// Package ingest implements the multi-source ingestion pipeline: it
// normalizes heterogeneous raw records into canonical prompts, filters out
// low-quality entries, removes duplicates against both the current batch and
// the persisted corpus, assigns stable slugs and identifiers, and merges the
// survivors into one ordered, size-capped corpus.
package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen bounds slugs for URL ergonomics.
const maxSlugLen = 60

var (
	slugStripRE    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRE    = regexp.MustCompile(`\s+`)
	slugHyphenRE   = regexp.MustCompile(`-+`)
	slugDeaccenter = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify derives a URL-safe identifier from a title: accents are folded to
// their ASCII base characters, everything outside [a-z0-9\s-] is stripped,
// whitespace runs become single hyphens, repeated hyphens collapse, and the
// result is trimmed and truncated to 60 characters. The result may be empty
// for titles with no representable characters; callers that need a non-empty
// slug should use UniqueSlug.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	if folded, _, err := transform.String(slugDeaccenter, s); err == nil {
		s = folded
	}
	s = slugStripRE.ReplaceAllString(s, "")
	s = slugSpaceRE.ReplaceAllString(s, "-")
	s = slugHyphenRE.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

// SlugSet tracks slugs already in use within a corpus plus the current run.
type SlugSet map[string]struct{}

// NewSlugSet builds a set from the given slugs, skipping empties.
func NewSlugSet(slugs ...string) SlugSet {
	set := make(SlugSet, len(slugs))
	for _, s := range slugs {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// Has reports whether slug is already taken.
func (s SlugSet) Has(slug string) bool {
	_, ok := s[slug]
	return ok
}

// Add registers a slug as taken.
func (s SlugSet) Add(slug string) { s[slug] = struct{}{} }

// UniqueSlug returns a slug for title that does not collide with any slug in
// used, registering the winner before returning so that same-titled records
// within one batch also end up distinct. Collisions are resolved by appending
// -1, -2, … to the base slug.
//
// A title that slugifies to nothing still yields a usable slug: the fallback
// is "prompt-" plus the first 8 hex characters of the record id (or of a
// fresh UUID when the record has none), so an empty slug is never produced.
func UniqueSlug(title, id string, used SlugSet) string {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug(id)
	}

	slug := base
	for n := 1; used.Has(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	used.Add(slug)
	return slug
}

// fallbackSlug builds a short, stable identifier for unslugifiable titles.
func fallbackSlug(id string) string {
	hex := strings.ToLower(strings.ReplaceAll(id, "-", ""))
	hex = slugStripRE.ReplaceAllString(hex, "")
	if hex == "" {
		hex = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return "prompt-" + hex
}
