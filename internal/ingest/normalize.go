package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// titleKeys and bodyKeys are the field names probed, in order, when mapping a
// raw record onto the canonical shape. Sources name these differently
// (Reddit selftext, GitHub content, proxied tweet text); nothing outside this
// file is allowed to know that.
var (
	titleKeys = []string{"title", "name", "heading"}
	bodyKeys  = []string{"prompt_text", "prompt", "content", "body", "selftext", "text"}
)

// DefaultTable declares every fallback the normalizer applies when a source
// omits a field. Keeping the defaults in one visible place (rather than
// scattered across call sites) makes each of them testable on its own.
type DefaultTable struct {
	Difficulty  string  // applied when the record carries no difficulty
	Category    string  // applied when the record carries no category
	RatingBase  float64 // rating = clamp(round(score/RatingDiv + RatingBase), 1..5)
	RatingDiv   float64
	Description string // fmt pattern receiving the provenance label
}

// Defaults is the production default table.
var Defaults = DefaultTable{
	Difficulty:  "Intermediate",
	Category:    "General",
	RatingBase:  3.2,
	RatingDiv:   10,
	Description: "Scraped from %s",
}

// Normalize converts one raw source record into the canonical Prompt shape,
// populating or defaulting every field. It is a pure transform: no I/O, no
// shared state.
//
// The second return value is false when the record has no body-like field at
// all; such records are unnormalizable and are dropped without failing the
// batch. Identifier and slug assignment happen later in the pipeline, so the
// returned Prompt carries neither.
func Normalize(rec domain.RawRecord, defaults DefaultTable, now time.Time) (domain.Prompt, bool) {
	body := strings.TrimSpace(firstOf(rec, bodyKeys))
	if body == "" {
		return domain.Prompt{}, false
	}
	title := strings.TrimSpace(firstOf(rec, titleKeys))
	if title == "" {
		title = deriveTitle(body)
	}

	desc := strings.TrimSpace(rec.Str("description"))
	if desc == "" {
		desc = fmt.Sprintf(defaults.Description, rec.Source)
	}

	category := strings.TrimSpace(rec.Str("category"))
	if category == "" {
		category = defaults.Category
	}

	difficulty := strings.TrimSpace(rec.Str("difficulty"))
	if difficulty == "" {
		difficulty = defaults.Difficulty
	}

	rating := rec.Num("rating")
	if rating == 0 {
		rating = scoreToRating(rec.Num("score"), defaults)
	}
	rating = clamp(rating, 1, 5)

	useCases := rec.Strs("use_cases")
	if len(useCases) == 0 {
		useCases = []string{category}
	}

	p := domain.Prompt{
		Title:       title,
		PromptText:  body,
		Description: desc,
		Category:    category,
		Tags:        normalizeTags(rec),
		Difficulty:  difficulty,
		Rating:      rating,
		UseCases:    useCases,
		Source:      rec.Source,
		SourceURL:   strings.TrimSpace(rec.Str("url")),
		Author:      strings.TrimSpace(rec.Str("author")),
		CreatedDate: now.UTC().Format(domain.DateOnly),
		ScrapedDate: now.UTC().Format(time.RFC3339),
	}
	return p, true
}

// firstOf returns the first non-empty string among the given keys.
func firstOf(rec domain.RawRecord, keys []string) string {
	for _, k := range keys {
		if v := rec.Str(k); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// deriveTitle builds a title from the opening of the body when the source
// supplied none. The quality filter still enforces title length bounds.
func deriveTitle(body string) string {
	line := body
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	const maxDerived = 80
	if len(line) > maxDerived {
		cut := line[:maxDerived]
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		line = cut + "…"
	}
	return line
}

// normalizeTags merges explicit tags with a subreddit tag when present,
// lower-cases everything, and removes duplicates while preserving order.
func normalizeTags(rec domain.RawRecord) []string {
	raw := make([]string, 0, 8)
	if sub := strings.TrimSpace(rec.Str("subreddit")); sub != "" {
		raw = append(raw, strings.ToLower(sub))
	}
	raw = append(raw, "prompt")
	raw = append(raw, rec.Strs("tags")...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// scoreToRating maps an upstream popularity score (e.g. Reddit upvotes) onto
// the 1–5 display rating.
func scoreToRating(score float64, d DefaultTable) float64 {
	if d.RatingDiv == 0 {
		return d.RatingBase
	}
	return math.Round(score/d.RatingDiv + d.RatingBase)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
