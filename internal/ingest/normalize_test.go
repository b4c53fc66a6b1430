package ingest

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func rawRecord(source string, fields map[string]any) domain.RawRecord {
	return domain.RawRecord{Source: source, Fields: fields}
}

func TestNormalize_RedditShape(t *testing.T) {
	rec := rawRecord("Reddit - r/ChatGPT", map[string]any{
		"title":     "A long prompt title here",
		"selftext":  "Act as a senior engineer reviewing my code.",
		"author":    "u1",
		"score":     float64(25),
		"subreddit": "ChatGPT",
		"url":       "https://www.reddit.com/r/ChatGPT/comments/x",
	})

	p, ok := Normalize(rec, Defaults, testNow)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if p.Title != "A long prompt title here" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.PromptText != "Act as a senior engineer reviewing my code." {
		t.Fatalf("prompt_text = %q", p.PromptText)
	}
	if p.Category != "General" || p.Difficulty != "Intermediate" {
		t.Fatalf("defaults not applied: category=%q difficulty=%q", p.Category, p.Difficulty)
	}
	if p.Description != "Scraped from Reddit - r/ChatGPT" {
		t.Fatalf("description = %q", p.Description)
	}
	// round(25/10 + 3.2) = round(5.7) -> 6, clamped to 5.
	if p.Rating != 5 {
		t.Fatalf("rating = %v, want 5", p.Rating)
	}
	if p.CreatedDate != "2024-06-15" {
		t.Fatalf("created_date = %q", p.CreatedDate)
	}
	if p.ScrapedDate != "2024-06-15T12:00:00Z" {
		t.Fatalf("scraped_date = %q", p.ScrapedDate)
	}
	if !reflect.DeepEqual(p.Tags, []string{"chatgpt", "prompt"}) {
		t.Fatalf("tags = %v", p.Tags)
	}
	if !reflect.DeepEqual(p.UseCases, []string{"General"}) {
		t.Fatalf("use_cases = %v", p.UseCases)
	}
	if p.ID != "" || p.Slug != "" {
		t.Fatalf("normalizer must not assign id or slug, got id=%q slug=%q", p.ID, p.Slug)
	}
}

func TestNormalize_NoBodyFieldDropsRecord(t *testing.T) {
	rec := rawRecord("github:o/r", map[string]any{
		"title": "only a title",
		"score": float64(3),
	})
	if _, ok := Normalize(rec, Defaults, testNow); ok {
		t.Fatalf("expected body-less record to be unnormalizable")
	}
}

func TestNormalize_BodyKeyPriority(t *testing.T) {
	rec := rawRecord("s", map[string]any{
		"prompt_text": "canonical body",
		"selftext":    "should lose",
	})
	p, ok := Normalize(rec, Defaults, testNow)
	if !ok || p.PromptText != "canonical body" {
		t.Fatalf("prompt_text key must win, got %q", p.PromptText)
	}
}

func TestNormalize_DerivesTitleFromBody(t *testing.T) {
	body := "First line becomes the title\nrest of the prompt body follows here"
	p, ok := Normalize(rawRecord("s", map[string]any{"text": body}), Defaults, testNow)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if p.Title != "First line becomes the title" {
		t.Fatalf("derived title = %q", p.Title)
	}
}

func TestNormalize_DerivedTitleTruncatedAtWordBoundary(t *testing.T) {
	body := strings.Repeat("longword ", 20) // single line, well past 80 chars
	p, ok := Normalize(rawRecord("s", map[string]any{"text": body}), Defaults, testNow)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if !strings.HasSuffix(p.Title, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", p.Title)
	}
	if strings.Contains(strings.TrimSuffix(p.Title, "…"), "  ") {
		t.Fatalf("unexpected whitespace damage: %q", p.Title)
	}
}

func TestNormalize_ExplicitFieldsWin(t *testing.T) {
	rec := rawRecord("s", map[string]any{
		"title":       "Explicit title wins",
		"content":     "body text",
		"category":    "Programming",
		"difficulty":  "Advanced",
		"description": "hand written",
		"rating":      4.0,
		"use_cases":   []any{"Code Review", "Refactoring"},
		"tags":        []any{"Go", "prompt", "tools"},
	})
	p, ok := Normalize(rec, Defaults, testNow)
	if !ok {
		t.Fatalf("expected record to normalize")
	}
	if p.Category != "Programming" || p.Difficulty != "Advanced" || p.Description != "hand written" {
		t.Fatalf("explicit fields overridden: %+v", p)
	}
	if p.Rating != 4 {
		t.Fatalf("rating = %v, want explicit 4", p.Rating)
	}
	if !reflect.DeepEqual(p.UseCases, []string{"Code Review", "Refactoring"}) {
		t.Fatalf("use_cases = %v", p.UseCases)
	}
	// Tags lowercased, deduplicated, order preserved ("prompt" injected once).
	if !reflect.DeepEqual(p.Tags, []string{"prompt", "go", "tools"}) {
		t.Fatalf("tags = %v", p.Tags)
	}
}

func TestNormalize_RatingClampedToRange(t *testing.T) {
	low, _ := Normalize(rawRecord("s", map[string]any{"text": "b", "score": float64(-100)}), Defaults, testNow)
	if low.Rating != 1 {
		t.Fatalf("low rating = %v, want clamp to 1", low.Rating)
	}
	high, _ := Normalize(rawRecord("s", map[string]any{"text": "b", "score": float64(10000)}), Defaults, testNow)
	if high.Rating != 5 {
		t.Fatalf("high rating = %v, want clamp to 5", high.Rating)
	}
}
