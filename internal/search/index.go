// Package search provides a simple, deterministic, concurrency-safe in-memory
// search index built from the prompt corpus. It is intentionally small and
// dependency-free, but engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Sensible defaults (thin-document filtering, result caps)
//   - Minimal Index interface (TopK(query, k int) []Result)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// Result is one ranked prompt with its similarity score. Slug identifies the
// prompt; callers resolve it against the corpus for the full record.
type Result struct {
	Slug  string
	Title string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minBodyRunes int
	stopwords    map[string]struct{}
	maxDocs      int
}

func defaultConfig() config {
	return config{
		minBodyRunes: 0,
		stopwords:    nil,
		maxDocs:      0,
	}
}

// WithMinBodyRunes skips prompts whose text is shorter than n runes.
func WithMinBodyRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minBodyRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	slug   string
	title  string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over the given prompts. Each document's token set
// is drawn from the title, prompt text, tags, and category, so a query can
// match on any of them. Prompts without a slug are skipped; they cannot be
// resolved by callers.
func NewIndex(prompts []domain.Prompt, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(prompts))
	for _, p := range prompts {
		if p.Slug == "" {
			continue
		}
		if cfg.minBodyRunes > 0 && utf8.RuneCountInString(p.PromptText) < cfg.minBodyRunes {
			continue
		}
		toks := tokenize(docText(p), cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{slug: p.Slug, title: p.Title, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func docText(p domain.Prompt) string {
	parts := make([]string, 0, 3+len(p.Tags))
	parts = append(parts, p.Title, p.PromptText, p.Category)
	parts = append(parts, p.Tags...)
	return strings.Join(parts, " ")
}

// TopK returns up to k best-matching prompts by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		slug  string
		title string
		score float64
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{slug: d.slug, title: d.title, score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].slug < buf[b].slug
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		out[i] = Result{Slug: buf[i].slug, Title: buf[i].title, Score: buf[i].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
