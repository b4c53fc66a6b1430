// Package domain defines the canonical data shapes shared across the
// ingestion pipeline, the dataset store, and the HTTP layer.
package domain

// RawRecord is one unparsed item handed over by a source connector. Sources
// return heterogeneous payloads (Reddit posts, GitHub files, proxied tweets)
// whose field names differ per origin; connectors place them into Fields
// untouched and the normalizer is the only component allowed to interpret
// them. Source-specific field names must never leak past normalization.
type RawRecord struct {
	// Source is the provenance label for the record, e.g.
	// "Reddit - r/ChatGPT" or "github:owner/repo".
	Source string

	// Fields holds the source-shaped payload. The normalizer probes a fixed
	// list of title-like and body-like keys; everything else is optional
	// metadata (score, author, url, tags, category, subreddit).
	Fields map[string]any
}

// Str returns the string value under key, or "" when absent or not a string.
func (r RawRecord) Str(key string) string {
	if v, ok := r.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Num returns the numeric value under key. JSON decoding yields float64 for
// all numbers, but connectors may also set native ints.
func (r RawRecord) Num(key string) float64 {
	switch v := r.Fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Strs returns the string-slice value under key, tolerating []any payloads
// produced by JSON decoding.
func (r RawRecord) Strs(key string) []string {
	switch v := r.Fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
