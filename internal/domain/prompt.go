// Package domain defines the canonical data shapes shared across the
// ingestion pipeline, the dataset store, and the HTTP layer. The central
// type is Prompt, the unit of the published corpus.
package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DateOnly is the layout used for created_date / last_update values.
const DateOnly = "2006-01-02"

// Epoch is the fixed fallback used when a record carries no usable date.
// Records without dates sort last and are the first candidates for eviction.
var Epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// FlexID is a corpus identifier that tolerates both historic integer ids and
// UUID strings on read. It always marshals back as a JSON string so that a
// rewritten corpus converges on one representation.
type FlexID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// Int returns the id as an integer when it is one of the legacy sequential
// ids, with ok=false for UUID-style ids.
func (f FlexID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Prompt is one canonical record of the corpus. The JSON field names match
// the persisted dataset consumed by the directory site, so this type is both
// the pipeline's working shape and the wire shape.
type Prompt struct {
	ID          FlexID   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	PromptText  string   `json:"prompt_text"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	UseCases    []string `json:"use_cases,omitempty"`

	// Provenance
	Source    string `json:"source,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Author    string `json:"author,omitempty"`

	// Dates. CreatedDate is YYYY-MM-DD, ScrapedDate is RFC 3339.
	CreatedDate string `json:"created_date,omitempty"`
	ScrapedDate string `json:"scraped_date,omitempty"`

	// Display-layer boosting flags. The pipeline carries them unchanged.
	Featured bool `json:"featured,omitempty"`
	Priority int  `json:"priority,omitempty"`
}

// EffectiveDate resolves the date used for sorting and eviction:
// created_date, falling back to scraped_date, falling back to Epoch.
// Both date-only and RFC 3339 values are accepted.
func (p Prompt) EffectiveDate() time.Time {
	if t, ok := parseDate(p.CreatedDate); ok {
		return t
	}
	if t, ok := parseDate(p.ScrapedDate); ok {
		return t
	}
	return Epoch
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateOnly, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
