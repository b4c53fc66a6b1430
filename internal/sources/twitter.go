package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// TwitterProxy adapts a third-party Twitter-scraping proxy (the upstream API
// changes vendors periodically; the proxy interface stays a flat JSON array
// of tweets). The connector is disabled by default in configuration — the
// channel historically produced low-quality records, and its provenance
// label sits on the default DISABLED_SOURCES list so historical records are
// purged too.
type TwitterProxy struct {
	Endpoint string // full URL of the proxy search endpoint
	APIKey   string

	Client httpDoer
}

// twitterSourceLabel is the provenance string attached to proxied tweets.
// It must stay in sync with the default disabled-source configuration.
const twitterSourceLabel = "ScrapingDog-X"

// NewTwitterProxy builds the connector for the given proxy endpoint.
func NewTwitterProxy(endpoint, apiKey string) *TwitterProxy {
	return &TwitterProxy{Endpoint: endpoint, APIKey: apiKey, Client: defaultClient}
}

// Name implements Source.
func (t *TwitterProxy) Name() string { return "twitter" }

// tweet mirrors the proxy's flattened tweet shape.
type tweet struct {
	Text  string  `json:"text"`
	User  string  `json:"user"`
	Likes float64 `json:"likes"`
	Link  string  `json:"link"`
}

// Fetch queries the proxy once and converts up to limit tweets.
func (t *TwitterProxy) Fetch(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	if t.Endpoint == "" {
		return nil, fmt.Errorf("twitter: proxy endpoint not configured")
	}

	u := t.Endpoint
	if t.APIKey != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "api_key=" + url.QueryEscape(t.APIKey)
	}

	var tweets []tweet
	if err := getJSON(ctx, t.Client, u, nil, &tweets); err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}

	out := make([]domain.RawRecord, 0, len(tweets))
	for _, tw := range tweets {
		if len(out) >= limit {
			break
		}
		if strings.TrimSpace(tw.Text) == "" {
			continue
		}
		out = append(out, domain.RawRecord{
			Source: twitterSourceLabel,
			Fields: map[string]any{
				"text":   tw.Text,
				"author": tw.User,
				"score":  tw.Likes,
				"url":    tw.Link,
			},
		})
	}
	return out, nil
}
