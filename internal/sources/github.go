package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

const githubAPIBase = "https://api.github.com"

// GitHub searches repositories for prompt-engineering collections and emits
// one record per hit, using the repository description (and name) as the
// candidate content. Results that survive the quality filter are typically
// curated prompt lists; thin hits are filtered downstream, not here.
//
// The connector keeps a local request budget: unauthenticated search is
// limited to 10 requests/minute, so requests pass through a token bucket and
// secondary rate-limit responses (403/429 with Retry-After) end the fetch
// early with whatever was collected.
type GitHub struct {
	Token   string
	Queries []string

	Client  httpDoer
	APIBase string

	limiter *rate.Limiter
}

// NewGitHub builds the connector. token may be empty for unauthenticated
// access at the lower rate budget.
func NewGitHub(token string, queries []string) *GitHub {
	return &GitHub{
		Token:   token,
		Queries: queries,
		Client:  defaultClient,
		APIBase: githubAPIBase,
		// Search API allows 30 req/min authenticated, 10 unauthenticated.
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 2),
	}
}

// Name implements Source.
func (g *GitHub) Name() string { return "github" }

// repoSearch mirrors the subset of the search response the connector reads.
type repoSearch struct {
	Items []struct {
		FullName    string  `json:"full_name"`
		Description string  `json:"description"`
		HTMLURL     string  `json:"html_url"`
		Stars       float64 `json:"stargazers_count"`
		Owner       struct {
			Login string `json:"login"`
		} `json:"owner"`
		Topics []string `json:"topics"`
	} `json:"items"`
}

// Fetch runs each configured query against the repository search API, in
// configuration order, until limit records are collected.
func (g *GitHub) Fetch(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	var out []domain.RawRecord
	var firstErr error

	for _, q := range g.Queries {
		if len(out) >= limit {
			break
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return out, err
		}

		u := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&per_page=%d",
			g.APIBase, url.QueryEscape(q), min(limit-len(out), 30))
		var page repoSearch
		if err := getJSON(ctx, g.Client, u, g.headers(), &page); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("github: search %q: %w", q, err)
			}
			if isRateLimited(err) {
				break
			}
			continue
		}

		for _, item := range page.Items {
			if strings.TrimSpace(item.Description) == "" {
				continue
			}
			out = append(out, domain.RawRecord{
				Source: "github:" + item.FullName,
				Fields: map[string]any{
					"title":    item.FullName,
					"content":  item.Description,
					"author":   item.Owner.Login,
					"score":    item.Stars,
					"url":      item.HTMLURL,
					"tags":     item.Topics,
					"category": "Programming",
				},
			})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, firstErr
}

func (g *GitHub) headers() map[string]string {
	h := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": "go-prompt-backend/1.0",
	}
	if g.Token != "" {
		h["Authorization"] = "token " + g.Token
	}
	return h
}

// isRateLimited sniffs the status embedded by getJSON for the two codes
// GitHub uses for primary and secondary limits.
func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "status 403") || strings.Contains(msg, "status 429")
}
