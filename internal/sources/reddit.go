package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"
)

// Reddit fetches hot posts from a fixed list of prompt-sharing subreddits
// using the OAuth2 client-credentials flow. Posts without selftext are
// skipped at the connector level; everything else is left to the normalizer.
type Reddit struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Subreddits   []string

	// Client and TokenURL/APIBase are overridable for tests.
	Client   httpDoer
	TokenURL string
	APIBase  string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewReddit builds the connector from credentials and a subreddit list.
func NewReddit(clientID, clientSecret, userAgent string, subreddits []string) *Reddit {
	return &Reddit{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
		Subreddits:   subreddits,
		Client:       defaultClient,
		TokenURL:     redditTokenURL,
		APIBase:      redditAPIBase,
	}
}

// Name implements Source.
func (r *Reddit) Name() string { return "reddit" }

// Fetch lists hot posts of the past week across the configured subreddits,
// up to limit records in total. Subreddits are visited in configuration
// order so output order is deterministic; a failing subreddit is logged by
// the caller via the returned error but does not void records already
// collected.
func (r *Reddit) Fetch(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	if r.ClientID == "" || r.ClientSecret == "" {
		return nil, fmt.Errorf("reddit: credentials not configured")
	}
	if len(r.Subreddits) == 0 {
		return nil, nil
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit: authenticate: %w", err)
	}

	var out []domain.RawRecord
	var firstErr error
	perSub := limit/len(r.Subreddits) + 1
	for _, sub := range r.Subreddits {
		if len(out) >= limit {
			break
		}
		recs, err := r.fetchSubreddit(ctx, sub, perSub)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("reddit: r/%s: %w", sub, err)
			}
			continue
		}
		out = append(out, recs...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, firstErr
}

// listing mirrors the subset of Reddit's listing shape the connector reads.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Author     string  `json:"author"`
				Score      float64 `json:"score"`
				Permalink  string  `json:"permalink"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) fetchSubreddit(ctx context.Context, sub string, limit int) ([]domain.RawRecord, error) {
	u := fmt.Sprintf("%s/r/%s/hot.json?t=week&limit=%d", r.APIBase, url.PathEscape(sub), limit)
	var page listing
	err := getJSON(ctx, r.Client, u, map[string]string{
		"Authorization": "Bearer " + r.currentToken(),
		"User-Agent":    r.UserAgent,
	}, &page)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.RawRecord, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		post := child.Data
		if strings.TrimSpace(post.Selftext) == "" {
			continue
		}
		recs = append(recs, domain.RawRecord{
			Source: "Reddit - r/" + post.Subreddit,
			Fields: map[string]any{
				"title":     post.Title,
				"selftext":  post.Selftext,
				"author":    post.Author,
				"score":     post.Score,
				"subreddit": post.Subreddit,
				"url":       "https://www.reddit.com" + post.Permalink,
			},
		})
	}
	return recs, nil
}

// authenticate obtains (or reuses) an app-only OAuth token.
func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token != "" && time.Now().Before(r.tokenExp) {
		return nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.ClientID, r.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access_token")
	}
	r.token = tok.AccessToken
	// Refresh a minute early.
	r.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return nil
}

func (r *Reddit) currentToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}
