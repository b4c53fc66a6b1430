package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func redditListing(posts ...map[string]any) map[string]any {
	children := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		children = append(children, map[string]any{"data": p})
	}
	return map[string]any{"data": map[string]any{"children": children}}
}

func newRedditTestServer(t *testing.T, listing map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600.0})
	})
	mux.HandleFunc("/r/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(listing)
	})
	return httptest.NewServer(mux)
}

func testReddit(srv *httptest.Server) *Reddit {
	r := NewReddit("cid", "secret", "test-agent/1.0", []string{"ChatGPT"})
	r.TokenURL = srv.URL + "/api/v1/access_token"
	r.APIBase = srv.URL
	r.Client = srv.Client()
	return r
}

func TestReddit_Fetch(t *testing.T) {
	srv := newRedditTestServer(t, redditListing(
		map[string]any{
			"title":     "A prompt worth sharing",
			"selftext":  "Act as my writing coach.",
			"author":    "u1",
			"score":     42.0,
			"permalink": "/r/ChatGPT/comments/abc",
			"subreddit": "ChatGPT",
		},
		map[string]any{
			"title":     "Link post with no text",
			"selftext":  "",
			"author":    "u2",
			"score":     10.0,
			"permalink": "/r/ChatGPT/comments/def",
			"subreddit": "ChatGPT",
		},
	))
	defer srv.Close()

	recs, err := testReddit(srv).Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1 (empty selftext skipped)", len(recs))
	}
	rec := recs[0]
	if rec.Source != "Reddit - r/ChatGPT" {
		t.Fatalf("source label = %q", rec.Source)
	}
	if rec.Str("title") != "A prompt worth sharing" || rec.Str("selftext") == "" {
		t.Fatalf("fields = %+v", rec.Fields)
	}
	if !strings.HasPrefix(rec.Str("url"), "https://www.reddit.com/r/ChatGPT") {
		t.Fatalf("url = %q", rec.Str("url"))
	}
	if rec.Num("score") != 42 {
		t.Fatalf("score = %v", rec.Num("score"))
	}
}

func TestReddit_FetchRespectsLimit(t *testing.T) {
	posts := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		posts = append(posts, map[string]any{
			"title":     "Post title",
			"selftext":  "body text",
			"subreddit": "ChatGPT",
			"permalink": "/p",
		})
	}
	srv := newRedditTestServer(t, redditListing(posts...))
	defer srv.Close()

	recs, err := testReddit(srv).Fetch(context.Background(), 3)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want limit 3", len(recs))
	}
}

func TestReddit_MissingCredentials(t *testing.T) {
	r := NewReddit("", "", "agent", []string{"ChatGPT"})
	if _, err := r.Fetch(context.Background(), 10); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

func TestReddit_TokenReused(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600.0})
	})
	mux.HandleFunc("/r/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(redditListing())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := testReddit(srv)
	for i := 0; i < 3; i++ {
		if _, err := r.Fetch(context.Background(), 10); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token endpoint called %d times, want 1 (cached)", tokenCalls)
	}
}

func TestReddit_TokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := testReddit(srv)
	if _, err := r.Fetch(context.Background(), 10); err == nil {
		t.Fatalf("expected authenticate error")
	}
}

func TestReddit_ContextCancellation(t *testing.T) {
	srv := newRedditTestServer(t, redditListing())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if _, err := testReddit(srv).Fetch(ctx, 10); err == nil {
		t.Fatalf("expected context deadline error")
	}
}
