package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func githubItems(items ...map[string]any) map[string]any {
	return map[string]any{"items": items}
}

func repoItem(fullName, desc string, stars float64) map[string]any {
	return map[string]any{
		"full_name":        fullName,
		"description":      desc,
		"html_url":         "https://github.com/" + fullName,
		"stargazers_count": stars,
		"owner":            map[string]any{"login": "owner"},
		"topics":           []string{"prompts", "ai"},
	}
}

func testGitHub(srv *httptest.Server, token string, queries ...string) *GitHub {
	g := NewGitHub(token, queries)
	g.APIBase = srv.URL
	g.Client = srv.Client()
	return g
}

func TestGitHub_Fetch(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(githubItems(
			repoItem("a/prompt-collection", "Curated prompt collection for LLMs", 120),
			repoItem("b/empty-description", "", 50),
		))
	}))
	defer srv.Close()

	recs, err := testGitHub(srv, "tok-abc", "awesome prompts").Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "token tok-abc" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Fatalf("accept header = %q", gotAccept)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1 (empty description skipped)", len(recs))
	}
	rec := recs[0]
	if rec.Source != "github:a/prompt-collection" {
		t.Fatalf("source label = %q", rec.Source)
	}
	if rec.Str("content") != "Curated prompt collection for LLMs" {
		t.Fatalf("content = %q", rec.Str("content"))
	}
	if rec.Str("category") != "Programming" {
		t.Fatalf("category = %q", rec.Str("category"))
	}
	if got := rec.Strs("tags"); len(got) != 2 || got[0] != "prompts" {
		t.Fatalf("tags = %v", got)
	}
}

func TestGitHub_NoAuthHeaderWithoutToken(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		json.NewEncoder(w).Encode(githubItems())
	}))
	defer srv.Close()

	if _, err := testGitHub(srv, "", "q").Fetch(context.Background(), 10); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if sawAuth {
		t.Fatalf("unauthenticated fetch must not send an Authorization header")
	}
}

func TestGitHub_RateLimitEndsFetchEarly(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	recs, err := testGitHub(srv, "", "first query", "second query").Fetch(context.Background(), 10)
	if err == nil {
		t.Fatalf("expected rate-limit error to surface")
	}
	if calls != 1 {
		t.Fatalf("made %d requests after a 403, want 1 (stop early)", calls)
	}
	if len(recs) != 0 {
		t.Fatalf("records = %v", recs)
	}
}

func TestGitHub_RespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(githubItems(
			repoItem("a/one", "desc one", 1),
			repoItem("a/two", "desc two", 2),
			repoItem("a/three", "desc three", 3),
		))
	}))
	defer srv.Close()

	recs, err := testGitHub(srv, "", "q").Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want limit 2", len(recs))
	}
}
