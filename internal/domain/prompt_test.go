package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexID_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want FlexID
	}{
		{"integer", `{"id": 42}`, "42"},
		{"string", `{"id": "abc-123"}`, "abc-123"},
		{"uuid", `{"id": "141add05-4415-4938-b5a1-17e0d3171aff"}`, "141add05-4415-4938-b5a1-17e0d3171aff"},
		{"null", `{"id": null}`, ""},
		{"empty string", `{"id": ""}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Prompt
			if err := json.Unmarshal([]byte(tc.in), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.ID != tc.want {
				t.Fatalf("got ID %q, want %q", p.ID, tc.want)
			}
		})
	}
}

func TestFlexID_MarshalsAsString(t *testing.T) {
	p := Prompt{ID: "7", Title: "t", Slug: "s", PromptText: "x"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if _, ok := raw["id"].(string); !ok {
		t.Fatalf("id marshaled as %T, want string", raw["id"])
	}
}

func TestFlexID_Int(t *testing.T) {
	if n, ok := FlexID("37").Int(); !ok || n != 37 {
		t.Fatalf("Int(37) = %d, %v", n, ok)
	}
	if _, ok := FlexID("141add05-4415").Int(); ok {
		t.Fatalf("expected UUID-style id to report ok=false")
	}
	if _, ok := FlexID("").Int(); ok {
		t.Fatalf("expected empty id to report ok=false")
	}
}

func TestPrompt_EffectiveDate(t *testing.T) {
	cases := []struct {
		name    string
		created string
		scraped string
		want    time.Time
	}{
		{"created date wins", "2024-03-01", "2024-06-01T10:00:00Z", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"scraped fallback", "", "2024-06-01T10:00:00Z", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch fallback", "", "", Epoch},
		{"garbage dates fall through", "not-a-date", "also bad", Epoch},
		{"rfc3339 created accepted", "2024-03-01T08:30:00Z", "", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Prompt{CreatedDate: tc.created, ScrapedDate: tc.scraped}
			if got := p.EffectiveDate(); !got.Equal(tc.want) {
				t.Fatalf("EffectiveDate() = %v, want %v", got, tc.want)
			}
		})
	}
}
