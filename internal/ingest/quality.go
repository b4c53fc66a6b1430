package ingest

import (
	"strings"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// Reason identifies why the quality filter rejected a record. Reasons are
// stable strings intended for debug logs and run diagnostics, never for
// control flow outside this package.
type Reason string

const (
	ReasonOK             Reason = "ok"
	ReasonBodyTooShort   Reason = "body_too_short"
	ReasonTitleTooShort  Reason = "title_too_short"
	ReasonTitleTooLong   Reason = "title_too_long"
	ReasonPlaceholder    Reason = "placeholder_content"
	ReasonDisabledSource Reason = "disabled_source"
)

// placeholderPrefixes mark test/draft/stub content that must never reach the
// corpus, matched case-insensitively against the start of title and body.
var placeholderPrefixes = []string{
	"placeholder", "todo", "test:", "draft:", "pending", "example:",
}

// Filter is a pure accept/reject predicate over normalized prompts. The
// thresholds are inputs rather than constants because the same filter is
// applied in two contexts: strict gating of fresh admissions and lenient
// re-validation of the legacy corpus.
type Filter struct {
	MinBody  int // minimum prompt_text length
	TitleMin int // minimum title length; 0 disables the check
	TitleMax int // maximum title length; 0 disables the check

	disabled map[string]string // lowercased provenance label -> original
}

// NewFilter builds a Filter with the given body threshold, title bounds, and
// disabled provenance labels.
func NewFilter(minBody, titleMin, titleMax int, disabledSources []string) Filter {
	f := Filter{MinBody: minBody, TitleMin: titleMin, TitleMax: titleMax}
	if len(disabledSources) > 0 {
		f.disabled = make(map[string]string, len(disabledSources))
		for _, s := range disabledSources {
			s = strings.TrimSpace(s)
			if s != "" {
				f.disabled[strings.ToLower(s)] = s
			}
		}
	}
	return f
}

// Lenient returns a copy of the filter with the body threshold replaced,
// used when re-validating the historical corpus. Title bounds are dropped:
// legacy records predate the bounds and re-titling them is not this
// component's job.
func (f Filter) Lenient(minBody int) Filter {
	f.MinBody = minBody
	f.TitleMin, f.TitleMax = 0, 0
	return f
}

// Check reports whether p is substantial and well-formed enough to keep,
// along with the first failing rule. All rules must pass for acceptance.
func (f Filter) Check(p domain.Prompt) (bool, Reason) {
	if f.sourceDisabled(p.Source) {
		return false, ReasonDisabledSource
	}
	if len(p.PromptText) < f.MinBody {
		return false, ReasonBodyTooShort
	}
	if f.TitleMin > 0 && len(p.Title) < f.TitleMin {
		return false, ReasonTitleTooShort
	}
	if f.TitleMax > 0 && len(p.Title) > f.TitleMax {
		return false, ReasonTitleTooLong
	}
	if hasPlaceholder(p.Title) || hasPlaceholder(p.PromptText) {
		return false, ReasonPlaceholder
	}
	return true, ReasonOK
}

// sourceDisabled reports whether the provenance label belongs to a disabled
// channel. A disabled entry matches exactly or as a prefix (so "twitter"
// also purges "twitter:nitter" style labels), case-insensitively.
func (f Filter) sourceDisabled(source string) bool {
	if len(f.disabled) == 0 || source == "" {
		return false
	}
	src := strings.ToLower(strings.TrimSpace(source))
	for label := range f.disabled {
		if src == label || strings.HasPrefix(src, label) {
			return true
		}
	}
	return false
}

func hasPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
