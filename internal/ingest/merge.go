package ingest

import (
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// MergeOptions tunes one merge invocation.
type MergeOptions struct {
	// MaxPrompts caps the corpus size; <= 0 means unlimited.
	MaxPrompts int

	// DisabledSources lists provenance labels whose records are purged from
	// the existing corpus (retroactive source removal).
	DisabledSources []string

	// LenientMinBody, when > 0, re-validates the existing corpus against
	// this body-length threshold so the historical bar can be raised
	// without dropping everything.
	LenientMinBody int

	Log zerolog.Logger
}

// MergeResult carries the merged corpus and per-step counts for run records.
type MergeResult struct {
	Prompts []domain.Prompt
	Purged  int // existing records removed by source purge + re-validation
	Added   int // new records merged in
	Evicted int // records dropped by the size cap
}

// Merge combines the existing corpus with a batch of newly accepted prompts
// (already deduplicated) and produces one ordered, size-capped corpus.
//
// Steps, in order:
//  1. purge disabled-source records from the existing corpus,
//  2. re-validate survivors against the lenient quality threshold,
//  3. backfill missing slugs on legacy records (assigned slugs are stable
//     and never regenerated),
//  4. assign identifiers and slugs to the new records, matching the id
//     scheme the existing corpus predominantly uses,
//  5. concatenate, stable-sort by effective date descending,
//  6. cap the size, evicting oldest records only — never records from the
//     current batch.
//
// Merge is deterministic: the same inputs yield the same output, and a merge
// with an empty batch leaves a previously merged corpus unchanged.
func Merge(existing, fresh []domain.Prompt, opts MergeOptions) MergeResult {
	var res MergeResult

	// 1+2. Purge disabled sources, then re-validate leniently.
	kept := make([]domain.Prompt, 0, len(existing))
	purgeFilter := NewFilter(0, 0, 0, opts.DisabledSources)
	lenient := purgeFilter.Lenient(opts.LenientMinBody)
	for _, p := range existing {
		if purgeFilter.sourceDisabled(p.Source) {
			res.Purged++
			opts.Log.Debug().Str("slug", p.Slug).Str("source", p.Source).Msg("purged disabled-source record")
			continue
		}
		if opts.LenientMinBody > 0 {
			if ok, reason := lenient.Check(p); !ok {
				res.Purged++
				opts.Log.Debug().Str("slug", p.Slug).Str("reason", string(reason)).Msg("purged below lenient threshold")
				continue
			}
		}
		kept = append(kept, p)
	}

	// 3. Backfill slugs for legacy records that never got one. The batch's
	// already-assigned slugs are registered first: a legacy record may share
	// a slug base with a fresh record without tripping the dedup gates (both
	// title and slug can sit under the length thresholds), and a backfill
	// that ignored the batch would mint the same slug twice.
	used := NewSlugSet()
	for _, p := range kept {
		if p.Slug != "" {
			used.Add(p.Slug)
		}
	}
	for _, p := range fresh {
		if p.Slug != "" {
			used.Add(p.Slug)
		}
	}
	for i := range kept {
		if kept[i].Slug == "" {
			kept[i].Slug = UniqueSlug(kept[i].Title, string(kept[i].ID), used)
		}
	}

	// 4. Assign ids and slugs to newcomers.
	nextID := nextIDAssigner(kept)
	for i := range fresh {
		if fresh[i].ID == "" {
			fresh[i].ID = nextID()
		}
		if fresh[i].Slug == "" {
			fresh[i].Slug = UniqueSlug(fresh[i].Title, string(fresh[i].ID), used)
		}
	}
	res.Added = len(fresh)

	// 5. Concatenate and sort newest-first. The sort is stable so records
	// with equal dates keep their input order, which keeps reruns byte-identical.
	merged := make([]domain.Prompt, 0, len(kept)+len(fresh))
	merged = append(merged, kept...)
	merged = append(merged, fresh...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EffectiveDate().After(merged[j].EffectiveDate())
	})

	// 6. Cap. Eviction drops from the tail (oldest), but records from the
	// current batch are exempt: when the cap is smaller than the batch plus
	// history, old records give way first.
	if opts.MaxPrompts > 0 && len(merged) > opts.MaxPrompts {
		merged = capCorpus(merged, fresh, opts.MaxPrompts)
		res.Evicted = len(kept) + len(fresh) - len(merged)
	}

	res.Prompts = merged
	return res
}

// capCorpus truncates merged to max entries. The plain case is dropping the
// tail; when that would drop a current-batch record, older non-batch records
// are evicted instead and the date ordering is re-established.
func capCorpus(merged, fresh []domain.Prompt, max int) []domain.Prompt {
	tailHasFresh := false
	freshIDs := make(map[domain.FlexID]struct{}, len(fresh))
	for _, p := range fresh {
		freshIDs[p.ID] = struct{}{}
	}
	for _, p := range merged[max:] {
		if _, ok := freshIDs[p.ID]; ok {
			tailHasFresh = true
			break
		}
	}
	if !tailHasFresh {
		return merged[:max]
	}

	// Keep every batch record, fill the rest with the newest history.
	out := make([]domain.Prompt, 0, max)
	budget := max - len(fresh)
	for _, p := range merged {
		if _, isFresh := freshIDs[p.ID]; isFresh {
			out = append(out, p)
			continue
		}
		if budget > 0 {
			out = append(out, p)
			budget--
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate().After(out[j].EffectiveDate())
	})
	return out
}

// nextIDAssigner picks the id scheme for new records. A corpus whose ids all
// parse as integers stays on the sequential scheme (continuing past the
// maximum); anything else — including an empty corpus — uses UUIDs, the
// scheme all newly created corpora converge on.
func nextIDAssigner(existing []domain.Prompt) func() domain.FlexID {
	if len(existing) == 0 {
		return func() domain.FlexID { return domain.FlexID(uuid.NewString()) }
	}
	var max int64
	for _, p := range existing {
		n, ok := p.ID.Int()
		if !ok {
			return func() domain.FlexID { return domain.FlexID(uuid.NewString()) }
		}
		if n > max {
			max = n
		}
	}
	next := max
	return func() domain.FlexID {
		next++
		return domain.FlexID(strconv.FormatInt(next, 10))
	}
}
