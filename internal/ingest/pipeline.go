package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/promptdir/go-prompt-backend/internal/config"
	"github.com/promptdir/go-prompt-backend/internal/dataset"
	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/sources"
)

// Stats summarizes one pipeline run for logging and the run-history store.
type Stats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []string // sources that contributed at least one record
	Fetched    int
	Rejected   int // normalization drops + quality rejections
	Duplicates int
	Added      int
	Purged     int
	Evicted    int
	TotalAfter int
}

// Pipeline wires the transform stages to the source connectors and the
// dataset store for one-run-at-a-time execution. It holds no per-run state;
// all run state (dedup index, slug set) is created inside Run, so a Pipeline
// value is safe to reuse across sequential runs.
//
// Concurrency model: source fetches run in parallel, each under its own
// timeout, because sources share nothing. Everything downstream is one
// sequential pass in fixed source-priority order, so when two sources
// discover the same content the higher-priority source wins the dedup race
// deterministically rather than by network timing.
type Pipeline struct {
	Sources []sources.Source // priority order
	Store   *dataset.Store
	Cfg     config.PipelineConfig
	Clock   func() time.Time // defaults to time.Now
	Log     zerolog.Logger
}

// Run executes one end-to-end pass: fetch → normalize → filter → dedup →
// slug → merge → write.
//
// Failure semantics follow the error taxonomy: a failing source contributes
// nothing and the run continues; an unreadable corpus is surfaced as a loud
// warning and treated as empty; a dataset write failure is fatal and is the
// only error Run returns.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	now := p.now()
	stats := Stats{StartedAt: now}

	existing, err := p.Store.Load()
	if err != nil {
		// Proceeding with an empty corpus risks data loss on the next
		// write, so this must be impossible to miss in the logs.
		p.Log.Warn().Err(err).
			Msg("existing corpus unreadable; proceeding with EMPTY corpus — next write will replace it")
		existing = nil
	}
	p.Log.Info().Int("existing", len(existing)).Msg("corpus loaded")

	batches := p.fetchAll(ctx)

	filter := NewFilter(p.Cfg.MinBodyStrict, p.Cfg.TitleMin, p.Cfg.TitleMax, p.Cfg.DisabledSources)
	dedup := NewDeduper(existing)
	used := NewSlugSet()
	for _, rec := range existing {
		used.Add(rec.Slug)
	}

	var accepted []domain.Prompt
	for i, batch := range batches {
		stats.Fetched += len(batch)
		if len(batch) > 0 {
			stats.Sources = append(stats.Sources, p.Sources[i].Name())
		}
		for _, raw := range batch {
			prompt, ok := Normalize(raw, Defaults, now)
			if !ok {
				stats.Rejected++
				p.Log.Debug().Str("source", raw.Source).Msg("record unnormalizable: no body field")
				continue
			}
			if ok, reason := filter.Check(prompt); !ok {
				stats.Rejected++
				p.Log.Debug().Str("source", prompt.Source).Str("title", prompt.Title).
					Str("reason", string(reason)).Msg("quality rejection")
				continue
			}
			if !dedup.Admit(prompt) {
				stats.Duplicates++
				p.Log.Debug().Str("source", prompt.Source).Str("title", prompt.Title).
					Msg("duplicate rejected")
				continue
			}
			prompt.Slug = UniqueSlug(prompt.Title, string(prompt.ID), used)
			accepted = append(accepted, prompt)
		}
	}

	res := Merge(existing, accepted, MergeOptions{
		MaxPrompts:      p.Cfg.MaxPrompts,
		DisabledSources: p.Cfg.DisabledSources,
		LenientMinBody:  p.Cfg.MinBodyLenient,
		Log:             p.Log,
	})
	stats.Added = res.Added
	stats.Purged = res.Purged
	stats.Evicted = res.Evicted
	stats.TotalAfter = len(res.Prompts)

	if err := p.Store.Write(res.Prompts, stats.Sources, now); err != nil {
		stats.FinishedAt = p.now()
		return stats, err
	}

	stats.FinishedAt = p.now()
	p.Log.Info().
		Int("fetched", stats.Fetched).
		Int("rejected", stats.Rejected).
		Int("duplicates", stats.Duplicates).
		Int("added", stats.Added).
		Int("purged", stats.Purged).
		Int("evicted", stats.Evicted).
		Int("total", stats.TotalAfter).
		Msg("ingestion run complete")
	return stats, nil
}

// fetchAll queries every source concurrently, each under its own timeout,
// and returns the batches indexed by source position so downstream
// processing follows the fixed priority order regardless of completion
// order. Source failures are logged and yield empty batches.
func (p *Pipeline) fetchAll(ctx context.Context) [][]domain.RawRecord {
	batches := make([][]domain.RawRecord, len(p.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.Sources {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, p.Cfg.SourceTimeout)
			defer cancel()

			recs, err := src.Fetch(fctx, p.Cfg.FetchLimit)
			if err != nil {
				// Fail soft: keep whatever the source returned before erroring.
				p.Log.Error().Err(err).Str("source", src.Name()).
					Int("partial", len(recs)).Msg("source fetch failed")
			}
			batches[i] = recs
			return nil
		})
	}
	g.Wait() // goroutines never return errors; they fail soft

	return batches
}

func (p *Pipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}
