// Package services – DirectoryService
//
// This file implements the DirectoryService, the read side of the prompt
// directory. It keeps an in-memory snapshot of the dataset (prompts, lookup
// maps, search index) and refreshes it when the dataset file changes on disk,
// so request handling never touches the filesystem on the hot path beyond a
// cheap stat call.
//
// Service-level errors (e.g., ErrPromptNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/promptdir/go-prompt-backend/internal/dataset"
	"github.com/promptdir/go-prompt-backend/internal/domain"
	"github.com/promptdir/go-prompt-backend/internal/search"
)

// CategoryCount is one category with its number of prompts.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DirectoryStats summarizes the current corpus for the stats endpoint.
type DirectoryStats struct {
	TotalPrompts int      `json:"total_prompts"`
	Categories   int      `json:"categories"`
	Sources      []string `json:"sources"`
	GeneratedAt  string   `json:"generated_at"`
	LastUpdate   string   `json:"last_update"`
}

// DirectoryService serves reads over the prompt corpus. The snapshot is
// immutable once built; refreshes swap it atomically under the write lock,
// so readers either see the old corpus or the new one, never a mix.
type DirectoryService struct {
	// Store is the dataset store the snapshot is loaded from.
	Store *dataset.Store
	// Log receives refresh diagnostics.
	Log zerolog.Logger

	mu       sync.RWMutex
	snap     *snapshot
	loadedMT time.Time // dataset file mtime at last load
}

// snapshot is one immutable view of the corpus.
type snapshot struct {
	env    dataset.Envelope
	bySlug map[string]int
	byID   map[string]int
	index  search.Index
}

// NewDirectoryService constructs the service and performs an initial load.
// A missing dataset is not an error; the service starts empty and picks up
// the corpus after the first ingestion run.
func NewDirectoryService(store *dataset.Store, log zerolog.Logger) *DirectoryService {
	s := &DirectoryService{Store: store, Log: log}
	if err := s.Reload(); err != nil {
		log.Warn().Err(err).Msg("initial dataset load failed; serving empty directory")
	}
	return s
}

// Reload rebuilds the snapshot from disk unconditionally.
func (s *DirectoryService) Reload() error {
	env, err := s.Store.LoadEnvelope()
	if err != nil {
		return err
	}

	snap := &snapshot{
		env:    env,
		bySlug: make(map[string]int, len(env.Prompts)),
		byID:   make(map[string]int, len(env.Prompts)),
		index:  search.NewIndex(env.Prompts),
	}
	for i, p := range env.Prompts {
		if p.Slug != "" {
			snap.bySlug[p.Slug] = i
		}
		if p.ID != "" {
			snap.byID[string(p.ID)] = i
		}
	}

	var mt time.Time
	if fi, err := os.Stat(s.Store.DataPath); err == nil {
		mt = fi.ModTime()
	}

	s.mu.Lock()
	s.snap = snap
	s.loadedMT = mt
	s.mu.Unlock()

	s.Log.Info().Int("prompts", len(env.Prompts)).Msg("directory snapshot refreshed")
	return nil
}

// current returns the live snapshot, refreshing first if the dataset file
// changed since the last load. Refresh failures keep the previous snapshot.
func (s *DirectoryService) current() *snapshot {
	s.mu.RLock()
	snap, loaded := s.snap, s.loadedMT
	s.mu.RUnlock()

	fi, err := os.Stat(s.Store.DataPath)
	if err == nil && !fi.ModTime().Equal(loaded) {
		if err := s.Reload(); err != nil {
			s.Log.Warn().Err(err).Msg("dataset refresh failed; keeping previous snapshot")
			return snap
		}
		s.mu.RLock()
		snap = s.snap
		s.mu.RUnlock()
	}
	if snap == nil {
		return &snapshot{}
	}
	return snap
}

// List returns one page of prompts, filtered by category (case-insensitive
// exact match, empty for all) and full-text query (empty for none), ordered
// by the corpus order (effective date descending) or, when q is set, by
// search relevance. It applies defaults for invalid page/pageSize and returns
// the total match count for pagination metadata.
func (s *DirectoryService) List(category, q string, page, pageSize int) ([]domain.Prompt, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	snap := s.current()

	var matched []domain.Prompt
	if strings.TrimSpace(q) != "" {
		// Relevance order from the index, then the category filter.
		hits := snap.index.TopK(q, len(snap.env.Prompts))
		matched = make([]domain.Prompt, 0, len(hits))
		for _, h := range hits {
			i, ok := snap.bySlug[h.Slug]
			if !ok {
				continue
			}
			if p := snap.env.Prompts[i]; categoryMatches(p, category) {
				matched = append(matched, p)
			}
		}
	} else {
		matched = make([]domain.Prompt, 0, len(snap.env.Prompts))
		for _, p := range snap.env.Prompts {
			if categoryMatches(p, category) {
				matched = append(matched, p)
			}
		}
	}

	total := int64(len(matched))
	offset := (page - 1) * pageSize
	if offset >= len(matched) {
		return []domain.Prompt{}, total, nil
	}
	end := min(offset+pageSize, len(matched))
	return matched[offset:end], total, nil
}

// Get resolves a prompt by slug, falling back to legacy numeric IDs so
// pre-slug bookmarks keep working. Returns ErrPromptNotFound when neither
// matches.
func (s *DirectoryService) Get(slugOrID string) (*domain.Prompt, error) {
	snap := s.current()
	if i, ok := snap.bySlug[slugOrID]; ok {
		p := snap.env.Prompts[i]
		return &p, nil
	}
	if _, err := strconv.ParseInt(slugOrID, 10, 64); err == nil {
		if i, ok := snap.byID[slugOrID]; ok {
			p := snap.env.Prompts[i]
			return &p, nil
		}
	}
	return nil, ErrPromptNotFound
}

// Categories returns every category present in the corpus with its prompt
// count, sorted by count descending then name for deterministic output.
func (s *DirectoryService) Categories() []CategoryCount {
	snap := s.current()
	counts := make(map[string]int)
	for _, p := range snap.env.Prompts {
		name := p.Category
		if name == "" {
			name = "General"
		}
		counts[name]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Stats returns corpus-level metadata from the dataset envelope.
func (s *DirectoryService) Stats() DirectoryStats {
	snap := s.current()
	return DirectoryStats{
		TotalPrompts: len(snap.env.Prompts),
		Categories:   len(s.Categories()),
		Sources:      snap.env.Sources,
		GeneratedAt:  snap.env.GeneratedAt,
		LastUpdate:   snap.env.LastUpdate,
	}
}

func categoryMatches(p domain.Prompt, category string) bool {
	return category == "" || strings.EqualFold(p.Category, category)
}
