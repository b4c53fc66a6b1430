// Package dataset persists the prompt corpus: one JSON file with a metadata
// envelope consumed directly by the directory site, plus a derived sitemap.
// The pipeline always rewrites the whole dataset; there is no incremental
// write path.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// Envelope is the persisted dataset shape. A legacy corpus may instead be a
// bare JSON array of prompts with no envelope; Load accepts both.
type Envelope struct {
	GeneratedAt  string          `json:"generated_at"`
	TotalPrompts int             `json:"total_prompts"`
	Sources      []string        `json:"sources"`
	LastUpdate   string          `json:"last_update"`
	Prompts      []domain.Prompt `json:"prompts"`
}

// Store reads and writes the dataset artifacts at fixed paths.
type Store struct {
	DataPath    string // corpus JSON
	SitemapPath string // derived sitemap XML
	BaseURL     string // public origin for sitemap URLs, no trailing slash
}

// Load reads the corpus from DataPath, accepting either the enveloped shape
// or the legacy bare array.
//
// A missing file returns an empty corpus and no error (first run). An
// unreadable or unparsable file returns an empty corpus plus the error:
// callers continue with the empty corpus per the pipeline's failure
// semantics, but must surface the error loudly since the next write will
// replace whatever the corrupt file contained.
func (s *Store) Load() ([]domain.Prompt, error) {
	env, err := s.LoadEnvelope()
	return env.Prompts, err
}

// LoadEnvelope reads the corpus plus its metadata envelope. A legacy bare
// array yields an Envelope with only Prompts and TotalPrompts populated.
// Missing-file and error semantics match Load.
func (s *Store) LoadEnvelope() (Envelope, error) {
	raw, err := os.ReadFile(s.DataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Envelope{}, nil
		}
		return Envelope{}, fmt.Errorf("read dataset %s: %w", s.DataPath, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Prompts != nil {
		return env, nil
	}

	var legacy []domain.Prompt
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return Envelope{TotalPrompts: len(legacy), Prompts: legacy}, nil
	}

	return Envelope{}, fmt.Errorf("parse dataset %s: not an envelope or prompt array", s.DataPath)
}

// Write persists the corpus with a fresh metadata envelope and regenerates
// the sitemap. The JSON is written to a temp file in the destination
// directory and renamed into place so readers never observe a torn file.
// Any error is fatal to the run and is returned to the caller.
func (s *Store) Write(prompts []domain.Prompt, sources []string, now time.Time) error {
	env := Envelope{
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		TotalPrompts: len(prompts),
		Sources:      sources,
		LastUpdate:   now.UTC().Format(domain.DateOnly),
		Prompts:      prompts,
	}

	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := atomicWrite(s.DataPath, blob); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	sitemap, err := buildSitemap(s.BaseURL, prompts, now)
	if err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	if err := atomicWrite(s.SitemapPath, sitemap); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}

// atomicWrite writes data next to path and renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
