package dataset

import (
	"encoding/xml"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// sitemapNS is the sitemaps.org protocol namespace.
const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// buildSitemap renders the derived sitemap: one entry per record at
// /prompt/<slug> (weekly, 0.8) plus the root entry (daily, 1.0).
func buildSitemap(baseURL string, prompts []domain.Prompt, now time.Time) ([]byte, error) {
	today := now.UTC().Format(domain.DateOnly)

	set := urlSet{
		Xmlns: sitemapNS,
		URLs:  make([]urlEntry, 0, len(prompts)+1),
	}
	set.URLs = append(set.URLs, urlEntry{
		Loc:        baseURL,
		LastMod:    today,
		ChangeFreq: "daily",
		Priority:   "1.0",
	})
	for _, p := range prompts {
		lastMod := p.CreatedDate
		if lastMod == "" {
			lastMod = today
		}
		set.URLs = append(set.URLs, urlEntry{
			Loc:        baseURL + "/prompt/" + p.Slug,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
