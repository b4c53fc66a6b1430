// Package sources contains the connectors that feed raw records into the
// ingestion pipeline. Each connector is a thin HTTP wrapper around one
// upstream (Reddit, GitHub, a Twitter-scraping proxy) that returns
// source-shaped records for the normalizer to interpret.
//
// Connectors fail soft by contract: a network error, auth failure, or
// timeout yields an error alongside zero records, and the pipeline continues
// with whatever other sources produced. No connector may panic or abort a
// run.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptdir/go-prompt-backend/internal/domain"
)

// Source is one upstream feeding the pipeline.
type Source interface {
	// Name returns the connector's stable identifier used in configuration
	// ("reddit", "github", "twitter") and run records.
	Name() string

	// Fetch retrieves up to limit raw records. Implementations must honor
	// ctx cancellation and return whatever was collected before an error.
	Fetch(ctx context.Context, limit int) ([]domain.RawRecord, error)
}

// maxBodyBytes caps upstream response bodies to keep a misbehaving source
// from exhausting memory.
const maxBodyBytes = 8 << 20

// httpDoer lets tests substitute the HTTP client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultClient is shared by connectors that do not need custom transports.
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// getJSON performs a GET with the given headers and decodes the JSON body
// into out.
func getJSON(ctx context.Context, client httpDoer, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for connection reuse, then report.
		io.CopyN(io.Discard, resp.Body, 512)
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out)
}
