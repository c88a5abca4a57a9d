package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"toonpull/models"
)

// DefaultUserAgent is sent on every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Fetcher is the single network surface of the pipeline. Page retrieval,
// asset download and URL probing all route through one implementation so the
// static and browser-backed strategies stay interchangeable.
type Fetcher interface {
	// FetchPage retrieves a page and returns its final HTML. referer may be
	// empty for top-level navigation.
	FetchPage(ctx context.Context, pageURL, referer string) (*models.RenderedPage, error)

	// FetchAsset downloads a binary asset (image) with the given extra
	// headers merged over the browser-like defaults.
	FetchAsset(ctx context.Context, assetURL string, headers http.Header) ([]byte, error)

	// Probe reports whether the URL appears retrievable without downloading
	// the full body.
	Probe(ctx context.Context, assetURL string, headers http.Header) bool

	// Close releases any held resources (browser contexts, tickers).
	Close()
}

// StatusError reports a non-2xx HTTP response. Callers branch on the status
// code to decide between retrying, skipping, or aborting a chapter.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// AssetHeaders builds the hotlink-protection headers for asset requests:
// Referer pointing at the chapter page and Origin derived from it.
func AssetHeaders(referer string) http.Header {
	h := make(http.Header)
	if referer == "" {
		return h
	}

	h.Set("Referer", referer)
	if parsed, err := url.Parse(referer); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		h.Set("Origin", parsed.Scheme+"://"+parsed.Host)
	}
	return h
}
