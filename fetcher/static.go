package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"toonpull/models"
)

// probeReadLimit caps how much of a streamed GET body the probe reads before
// declaring the URL alive.
const probeReadLimit = 512

// StaticFetcher retrieves pages and assets over plain HTTP with browser-like
// headers, a shared cookie jar and retry with exponential backoff.
type StaticFetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int

	// base delay for the backoff schedule, lowered in tests
	retryBaseDelay time.Duration
}

// NewStaticFetcher creates a fetcher with a fresh public-suffix-aware cookie
// jar.
func NewStaticFetcher() (*StaticFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &StaticFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		userAgent:      DefaultUserAgent,
		maxRetries:     3,
		retryBaseDelay: 500 * time.Millisecond,
	}, nil
}

// SetCookies seeds the jar with pre-supplied cookies for a URL, typically
// loaded from a cookie file or exported from a browser session.
func (f *StaticFetcher) SetCookies(rawURL string, cookies []*http.Cookie) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL for cookies: %w", err)
	}
	f.client.Jar.SetCookies(parsed, cookies)
	return nil
}

// FetchPage retrieves a page with retries and returns the decompressed HTML.
func (f *StaticFetcher) FetchPage(ctx context.Context, pageURL, referer string) (*models.RenderedPage, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * f.retryBaseDelay
			log.Printf("[Fetcher] Retry %d/%d for %s (waiting %v)", attempt+1, f.maxRetries, pageURL, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := f.do(ctx, pageURL, referer, nil)
		if err == nil {
			if attempt > 0 {
				log.Printf("[Fetcher] ✓ Success after %d attempts for %s", attempt+1, pageURL)
			}
			return &models.RenderedPage{URL: pageURL, HTML: string(body)}, nil
		}

		lastErr = err

		// Client errors will not improve on retry.
		if statusErr, ok := err.(*StatusError); ok && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", f.maxRetries, lastErr)
}

// FetchAsset downloads a binary asset. Asset requests are not retried here;
// the download engine owns the retry policy for image tasks.
func (f *StaticFetcher) FetchAsset(ctx context.Context, assetURL string, headers http.Header) ([]byte, error) {
	return f.do(ctx, assetURL, "", headers)
}

// Probe checks a URL with HEAD, falling back to a streamed GET that reads at
// most a few hundred bytes. A URL passes when the response is 2xx and the
// Content-Type is empty or an image type.
func (f *StaticFetcher) Probe(ctx context.Context, assetURL string, headers http.Header) bool {
	if ok, decided := f.probeHead(ctx, assetURL, headers); decided {
		return ok
	}
	return f.probeGet(ctx, assetURL, headers)
}

// Close is a no-op for the static fetcher; it exists to satisfy Fetcher.
func (f *StaticFetcher) Close() {}

func (f *StaticFetcher) probeHead(ctx context.Context, assetURL string, headers http.Header) (ok, decided bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return false, true
	}
	f.applyHeaders(req, "", headers)

	resp, err := f.client.Do(req)
	if err != nil {
		// Some hosts reject HEAD outright; let the GET probe decide.
		return false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return false, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, true
	}
	return acceptableProbeType(resp.Header.Get("Content-Type")), true
}

func (f *StaticFetcher) probeGet(ctx context.Context, assetURL string, headers http.Header) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return false
	}
	f.applyHeaders(req, "", headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	if !acceptableProbeType(resp.Header.Get("Content-Type")) {
		return false
	}

	// Pull a few bytes so the server actually commits to serving the asset.
	_, err = io.CopyN(io.Discard, resp.Body, probeReadLimit)
	return err == nil || err == io.EOF
}

func acceptableProbeType(contentType string) bool {
	if contentType == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// do performs a single GET and returns the decompressed body.
func (f *StaticFetcher) do(ctx context.Context, targetURL, referer string, extra http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.applyHeaders(req, referer, extra)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: targetURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	decompressed, wasCompressed, err := DecompressBody(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response: %w", err)
	}
	if wasCompressed {
		body = decompressed
	}

	return body, nil
}

func (f *StaticFetcher) applyHeaders(req *http.Request, referer string, extra http.Header) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	for key, values := range extra {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
