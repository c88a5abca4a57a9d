package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"toonpull/models"
)

// BrowserFetcher renders pages in headless Chrome so script-built chapter
// lists and lazy-loaded readers produce their final DOM. Assets and probes
// are delegated to an embedded StaticFetcher; after each render the browser
// session cookies are synced into the static fetcher's jar so asset requests
// carry whatever the site set during page load.
type BrowserFetcher struct {
	ctx     context.Context
	cancel  context.CancelFunc
	static  *StaticFetcher
	wait    time.Duration
	cookies []*http.Cookie
}

// NewBrowserFetcher starts a headless browser context. wait is the settle
// delay after page load; seed cookies are injected before every navigation.
func NewBrowserFetcher(ctx context.Context, static *StaticFetcher, wait time.Duration, seed []*http.Cookie) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(DefaultUserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &BrowserFetcher{
		ctx:     browserCtx,
		cancel:  func() { cancelBrowser(); cancelAlloc() },
		static:  static,
		wait:    wait,
		cookies: seed,
	}, nil
}

// FetchPage renders the page and returns the post-JavaScript HTML. When the
// browser fails the static fetcher takes over so a dead Chrome never stalls
// a whole run.
func (f *BrowserFetcher) FetchPage(ctx context.Context, pageURL, referer string) (*models.RenderedPage, error) {
	html, err := f.render(ctx, pageURL, referer)
	if err != nil {
		log.Printf("[Browser] ⚠️ Render failed for %s, falling back to static fetch: %v", pageURL, err)
		return f.static.FetchPage(ctx, pageURL, referer)
	}

	if err := f.syncCookies(ctx, pageURL); err != nil {
		log.Printf("[Browser] Cookie sync failed for %s: %v", pageURL, err)
	}

	return &models.RenderedPage{URL: pageURL, HTML: html}, nil
}

// FetchAsset delegates to the static fetcher; Chrome is only used for pages.
func (f *BrowserFetcher) FetchAsset(ctx context.Context, assetURL string, headers http.Header) ([]byte, error) {
	return f.static.FetchAsset(ctx, assetURL, headers)
}

// Probe delegates to the static fetcher.
func (f *BrowserFetcher) Probe(ctx context.Context, assetURL string, headers http.Header) bool {
	return f.static.Probe(ctx, assetURL, headers)
}

// Close shuts down the browser context.
func (f *BrowserFetcher) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *BrowserFetcher) render(ctx context.Context, pageURL, referer string) (string, error) {
	timeout := 60 * time.Second
	runCtx, cancel := context.WithTimeout(f.ctx, timeout)
	defer cancel()

	// Honour caller cancellation alongside the browser context.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	tasks := []chromedp.Action{network.Enable()}

	if len(f.cookies) > 0 {
		params := browserCookies(f.cookies, pageURL)
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(params).Do(ctx)
		}))
	}

	if referer != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Referer": referer}))
	}

	tasks = append(tasks, chromedp.Navigate(pageURL))
	tasks = append(tasks, chromedp.WaitReady("body"))
	if f.wait > 0 {
		tasks = append(tasks, chromedp.Sleep(f.wait))
	}

	// Defeat lazy loading: click any load-more control, then scroll to the
	// bottom so deferred images enter the DOM.
	tasks = append(tasks, chromedp.Evaluate(
		`document.querySelectorAll('.load-more, #load-more, button[class*="load-more"]').forEach(b => b.click())`, nil))
	tasks = append(tasks, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
	tasks = append(tasks, chromedp.Sleep(500*time.Millisecond))

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	return html, nil
}

// syncCookies copies the browser's cookies for the page into the static
// fetcher's jar.
func (f *BrowserFetcher) syncCookies(ctx context.Context, pageURL string) error {
	runCtx, cancel := context.WithTimeout(f.ctx, 10*time.Second)
	defer cancel()

	var exported []*http.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().WithURLs([]string{pageURL}).Do(ctx)
		if err != nil {
			return err
		}
		exported = jarCookies(cookies)
		return nil
	}))
	if err != nil {
		return err
	}

	if len(exported) == 0 {
		return nil
	}
	return f.static.SetCookies(pageURL, exported)
}

// jarCookies converts CDP cookies to http.Cookie values for the static jar.
// Domain is carried through so a parent-domain cookie (e.g. a challenge token
// on ".example.com") stays visible to asset hosts under the same site, not
// just the page host. Session cookies report a negative expiry and keep a
// zero Expires.
func jarCookies(cookies []*network.Cookie) []*http.Cookie {
	exported := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: strings.TrimPrefix(c.Domain, "."),
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		exported = append(exported, cookie)
	}
	return exported
}

// browserCookies converts http.Cookie values to CDP cookie params, defaulting
// the domain to the target host when unset.
func browserCookies(cookies []*http.Cookie, targetURL string) []*network.CookieParam {
	var host string
	if parsed, err := url.Parse(targetURL); err == nil {
		host = parsed.Hostname()
	}

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		domain := c.Domain
		if domain == "" {
			domain = host
		}
		params = append(params, &network.CookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: domain,
			Path:   c.Path,
			Secure: c.Secure,
		})
	}
	return params
}
