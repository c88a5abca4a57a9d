package discovery

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"time"

	"github.com/gocolly/colly"

	"toonpull/fetcher"
	"toonpull/models"
)

// seriesIDPatterns locate the numeric series identifier in the listing page,
// tried in order: inline JSON, the chapter-holder data attribute, a generic
// data-id, then the WordPress body class.
var seriesIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"manga_id"\s*:\s*"?(\d+)"?`),
	regexp.MustCompile(`id="manga-chapters-holder"[^>]*data-id="(\d+)"`),
	regexp.MustCompile(`data-id="(\d+)"`),
	regexp.MustCompile(`class="[^"]*postid-(\d+)[^"]*"`),
}

// AjaxListing extracts the numeric series id from the listing page and POSTs
// to the site's admin-ajax endpoint for the full chapter fragment. Covers
// themes that only populate the chapter list on demand.
type AjaxListing struct {
	Fetcher fetcher.Fetcher
}

func (s *AjaxListing) Name() string { return "ajaxListing" }

func (s *AjaxListing) Discover(ctx context.Context, listingURL string) ([]models.Chapter, error) {
	page, err := s.Fetcher.FetchPage(ctx, listingURL, "")
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	seriesID := findSeriesID(page.HTML)
	if seriesID == "" {
		return nil, nil
	}

	parsed, err := url.Parse(listingURL)
	if err != nil {
		return nil, err
	}
	endpoint := parsed.Scheme + "://" + parsed.Host + "/wp-admin/admin-ajax.php"

	fragment, err := postChapterFragment(ctx, endpoint, listingURL, seriesID)
	if err != nil {
		return nil, err
	}
	if fragment == "" {
		return nil, nil
	}

	return chaptersFromHTML(fragment, listingURL)
}

// findSeriesID tries each id pattern in order and returns the first capture.
func findSeriesID(html string) string {
	for _, pattern := range seriesIDPatterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// postChapterFragment performs the admin-ajax POST and returns the HTML
// fragment from the response. The POST itself runs on the collector's own
// timeout; the caller's context is honoured by abandoning the request when
// the context ends first.
func postChapterFragment(ctx context.Context, endpoint, referer, seriesID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	collector.UserAgent = fetcher.DefaultUserAgent
	collector.SetRequestTimeout(30 * time.Second)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Referer", referer)
		r.Headers.Set("X-Requested-With", "XMLHttpRequest")
		r.Headers.Set("Accept", "*/*")
	})

	var fragment string
	collector.OnResponse(func(r *colly.Response) {
		body, wasCompressed, err := fetcher.DecompressBody(r.Body, r.Headers.Get("Content-Encoding"))
		if err != nil {
			log.Printf("<ajaxListing> Failed to decompress fragment: %v", err)
			return
		}
		if wasCompressed {
			r.Body = body
		}
		fragment = string(r.Body)
	})

	done := make(chan error, 1)
	go func() {
		err := collector.Post(endpoint, map[string]string{
			"action": "manga_get_chapters",
			"manga":  seriesID,
		})
		collector.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
		return fragment, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
