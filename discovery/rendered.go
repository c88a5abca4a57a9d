package discovery

import (
	"context"

	"toonpull/fetcher"
	"toonpull/models"
)

// RenderedScan runs the listing through the fetcher's page path, which under
// the browser fetcher executes page scripts first. Handles infinite-scroll
// and JS-gated listings.
type RenderedScan struct {
	Fetcher fetcher.Fetcher
}

func (s *RenderedScan) Name() string { return "renderedScan" }

func (s *RenderedScan) Discover(ctx context.Context, listingURL string) ([]models.Chapter, error) {
	page, err := s.Fetcher.FetchPage(ctx, listingURL, "")
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return chaptersFromHTML(page.HTML, listingURL)
}
