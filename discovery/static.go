package discovery

import (
	"context"

	"toonpull/fetcher"
	"toonpull/models"
)

// StaticScan parses the plain listing page's anchors. Last in the chain; it
// needs no rendering and no site endpoint knowledge.
type StaticScan struct {
	Fetcher fetcher.Fetcher
}

func (s *StaticScan) Name() string { return "staticScan" }

func (s *StaticScan) Discover(ctx context.Context, listingURL string) ([]models.Chapter, error) {
	page, err := s.Fetcher.FetchPage(ctx, listingURL, "")
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return chaptersFromHTML(page.HTML, listingURL)
}
