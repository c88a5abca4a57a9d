package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"toonpull/fetcher"
	"toonpull/models"
)

// trailingChapterNumber pulls the integer out of a last-chapter href like
// .../chapter-123/ so the full range can be synthesized from it.
var trailingChapterNumber = regexp.MustCompile(`(?i)(chapter[-_/]?)(\d+)/?(?:[?#].*)?$`)

// BoundaryScan infers the chapter range from a "jump to last chapter" link:
// it parses the trailing number N from that anchor's URL and synthesizes
// chapters 0..N by substituting the number back into the URL. Used when the
// listing itself is not enumerable.
type BoundaryScan struct {
	Fetcher fetcher.Fetcher
}

func (s *BoundaryScan) Name() string { return "boundaryScan" }

func (s *BoundaryScan) Discover(ctx context.Context, listingURL string) ([]models.Chapter, error) {
	page, err := s.Fetcher.FetchPage(ctx, listingURL, "")
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, err
	}

	lastURL := findBoundaryAnchor(doc, listingURL)
	if lastURL == "" {
		return nil, nil
	}

	m := trailingChapterNumber.FindStringSubmatch(lastURL)
	if m == nil {
		return nil, nil
	}

	last, err := strconv.Atoi(m[2])
	if err != nil || last < 1 {
		return nil, nil
	}

	chapters := make([]models.Chapter, 0, last+1)
	for n := 0; n <= last; n++ {
		number := strconv.Itoa(n)
		url := trailingChapterNumber.ReplaceAllString(lastURL, "${1}"+number+"/")
		chapters = append(chapters, models.Chapter{
			Number: number,
			Title:  fmt.Sprintf("Chapter %d", n),
			URL:    url,
		})
	}
	return chapters, nil
}

// findBoundaryAnchor returns the href of the first anchor that looks like a
// jump-to-last-chapter link.
func findBoundaryAnchor(doc *goquery.Document, baseURL string) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href == "" || !trailingChapterNumber.MatchString(href) {
			return true
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		class, _ := sel.Attr("class")
		marker := text + " " + strings.ToLower(class)

		if strings.Contains(marker, "last") || strings.Contains(marker, "latest") ||
			strings.Contains(marker, "newest") {
			found = resolveHref(href, baseURL)
			return false
		}
		return true
	})
	return found
}
