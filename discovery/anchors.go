package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"toonpull/models"
)

// chapterLink matches the chapter-path shape used by listing pages:
// /chapter-12, /chapter-12.5, /chapter_3, /prologue and similar.
var chapterLink = regexp.MustCompile(`(?i)/(?:chapter[-_/]?(\d+(?:[.-]\d+)?)|(prologue))/?(?:[?#].*)?$`)

// chaptersFromDocument scans anchors in a parsed listing page and returns
// raw chapters in document order. baseURL resolves relative hrefs.
func chaptersFromDocument(doc *goquery.Document, baseURL string) []models.Chapter {
	var chapters []models.Chapter
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		m := chapterLink.FindStringSubmatch(href)
		if m == nil {
			return
		}

		number := m[1]
		if number == "" {
			number = strings.ToLower(m[2])
		}

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			title = "Chapter " + number
		}

		chapters = append(chapters, models.Chapter{
			Number: number,
			Title:  title,
			URL:    resolveHref(href, baseURL),
		})
	})

	return chapters
}

// chaptersFromHTML parses an HTML string and scans it for chapter anchors.
func chaptersFromHTML(html, baseURL string) ([]models.Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return chaptersFromDocument(doc, baseURL), nil
}

// resolveHref makes href absolute against baseURL; unparseable inputs pass
// through unchanged.
func resolveHref(href, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
