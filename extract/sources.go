package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"toonpull/models"
)

// lazyLoadAttrs are tried before the plain src attribute; lazy-loading
// themes park the real URL in one of these and leave src as a placeholder.
var lazyLoadAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-url", "src"}

var (
	absoluteImageURL = regexp.MustCompile(`https?://[^\s"'<>\\()]+?\.(?:jpe?g|png|webp|gif|avif)[^\s"'<>\\()]*`)
	quotedImageURL   = regexp.MustCompile(`["'](https?://[^"']+?\.(?:jpe?g|png|webp|gif|avif)[^"']*)["']`)
	// Quoted path references without a scheme, e.g. "/uploads/ch1/01.jpg" or
	// "//cdn.example.com/01.jpg". Resolved against the page URL downstream;
	// the colon exclusion keeps absolute and data: URLs out of this pattern.
	quotedRelativeImageURL = regexp.MustCompile(`["']([^"':\s]+?\.(?:jpe?g|png|webp|gif|avif)[^"':\s]*)["']`)
	backgroundImage        = regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
)

// parseDoc parses page HTML, returning nil on malformed input so every
// source degrades to an empty scan.
func parseDoc(page *models.RenderedPage) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil
	}
	return doc
}

// imgTags scans image tag attributes, trying the lazy-load attribute names
// before src. First attribute holding a valid image URL wins for that tag;
// a lazy attribute parked on a placeholder falls through to src.
type imgTags struct{}

func (s *imgTags) Name() string { return "imgTags" }

func (s *imgTags) Scan(page *models.RenderedPage) []string {
	doc := parseDoc(page)
	if doc == nil {
		return nil
	}

	var urls []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range lazyLoadAttrs {
			value, ok := sel.Attr(attr)
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			if !IsValidImageURL(value) {
				continue
			}
			urls = append(urls, value)
			return
		}
	})
	return urls
}

// scriptText scans inline script bodies for URL-shaped strings ending in an
// image extension. Reader themes often build the page list in JavaScript.
type scriptText struct{}

func (s *scriptText) Name() string { return "scriptText" }

func (s *scriptText) Scan(page *models.RenderedPage) []string {
	doc := parseDoc(page)
	if doc == nil {
		return nil
	}

	var urls []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		// Unescape JSON-embedded slashes before matching.
		text := strings.ReplaceAll(sel.Text(), `\/`, `/`)
		urls = append(urls, absoluteImageURL.FindAllString(text, -1)...)
		for _, m := range quotedImageURL.FindAllStringSubmatch(text, -1) {
			urls = append(urls, m[1])
		}
		for _, m := range quotedRelativeImageURL.FindAllStringSubmatch(text, -1) {
			urls = append(urls, m[1])
		}
	})
	return urls
}

// pageText scans the raw page text for absolute image URLs and quoted
// patterns embedding one, absolute or path-relative. Catches URLs that sit
// outside any recognizable tag structure.
type pageText struct{}

func (s *pageText) Name() string { return "pageText" }

func (s *pageText) Scan(page *models.RenderedPage) []string {
	urls := absoluteImageURL.FindAllString(page.HTML, -1)
	for _, m := range quotedImageURL.FindAllStringSubmatch(page.HTML, -1) {
		urls = append(urls, m[1])
	}
	for _, m := range quotedRelativeImageURL.FindAllStringSubmatch(page.HTML, -1) {
		urls = append(urls, m[1])
	}
	return urls
}

// inlineStyles scans style attributes of content-shaped containers for
// background-image targets.
type inlineStyles struct{}

func (s *inlineStyles) Name() string { return "inlineStyles" }

func (s *inlineStyles) Scan(page *models.RenderedPage) []string {
	doc := parseDoc(page)
	if doc == nil {
		return nil
	}

	var urls []string
	doc.Find("div[style], section[style], figure[style], li[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		for _, m := range backgroundImage.FindAllStringSubmatch(style, -1) {
			urls = append(urls, strings.TrimSpace(m[1]))
		}
	})
	return urls
}

// urlTemplates guesses asset URLs from the chapter URL itself with common
// asset-path suffixes and a small page-index range. A last-resort heuristic
// with no correctness guarantee; only consulted when every other source
// comes up empty.
type urlTemplates struct{}

func (s *urlTemplates) Name() string { return "urlTemplates" }

// LastResort marks this source as fallback-only.
func (s *urlTemplates) LastResort() bool { return true }

func (s *urlTemplates) Scan(page *models.RenderedPage) []string {
	base := strings.TrimRight(page.URL, "/")
	if base == "" {
		return nil
	}

	var urls []string
	for _, dir := range []string{"", "/images", "/uploads"} {
		for index := 1; index <= 10; index++ {
			for _, ext := range []string{".jpg", ".png", ".webp"} {
				urls = append(urls, fmt.Sprintf("%s%s/%02d%s", base, dir, index, ext))
			}
		}
	}
	return urls
}
