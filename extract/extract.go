package extract

import (
	"log"
	"net/url"
	"strings"

	"toonpull/models"
)

// imageExtensions recognized inside candidate URLs. Matching is substring
// based because CDNs commonly append query strings or size suffixes.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif"}

// Source is one heuristic that scans a page for raw image URL strings.
// Sources run in a fixed priority order, each appending unseen URLs.
type Source interface {
	Name() string
	Scan(page *models.RenderedPage) []string
}

// Extractor folds an ordered source list into one deduplicated, validated,
// size-capped image URL list for a chapter page.
type Extractor struct {
	Sources   []Source
	MaxImages int
}

// NewExtractor wires the default source chain: image tags first, then inline
// scripts, raw page text, inline styles, and last-resort URL templating.
func NewExtractor(maxImages int) *Extractor {
	return &Extractor{
		Sources: []Source{
			&imgTags{},
			&scriptText{},
			&pageText{},
			&inlineStyles{},
			&urlTemplates{},
		},
		MaxImages: maxImages,
	}
}

// FromPage extracts image URLs from a chapter page. A nil page yields an
// empty list; extraction never fails on malformed HTML.
func (e *Extractor) FromPage(page *models.RenderedPage) []string {
	if page == nil {
		return nil
	}

	seen := make(map[string]bool)
	var urls []string

	for _, source := range e.Sources {
		// Last-resort sources only run when everything before them missed.
		if lr, ok := source.(interface{ LastResort() bool }); ok && lr.LastResort() && len(urls) > 0 {
			continue
		}

		found := 0
		for _, raw := range source.Scan(page) {
			candidate := resolveCandidate(raw, page.URL)
			if !IsValidImageURL(candidate) || seen[candidate] {
				continue
			}
			seen[candidate] = true
			urls = append(urls, candidate)
			found++
		}
		if found > 0 {
			log.Printf("<%s> Found %d new image URLs on %s", source.Name(), found, page.URL)
		}
	}

	if e.MaxImages > 0 && len(urls) > e.MaxImages {
		log.Printf("[Extract] ⚠️ %d candidates on %s exceeds cap %d, sampling both ends",
			len(urls), page.URL, e.MaxImages)
		urls = capSample(urls, e.MaxImages)
	}

	return urls
}

// IsValidImageURL reports whether a candidate can enter the result list: an
// absolute http(s) URL with a host and a recognized image extension, never a
// blob or data URI.
func IsValidImageURL(candidate string) bool {
	if candidate == "" {
		return false
	}

	lower := strings.ToLower(candidate)
	if strings.HasPrefix(lower, "blob:") || strings.HasPrefix(lower, "data:") {
		return false
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	hasExtension := false
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			hasExtension = true
			break
		}
	}
	if !hasExtension {
		return false
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return false
	}
	return true
}

// resolveCandidate trims a raw candidate and resolves it against the page
// URL, so relative and protocol-relative references get a real authority
// before validation. Unparseable input passes through for the validity
// check to reject.
func resolveCandidate(raw, baseURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// capSample keeps max entries from both ends of the list so a contiguous run
// of real pages is never dropped wholesale: the first max-max/2 entries plus
// the last max/2.
func capSample(urls []string, max int) []string {
	if len(urls) <= max {
		return urls
	}

	tail := max / 2
	head := max - tail

	sampled := make([]string, 0, max)
	sampled = append(sampled, urls[:head]...)
	sampled = append(sampled, urls[len(urls)-tail:]...)
	return sampled
}
