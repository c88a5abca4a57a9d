package discovery

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"toonpull/models"
)

// Strategy is one way of enumerating a series' chapters from its listing
// URL. An empty result is not an error; it means "try the next strategy".
type Strategy interface {
	Name() string
	Discover(ctx context.Context, listingURL string) ([]models.Chapter, error)
}

// Discoverer runs an ordered strategy chain and returns the first non-empty
// chapter list, deduplicated by URL and sorted by ordinal.
type Discoverer struct {
	strategies []Strategy
}

func NewDiscoverer(strategies ...Strategy) *Discoverer {
	return &Discoverer{strategies: strategies}
}

// Discover walks the strategy chain. All strategies coming up empty yields
// an empty list, logged but not fatal.
func (d *Discoverer) Discover(ctx context.Context, listingURL string) []models.Chapter {
	for _, strat := range d.strategies {
		chapters, err := strat.Discover(ctx, listingURL)
		if err != nil {
			log.Printf("<%s> Strategy failed for %s: %v", strat.Name(), listingURL, err)
			continue
		}
		if len(chapters) == 0 {
			log.Printf("<%s> No chapters found for %s, trying next strategy", strat.Name(), listingURL)
			continue
		}

		chapters = dedupeChapters(chapters)
		sortChapters(chapters)
		log.Printf("<%s> ✓ Found %d chapters for %s", strat.Name(), len(chapters), listingURL)
		return chapters
	}

	log.Printf("[Discovery] ⚠️ All strategies exhausted for %s, no chapters found", listingURL)
	return nil
}

// dedupeChapters removes duplicate URLs, keeping the first occurrence (and
// its title) in discovery order.
func dedupeChapters(chapters []models.Chapter) []models.Chapter {
	seen := make(map[string]bool, len(chapters))
	out := chapters[:0]
	for _, ch := range chapters {
		if seen[ch.URL] {
			continue
		}
		seen[ch.URL] = true
		out = append(out, ch)
	}
	return out
}

// nonNumericOrdinal sorts after every real chapter number.
const nonNumericOrdinal = 1e18

var leadingNumber = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)

// ordinalKey maps a chapter number string onto the sort axis: the prologue
// sentinel sorts before everything, numeric ordinals ascend, and anything
// else keeps discovery order at the end.
func ordinalKey(number string) float64 {
	trimmed := strings.TrimSpace(number)
	if strings.Contains(strings.ToLower(trimmed), "prologue") {
		return -1
	}
	if m := leadingNumber.FindString(trimmed); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return nonNumericOrdinal
}

// sortChapters orders chapters in place by ordinal, stable so non-numeric
// entries retain discovery order.
func sortChapters(chapters []models.Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return ordinalKey(chapters[i].Number) < ordinalKey(chapters[j].Number)
	})
}
