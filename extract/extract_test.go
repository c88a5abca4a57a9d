package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toonpull/models"
)

func page(html string) *models.RenderedPage {
	return &models.RenderedPage{URL: "https://example.com/series/x/chapter-1/", HTML: html}
}

func TestIsValidImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/pages/01.jpg", true},
		{"http://cdn.example.com/pages/01.webp?v=2", true},
		{"https://cdn.example.com/pages/01.PNG", true},
		{"blob:https://example.com/uuid", false},
		{"data:image/png;base64,iVBOR", false},
		{"/relative/01.jpg", false},
		{"https://cdn.example.com/pages/readme.txt", false},
		{"https:///01.jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidImageURL(tt.url), tt.url)
	}
}

func TestLazyLoadAttributePriority(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`
		<img data-src="https://cdn.example.com/real/01.jpg" src="/assets/placeholder.svg">
		<img src="https://cdn.example.com/real/02.jpg">
	`))

	require.Len(t, urls, 2)
	assert.Equal(t, "https://cdn.example.com/real/01.jpg", urls[0])
	assert.Equal(t, "https://cdn.example.com/real/02.jpg", urls[1])
}

func TestLazyLoadPlaceholderFallsThroughToSrc(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`
		<img data-src="/spinner.gif" src="https://cdn.example.com/real/01.jpg">
		<img data-lazy-src="/loading.svg" src="https://cdn.example.com/real/02.jpg">
	`))

	// The real src URLs keep their tag positions at the head of the list;
	// a lazy attribute parked on a placeholder must not displace them.
	require.GreaterOrEqual(t, len(urls), 2)
	assert.Equal(t, "https://cdn.example.com/real/01.jpg", urls[0])
	assert.Equal(t, "https://cdn.example.com/real/02.jpg", urls[1])
}

func TestRelativeURLsResolvedAgainstPage(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`
		<script>var pages = ["/uploads/ch1/01.jpg", "//cdn.example.com/ch1/02.jpg"];</script>
	`))

	require.Len(t, urls, 2)
	assert.Equal(t, "https://example.com/uploads/ch1/01.jpg", urls[0])
	assert.Equal(t, "https://cdn.example.com/ch1/02.jpg", urls[1])
}

func TestRelativeImgSrcResolved(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`<img src="/uploads/ch1/01.jpg">`))

	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com/uploads/ch1/01.jpg", urls[0])
}

func TestInlineStyleRelativeBackground(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(
		`<div style="background-image: url('/bg/01.jpg')"></div>`,
	))

	require.Len(t, urls, 1)
	assert.Equal(t, "https://example.com/bg/01.jpg", urls[0])
}

func TestDedupAcrossSources(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`
		<img src="https://cdn.example.com/pages/01.jpg">
		<script>var pages = ["https://cdn.example.com/pages/01.jpg", "https://cdn.example.com/pages/02.jpg"];</script>
	`))

	assert.Equal(t, []string{
		"https://cdn.example.com/pages/01.jpg",
		"https://cdn.example.com/pages/02.jpg",
	}, urls)
}

func TestSourceOrderIdempotence(t *testing.T) {
	// Non-overlapping URLs across sources: final set must not depend on
	// source scan order.
	html := `
		<img src="https://cdn.example.com/tags/01.jpg">
		<script>var p = "https://cdn.example.com/scripts/02.jpg";</script>
		<div style="background-image: url('https://cdn.example.com/styles/03.jpg')"></div>
	`

	forward := NewExtractor(100)
	reversed := NewExtractor(100)
	// Keep the last-resort guess source in last position; reorder the rest.
	for i, j := 0, len(reversed.Sources)-2; i < j; i, j = i+1, j-1 {
		reversed.Sources[i], reversed.Sources[j] = reversed.Sources[j], reversed.Sources[i]
	}

	a := forward.FromPage(page(html))
	b := reversed.FromPage(page(html))

	setA := make(map[string]bool)
	for _, u := range a {
		setA[u] = true
	}
	setB := make(map[string]bool)
	for _, u := range b {
		setB[u] = true
	}
	assert.Equal(t, setA, setB)
}

func TestInlineStyleBackgrounds(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(`
		<div class="reader-page" style="background-image: url('https://cdn.example.com/bg/01.jpg');"></div>
		<figure style="background-image:url(https://cdn.example.com/bg/02.webp)"></figure>
	`))

	assert.Equal(t, []string{
		"https://cdn.example.com/bg/01.jpg",
		"https://cdn.example.com/bg/02.webp",
	}, urls)
}

func TestScriptEscapedSlashes(t *testing.T) {
	e := NewExtractor(100)
	urls := e.FromPage(page(
		`<script>{"images":["https:\/\/cdn.example.com\/pages\/01.jpg"]}</script>`,
	))

	require.Len(t, urls, 1)
	assert.Equal(t, "https://cdn.example.com/pages/01.jpg", urls[0])
}

func TestCapSamplesBothEnds(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 120; i++ {
		fmt.Fprintf(&sb, `<img src="https://cdn.example.com/pages/%03d.jpg">`, i)
	}

	e := NewExtractor(100)
	urls := e.FromPage(page(sb.String()))

	require.Len(t, urls, 100)
	assert.Contains(t, urls, "https://cdn.example.com/pages/001.jpg")
	assert.Contains(t, urls, "https://cdn.example.com/pages/120.jpg")
}

func TestCapSample(t *testing.T) {
	input := make([]string, 10)
	for i := range input {
		input[i] = fmt.Sprintf("u%d", i)
	}

	sampled := capSample(input, 4)
	assert.Equal(t, []string{"u0", "u1", "u8", "u9"}, sampled)

	assert.Len(t, capSample(input, 10), 10)
}

func TestURLTemplatesOnlyAsLastResort(t *testing.T) {
	e := NewExtractor(100)

	// With a real image present the guess list stays out of the result.
	withImages := e.FromPage(page(`<img src="https://cdn.example.com/pages/01.jpg">`))
	assert.Equal(t, []string{"https://cdn.example.com/pages/01.jpg"}, withImages)

	// With nothing else found the guesses kick in, and every one of them
	// must still pass URL validity. Exact contents are not asserted.
	guesses := e.FromPage(page(`<p>nothing here</p>`))
	assert.NotEmpty(t, guesses)
	for _, u := range guesses {
		assert.True(t, IsValidImageURL(u), u)
	}
}

func TestNilPage(t *testing.T) {
	e := NewExtractor(100)
	assert.Empty(t, e.FromPage(nil))
}

func TestMalformedPage(t *testing.T) {
	e := NewExtractor(100)
	assert.NotPanics(t, func() {
		e.FromPage(page(`<img src="https://cdn.example.com/01.jpg><div<<`))
	})
}
