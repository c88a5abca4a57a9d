package models

// Series represents a titled collection of chapters hosted at a canonical
// listing URL. Series descriptors come from the settings file and are never
// mutated by the pipeline.
type Series struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Chapter is one ordered unit of content with its own page of images.
// The URL is the deduplication key; Number is the ordinal sort key and may
// be textual (e.g. "prologue") or carry a part suffix (e.g. "12-5").
type Chapter struct {
	Number string
	Title  string
	URL    string
}

// RenderedPage is the outcome of a successful page fetch: the final HTML
// (post-render when a browser fetcher is active) and the URL it came from,
// used to resolve relative references found in the document.
type RenderedPage struct {
	URL  string
	HTML string
}
