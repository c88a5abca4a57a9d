// Package runner orchestrates the per-series pipeline: discovery, then for
// each chapter extraction, optional validation and download.
package runner

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"toonpull/config"
	"toonpull/discovery"
	"toonpull/download"
	"toonpull/extract"
	"toonpull/fetcher"
	"toonpull/models"
	"toonpull/parser"
	"toonpull/validate"
)

// Report is the per-series outcome. A chapter succeeds when at least one of
// its images downloaded.
type Report struct {
	Series            string
	ChaptersFound     int
	ChaptersSucceeded int
}

// Runner drives the worklist. It owns the chapter iteration and the
// interruption checks; network access happens only through the Fetcher.
type Runner struct {
	Fetcher    fetcher.Fetcher
	Settings   *config.Settings
	State      *config.RunState
	Discoverer *discovery.Discoverer
	Extractor  *extract.Extractor
}

func New(f fetcher.Fetcher, settings *config.Settings, state *config.RunState) *Runner {
	return &Runner{
		Fetcher:  f,
		Settings: settings,
		State:    state,
		Discoverer: discovery.NewDiscoverer(
			&discovery.RenderedScan{Fetcher: f},
			&discovery.BoundaryScan{Fetcher: f},
			&discovery.AjaxListing{Fetcher: f},
			&discovery.StaticScan{Fetcher: f},
		),
		Extractor: extract.NewExtractor(settings.MaxImages),
	}
}

// Run processes every configured series and returns one report per series.
// The interruption flag is observed at the top of each series and each
// chapter; a chapter already downloading finishes its outstanding tasks.
func (r *Runner) Run(ctx context.Context) []Report {
	defer r.Fetcher.Close()

	reports := make([]Report, 0, len(r.Settings.Series))
	for _, series := range r.Settings.Series {
		if r.State.Interrupted() {
			log.Printf("[Runner] Interrupted, skipping remaining series")
			break
		}
		reports = append(reports, r.runSeries(ctx, series))
	}
	return reports
}

func (r *Runner) runSeries(ctx context.Context, series models.Series) Report {
	log.Printf("[Runner] Starting series %q (%s)", series.Title, series.URL)
	report := Report{Series: series.Title}

	chapters := r.Discoverer.Discover(ctx, series.URL)
	report.ChaptersFound = len(chapters)
	if len(chapters) == 0 {
		return report
	}

	downloadDir, err := parser.ExpandPath(r.Settings.DownloadDir)
	if err != nil {
		log.Printf("[Runner] ✗ Cannot resolve download directory: %v", err)
		return report
	}
	seriesDir := filepath.Join(downloadDir, parser.SanitizeName(series.Title))

	limiter := parser.NewRateLimiter(r.Settings.ChapterDelay())
	defer limiter.Stop()

	for _, chapter := range chapters {
		if r.State.Interrupted() {
			log.Printf("[Runner] Interrupted, stopping series %q", series.Title)
			break
		}

		if r.downloadChapter(ctx, chapter, seriesDir) {
			report.ChaptersSucceeded++
		}

		limiter.Wait()
	}

	log.Printf("[Runner] ✓ Series %q done: %d/%d chapters succeeded",
		series.Title, report.ChaptersSucceeded, report.ChaptersFound)
	return report
}

// downloadChapter runs extract, optional validate and download for one
// chapter. Returns whether at least one image was downloaded.
func (r *Runner) downloadChapter(ctx context.Context, chapter models.Chapter, seriesDir string) bool {
	page, err := r.Fetcher.FetchPage(ctx, chapter.URL, "")
	if err != nil {
		log.Printf("[Runner] ✗ Chapter %s page fetch failed (%s): %v", chapter.Number, chapter.URL, err)
		return false
	}

	urls := r.Extractor.FromPage(page)
	if len(urls) == 0 {
		log.Printf("[Runner] ⚠️ No images found for chapter %s (%s)", chapter.Number, chapter.URL)
		return false
	}

	if r.Settings.ValidateURLs {
		urls = validate.Filter(ctx, r.Fetcher, r.State, urls, chapter.URL, r.Settings.MaxWorkers)
		if len(urls) == 0 {
			log.Printf("[Runner] ⚠️ All candidates failed validation for chapter %s", chapter.Number)
			return false
		}
	}

	chapterDir := filepath.Join(seriesDir, parser.SanitizeName(chapter.Title))
	if err := os.MkdirAll(chapterDir, 0755); err != nil {
		log.Printf("[Runner] ✗ Cannot create chapter directory %s: %v", chapterDir, err)
		return false
	}

	tasks := make([]download.Task, 0, len(urls))
	for i, imageURL := range urls {
		pageIndex := i + 1
		tasks = append(tasks, download.Task{
			Page:    pageIndex,
			URL:     imageURL,
			Dest:    filepath.Join(chapterDir, parser.PageFileName(pageIndex)),
			Referer: chapter.URL,
		})
	}

	engine := download.NewEngine(r.Fetcher, r.State, r.Settings.MaxWorkers, r.Settings.UseBrowser)
	succeeded, attempted := engine.Run(ctx, tasks)
	log.Printf("[Runner] Chapter %s: %d/%d pages downloaded", chapter.Number, succeeded, attempted)

	return succeeded > 0
}
