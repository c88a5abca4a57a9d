package main

// Application entry point: loads settings, wires the fetcher and runs the
// download pipeline over the configured series.
//
// Package structure:
// - models/    : Data structures (Series, Chapter, RenderedPage)
// - config/    : Settings, run-state flag and cookie-file loading
// - fetcher/   : Static HTTP and headless-browser page/asset retrieval
// - discovery/ : Chapter discovery strategy chain
// - extract/   : Heuristic image URL extraction
// - validate/  : Optional candidate URL probing
// - download/  : Bounded-concurrency download engine
// - runner/    : Per-series orchestration
// - parser/    : Shared naming, pacing and image helpers

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"toonpull/config"
	"toonpull/fetcher"
	"toonpull/runner"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("[Main] Failed to load settings: %v", err)
	}

	if series, err := config.LoadSeriesList(); err != nil {
		log.Printf("[Main] ⚠️ Series file ignored: %v", err)
	} else {
		config.MergeSeries(settings, series)
	}

	if len(settings.Series) == 0 {
		log.Printf("[Main] No series configured, add entries to settings.json and rerun")
		return
	}

	state := config.NewRunState()

	// First interrupt requests an orderly wind-down; a second one kills the
	// process the usual way.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[Main] Interrupt received, finishing current chapter then stopping")
		state.Interrupt()
		signal.Stop(sigCh)
	}()

	ctx := context.Background()

	f, err := buildFetcher(ctx, settings)
	if err != nil {
		log.Fatalf("[Main] Failed to initialize fetcher: %v", err)
	}

	reports := runner.New(f, settings, state).Run(ctx)

	for _, report := range reports {
		log.Printf("[Main] %s: %d/%d chapters succeeded",
			report.Series, report.ChaptersSucceeded, report.ChaptersFound)
	}
	if state.Interrupted() {
		log.Printf("[Main] Run interrupted before completion")
	}
}

// buildFetcher constructs the configured fetcher: static HTTP always, with a
// headless browser layered on top when use_browser is set. Cookie-file
// entries seed both.
func buildFetcher(ctx context.Context, settings *config.Settings) (fetcher.Fetcher, error) {
	static, err := fetcher.NewStaticFetcher()
	if err != nil {
		return nil, err
	}

	cookies, err := config.LoadCookieFile(settings.CookieFile)
	if err != nil {
		log.Printf("[Main] ⚠️ Cookie file ignored: %v", err)
		cookies = nil
	}

	if len(cookies) > 0 {
		for _, series := range settings.Series {
			if err := static.SetCookies(series.URL, cookies); err != nil {
				log.Printf("[Main] ⚠️ Could not seed cookies for %s: %v", series.URL, err)
			}
		}
	}

	if !settings.UseBrowser {
		return static, nil
	}

	browser, err := fetcher.NewBrowserFetcher(ctx, static, settings.BrowserWait(), cookies)
	if err != nil {
		log.Printf("[Main] ⚠️ Browser unavailable, using static fetcher: %v", err)
		return static, nil
	}
	return browser, nil
}
