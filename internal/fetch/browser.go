package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a plain fetch.
// Anything shorter is treated as a script-rendered page.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a headless render.
const DefaultBrowserTimeout = 45 * time.Second

// ShouldUseBrowser reports whether extracted text is too short to be a posting.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders rawURL in headless Chrome and returns the resulting HTML.
// Chrome or Chromium must be installed.
func WithBrowser(ctx context.Context, rawURL string, timeout time.Duration, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	logger.DebugContext(ctx, "starting headless browser", "url", rawURL)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "browser rendering failed", Cause: err}
	}

	logger.DebugContext(ctx, "rendered page", "url", rawURL, "bytes", len(html))
	return html, nil
}

// JobPosting fetches rawURL and extracts the posting text with the selectors
// of the detected platform. When useBrowser is set and the plain fetch yields
// too little text, the page is rendered headlessly and re-extracted; a failed
// render keeps the plain result.
func JobPosting(ctx context.Context, rawURL string, opts *Options, useBrowser bool, logger *slog.Logger) (string, Platform, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	platform := DetectPlatform(rawURL)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	result, err := URL(ctx, rawURL, opts)
	if err != nil {
		return "", platform, err
	}
	text, err := ExtractMainText(result.HTML, content, noise...)
	if err != nil {
		return "", platform, fmt.Errorf("failed to extract job posting: %w", err)
	}
	logger.DebugContext(ctx, "fetched job posting", "url", rawURL, "platform", platform, "chars", len(text))

	if !useBrowser || !ShouldUseBrowser(text) {
		return text, platform, nil
	}

	// The browser dials on its own, so re-check the host before handing it over.
	if opts != nil && opts.BlockPrivateNetworks {
		if err := CheckHost(ctx, hostOf(rawURL)); err != nil {
			logger.WarnContext(ctx, "skipping browser fallback", "error", err)
			return text, platform, nil
		}
	}
	html, err := WithBrowser(ctx, rawURL, DefaultBrowserTimeout, logger)
	if err != nil {
		logger.WarnContext(ctx, "browser fallback failed, keeping fetched text", "error", err)
		return text, platform, nil
	}
	rendered, err := ExtractMainText(html, content, noise...)
	if err != nil || len(rendered) <= len(text) {
		return text, platform, nil
	}
	return rendered, platform, nil
}
