package suumo

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher drives a headless Chrome session, for when the static
// strategy stops getting listing markup back. One browser session serves the
// whole run and must be released with Close.
type BrowserFetcher struct {
	allocCtx context.Context
	cancels  []context.CancelFunc
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBrowserFetcher starts the browser allocator. A non-empty chromeBin
// overrides binary discovery.
func NewBrowserFetcher(chromeBin string, timeout time.Duration, logger *slog.Logger) *BrowserFetcher {
	bin := findChromeBinary(chromeBin)
	if bin != "" {
		logger.Info("using browser binary", "path", bin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(browserAgents[rand.Intn(len(browserAgents))]),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserFetcher{
		allocCtx: silentCtx,
		cancels:  []context.CancelFunc{cancelSilent, cancelAlloc},
		timeout:  timeout,
		logger:   logger,
	}
}

// Fetch renders pageURL in a fresh tab and returns the resulting markup.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		// Navigation failures are retryable; a rendered page with no
		// listings is the extractor's call.
		return "", &TransientFetchError{URL: pageURL, Err: err}
	}

	f.logger.Debug("rendered page", "url", pageURL, "bytes", len(html))
	return html, nil
}

// Close shuts the browser session down.
func (f *BrowserFetcher) Close() {
	for _, cancel := range f.cancels {
		cancel()
	}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the explicit
// override.
func findChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
