package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SamahJonathan/licitacion-ia/config"
	"github.com/playwright-community/playwright-go"
)

// RenderError wraps any browser launch or navigation failure. A scrape that
// hits one is fatal and is not retried automatically.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer drives a headless Chromium instance to fully render one page.
// Each Render call owns an isolated browser process: Mercado Publico fills
// the tender sheet in after load, so we wait for network idle before reading
// the DOM. Scrape volume is low, so no browser pooling.
type Renderer struct {
	timeout     time.Duration
	browserPath string
}

var driverOnce sync.Once

func NewRenderer(cfg *config.ScraperConfig) *Renderer {
	return &Renderer{
		timeout:     time.Duration(cfg.NavigationTimeoutSec) * time.Second,
		browserPath: cfg.BrowserPath,
	}
}

// Render navigates to url and returns the settled HTML. The browser process
// is torn down on every exit path so repeated failed scrapes cannot leak
// Chromium processes.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RenderError{URL: url, Err: err}
	}

	driverOnce.Do(func() {
		// One-time driver setup; browsers are expected to be preinstalled.
		if err := playwright.Install(&playwright.RunOptions{SkipInstallBrowsers: true}); err != nil {
			slog.Warn("playwright driver installation", "error", err)
		}
	})

	pw, err := playwright.Run()
	if err != nil {
		return "", &RenderError{URL: url, Err: fmt.Errorf("start playwright: %w", err)}
	}
	defer pw.Stop()

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	}
	if r.browserPath != "" {
		launchOpts.ExecutablePath = playwright.String(r.browserPath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return "", &RenderError{URL: url, Err: fmt.Errorf("launch browser: %w", err)}
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return "", &RenderError{URL: url, Err: fmt.Errorf("create page: %w", err)}
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(r.timeout.Milliseconds())),
	}); err != nil {
		return "", &RenderError{URL: url, Err: fmt.Errorf("navigate: %w", err)}
	}

	html, err := page.Content()
	if err != nil {
		return "", &RenderError{URL: url, Err: fmt.Errorf("read content: %w", err)}
	}

	return html, nil
}
