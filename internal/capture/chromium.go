package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth      = 1280
	DefaultHeight     = 1600
	DefaultTimeoutSec = 30

	// anchorSelector matches the schedule-item buttons the extractor keys
	// on. The page is considered loaded once at least one is visible.
	anchorSelector = `button[id^="btnItemTitle_section_"]`
)

// Options defines parameters for a Chromium-based page capture.
type Options struct {
	// URL of the portal schedule page, typically behind an authenticated
	// session cookie profile.
	URL string

	// Width and Height are the emulated viewport dimensions in pixels.
	// If zero, DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration
}

// FetchScheduleHTML launches a headless Chromium instance via chromedp,
// navigates to opts.URL, waits until the schedule anchors are visible (the
// portal renders the schedule client-side) and returns the document's outer
// HTML. The result is fed to the extractor exactly like a saved page.
func FetchScheduleHTML(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("capture: URL is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var outerHTML string
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(anchorSelector, chromedp.ByQuery),
		// Small extra delay so late-arriving schedule rows settle.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &outerHTML, chromedp.ByQuery),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	return []byte(outerHTML), nil
}
