package viewer

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeSurface embeds documents in a headless Chrome tab. It is the inline
// rendering surface when formdesk runs standalone; the gateway serves
// screenshots of the tab as the viewer frame.
type ChromeSurface struct {
	mu          sync.Mutex
	title       string
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	tabCtx      context.Context
}

// NewChromeSurface verifies a Chromium binary is available.
func NewChromeSurface() (*ChromeSurface, error) {
	if _, err := exec.LookPath("chromium-browser"); err != nil {
		if _, fallbackErr := exec.LookPath("chromium"); fallbackErr != nil {
			if _, chromeErr := exec.LookPath("google-chrome"); chromeErr != nil {
				return nil, fmt.Errorf("no chromium binary installed")
			}
		}
	}
	return &ChromeSurface{}, nil
}

func (s *ChromeSurface) Show(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	log.Printf("viewer: surface shown for %q", title)
}

// Load navigates a fresh headless tab to url and blocks until the page body
// is ready or ctx is canceled.
func (s *ChromeSurface) Load(ctx context.Context, url string) error {
	// Chrome options for headless mode in container
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s.mu.Lock()
	s.dropTabLocked()
	s.allocCancel = allocCancel
	s.tabCancel = tabCancel
	s.tabCtx = tabCtx
	s.mu.Unlock()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("embed navigation failed: %w", err)
	}
	return nil
}

// Frame captures the current tab as a PNG for the gateway's viewer frame
// endpoint. Fails when nothing is loaded.
func (s *ChromeSurface) Frame(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	tabCtx := s.tabCtx
	s.mu.Unlock()
	if tabCtx == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var shot []byte
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		shot, err = page.CaptureScreenshot().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	return shot, nil
}

// Blank resets the tab to an empty target.
func (s *ChromeSurface) Blank() {
	s.mu.Lock()
	tabCtx := s.tabCtx
	s.mu.Unlock()
	if tabCtx == nil {
		return
	}
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		log.Printf("viewer: blank navigation failed: %v", err)
	}
}

// Hide tears down the tab and its allocator.
func (s *ChromeSurface) Hide() {
	s.mu.Lock()
	s.dropTabLocked()
	s.mu.Unlock()
}

func (s *ChromeSurface) dropTabLocked() {
	if s.tabCancel != nil {
		s.tabCancel()
		s.tabCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.tabCtx = nil
}

var _ Surface = (*ChromeSurface)(nil)
