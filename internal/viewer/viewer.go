// Package viewer drives the embedded document surface: anti-flicker open
// sequencing, load tracking, and timed fallback to external navigation.
package viewer

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"formdesk/app/internal/bridge"
	"formdesk/app/internal/catalog"
)

// Phase is the viewer lifecycle state.
type Phase string

const (
	PhaseClosed  Phase = "closed"
	PhaseOpening Phase = "opening"
	PhaseShown   Phase = "shown"
	PhaseClosing Phase = "closing"
)

// Error reports a precondition failure opening a document. No surface state
// changes when it is returned.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Surface is the embedded display area. Show makes it visible but blank,
// Load blocks until the content finished rendering or failed, Blank resets
// it to an empty target, Hide removes it.
type Surface interface {
	Show(title string)
	Load(ctx context.Context, url string) error
	Blank()
	Hide()
}

// Timings are the viewer's scheduling constants. They are configuration, not
// implementation detail: tests run them near zero.
type Timings struct {
	// LoadDelay staggers the load start from the blank-surface paint. The
	// surface becomes visible first; loading begins this much later to
	// avoid a white-flash double paint in constrained WebView hosts.
	LoadDelay time.Duration

	// CloseDelay lets the close transition settle before the surface is
	// blanked and hidden.
	CloseDelay time.Duration

	// FallbackTimeout bounds the inline load. On expiry the target opens
	// in an external context instead.
	FallbackTimeout time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		LoadDelay:       150 * time.Millisecond,
		CloseDelay:      250 * time.Millisecond,
		FallbackTimeout: 4500 * time.Millisecond,
	}
}

// Status is a snapshot of the current session.
type Status struct {
	Phase Phase  `json:"phase"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Viewer owns at most one live session. Opening a new session implicitly
// tears down the previous one's pending timers.
type Viewer struct {
	surface Surface
	bridge  bridge.Bridge
	timings Timings

	mu         sync.Mutex
	phase      Phase
	gen        int
	url        string
	title      string
	fallback   *time.Timer
	loadTimer  *time.Timer
	closeTimer *time.Timer
	cancelLoad context.CancelFunc
}

func New(surface Surface, b bridge.Bridge, timings Timings) *Viewer {
	if timings == (Timings{}) {
		timings = DefaultTimings()
	}
	return &Viewer{
		surface: surface,
		bridge:  b,
		timings: timings,
		phase:   PhaseClosed,
	}
}

// Open templates the entry's document URL for its provider and starts the
// display sequence: the surface becomes visible blank immediately, the
// content load is staggered by LoadDelay, and a fallback timer is armed that
// escapes to external navigation if loading does not finish in time.
func (v *Viewer) Open(entry catalog.Entry, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &Error{Message: "no user identity available; open from the host or supply a debug identity"}
	}
	if entry.BaseURL == "" {
		return &Error{Message: "entry has no document link"}
	}
	target, err := TemplateURL(entry.BaseURL, userID)
	if err != nil {
		return err
	}

	title := entry.Title
	if title == "" {
		title = "Document"
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.teardownLocked()
	v.gen++
	gen := v.gen
	v.phase = PhaseOpening
	v.url = target
	v.title = title

	loadCtx, cancel := context.WithCancel(context.Background())
	v.cancelLoad = cancel

	v.surface.Show(title)
	v.bridge.HapticImpact("light")

	v.fallback = time.AfterFunc(v.timings.FallbackTimeout, func() {
		v.fallbackFired(gen)
	})
	v.loadTimer = time.AfterFunc(v.timings.LoadDelay, func() {
		v.load(loadCtx, gen, target)
	})
	return nil
}

// load runs the staggered content load and, on success, promotes the session
// to shown and disarms the fallback.
func (v *Viewer) load(ctx context.Context, gen int, target string) {
	err := v.surface.Load(ctx, target)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen || v.phase != PhaseOpening {
		return
	}
	if err != nil {
		// Leave the fallback timer armed; it will escape externally.
		log.Printf("viewer: inline load failed, awaiting fallback: %v", err)
		return
	}
	if v.fallback != nil {
		v.fallback.Stop()
	}
	v.phase = PhaseShown
}

// fallbackFired escapes to external navigation. The surface stays nominally
// shown and is not force-closed, matching the shipped behavior.
func (v *Viewer) fallbackFired(gen int) {
	v.mu.Lock()
	if gen != v.gen || v.phase != PhaseOpening {
		v.mu.Unlock()
		return
	}
	v.phase = PhaseShown
	target := v.url
	v.mu.Unlock()

	log.Printf("viewer: inline load timed out, opening externally")
	if err := v.bridge.OpenLink(target); err != nil {
		log.Printf("viewer: fallback navigation failed: %v", err)
	}
}

// Close starts the closing transition. After CloseDelay the surface is
// blanked and hidden and the viewer returns to closed.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase == PhaseClosed || v.phase == PhaseClosing {
		return
	}

	v.stopTimersLocked()
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	v.phase = PhaseClosing
	gen := v.gen

	v.closeTimer = time.AfterFunc(v.timings.CloseDelay, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.gen || v.phase != PhaseClosing {
			return
		}
		v.surface.Blank()
		v.surface.Hide()
		v.phase = PhaseClosed
		v.url = ""
		v.title = ""
	})
}

// Status reports the current session.
func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Status{Phase: v.phase, Title: v.title, URL: v.url}
}

// Phase reports the current lifecycle phase.
func (v *Viewer) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

func (v *Viewer) teardownLocked() {
	v.stopTimersLocked()
	if v.closeTimer != nil {
		v.closeTimer.Stop()
		v.closeTimer = nil
	}
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
}

func (v *Viewer) stopTimersLocked() {
	if v.fallback != nil {
		v.fallback.Stop()
		v.fallback = nil
	}
	if v.loadTimer != nil {
		v.loadTimer.Stop()
		v.loadTimer = nil
	}
}
