// Package bridge abstracts the host application the client runs inside.
// Every primitive is best-effort: hosts that lack one simply skip the effect.
package bridge

import (
	"context"
	"time"
)

// Bridge is the host surface the core reports to. Implementations must be
// safe to call from multiple goroutines.
type Bridge interface {
	// Ready signals that the client finished wiring and is about to load data.
	Ready()

	// ColorScheme reports the host's current scheme ("light" or "dark",
	// empty when unknown).
	ColorScheme() string

	// OnThemeChanged registers a callback invoked with the new scheme
	// whenever the host switches themes.
	OnThemeChanged(fn func(scheme string))

	// Alert shows a blocking notification.
	Alert(message string)

	// Confirm asks the user to acknowledge a destructive action and waits
	// for the answer. Hosts without a confirmation primitive return false.
	Confirm(ctx context.Context, title, message string) (bool, error)

	// Toast shows a transient notification.
	Toast(text string, duration time.Duration)

	// HapticImpact fires tactile feedback ("light", "medium", "heavy").
	HapticImpact(style string)

	// OpenLink navigates to url outside the embedded surface.
	OpenLink(url string) error

	// UserID returns the host-resolved identity, empty when absent.
	UserID() string

	ExpandViewport()
	DisableVerticalSwipes()
}

// Nop implements Bridge with no-op defaults. Embed it to implement only the
// primitives a host actually has.
type Nop struct{}

func (Nop) Ready()                                                {}
func (Nop) ColorScheme() string                                   { return "" }
func (Nop) OnThemeChanged(func(scheme string))                    {}
func (Nop) Alert(string)                                          {}
func (Nop) Confirm(context.Context, string, string) (bool, error) { return false, nil }
func (Nop) Toast(string, time.Duration)                           {}
func (Nop) HapticImpact(string)                                   {}
func (Nop) OpenLink(string) error                                 { return nil }
func (Nop) UserID() string                                        { return "" }
func (Nop) ExpandViewport()                                       {}
func (Nop) DisableVerticalSwipes()                                {}

var _ Bridge = Nop{}

// Funcs adapts individual functions to Bridge. Nil fields fall back to the
// no-op behavior.
type Funcs struct {
	ReadyFn                 func()
	ColorSchemeFn           func() string
	OnThemeChangedFn        func(fn func(scheme string))
	AlertFn                 func(message string)
	ConfirmFn               func(ctx context.Context, title, message string) (bool, error)
	ToastFn                 func(text string, duration time.Duration)
	HapticImpactFn          func(style string)
	OpenLinkFn              func(url string) error
	UserIDFn                func() string
	ExpandViewportFn        func()
	DisableVerticalSwipesFn func()
}

func (f *Funcs) Ready() {
	if f.ReadyFn != nil {
		f.ReadyFn()
	}
}

func (f *Funcs) ColorScheme() string {
	if f.ColorSchemeFn != nil {
		return f.ColorSchemeFn()
	}
	return ""
}

func (f *Funcs) OnThemeChanged(fn func(scheme string)) {
	if f.OnThemeChangedFn != nil {
		f.OnThemeChangedFn(fn)
	}
}

func (f *Funcs) Alert(message string) {
	if f.AlertFn != nil {
		f.AlertFn(message)
	}
}

func (f *Funcs) Confirm(ctx context.Context, title, message string) (bool, error) {
	if f.ConfirmFn != nil {
		return f.ConfirmFn(ctx, title, message)
	}
	return false, nil
}

func (f *Funcs) Toast(text string, duration time.Duration) {
	if f.ToastFn != nil {
		f.ToastFn(text, duration)
	}
}

func (f *Funcs) HapticImpact(style string) {
	if f.HapticImpactFn != nil {
		f.HapticImpactFn(style)
	}
}

func (f *Funcs) OpenLink(url string) error {
	if f.OpenLinkFn != nil {
		return f.OpenLinkFn(url)
	}
	return nil
}

func (f *Funcs) UserID() string {
	if f.UserIDFn != nil {
		return f.UserIDFn()
	}
	return ""
}

func (f *Funcs) ExpandViewport() {
	if f.ExpandViewportFn != nil {
		f.ExpandViewportFn()
	}
}

func (f *Funcs) DisableVerticalSwipes() {
	if f.DisableVerticalSwipesFn != nil {
		f.DisableVerticalSwipesFn()
	}
}

var _ Bridge = (*Funcs)(nil)

// WithConfirmAnswer returns a Bridge identical to b except that Confirm
// resolves to answer without consulting the host. The HTTP gateway uses this
// to carry a confirmation the frontend already collected.
func WithConfirmAnswer(b Bridge, answer bool) Bridge {
	return &preConfirmed{Bridge: b, answer: answer}
}

type preConfirmed struct {
	Bridge
	answer bool
}

func (p *preConfirmed) Confirm(context.Context, string, string) (bool, error) {
	return p.answer, nil
}
