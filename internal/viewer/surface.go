package viewer

import (
	"context"
	"log"
)

// BlockedSurface stands in when no headless browser is available. Loads
// never complete, so every open degrades to the timed fallback and the
// document opens externally through the bridge.
type BlockedSurface struct{}

func (BlockedSurface) Show(title string) {
	log.Printf("viewer: no embed surface available for %q, fallback will open externally", title)
}

func (BlockedSurface) Load(ctx context.Context, url string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (BlockedSurface) Blank() {}
func (BlockedSurface) Hide()  {}

var _ Surface = BlockedSurface{}
