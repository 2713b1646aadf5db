package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"formdesk/app/internal/bridge"
	"formdesk/app/internal/catalog"
	"formdesk/app/internal/remote"
	"formdesk/app/internal/viewer"
)

// pipeline is the network boundary the orchestrator drives.
type pipeline interface {
	List(ctx context.Context) ([]catalog.Entry, error)
	Save(ctx context.Context, entry catalog.Entry) error
	Delete(ctx context.Context, id string) error
}

// documentViewer is the embedded-viewer surface of the orchestrator.
type documentViewer interface {
	Open(entry catalog.Entry, userID string) error
	Close()
	Status() viewer.Status
}

// identityResolver supplies the session identity and the admin capability.
type identityResolver interface {
	UserID() string
	IsAdmin() bool
}

// Service sequences user-initiated actions: it validates input, drives the
// request pipeline, refreshes the catalog cache after mutations, and reports
// outcomes through the host bridge. The cache is never mutated optimistically;
// every successful mutation is followed by a full re-list, trading one extra
// round trip for strong consistency with the backend's view.
type Service struct {
	pipeline pipeline
	cache    *catalog.Cache
	viewer   documentViewer
	bridge   bridge.Bridge
	ids      identityResolver

	toastDuration time.Duration
}

func New(p pipeline, cache *catalog.Cache, v documentViewer, b bridge.Bridge, ids identityResolver, toastDuration time.Duration) *Service {
	if toastDuration <= 0 {
		toastDuration = 1400 * time.Millisecond
	}
	return &Service{
		pipeline:      p,
		cache:         cache,
		viewer:        v,
		bridge:        b,
		ids:           ids,
		toastDuration: toastDuration,
	}
}

// Refresh fetches the catalog and replaces the cache wholesale. A refresh
// arriving while one is in flight is dropped; the in-flight call's result
// will render. On terminal failure the cache is cleared and the error is
// surfaced as an alert.
func (s *Service) Refresh(ctx context.Context) error {
	entries, err := s.pipeline.List(ctx)
	if errors.Is(err, remote.ErrInFlight) {
		return nil
	}
	if err != nil {
		s.cache.Clear()
		s.bridge.Alert("Failed to load forms: " + err.Error())
		return err
	}
	s.cache.Replace(entries)
	return nil
}

// Entries returns the catalog filtered by the search query.
func (s *Service) Entries(query string) []catalog.Entry {
	return s.cache.Search(query)
}

// Entry looks up a single catalog entry by id.
func (s *Service) Entry(id string) (catalog.Entry, error) {
	entry, ok := s.cache.Get(id)
	if !ok {
		return catalog.Entry{}, ErrNotFound
	}
	return entry, nil
}

// Save validates the draft and sends it to the backend. The backend
// discriminates create from update by the presence of an id. On success the
// catalog is re-fetched before the outcome is reported.
func (s *Service) Save(ctx context.Context, draft catalog.Entry) error {
	draft.ID = strings.TrimSpace(draft.ID)
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.BaseURL = strings.TrimSpace(draft.BaseURL)

	if err := validateDraft(draft); err != nil {
		s.bridge.Alert(err.Error())
		return err
	}

	if err := s.pipeline.Save(ctx, draft); err != nil {
		s.bridge.Alert("Failed to save: " + err.Error())
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		log.Printf("app: refresh after save failed: %v", err)
	}
	s.bridge.Toast("Saved", s.toastDuration)
	return nil
}

// Delete asks the host for destructive-intent confirmation and then removes
// the entry. A declined confirmation is a quiet no-op.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	entry, err := s.Entry(id)
	if err != nil {
		return false, err
	}

	confirmed, err := s.bridge.Confirm(ctx, "Delete form?", fmt.Sprintf("%q will be deleted.", entry.Title))
	if err != nil {
		return false, err
	}
	if !confirmed {
		return false, nil
	}
	return true, s.DeleteConfirmed(ctx, id)
}

// DeleteConfirmed removes the entry without consulting the bridge. Callers
// that collected the confirmation themselves (the gateway's frontend owns
// the popup primitive) use this as the second step of the protocol.
func (s *Service) DeleteConfirmed(ctx context.Context, id string) error {
	if err := s.pipeline.Delete(ctx, id); err != nil {
		s.bridge.Alert("Failed to delete: " + err.Error())
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		log.Printf("app: refresh after delete failed: %v", err)
	}
	s.bridge.Toast("Deleted", s.toastDuration)
	return nil
}

// Open shows the entry's document in the embedded viewer.
func (s *Service) Open(id string) error {
	entry, err := s.Entry(id)
	if err != nil {
		return err
	}
	if err := s.viewer.Open(entry, s.ids.UserID()); err != nil {
		s.bridge.Alert(err.Error())
		return err
	}
	return nil
}

// CloseViewer starts the viewer's closing transition.
func (s *Service) CloseViewer() {
	s.viewer.Close()
}

// ViewerStatus reports the viewer session.
func (s *Service) ViewerStatus() viewer.Status {
	return s.viewer.Status()
}

// IsAdmin reports the admin capability of the resolved identity.
func (s *Service) IsAdmin() bool {
	return s.ids.IsAdmin()
}

// UserID returns the session identity.
func (s *Service) UserID() string {
	return s.ids.UserID()
}

// ColorScheme reports the host's color scheme.
func (s *Service) ColorScheme() string {
	return s.bridge.ColorScheme()
}

func validateDraft(draft catalog.Entry) error {
	if draft.Title == "" {
		return &ValidationError{Message: "enter a form title"}
	}
	if !viewer.ValidateFormURL(draft.BaseURL) {
		return &ValidationError{Message: `paste a prefilled form link containing "entry.XXXX" and ending with "="`}
	}
	return nil
}
