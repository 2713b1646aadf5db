package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"formdesk/app/internal/catalog"
	"formdesk/app/internal/remote"
	"formdesk/app/internal/viewer"
)

// FrameProvider renders the current embedded document as an image. Only
// surfaces that can rasterize (the headless Chrome one) implement it.
type FrameProvider interface {
	Frame(ctx context.Context) ([]byte, error)
}

// HTTPServer is the local gateway the frontend talks to. It exposes the
// catalog, the privileged mutations, and the viewer session.
type HTTPServer struct {
	service    *Service
	frames     FrameProvider
	corsOrigin string
}

func NewHTTPServer(service *Service, frames FrameProvider, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, frames: frames, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

// forbid writes a 403 Forbidden response for privileged routes. The backend
// remains the real authorization boundary; this only gates the local surface.
func (s *HTTPServer) forbid(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/status" {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":          true,
			"userId":      s.service.UserID(),
			"isAdmin":     s.service.IsAdmin(),
			"colorScheme": s.service.ColorScheme(),
			"viewer":      s.service.ViewerStatus(),
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/forms" {
		entries := s.service.Entries(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"data":    entries,
			"isAdmin": s.service.IsAdmin(),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/forms/refresh" {
		s.handleRefresh(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/forms" {
		s.handleSave(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/forms/delete" {
		s.handleDelete(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/viewer/open" {
		s.handleViewerOpen(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/viewer/close" {
		s.service.CloseViewer()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "viewer": s.service.ViewerStatus()})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/viewer" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "viewer": s.service.ViewerStatus()})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/viewer/frame" {
		s.handleViewerFrame(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Refresh(r.Context()); err != nil {
		// The cache is already cleared; report the terminal error.
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": s.service.Entries(""),
	})
}

func (s *HTTPServer) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.service.IsAdmin() {
		s.forbid(w)
		return
	}

	var body struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Desc    string `json:"desc"`
		BaseURL string `json:"baseUrl"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	err := s.service.Save(r.Context(), catalog.Entry{
		ID:          body.ID,
		Title:       body.Title,
		Description: body.Desc,
		BaseURL:     body.BaseURL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": s.service.Entries(""),
	})
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.service.IsAdmin() {
		s.forbid(w)
		return
	}

	var body struct {
		ID        string `json:"id"`
		Confirmed bool   `json:"confirmed"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if _, err := s.service.Entry(body.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	// The frontend owns the confirmation popup; deletion proceeds only with
	// an explicit destructive-intent acknowledgment.
	if !body.Confirmed {
		writeError(w, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "Deletion requires confirmation", nil)
		return
	}

	if err := s.service.DeleteConfirmed(r.Context(), body.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"data": s.service.Entries(""),
	})
}

func (s *HTTPServer) handleViewerOpen(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.Open(body.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "viewer": s.service.ViewerStatus()})
}

func (s *HTTPServer) handleViewerFrame(w http.ResponseWriter, r *http.Request) {
	if s.frames == nil {
		writeError(w, http.StatusNotFound, "NO_FRAME", "No rasterizing surface available", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	frame, err := s.frames.Frame(ctx)
	if err != nil {
		writeError(w, http.StatusConflict, "FRAME_UNAVAILABLE", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
}

// writeServiceError maps orchestrator errors onto the gateway's error body.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var viewerErr *viewer.Error
	var loadErr *remote.LoadError
	var saveErr *remote.SaveError
	var deleteErr *remote.DeleteError

	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Entry not found", nil)
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", validationErr.Message, nil)
	case errors.As(err, &viewerErr):
		writeError(w, http.StatusBadRequest, "VIEWER_PRECONDITION", viewerErr.Message, nil)
	case errors.As(err, &loadErr):
		writeError(w, http.StatusBadGateway, "LOAD_FAILED", loadErr.Message, nil)
	case errors.As(err, &saveErr):
		writeError(w, http.StatusBadGateway, "SAVE_FAILED", saveErr.Message, nil)
	case errors.As(err, &deleteErr):
		writeError(w, http.StatusBadGateway, "DELETE_FAILED", deleteErr.Message, nil)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
