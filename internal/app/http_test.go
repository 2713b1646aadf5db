package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"formdesk/app/internal/catalog"
	"formdesk/app/internal/viewer"
)

func newTestServer(p *fakePipeline, ids *fakeResolver) (*HTTPServer, *catalog.Cache, *fakeViewer) {
	cache := catalog.NewCache()
	fv := &fakeViewer{}
	svc := New(p, cache, fv, &notifyBridge{}, ids, time.Millisecond)
	return NewHTTPServer(svc, nil, "*"), cache, fv
}

func doRequest(t *testing.T, server *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return response
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["ok"] != true {
		t.Errorf("expected ok=true, got %v", response["ok"])
	}
}

func TestOptionsRequest(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodOptions, "/api/forms", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204 for OPTIONS, got %d", rr.Code)
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin=*, got %q", origin)
	}
}

func TestRequestIDHeader(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodGet, "/api/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}
}

func TestListFormsFiltersByQuery(t *testing.T) {
	server, cache, _ := newTestServer(&fakePipeline{}, &fakeResolver{})
	cache.Replace([]catalog.Entry{
		{ID: "1", Title: "Intake Form"},
		{ID: "2", Title: "Feedback"},
	})

	rr := doRequest(t, server, http.MethodGet, "/api/forms?q=form", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	data, ok := response["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one filtered entry, got %v", response["data"])
	}
	entry := data[0].(map[string]any)
	if entry["title"] != "Intake Form" {
		t.Errorf("expected Intake Form, got %v", entry["title"])
	}
}

func TestRefreshEndpoint(t *testing.T) {
	p := &fakePipeline{listFn: func(context.Context) ([]catalog.Entry, error) {
		return []catalog.Entry{{ID: "1", Title: "Intake Form"}}, nil
	}}
	server, cache, _ := newTestServer(p, &fakeResolver{})

	rr := doRequest(t, server, http.MethodPost, "/api/forms/refresh", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if cache.Len() != 1 {
		t.Errorf("expected refreshed cache, got %d entries", cache.Len())
	}
}

func TestSaveRequiresAdmin(t *testing.T) {
	p := &fakePipeline{}
	server, _, _ := newTestServer(p, &fakeResolver{userID: "7"})

	rr := doRequest(t, server, http.MethodPost, "/api/forms", `{"title":"X","baseUrl":"`+validFormURL+`"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin save, got %d", rr.Code)
	}
	if len(p.savedDrafts) != 0 {
		t.Error("forbidden save must not reach the pipeline")
	}
}

func TestSaveHappyPath(t *testing.T) {
	p := &fakePipeline{listFn: func(context.Context) ([]catalog.Entry, error) {
		return []catalog.Entry{{ID: "9", Title: "Intake Form"}}, nil
	}}
	server, _, _ := newTestServer(p, &fakeResolver{userID: "226674400", admin: true})

	rr := doRequest(t, server, http.MethodPost, "/api/forms",
		`{"title":"Intake Form","desc":"new members","baseUrl":"`+validFormURL+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(p.savedDrafts) != 1 {
		t.Fatalf("expected one save, got %d", len(p.savedDrafts))
	}
	response := decodeResponse(t, rr)
	if data := response["data"].([]any); len(data) != 1 {
		t.Errorf("expected refreshed data in response, got %v", response["data"])
	}
}

func TestSaveValidationErrorMapsTo400(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{admin: true})

	rr := doRequest(t, server, http.MethodPost, "/api/forms", `{"title":"","baseUrl":"`+validFormURL+`"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["code"] != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %v", response["code"])
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	p := &fakePipeline{}
	server, cache, _ := newTestServer(p, &fakeResolver{userID: "7"})
	cache.Replace([]catalog.Entry{{ID: "1", Title: "X"}})

	rr := doRequest(t, server, http.MethodPost, "/api/forms/delete", `{"id":"1","confirmed":true}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if len(p.deletedIDs) != 0 {
		t.Error("forbidden delete must not reach the pipeline")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	p := &fakePipeline{}
	server, cache, _ := newTestServer(p, &fakeResolver{admin: true})
	cache.Replace([]catalog.Entry{{ID: "1", Title: "X"}})

	rr := doRequest(t, server, http.MethodPost, "/api/forms/delete", `{"id":"1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["code"] != "CONFIRMATION_REQUIRED" {
		t.Errorf("expected CONFIRMATION_REQUIRED, got %v", response["code"])
	}
	if len(p.deletedIDs) != 0 {
		t.Error("unconfirmed delete must not reach the pipeline")
	}
}

func TestDeleteConfirmed(t *testing.T) {
	p := &fakePipeline{listFn: func(context.Context) ([]catalog.Entry, error) {
		return []catalog.Entry{}, nil
	}}
	server, cache, _ := newTestServer(p, &fakeResolver{admin: true})
	cache.Replace([]catalog.Entry{{ID: "1", Title: "X"}})

	rr := doRequest(t, server, http.MethodPost, "/api/forms/delete", `{"id":"1","confirmed":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(p.deletedIDs) != 1 || p.deletedIDs[0] != "1" {
		t.Errorf("expected delete of id 1, got %v", p.deletedIDs)
	}
}

func TestDeleteUnknownEntryMapsTo404(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{admin: true})

	rr := doRequest(t, server, http.MethodPost, "/api/forms/delete", `{"id":"missing","confirmed":true}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestViewerOpen(t *testing.T) {
	server, cache, fv := newTestServer(&fakePipeline{}, &fakeResolver{userID: "42"})
	cache.Replace([]catalog.Entry{{ID: "1", Title: "Intake Form", BaseURL: validFormURL}})
	fv.status = viewer.Status{Phase: viewer.PhaseOpening, Title: "Intake Form"}

	rr := doRequest(t, server, http.MethodPost, "/api/viewer/open", `{"id":"1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(fv.opened) != 1 {
		t.Fatalf("expected one viewer open, got %d", len(fv.opened))
	}
	response := decodeResponse(t, rr)
	viewerStatus := response["viewer"].(map[string]any)
	if viewerStatus["phase"] != "opening" {
		t.Errorf("expected opening phase, got %v", viewerStatus["phase"])
	}
}

func TestViewerOpenUnknownEntry(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{userID: "42"})

	rr := doRequest(t, server, http.MethodPost, "/api/viewer/open", `{"id":"missing"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestViewerOpenPreconditionMapsTo400(t *testing.T) {
	server, cache, fv := newTestServer(&fakePipeline{}, &fakeResolver{})
	cache.Replace([]catalog.Entry{{ID: "1", Title: "X", BaseURL: validFormURL}})
	fv.openErr = &viewer.Error{Message: "no user identity available"}

	rr := doRequest(t, server, http.MethodPost, "/api/viewer/open", `{"id":"1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["code"] != "VIEWER_PRECONDITION" {
		t.Errorf("expected VIEWER_PRECONDITION, got %v", response["code"])
	}
}

func TestViewerClose(t *testing.T) {
	server, _, fv := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodPost, "/api/viewer/close", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fv.closes != 1 {
		t.Errorf("expected one close, got %d", fv.closes)
	}
}

func TestViewerFrameWithoutProvider(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodGet, "/api/viewer/frame", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a rasterizing surface, got %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{userID: "226674400", admin: true})

	rr := doRequest(t, server, http.MethodGet, "/api/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["userId"] != "226674400" {
		t.Errorf("expected userId in status, got %v", response["userId"])
	}
	if response["isAdmin"] != true {
		t.Errorf("expected isAdmin=true, got %v", response["isAdmin"])
	}
}

func TestUnknownRoute(t *testing.T) {
	server, _, _ := newTestServer(&fakePipeline{}, &fakeResolver{})

	rr := doRequest(t, server, http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
