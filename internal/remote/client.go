// Package remote implements the request pipeline against the catalog
// backend: one fixed endpoint, query-parameterized GET actions, a JSON
// envelope, bounded timeouts, and retry with fixed backoff for reads.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"formdesk/app/internal/catalog"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Options tune the pipeline. Zero values fall back to the defaults above.
type Options struct {
	// Timeout bounds each individual request. An expired request is
	// indistinguishable from a network failure to the retry logic.
	Timeout time.Duration

	// ListMaxAttempts is the total attempt count for List (default 3,
	// i.e. up to 2 retries).
	ListMaxAttempts int

	// RetryDelay is the fixed delay between failed list attempts.
	RetryDelay time.Duration

	HTTPClient *http.Client
}

// Client issues list/save/delete actions against the backend. List calls are
// single-flight: a call arriving while one is outstanding returns
// ErrInFlight without touching the network. Saves and deletes are not
// retried; a failed mutation surfaces immediately because retrying a
// non-idempotent write without a dedup token risks duplicate effects.
type Client struct {
	baseURL     string
	userID      string
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client

	listInFlight atomic.Bool
}

// NewClient builds a pipeline for the given backend endpoint. userID is
// attached to mutating actions for attribution.
func NewClient(baseURL, userID string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ListMaxAttempts <= 0 {
		opts.ListMaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:     baseURL,
		userID:      userID,
		timeout:     opts.Timeout,
		maxAttempts: opts.ListMaxAttempts,
		retryDelay:  opts.RetryDelay,
		httpClient:  opts.HTTPClient,
	}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// List fetches the full catalog. Every failed attempt (network error,
// timeout, malformed body, ok:false) is followed by a fixed delay before the
// next one, except after the final attempt. Fails with *LoadError once
// attempts are exhausted.
func (c *Client) List(ctx context.Context) ([]catalog.Entry, error) {
	if !c.listInFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer c.listInFlight.Store(false)

	op := shortID()
	params := url.Values{"action": {"list"}}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, err := c.do(ctx, params, "load error")
		if err == nil {
			return decodeEntries(data), nil
		}
		lastErr = err
		if attempt < c.maxAttempts {
			log.Printf("remote: list retry %d/%d (op %s): %v", attempt, c.maxAttempts-1, op, err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, &LoadError{Message: ctx.Err().Error()}
			}
		}
	}
	log.Printf("remote: list failed after %d attempts (op %s): %v", c.maxAttempts, op, lastErr)
	return nil, &LoadError{Message: lastErr.Error()}
}

// Save creates or updates an entry; the backend discriminates by the
// presence of an id.
func (c *Client) Save(ctx context.Context, entry catalog.Entry) error {
	params := url.Values{
		"action":  {"save"},
		"userId":  {c.userID},
		"id":      {entry.ID},
		"title":   {entry.Title},
		"desc":    {entry.Description},
		"baseUrl": {entry.BaseURL},
	}
	if _, err := c.do(ctx, params, "save error"); err != nil {
		return &SaveError{Message: err.Error()}
	}
	return nil
}

// Delete removes the entry with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	params := url.Values{
		"action": {"delete"},
		"userId": {c.userID},
		"id":     {id},
	}
	if _, err := c.do(ctx, params, "delete error"); err != nil {
		return &DeleteError{Message: err.Error()}
	}
	return nil
}

// do issues one request and validates the envelope. defaultMsg stands in
// when the backend reports ok:false without an error field.
func (c *Client) do(ctx context.Context, params url.Values, defaultMsg string) (json.RawMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("bad json: %s", string(body))
	}
	if !env.OK {
		if env.Error != "" {
			return nil, fmt.Errorf("%s", env.Error)
		}
		return nil, fmt.Errorf("%s", defaultMsg)
	}
	return env.Data, nil
}

// decodeEntries normalizes the list payload: anything that is not an array
// of entries becomes an empty catalog.
func decodeEntries(data json.RawMessage) []catalog.Entry {
	var entries []catalog.Entry
	if len(data) == 0 {
		return []catalog.Entry{}
	}
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return []catalog.Entry{}
	}
	return entries
}

func shortID() string {
	return uuid.NewString()[:8]
}
