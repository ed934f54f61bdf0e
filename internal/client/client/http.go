package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/client/events"
	"github.com/dmitrijs2005/factfeed/internal/client/models"
	"github.com/dmitrijs2005/factfeed/internal/logging"
)

const (
	authPath  = "/auth/v1"
	factsPath = "/rest/v1/facts"
)

// HTTPClient talks to a Supabase-compatible service: GoTrue for auth and
// PostgREST for the facts table. One instance owns the session and is shared
// by every component, so all requests carry the same bearer token.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   SessionStore
	log     logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	session *models.Session
	loaded  bool

	// refreshMu serialises token refreshes so concurrent 401s trigger one.
	refreshMu sync.Mutex

	events *events.Hub[models.SessionEvent]
}

var (
	_ FactsTable   = (*HTTPClient)(nil)
	_ AuthProvider = (*HTTPClient)(nil)
)

type Option func(*HTTPClient)

// WithHTTPClient replaces the default http.Client, e.g. to set a timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) { h.log = l }
}

// WithClock overrides time.Now for session expiry checks.
func WithClock(now func() time.Time) Option {
	return func(h *HTTPClient) { h.now = now }
}

// NewHTTPClient builds a client for baseURL authenticated with the public
// apiKey. store may be nil, in which case the session lives in memory only.
func NewHTTPClient(baseURL, apiKey string, store SessionStore, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		store:   store,
		log:     logging.Nop(),
		now:     time.Now,
		events:  events.NewHub[models.SessionEvent](),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("module", "http_client")
	return c
}

// request describes one call. body is marshalled once so the call can be
// replayed after a token refresh.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
	// anonymous requests never carry the user's token and are never retried.
	anonymous bool
	noRefresh bool
}

// do sends req and decodes a 2xx body into out (if non-nil). A 401 on an
// authenticated request triggers one refresh-and-retry.
func (c *HTTPClient) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	token := c.apiKey
	refreshToken := ""
	if !req.anonymous {
		if err := c.ensureLoaded(ctx); err != nil {
			return err
		}
		if s := c.currentSession(); s != nil {
			token = s.AccessToken
			refreshToken = s.RefreshToken
		}
	}

	resp, err := c.send(ctx, req, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && refreshToken != "" && !req.noRefresh {
		drain(resp)

		s, err := c.refresh(ctx, refreshToken)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, req, payload, s.AccessToken)
		if err != nil {
			return err
		}
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, req request, payload []byte, token string) (*http.Response, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("apikey", c.apiKey)
	hr.Header.Set("Accept", "application/json")
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		hr.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var b errorBody
	if json.Unmarshal(raw, &b) == nil {
		apiErr.Message = b.text()
		apiErr.Code = b.code()
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
