// Package client is a thin wrapper around the notes REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/jotter/internal/models"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// Client performs the note REST operations against a base URL such as
// http://localhost:8000/api/notes.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// New creates a Client for baseURL. Trailing slashes are ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved endpoint all calls are made against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches every note. A successful non-JSON response yields an empty list.
func (c *Client) List(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if _, err := c.do(ctx, http.MethodGet, c.baseURL, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Get fetches a single note. It returns nil without error when the backend
// answers 2xx without a JSON body.
func (c *Client) Get(ctx context.Context, id models.ID) (*models.Note, error) {
	return c.noteCall(ctx, http.MethodGet, c.noteURL(id), nil)
}

// Create stores a new note and returns the backend's copy, which carries the assigned id.
func (c *Client) Create(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	return c.noteCall(ctx, http.MethodPost, c.baseURL, in)
}

// Update replaces the title and content of the note with the given id.
func (c *Client) Update(ctx context.Context, id models.ID, in models.NoteInput) (*models.Note, error) {
	return c.noteCall(ctx, http.MethodPut, c.noteURL(id), in)
}

// Delete removes the note with the given id. A 204 response and a JSON
// confirmation body are both success.
func (c *Client) Delete(ctx context.Context, id models.ID) error {
	var confirmation json.RawMessage
	_, err := c.do(ctx, http.MethodDelete, c.noteURL(id), nil, &confirmation)
	return err
}

func (c *Client) noteURL(id models.ID) string {
	return c.baseURL + "/" + url.PathEscape(id.String())
}

func (c *Client) noteCall(ctx context.Context, method, target string, body any) (*models.Note, error) {
	var n models.Note
	decoded, err := c.do(ctx, method, target, body, &n)
	if err != nil {
		return nil, err
	}
	if !decoded {
		return nil, nil
	}
	return &n, nil
}

// do issues one request. It reports whether a JSON body was decoded into out.
func (c *Client) do(ctx context.Context, method, target string, body, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("client: encode %s body: %w", method, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, fmt.Errorf("client: build %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("url", target),
			slog.String("error", err.Error()))
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return false, fmt.Errorf("client: %s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request done",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Errorf("client: read %s %s response: %w", method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, newError(resp.StatusCode, resp.Header.Get("Content-Type"), data)
	}
	if resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header.Get("Content-Type")) {
		return false, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("client: decode %s %s response: %w", method, target, err)
	}
	return true, nil
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
