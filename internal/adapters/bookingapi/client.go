// Package bookingapi talks to the pool booking server.
//
// Responses are validated before they are decoded: the content type must be
// JSON and the body must sniff as JSON, so an HTML error page is reported as
// ErrPayload instead of failing somewhere inside the decoder.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"poolside/internal/adapters/http/perf"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// CSRF names used by the booking server.
const (
	CSRFHeader = "X-CSRFToken"
	CSRFCookie = "csrftoken"
)

// Client is a booking server client. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	collector *perf.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCollector records the timing of every booking server call.
func WithCollector(col *perf.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// New creates a client for the booking server at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a ready client or an error for a malformed URL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid booking server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid booking server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.collector != nil {
		next := c.http.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		wrapped := *c.http
		wrapped.Transport = &timingTransport{next: next, collector: c.collector}
		c.http = &wrapped
	}
	return c, nil
}

// BaseURL returns the booking server root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Resolve turns a path or URL declared by a form into an absolute URL on the
// booking server.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid target url %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	target, err := c.Resolve(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return c.do(req, v)
}

func (c *Client) postForm(ctx context.Context, target string, form url.Values, csrfToken string, v any) error {
	abs, err := c.Resolve(target)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, abs, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.base.String())
	if csrfToken != "" {
		req.Header.Set(CSRFHeader, csrfToken)
		req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: csrfToken})
	}
	return c.do(req, v)
}

// do sends req and decodes a validated JSON answer into v.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp.Header.Get("Content-Type"), body)}
	}

	if err := checkJSON(resp.Header.Get("Content-Type"), body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return payloadErrorf("decoding JSON: %v", err)
	}
	return nil
}

// checkJSON validates the declared content type and the body itself.
func checkJSON(contentType string, body []byte) error {
	if contentType == "" {
		return payloadErrorf("missing content type")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return payloadErrorf("malformed content type %q", contentType)
	}
	if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
		return payloadErrorf("content type %s is not JSON", mediaType)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return payloadErrorf("empty body")
	}
	detected := mimetype.Detect(trimmed)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return nil
		}
	}
	return payloadErrorf("body looks like %s", detected.String())
}

// errorMessage pulls a server message out of a non-2xx JSON body, if there is one.
func errorMessage(contentType string, body []byte) string {
	if checkJSON(contentType, body) != nil {
		return ""
	}
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// idString renders a JSON id that may be a number or a string.
func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
