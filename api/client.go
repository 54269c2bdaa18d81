// Package api is the client of the back-office REST server: catalog lookups,
// barcode services, purchase creation and the reference tables.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client calls the back-office server. It is safe for concurrent use.
type Client struct {
	base  string // base URL, without trailing slash
	token string
	http  *http.Client
	log   logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the http.Client used for the calls.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger calls are traced to, at debug level.
func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.log = l } }

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.http
		h.Timeout = d
		c.http = &h
	}
}

// New returns a client of the server at baseURL, authenticated with the bearer token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid server url %q: want an http or https url", baseURL)
	}
	c := &Client{
		base:  strings.TrimRight(u.String(), "/"),
		token: token,
		http:  new(http.Client),
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a request and decodes the JSON answer into out, if not nil.
// Non 2xx answers are returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	addr := c.base + path
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, addr, body)
	if err != nil {
		return errors.Wrapf(err, "cannot create request %s %s", method, path)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return errors.Wrapf(err, "cannot %s %s", method, path)
	}
	defer resp.Body.Close()

	// reading in a buffer to be able to extract the error message
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return errors.Wrapf(err, "cannot read %s %s answer", method, path)
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(start)}).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(method, path, resp.StatusCode, buf.Bytes())
	}
	if out == nil || buf.Len() == 0 {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return errors.Wrapf(err, "cannot decode %s %s answer", method, path)
	}
	return nil
}

// get performs a GET and decodes the JSON answer into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, "", nil, out)
}

// post sends in as JSON and decodes the JSON answer into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "cannot encode POST %s body", path)
	}
	return c.do(ctx, http.MethodPost, path, nil, "application/json", bytes.NewReader(data), out)
}

// getList performs a GET of a collection. Both a bare JSON array and a
// paginated object holding the array in "results" are accepted.
func (c *Client) getList(ctx context.Context, path string, query url.Values, out any) error {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return errors.Wrapf(err, "cannot decode GET %s answer", path)
		}
		raw = page.Results
	}
	if len(raw) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "cannot decode GET %s answer", path)
}
