// Package client talks to a csvview server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvview/internal/core"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every request unless WithHTTPClient overrides it.
const DefaultTimeout = 30 * time.Second

// Client is safe for concurrent use. Identical concurrent Data calls share
// one request.
type Client struct {
	baseURL string
	http    *http.Client
	group   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Action     string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// Unwrap maps support codes back to the core sentinel errors so callers
// can use errors.Is on remote failures.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "DATA001":
		return core.ErrNotFound
	case "FILE005":
		return core.ErrEmptyInput
	case "FILE006":
		return core.ErrEmptyHeader
	case "FILE001", "FILE002", "FILE003":
		return core.ErrUnsupportedInput
	case "UPL002":
		return core.ErrTooManyUploads
	}
	return nil
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(req, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("server unhealthy: %q", body.Status)
	}
	return nil
}

// Upload sends r as a CSV file named fileName. A positive opts.PreviewRows
// asks the server to include the first page of rows.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader, opts core.IngestOptions) (core.UploadSummary, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	if err != nil {
		return core.UploadSummary{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return core.UploadSummary{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	if opts.PreviewRows > 0 {
		if err := mw.WriteField("preview", "1"); err != nil {
			return core.UploadSummary{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return core.UploadSummary{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return core.UploadSummary{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var summary core.UploadSummary
	if err := c.do(req, &summary); err != nil {
		return core.UploadSummary{}, err
	}
	return summary, nil
}

// Data fetches one page of the table stored under id. Concurrent callers
// asking for the same page share one request; each caller's ctx only ends
// its own wait.
func (c *Client) Data(ctx context.Context, id string, q core.Query) (core.Result, error) {
	target := c.baseURL + "/api/data/" + url.PathEscape(id) + "?" + q.Values().Encode()

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(target, func() (any, error) {
		reqCtx, cancel := context.WithTimeout(shared, c.sharedTimeout())
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		var res core.Result
		if err := c.do(req, &res); err != nil {
			return nil, err
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return core.Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return core.Result{}, r.Err
		}
		return r.Val.(core.Result), nil
	}
}

// sharedTimeout bounds a request no single caller can cancel.
func (c *Client) sharedTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return DefaultTimeout
}

// History lists the most recent uploads, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	target := c.baseURL + "/api/history"
	if limit > 0 {
		target += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	var entries []core.HistoryEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do sends req and decodes a 200 body into out. Error bodies become a
// *core.UserError wrapping an *APIError.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Action  string `json:"action"`
		Code    string `json:"code"`
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Action = body.Action
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return &core.UserError{
		Technical: apiErr,
		User: core.UserMessage{
			Message: apiErr.Message,
			Action:  apiErr.Action,
			Code:    apiErr.Code,
		},
	}
}

// RemoteSource loads pages of one uploaded table from a server.
type RemoteSource struct {
	client *Client
	id     string
}

// NewRemoteSource returns a source for the table stored under id.
func NewRemoteSource(c *Client, id string) *RemoteSource {
	return &RemoteSource{client: c, id: id}
}

// Load fetches q from the server.
func (s *RemoteSource) Load(ctx context.Context, q core.Query) (core.Result, error) {
	return s.client.Data(ctx, s.id, q)
}
