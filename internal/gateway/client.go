// Package gateway is the single outbound path from the dashboard to the backend
// REST services. Every call builds its URL from a named base, attaches the caller's
// bearer token and user id, enforces a timeout, and reports 401/403 responses to an
// installed interceptor before returning a typed error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/target/recon-console/config"
	"github.com/target/recon-console/internal/observability/metrics"
	"github.com/target/recon-console/internal/observability/statsd"
)

// Backend API names.
const (
	APIRecon     = "recon"
	APILedger    = "ledger"
	APIUsers     = "users"
	APIAnalytics = "analytics"
)

// ResponseType selects how a successful body is handled.
type ResponseType int

const (
	// ResponseJSON marks a data endpoint whose body is JSON.
	ResponseJSON ResponseType = iota
	// ResponseBlob marks a binary download; the body is returned untouched.
	ResponseBlob
)

const (
	headerRequestID  = "X-Request-ID"
	contentTypeJSON  = "application/json"
	maxErrorBodySize = 64 << 10
)

// Request describes one outbound call.
type Request struct {
	API      string
	Endpoint string
	Method   string
	Query    url.Values

	// Body is sent as-is when it is a string, []byte or io.Reader; any other
	// non-nil value is JSON-encoded.
	Body any
	// ContentType overrides the default application/json (multipart uploads).
	ContentType string

	ResponseType ResponseType

	UserID string
	Token  string

	// Progress, when set, receives increasing upload percentages (0-100).
	Progress func(percent int)
}

// Response is a successful (2xx) backend response.
type Response struct {
	Status      int
	Header      http.Header
	Body        []byte
	ContentType string
	FileName    string
}

// DecodeJSON unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Options configures a Client.
type Options struct {
	Config     config.GatewayConfig
	HTTPClient *http.Client
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// Client performs backend calls. It is safe for concurrent use.
type Client struct {
	bases        map[string]string
	prefix       string
	timeout      time.Duration
	userIDHeader string
	extract      *Extractor

	hc      *http.Client
	metrics statsd.Sink
	logger  *slog.Logger

	interceptOnce sync.Once
	onAuthFailure atomic.Pointer[AuthFailureFunc]
}

// NewClient builds a Client from sanitized gateway configuration.
func NewClient(opts Options) (*Client, error) {
	cfg := opts.Config
	cfg.Sanitize()

	extract, err := NewExtractor(cfg.ErrorMessagePath, cfg.ListItemsPath, cfg.ListTotalPath)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	bases := make(map[string]string)
	for name, base := range cfg.Bases() {
		if base != "" {
			bases[name] = base
		}
	}

	return &Client{
		bases:        bases,
		prefix:       cfg.APIPathPrefix,
		timeout:      cfg.Timeout,
		userIDHeader: cfg.UserIDHeader,
		extract:      extract,
		hc:           hc,
		metrics:      opts.Metrics,
		logger:       logger.With("component", "gateway"),
	}, nil
}

// Extractor returns the client's JSON envelope extractor.
func (c *Client) Extractor() *Extractor { return c.extract }

// URL resolves the absolute URL for an API endpoint.
func (c *Client) URL(api, endpoint string, query url.Values) (string, error) {
	base, ok := c.bases[api]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAPI, api)
	}
	u := base + "/" + c.prefix + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u, nil
}

// Do performs the call described by req.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.URL(req.API, req.Endpoint, req.Query)
	if err != nil {
		return nil, err
	}

	body, length, err := encodeBody(req.Body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	if body != nil && req.Progress != nil {
		body = newProgressReader(body, length, req.Progress)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	if body != nil && length >= 0 {
		hreq.ContentLength = length
	}
	c.setHeaders(ctx, hreq, req)

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		rerr := &RequestError{Method: method, URL: target, Err: err}
		c.observe(req.API, method, 0, time.Since(start), rerr)
		return nil, rerr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := c.statusError(method, target, resp)
		c.observe(req.API, method, resp.StatusCode, time.Since(start), serr)
		if serr.IsAuthFailure() {
			c.intercept(ctx, AuthFailure{Status: serr.Status, Method: method, URL: target})
		}
		return nil, serr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		rerr := &RequestError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
		c.observe(req.API, method, resp.StatusCode, time.Since(start), rerr)
		return nil, rerr
	}
	c.observe(req.API, method, resp.StatusCode, time.Since(start), nil)

	out := &Response{
		Status:      resp.StatusCode,
		Header:      resp.Header,
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if req.ResponseType == ResponseBlob {
		out.FileName = attachmentName(resp.Header.Get("Content-Disposition"))
	}
	return out, nil
}

// GetJSON performs req and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, req Request, v any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(v)
}

func (c *Client) setHeaders(ctx context.Context, hreq *http.Request, req Request) {
	ct := req.ContentType
	if ct == "" {
		ct = contentTypeJSON
	}
	hreq.Header.Set("Content-Type", ct)
	if req.ResponseType == ResponseJSON {
		hreq.Header.Set("Accept", contentTypeJSON)
	}
	if req.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.UserID != "" {
		hreq.Header.Set(c.userIDHeader, req.UserID)
	}
	if id := RequestID(ctx); id != "" {
		hreq.Header.Set(headerRequestID, id)
	}
}

func (c *Client) statusError(method, target string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	serr := &StatusError{Method: method, URL: target, Status: resp.StatusCode}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return serr
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		serr.Body = decoded
		serr.Message = c.extract.Message(decoded)
		return serr
	}
	serr.Body = string(trimmed)
	if textBody(resp.Header.Get("Content-Type")) {
		serr.Message = c.extract.Message(serr.Body)
	}
	return serr
}

// textBody reports whether a non-JSON error body may carry a user message.
// Only text/plain qualifies, or an unlabelled body.
func textBody(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/plain"
}

func (c *Client) observe(api, method string, status int, d time.Duration, err error) {
	metrics.EmitGatewayCall(c.metrics, metrics.GatewayCall{
		API:      api,
		Method:   method,
		Status:   status,
		Duration: d,
		Err:      err,
	})
	if err == nil {
		return
	}
	var rerr *RequestError
	if errors.As(err, &rerr) {
		c.logger.Warn("backend request failed", "api", api, "method", method, "error", err)
	}
}

type lener interface{ Len() int }

func encodeBody(body any) (io.Reader, int64, error) {
	switch v := body.(type) {
	case nil:
		return nil, 0, nil
	case string:
		return strings.NewReader(v), int64(len(v)), nil
	case []byte:
		return bytes.NewReader(v), int64(len(v)), nil
	case io.Reader:
		if l, ok := v.(lener); ok {
			return v, int64(l.Len()), nil
		}
		return v, -1, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, 0, fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(b), int64(len(b)), nil
	}
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
