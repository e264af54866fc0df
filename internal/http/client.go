package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"apiplay/internal/logging"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// ContentTypeJSON is sent with every request
	ContentTypeJSON = "application/json"
)

// ErrCancelled is wrapped by Send errors caused by an aborted or expired context
var ErrCancelled = errors.New("request cancelled")

// Client sends single requests bound to a context. It has no timeout of its own;
// callers cancel the context instead.
type Client struct {
	client         *http.Client
	defaultHeaders map[string]string
	maxBody        int64
	logger         logging.Logger
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	transport      http.RoundTripper
	defaultHeaders map[string]string
	maxBody        int64
	logger         logging.Logger
}

// WithTransport routes requests through rt, e.g. the mock transport
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithDefaultHeader sets a header on every request unless overridden per call
func WithDefaultHeader(key, value string) ClientOption {
	return func(o *clientOptions) {
		o.defaultHeaders[key] = value
	}
}

// WithMaxResponseSize overrides MaxResponseSize
func WithMaxResponseSize(n int64) ClientOption {
	return func(o *clientOptions) {
		o.maxBody = n
	}
}

// WithLogger sets the logger used for truncation warnings
func WithLogger(logger logging.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient creates a new HTTP client
func NewClient(opts ...ClientOption) *Client {
	o := &clientOptions{
		defaultHeaders: map[string]string{"Content-Type": ContentTypeJSON},
		maxBody:        MaxResponseSize,
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		client:         &http.Client{Transport: o.transport},
		defaultHeaders: o.defaultHeaders,
		maxBody:        o.maxBody,
		logger:         o.logger,
	}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	StatusText string
	Headers    map[string]string
	Body       []byte
	// Truncated is set when the body was cut at the size limit
	Truncated bool
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body, returning nil when it is empty or not JSON
func (r *Response) JSON() any {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Send executes one request and reads the whole response
func (c *Client) Send(ctx context.Context, method, reqURL string, headers map[string]string, body string) (*Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classify(ctx, err)
	}

	// Check if response was truncated
	truncated := int64(len(respBody)) > c.maxBody
	if truncated {
		respBody = respBody[:c.maxBody]
		c.logger.Warn("response body truncated",
			logging.F("url", reqURL),
			logging.F("limit_bytes", c.maxBody))
	}

	// Convert response headers
	respHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			respHeaders[key] = values[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    respHeaders,
		Body:       respBody,
		Truncated:  truncated,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return err
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found")
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
