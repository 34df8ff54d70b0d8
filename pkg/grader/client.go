// Package grader is a thin client for the assignment grader backend. It exposes
// the OCR upload and AI grading endpoints as two request/response calls, plus
// the assignment endpoints that work on a stored upload.
package grader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/grader-client/pkg/httpclient"
)

// Option customizes a Client during New.
type Option func(*Client) error

// WithTransport replaces the default resty-backed transport.
func WithTransport(t httpclient.Client) Option {
	return func(c *Client) error {
		if t == nil {
			return errors.New("nil transport")
		}
		c.transport = t
		return nil
	}
}

// WithLogger attaches a structured logger. A nil logger keeps the no-op default.
func WithLogger(l Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.log = l
		}
		return nil
	}
}

// Client issues requests against the grader backend. It holds no mutable
// state after New returns and is safe for concurrent use.
type Client struct {
	cfg       ClientConfig
	baseURL   string
	transport httpclient.Client
	log       Logger
}

// New builds a Client. Zero-valued fields of cfg take the DefaultConfig values.
func New(cfg ClientConfig, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		baseURL: cfg.BaseURL(),
		log:     noopLogger{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if c.transport == nil {
		c.transport = httpclient.NewRestyClient(cfg.Timeout)
	}
	return c, nil
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() ClientConfig { return c.cfg }

// SubmitOCRUpload posts a multipart file upload to {base}/ocr and returns the
// response body unmodified.
func (c *Client) SubmitOCRUpload(ctx context.Context, req UploadRequest) (*Response, error) {
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, fmt.Errorf("encode ocr upload: %w", err)
	}
	return c.post(ctx, "ocr", ocrPath, body, contentType)
}

// SubmitGrading posts {"text": ...} to {base}/ai_grade and returns the
// response body unmodified.
func (c *Client) SubmitGrading(ctx context.Context, req GradeRequest) (*Response, error) {
	body, contentType, err := encodeJSON(req)
	if err != nil {
		return nil, fmt.Errorf("encode grade request: %w", err)
	}
	return c.post(ctx, "ai_grade", gradePath, body, contentType)
}

// post performs exactly one request. Failures are returned as *TransportError
// and never retried.
func (c *Client) post(ctx context.Context, op, path string, body []byte, contentType string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	url := c.baseURL + path
	var headers map[string]string
	if contentType != "" {
		headers = map[string]string{"Content-Type": contentType}
	}
	start := time.Now()
	resp, err := c.transport.Post(ctx, url, body, headers)
	if err != nil {
		terr := &TransportError{Op: op, Method: http.MethodPost, URL: url, Err: err}
		c.log.WarnObj("grader request failed", "grader_error", map[string]any{
			"op":         op,
			"url":        url,
			"timeout":    terr.Timeout(),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return nil, terr
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		terr := &TransportError{
			Op:          op,
			Method:      http.MethodPost,
			URL:         url,
			StatusCode:  status,
			ContentType: resp.Header().Get("Content-Type"),
			Body:        resp.Body(),
			Err:         ErrStatus,
		}
		c.log.WarnObj("grader request rejected", "grader_error", map[string]any{
			"op":         op,
			"url":        url,
			"status":     status,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return nil, terr
	}

	c.log.DebugObj("grader request completed", "grader_result", map[string]any{
		"op":         op,
		"url":        url,
		"status":     status,
		"bytes":      len(resp.Body()),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return &Response{
		URL:        url,
		StatusCode: status,
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}
