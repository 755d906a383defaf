// Package mpapi implements the marketplace API client: a retrying JSON POST
// adapter, schema-tolerant response extraction, and the two pagination
// strategies the seller APIs use.
package mpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finsign/marketsync/internal/resilience"
)

// ClientOptions configures the API client.
type ClientOptions struct {
	Timeout time.Duration // per-request timeout, default 60s
	Retry   resilience.RetryConfig
}

// Client issues POST requests against the marketplace APIs with retry on
// transport failures and 5xx responses. 4xx responses fail immediately.
type Client struct {
	http  *http.Client
	retry resilience.RetryConfig
}

// NewClient creates a Client with the given options.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		retry: opts.Retry,
	}
}

// PostJSON POSTs body as JSON to url with the given headers and returns the
// response body on 2xx. Transport errors and 5xx responses are retried per
// the client's retry policy; 4xx responses are returned immediately as a
// *resilience.StatusError. op labels the call in retry logs.
func (c *Client) PostJSON(ctx context.Context, op, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrapf(err, "mpapi: marshal request for %s", op)
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("mpapi", op)
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, op, url, headers, payload)
	})
}

// post performs a single attempt. Status classification happens here:
// 2xx returns the body, anything else becomes a StatusError for the retry
// layer to judge.
func (c *Client) post(ctx context.Context, op, url string, headers map[string]string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrapf(err, "mpapi: build request for %s", op)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("api request failed",
			zap.String("operation", op),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "mpapi: read response for %s", op)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &resilience.StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
