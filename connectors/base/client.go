// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// maxResponseSize caps provider response bodies (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client is the shared HTTP helper used by every connector. It owns the
// cross-cutting behavior of the contract: the hard per-call timeout is
// bound to the request context (a timeout cancels the in-flight request
// on the wire, not just the caller's view of it), every call produces
// exactly one sanitized audit trace, and failures come back classified.
//
// A Client holds no per-call state, so concurrent use is safe.
type Client struct {
	name       string
	endpoint   string
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client
	audit      AuditSink
	logger     *log.Logger
}

// NewClient builds a Client for one connector instance. Extra headers
// from the config (including header-borne credentials) are applied to
// every request.
func NewClient(name string, cfg *ConnectorConfig, sink AuditSink) *Client {
	if sink == nil {
		sink = NopSink{}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		name:     name,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		timeout:  cfg.EffectiveTimeout(),
		headers:  headers,
		// No http.Client timeout here: the per-call context deadline is
		// the single source of truth so cancellation reaches the wire.
		httpClient: &http.Client{Transport: transport},
		audit:      sink,
		logger:     log.New(os.Stdout, fmt.Sprintf("[CONNECTOR_%s] ", strings.ToUpper(name)), log.LstdFlags),
	}
}

// SetHeader adds a default header applied to every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Endpoint returns the configured base endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Timeout returns the per-call timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// resolve joins a path onto the base endpoint. Absolute URLs (such as
// those returned by a service-directory discovery) pass through as-is.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.endpoint + path
}

// GetJSON issues a GET and decodes the JSON response into out
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body interface{}, out interface{}) error {
	reqURL := c.resolve(path)
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	// One audit trace per call, regardless of outcome
	rec := NewAuditRecord(AuditCategoryRequest, c.name, fmt.Sprintf("%s %s", method, path))
	rec.Method = method
	rec.Endpoint = stripQuery(reqURL)
	if params != nil {
		rec.Params = SanitizeValues(params)
	} else if body != nil {
		rec.Params = sanitizeBody(body)
	}
	start := time.Now()
	defer func() {
		rec.DurationMS = float64(time.Since(start).Microseconds()) / 1000
		c.audit.Record(rec)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			failure := NewValidationError(c.name, method, "request body is not serializable")
			rec.Fail(failure)
			return failure
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		failure := NewTransportError(c.name, method, err)
		rec.Fail(failure)
		return failure
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TerraLytics-Connector/1.0")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, val := range c.headers {
		req.Header.Set(key, val)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		failure := c.classifyTransport(method, err)
		rec.Fail(failure)
		return failure
	}
	defer func() { _ = resp.Body.Close() }()

	rec.StatusCode = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		failure := c.classifyTransport(method, err)
		rec.Fail(failure)
		return failure
	}
	if int64(len(raw)) > maxResponseSize {
		failure := NewProviderError(c.name, method, "response exceeds size limit", resp.StatusCode)
		rec.Fail(failure)
		return failure
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failure := NewProviderError(c.name, method, extractProviderMessage(raw), resp.StatusCode)
		rec.Fail(failure)
		return failure
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			failure := NewProviderError(c.name, method, "provider returned malformed JSON", resp.StatusCode)
			rec.Fail(failure)
			return failure
		}
	}

	c.logger.Printf("%s %s: %d, %v", method, path, resp.StatusCode, time.Since(start))
	return nil
}

// classifyTransport separates a local timeout from a request that never
// reached the provider.
func (c *Client) classifyTransport(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(c.name, op, c.timeout, err)
	}
	return NewTransportError(c.name, op, err)
}

// sanitizeBody renders an arbitrary request body as a redacted map for
// the audit trail. Bodies that do not round-trip through JSON are not
// recorded.
func sanitizeBody(body interface{}) map[string]interface{} {
	if m, ok := body.(map[string]interface{}); ok {
		return SanitizeParams(m)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(encoded, &m); err != nil {
		return nil
	}
	return SanitizeParams(m)
}

// stripQuery removes the query string so audit endpoints never carry
// query-borne credentials.
func stripQuery(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}

// extractProviderMessage pulls a human-readable message out of a provider
// error body. Providers disagree on shape, so the common spellings are
// tried in order with a generic fallback.
func extractProviderMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if len(envelope.Error) > 0 {
			var asString string
			if json.Unmarshal(envelope.Error, &asString) == nil && asString != "" {
				return asString
			}
			var asObject struct {
				Message     string `json:"message"`
				Description string `json:"description"`
			}
			if json.Unmarshal(envelope.Error, &asObject) == nil {
				if asObject.Message != "" {
					return asObject.Message
				}
				if asObject.Description != "" {
					return asObject.Description
				}
			}
		}
	}
	return "API Error"
}
