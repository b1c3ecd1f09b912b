// Package net wraps HTTP access to the upstream sites.
//
// Every metadata fetch is normalized into a FetchResult immediately
// after the call so that no downstream component branches on response
// shape.
package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"vcptools/internal/utils/logging"

	"golang.org/x/net/publicsuffix"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// UserAgent returns the browser user agent used for site requests.
func UserAgent() string { return defaultUserAgent }

// FetchResult is the normalized outcome of one metadata fetch.
type FetchResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the fetch returned HTTP 200.
func (f FetchResult) OK() bool { return f.StatusCode == http.StatusOK }

// Session is a cookie-carrying HTTP client shared within one job.
// It is not safe for concurrent use across worker pools; each worker
// should construct its own.
type Session struct {
	client  *http.Client
	headers map[string]string
}

// NewSession returns a session with a publicsuffix-aware cookie jar.
func NewSession(timeout time.Duration) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		headers: map[string]string{
			"User-Agent": defaultUserAgent,
		},
	}, nil
}

// SetHeader sets a header applied to every subsequent request, e.g.
// a bearer token after login.
func (s *Session) SetHeader(key, value string) {
	s.headers[key] = value
}

// Get fetches a URL and normalizes the response.
func (s *Session) Get(ctx context.Context, url string) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to create request for %q: %w", url, err)
	}
	return s.do(req)
}

// PostJSON posts a JSON body and normalizes the response.
func (s *Session) PostJSON(ctx context.Context, url string, body any) (FetchResult, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to marshal request body for %q: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to create request for %q: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

// Stream opens a response for chunked reading. The caller owns the
// body. Used for file transfers where buffering the body is not an
// option.
func (s *Session) Stream(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %q: %w", url, err)
	}
	s.applyHeaders(req)

	// No client timeout on streams: large transfers legitimately
	// outlive any fixed deadline. Cancellation comes via ctx.
	streamClient := &http.Client{Jar: s.client.Jar}
	return streamClient.Do(req)
}

func (s *Session) do(req *http.Request) (FetchResult, error) {
	s.applyHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("request to %q failed: %w", req.URL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logClose(cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to read response from %q: %w", req.URL, err)
	}

	return FetchResult{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func (s *Session) applyHeaders(req *http.Request) {
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
}

func logClose(err error) {
	logging.D(2, "Failed to close response body: %v", err)
}
