package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 8 << 20
	userAgent        = "ResumeScreeningClient/1.0"
)

// authEndpoints never trigger the unauthorized hook: a 401 there means
// bad credentials, not an expired session.
var authEndpoints = []string{"/auth/login", "/auth/register"}

// Client talks to the resume screening platform's REST API. The session is
// carried by a cookie jar, so every call after a successful login is
// authenticated.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu             sync.RWMutex
	onUnauthorized func(path string)
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API base URL must be http or https, got %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: &userAgentTransport{next: transport},
		},
	}, nil
}

// OnUnauthorized registers the hook invoked when a non-auth endpoint
// answers 401. The client itself never navigates anywhere.
func (c *Client) OnUnauthorized(fn func(path string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) notifyUnauthorized(path string) {
	for _, p := range authEndpoints {
		if strings.HasPrefix(path, p) {
			return
		}
	}

	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()

	if fn != nil {
		fn(path)
	}
}

// send performs one request and returns the raw body of a 2xx response
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[api] %s %s failed (%s): %v", method, path, requestID, err)
		return nil, &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	log.Printf("[api] %s %s -> %d (%s)", method, path, resp.StatusCode, requestID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromResponse(resp.StatusCode, data)
		if apiErr.Kind == KindAuth {
			c.notifyUnauthorized(path)
		}
		return nil, apiErr
	}

	return data, nil
}

// getJSON issues a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return decode(data, out)
}

// postJSON sends payload as JSON and decodes the body into out (if non-nil)
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	data, err := c.send(ctx, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return err
	}
	return decode(data, out)
}

// postMultipart uploads fields and at most one file part
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	if file != nil {
		part, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("failed to copy file into request: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	data, err := c.send(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(data, out)
}

// deleteResource issues a DELETE and ignores the response body
func (c *Client) deleteResource(ctx context.Context, path string) error {
	_, err := c.send(ctx, http.MethodDelete, path, nil, nil, "")
	return err
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindServer, Message: "malformed response", Err: err}
	}
	return nil
}

// pageEnvelope carries the pagination metadata every list endpoint returns
type pageEnvelope struct {
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// userAgentTransport adds a user agent header to requests
type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.next.RoundTrip(req)
}
