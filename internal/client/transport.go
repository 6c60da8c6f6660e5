// Package client implements the play-session client: an authenticated HTTP
// transport, a bounded availability prober, a session directory and the
// session lifecycle controller used by the terminal client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultServerURL is used when no base address is configured.
const DefaultServerURL = "http://127.0.0.1:5000"

// ErrMissingAPIKey is returned by New when no credential is supplied. The
// client is unusable without one.
var ErrMissingAPIKey = errors.New("API key must be provided via option or DMHUB_API_KEY")

// TransportError classifies any failure to talk to the server: dial errors,
// non-2xx statuses and malformed response bodies. Status is 0 when no HTTP
// response was received.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// transport performs outbound JSON calls and attaches the credential to
// every request. It never retries; retry policy belongs to callers.
type transport struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newTransport(baseURL, apiKey string, httpClient *http.Client) *transport {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &transport{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

func (t *transport) get(ctx context.Context, op, path string, out any) error {
	return t.do(ctx, op, http.MethodGet, path, nil, out)
}

func (t *transport) postJSON(ctx context.Context, op, path string, body, out any) error {
	return t.do(ctx, op, http.MethodPost, path, body, out)
}

func (t *transport) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("X-API-Key", t.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := t.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &TransportError{
			Op:     op,
			Status: res.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(detail))),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
