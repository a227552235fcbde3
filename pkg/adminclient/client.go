// Package adminclient is ldapdctl's HTTP client for ldapd's admin API
// (SPEC_FULL.md §3). It mirrors the teacher's apiclient package: a thin
// REST client with a standard envelope and a bearer-token header.
package adminclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one ldapd admin API instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client bound to baseURL (e.g. "http://localhost:9091").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithToken returns a copy of c that presents token on every request.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, httpClient: c.httpClient, token: token}
}

func (c *Client) get(path string, result any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("adminclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("adminclient: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("adminclient: reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if resp.StatusCode >= 400 || env.Status == "error" {
		msg := env.Error
		if msg == "" {
			msg = string(body)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("adminclient: decoding response data: %w", err)
		}
	}
	return nil
}

// Healthz calls GET /healthz.
func (c *Client) Healthz() (map[string]string, error) {
	var data map[string]string
	if err := c.get("/healthz", &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Readyz calls GET /readyz.
func (c *Client) Readyz() error {
	return c.get("/readyz", nil)
}

// MappingTree calls GET /v1/mapping-tree.
func (c *Client) MappingTree() (NodeViews, error) {
	var nodes NodeViews
	if err := c.get("/v1/mapping-tree", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// SyncSessions calls GET /v1/sync/sessions.
func (c *Client) SyncSessions() (*SessionsView, error) {
	var view SessionsView
	if err := c.get("/v1/sync/sessions", &view); err != nil {
		return nil, err
	}
	return &view, nil
}
