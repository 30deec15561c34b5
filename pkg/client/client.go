package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AgentClient talks to the remote agent server. Everything here is plain
// request/response plumbing; the reconciliation engine never sees it.
type AgentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client for the given server
func New(baseURL, apiKey string) *AgentClient {
	return NewWithTimeout(baseURL, apiKey, 60*time.Second)
}

// NewWithTimeout creates a client with a custom request timeout
func NewWithTimeout(baseURL, apiKey string, timeout time.Duration) *AgentClient {
	return &AgentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured server URL
func (c *AgentClient) BaseURL() string {
	return c.baseURL
}

func (c *AgentClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doJSON issues a request and decodes the response body into out
func (c *AgentClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError reads the error body for detail, falling back to the raw
// body when it is not the expected JSON shape.
func decodeError(resp *http.Response) error {
	errorBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("request failed with status %d (failed to read error response: %w)", resp.StatusCode, err)
	}

	var errorResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(errorBody, &errorResp) == nil {
		if errorResp.Error != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, errorResp.Error)
		}
		if errorResp.Detail != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, errorResp.Detail)
		}
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
}
