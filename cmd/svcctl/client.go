package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fyrsmithlabs/svclocator/internal/services"
)

// APIError is a non-2xx reply from the control API.
type APIError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned status %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// healthResponse matches internal/http HealthResponse.
type healthResponse struct {
	Status    string `json:"status"`
	Services  int    `json:"services"`
	Running   int    `json:"running"`
	Telemetry *struct {
		Enabled  bool `json:"enabled"`
		Healthy  bool `json:"healthy"`
		Degraded bool `json:"degraded"`
	} `json:"telemetry,omitempty"`
}

// listResponse matches internal/http ListResponse.
type listResponse struct {
	Services []services.Status `json:"services"`
}

type client struct {
	base string
	http *http.Client
}

func newClient(server string) *client {
	return &client{
		base: strings.TrimRight(server, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) health(ctx context.Context) (*healthResponse, error) {
	var out healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) list(ctx context.Context) ([]services.Status, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/services", &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

func (c *client) status(ctx context.Context, name string) (*services.Status, error) {
	var out services.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/services/"+url.PathEscape(name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// lifecycle posts op (start, stop, pause, resume) for name.
func (c *client) lifecycle(ctx context.Context, name, op string) (*services.Status, error) {
	var out services.Status
	path := fmt.Sprintf("/api/v1/services/%s/%s", url.PathEscape(name), op)
	if err := c.do(ctx, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) do(ctx context.Context, method, path string, out any) error {
	u := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var parsed struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
			apiErr.Kind = parsed.Kind
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
