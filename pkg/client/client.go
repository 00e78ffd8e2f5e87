package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/musterhq/muster/pkg/api"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

// Client wraps the muster status API for easy CLI usage. All methods are
// reads; the status server exposes nothing else.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the status server at baseURL. A bare
// host:port is promoted to http://host:port.
func NewClient(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListSlaves returns the registered worker addresses.
func (c *Client) ListSlaves(ctx context.Context) ([]types.WorkerAddress, error) {
	var body api.SlaveList
	if err := c.get(ctx, "/v1/slaves", &body); err != nil {
		return nil, err
	}
	return body.Slaves, nil
}

// ListRuns returns all recorded runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]*types.RunRecord, error) {
	var body api.RunList
	if err := c.get(ctx, "/v1/runs", &body); err != nil {
		return nil, err
	}
	return body.Runs, nil
}

// GetRun returns one run record by journal ID.
func (c *Client) GetRun(ctx context.Context, id string) (*types.RunRecord, error) {
	var record types.RunRecord
	if err := c.get(ctx, "/v1/runs/"+id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCollectors returns the collector handles tracked on the server's node.
func (c *Client) ListCollectors(ctx context.Context) ([]proc.Handle, error) {
	var body api.CollectorList
	if err := c.get(ctx, "/v1/collectors", &body); err != nil {
		return nil, err
	}
	return body.Collectors, nil
}

// Health returns the server's aggregate health. The status is decoded from
// both 200 and 503 responses; an unhealthy server still answers.
func (c *Client) Health(ctx context.Context) (*metrics.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach status server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, statusError(resp)
	}

	var health metrics.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach status server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
