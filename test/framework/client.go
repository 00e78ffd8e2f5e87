package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/musterhq/muster/pkg/client"
	"github.com/musterhq/muster/pkg/types"
)

// Client wraps the muster status client with test-friendly methods
type Client struct {
	*client.Client
	BaseURL string
}

// NewClient creates a new test client wrapper
func NewClient(baseURL string) *Client {
	return &Client{Client: client.NewClient(baseURL), BaseURL: baseURL}
}

// WaitForHealthy blocks until the status server reports aggregate health.
// Transport errors keep polling; only the context deadline gives up.
func (c *Client) WaitForHealthy(ctx context.Context) error {
	return PollUntil(ctx, 100*time.Millisecond, func() bool {
		health, err := c.Client.Health(ctx)
		if err != nil {
			return false
		}
		return health.Status == "healthy"
	})
}

// RunByToken finds a run record by its correlation token
func (c *Client) RunByToken(ctx context.Context, token string) (*types.RunRecord, error) {
	runs, err := c.Client.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range runs {
		if record.Token == token {
			return record, nil
		}
	}
	return nil, fmt.Errorf("no run with token %s", token)
}
