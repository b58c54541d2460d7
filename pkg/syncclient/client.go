// Package syncclient talks to the hosted sync service on behalf of the
// desktop client and the worker.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Belafone/VivSync/pkg/models"
)

// Result is the outcome of a successful publish.
type Result struct {
	IcalURL   string
	ExpiresIn string
}

// Client posts merged rosters to the sync endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New creates a client for the given sync endpoint URL.
func New(endpoint string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
	}
}

// Publish uploads the roster and returns the published feed location.
// The username is stamped onto every record so the service derives a
// stable token from it.
func (c *Client) Publish(ctx context.Context, dienste []models.Dienst, username string, expiryDays int) (*Result, error) {
	for i := range dienste {
		dienste[i].Username = username
	}

	body, err := json.Marshal(models.SyncRequest{
		Dienste:    dienste,
		ExpiryDays: expiryDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if username != "" {
		req.Header.Set("X-Username", username)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var syncResp models.SyncResponse
	if err := json.Unmarshal(data, &syncResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if syncResp.Status != "success" {
		return nil, fmt.Errorf("server error: %s", syncResp.Message)
	}

	return &Result{
		IcalURL:   syncResp.IcalURL,
		ExpiresIn: syncResp.ExpiresIn,
	}, nil
}
