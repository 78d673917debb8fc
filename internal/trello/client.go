// Package trello is a thin client for the Trello card-creation API, the
// task board order lines are exported to.
package trello

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.trello.com"

// CardCreator is the task-board contract the export gate depends on
type CardCreator interface {
	CreateCard(ctx context.Context, name, description string) error
}

// Client creates cards on one Trello list
type Client struct {
	apiKey     string
	token      string
	listID     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Trello client for the given list
func NewClient(apiKey, token, listID string) *Client {
	return &Client{
		apiKey:  apiKey,
		token:   token,
		listID:  listID,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCard creates one card on the configured list. Trello expects the
// card fields as query parameters.
func (c *Client) CreateCard(ctx context.Context, name, description string) error {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("token", c.token)
	query.Set("idList", c.listID)
	query.Set("name", name)
	query.Set("desc", description)

	endpoint := c.baseURL + "/1/cards?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("card request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("card creation failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
