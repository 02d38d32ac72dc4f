package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Path is the rooms resource path under the API root.
const Path = "/api/v1/rooms"

// Client talks to a remote rooms resource.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("rooms base url required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// List fetches every room.
func (c *Client) List(ctx context.Context) ([]Room, error) {
	var out []Room
	if err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Room{}
	}
	return out, nil
}

// Create posts a new room and returns the stored record.
func (c *Client) Create(ctx context.Context, in Input) (Room, error) {
	in, err := in.Validate()
	if err != nil {
		return Room{}, err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return Room{}, err
	}
	var out Room
	if err := c.do(ctx, http.MethodPost, body, http.StatusCreated, &out); err != nil {
		return Room{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, want int, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+Path, r)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", Path, err)
	}
	return nil
}
