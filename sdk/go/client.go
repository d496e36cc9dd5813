package wbsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal world tracker HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Reporter identifies who sent a chat line.
type Reporter struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
}

// Origin identifies the community a line came from.
type Origin struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Remaining is a reported countdown anchored at its observation time.
type Remaining struct {
	ObservedAt time.Time `json:"observed_at"`
	Initial    struct {
		Minutes int `json:"minutes"`
		Seconds int `json:"seconds"`
	} `json:"initial"`
}

// World represents a tracked world record (partial).
type World struct {
	World      int        `json:"world"`
	Location   string     `json:"location,omitempty"`
	Status     string     `json:"status"`
	Resources  []string   `json:"resources,omitempty"`
	Hostile    bool       `json:"hostile"`
	Alliance   bool       `json:"alliance"`
	Remaining  *Remaining `json:"remaining,omitempty"`
	ReportedBy []Reporter `json:"reported_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ReportResult is what the tracker did with a submitted line.
type ReportResult struct {
	Outcome string `json:"outcome"`
	Created bool   `json:"created"`
	Record  *World `json:"record,omitempty"`
}

// Schedule is the rendered weekly schedule plus the next event instant.
type Schedule struct {
	Text         string     `json:"text"`
	OffsetHours  int        `json:"offset_hours"`
	NextEvent    *time.Time `json:"next_event,omitempty"`
	UntilResetNs int64      `json:"until_reset_ns"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SubmitReport sends one chat line as if it was posted by reporter.
func (c *Client) SubmitReport(ctx context.Context, line string, reporter Reporter, origin Origin) (ReportResult, error) {
	body := map[string]any{
		"line":     line,
		"reporter": reporter,
		"origin":   origin,
	}
	var resp ReportResult
	err := c.do(ctx, http.MethodPost, "reports", body, &resp)
	return resp, err
}

// Worlds returns tracked worlds in display order. resource may be a name,
// a letter, or empty for all.
func (c *Client) Worlds(ctx context.Context, resource string) ([]World, error) {
	var resp struct {
		Worlds []World `json:"worlds"`
	}
	err := c.do(ctx, http.MethodGet, withResource("worlds", resource), nil, &resp)
	return resp.Worlds, err
}

// List returns the grouped list text.
func (c *Client) List(ctx context.Context, resource string) (string, error) {
	return c.text(ctx, withResource("worlds/list", resource))
}

// Table returns the resource by location matrix.
func (c *Client) Table(ctx context.Context) (string, error) {
	return c.text(ctx, "worlds/table")
}

// Timelist returns the countdown table.
func (c *Client) Timelist(ctx context.Context) (string, error) {
	return c.text(ctx, "worlds/timelist")
}

// Schedule returns the weekly schedule for zone "br" or "utc".
func (c *Client) Schedule(ctx context.Context, zone string) (Schedule, error) {
	endpoint := "schedule"
	if zone != "" {
		endpoint += "?zone=" + url.QueryEscape(zone)
	}
	var resp Schedule
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ClearWorlds drops every tracked world. Needs an admin token.
func (c *Client) ClearWorlds(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "worlds", nil, nil)
}

func (c *Client) text(ctx context.Context, endpoint string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Text, err
}

func withResource(endpoint, resource string) string {
	if resource == "" {
		return endpoint
	}
	return endpoint + "?resource=" + url.QueryEscape(resource)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
