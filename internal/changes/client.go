// Package changes queries a Datasette table endpoint for the number of rows
// changed since a chronicle version.
package changes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// CountResult is the part of the table JSON response the notifier reads.
type CountResult struct {
	OK    bool  `json:"ok"`
	Count int64 `json:"count"`
}

// Config controls how the client reaches the table endpoint.
type Config struct {
	// BaseURL is the database page the table lives under, for example
	// https://example.com/fixtures. Table names are appended as {table}.json.
	BaseURL   string
	Timeout   time.Duration // zero means no timeout
	UserAgent string
}

// Client issues count-only table queries.
type Client struct {
	cfg        Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Log:        log,
	}
}

// CountURL builds the count-only query for rows of table changed since the
// given version.
func (c *Client) CountURL(table string, since int64) string {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/")
	if base == "" {
		base = "."
	}
	return fmt.Sprintf("%s/%s.json?_since=%s&_extra=count&_size=0",
		base, url.PathEscape(table), url.QueryEscape(strconv.FormatInt(since, 10)))
}

// CountSince asks how many rows of table changed after version since.
func (c *Client) CountSince(ctx context.Context, table string, since int64) (*CountResult, error) {
	endpoint := c.CountURL(table, since)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch change count: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Log.DebugContext(ctx, "table endpoint returned non-2xx status",
			"status_code", resp.StatusCode,
			"body_preview", truncate(string(body), 200),
		)
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var result CountResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response [status=%d]: %w", resp.StatusCode, err)
	}
	return &result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
