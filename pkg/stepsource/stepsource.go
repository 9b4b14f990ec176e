// Package stepsource reads live step counts from a local health bridge.
package stepsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Client fetches today's step count from a health-bridge HTTP endpoint
// (anything that exposes GET <base>/v1/steps/today with a {"steps": N} body).
// A missing or unreachable bridge means "no fresher reading this cycle".
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a step-source client for the given base URL.
func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type stepsResponse struct {
	Steps int `json:"steps"`
}

// TodaySteps fetches the current day's step count with bounded retries.
func (c *Client) TodaySteps(ctx context.Context) (int, error) {
	url := c.baseURL + "/v1/steps/today"

	var steps int
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return err
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
			}

			var parsed stepsResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return fmt.Errorf("decoding steps response: %w", err)
			}
			if parsed.Steps < 0 {
				return fmt.Errorf("negative step count %d", parsed.Steps)
			}
			steps = parsed.Steps
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying step fetch", "attempt", n+1, "url", url, "error", err)
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("fetching step count: %w", err)
	}
	return steps, nil
}

// Poll fetches the step count every interval and hands each successful
// reading to onSteps until the context is canceled. Fetch failures are
// logged and skipped; the next tick tries again.
func (c *Client) Poll(ctx context.Context, interval time.Duration, onSteps func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			steps, err := c.TodaySteps(ctx)
			if err != nil {
				c.logger.Warn("step poll failed", "error", err)
				continue
			}
			onSteps(steps)
		}
	}
}
