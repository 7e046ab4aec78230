// Package telemetry is the gateway to the external metrics/log backend.
// Every call produces a fresh, finite snapshot: no caching, no internal
// retries. Retry and backoff are the caller's responsibility (the dashboard
// re-polls on a fixed interval), and every request is bounded by the
// configured timeout and the caller's context.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"cloudle-service/internal/apperror"
	"cloudle-service/internal/model"
	"cloudle-service/pkg/config"
	"cloudle-service/prometheus"
)

// Client queries the telemetry backend by (tenantId, appId) or appId.
// The backend is the source of truth; the client performs no aggregation
// beyond passthrough shaping (ordering guarantees).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a telemetry client from the service configuration
func NewClient(cfg *config.TelemetryConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// AppMetrics fetches the metrics snapshot for one application. The
// performance series is returned ordered by time ascending.
func (c *Client) AppMetrics(ctx context.Context, tenantID, appID uint) (*model.AppMetrics, error) {
	defer prometheus.TrackUpstream("app_metrics")(time.Now())

	endpoint := fmt.Sprintf("%s/apps/%d/metrics?tenantId=%d", c.BaseURL, appID, tenantID)

	var metrics model.AppMetrics
	if err := c.getJSON(ctx, "app_metrics", endpoint, &metrics); err != nil {
		return nil, err
	}

	sort.SliceStable(metrics.PerformanceData, func(i, j int) bool {
		return metrics.PerformanceData[i].Time < metrics.PerformanceData[j].Time
	})

	return &metrics, nil
}

// AppLogs fetches up to limit recent log entries for an application,
// most-recent-first. When level is non-empty, results are restricted to
// exactly that level; an empty level returns all levels.
func (c *Client) AppLogs(ctx context.Context, appID uint, limit int, level string) ([]model.LogEntry, error) {
	defer prometheus.TrackUpstream("app_logs")(time.Now())

	params := url.Values{}
	params.Set("appId", strconv.FormatUint(uint64(appID), 10))
	params.Set("limit", strconv.Itoa(limit))
	if level != "" {
		params.Set("level", level)
	}
	endpoint := fmt.Sprintf("%s/logs?%s", c.BaseURL, params.Encode())

	var entries []model.LogEntry
	if err := c.getJSON(ctx, "app_logs", endpoint, &entries); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// PlatformMetrics fetches the platform-wide metrics snapshot for the
// engineering dashboard.
func (c *Client) PlatformMetrics(ctx context.Context) (*model.PlatformMetrics, error) {
	defer prometheus.TrackUpstream("platform_metrics")(time.Now())

	var metrics model.PlatformMetrics
	if err := c.getJSON(ctx, "platform_metrics", c.BaseURL+"/metrics", &metrics); err != nil {
		return nil, err
	}

	return &metrics, nil
}

func (c *Client) getJSON(ctx context.Context, name, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperror.Internal("failed to build telemetry request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		prometheus.RecordUpstreamError(name)
		return apperror.Upstream("telemetry backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		prometheus.RecordUpstreamError(name)
		return apperror.Upstream(fmt.Sprintf("telemetry backend returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		prometheus.RecordUpstreamError(name)
		return apperror.Upstream("invalid telemetry response", err)
	}

	return nil
}
