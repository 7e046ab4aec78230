package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloudle-service/internal/apperror"
	"cloudle-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(&config.TelemetryConfig{BaseURL: baseURL, Timeout: timeout})
}

func TestAppMetricsOrdersSeriesAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/7/metrics", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("tenantId"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"requestThroughput": 1200,
			"avgResponseTime": 52.3,
			"errorRate": 3.2,
			"availability": 96.8,
			"performanceData": [
				{"time": "10:02", "responseTime": 55, "requests": 40, "errors": 1},
				{"time": "10:00", "responseTime": 50, "requests": 42, "errors": 0},
				{"time": "10:01", "responseTime": 52, "requests": 38, "errors": 2}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	metrics, err := client.AppMetrics(context.Background(), 101, 7)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, metrics.RequestThroughput)
	assert.Equal(t, 96.8, metrics.Availability)

	require.Len(t, metrics.PerformanceData, 3)
	assert.Equal(t, "10:00", metrics.PerformanceData[0].Time)
	assert.Equal(t, "10:01", metrics.PerformanceData[1].Time)
	assert.Equal(t, "10:02", metrics.PerformanceData[2].Time)
}

func TestAppLogsMostRecentFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logs", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("appId"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "ERROR", r.URL.Query().Get("level"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"timestamp": "2026-08-28T10:00:00Z", "level": "ERROR", "message": "older"},
			{"timestamp": "2026-08-28T10:05:00Z", "level": "ERROR", "message": "newest"},
			{"timestamp": "2026-08-28T10:02:00Z", "level": "ERROR", "message": "middle"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	entries, err := client.AppLogs(context.Background(), 7, 100, "ERROR")
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "newest", entries[0].Message)
	assert.Equal(t, "middle", entries[1].Message)
	assert.Equal(t, "older", entries[2].Message)
}

func TestAppLogsOmitsAbsentLevelFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasLevel := r.URL.Query()["level"]
		assert.False(t, hasLevel, "level param must be absent when no filter is given")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	entries, err := client.AppLogs(context.Background(), 7, 50, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppLogsTruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"timestamp": "2026-08-28T10:00:00Z", "level": "INFO", "message": "a"},
			{"timestamp": "2026-08-28T10:01:00Z", "level": "INFO", "message": "b"},
			{"timestamp": "2026-08-28T10:02:00Z", "level": "INFO", "message": "c"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	entries, err := client.AppLogs(context.Background(), 7, 2, "")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Message)
	assert.Equal(t, "b", entries[1].Message)
}

func TestUpstreamErrorStatusIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	_, err := client.AppMetrics(context.Background(), 101, 7)
	require.Error(t, err)

	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestUpstreamTimeoutSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 50*time.Millisecond)
	_, err := client.PlatformMetrics(context.Background())
	require.Error(t, err)

	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestRequestContextCancellationAbandonsCall(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.AppLogs(ctx, 7, 10, "")
	require.Error(t, err)
}

func TestInvalidResponseBodyIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	_, err := client.AppMetrics(context.Background(), 101, 7)
	require.Error(t, err)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}
