package model

// Derived telemetry shapes. None of these are persisted; each retrieval is
// a fresh snapshot from the metrics/log backend.

// PerformancePoint is one time-bucketed sample in a performance series.
type PerformancePoint struct {
	Time         string  `json:"time"`
	ResponseTime float64 `json:"responseTime"`
	Requests     float64 `json:"requests"`
	Errors       float64 `json:"errors"`
}

// AppMetrics is the per-application metrics snapshot served to dashboards.
// PerformanceData is ordered by time ascending.
type AppMetrics struct {
	RequestThroughput float64            `json:"requestThroughput"`
	AvgResponseTime   float64            `json:"avgResponseTime"`
	ErrorRate         float64            `json:"errorRate"`
	Availability      float64            `json:"availability"`
	PerformanceData   []PerformancePoint `json:"performanceData"`
}

// LogEntry is a single application log record.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// PlatformPerformancePoint is one sample in the platform-wide series.
type PlatformPerformancePoint struct {
	Time         string  `json:"time"`
	ServerLoad   float64 `json:"serverLoad"`
	ResponseTime float64 `json:"responseTime"`
	ErrorRate    float64 `json:"errorRate"`
	Inbound      float64 `json:"inbound"`
	Outbound     float64 `json:"outbound"`
}

// PlatformMetrics aggregates platform health for the engineering dashboard.
type PlatformMetrics struct {
	SystemLoad      float64                    `json:"systemLoad"`
	AvgResponseTime float64                    `json:"avgResponseTime"`
	ErrorRate       float64                    `json:"errorRate"`
	CPUUtilization  float64                    `json:"cpuUtilization"`
	MemoryUsage     float64                    `json:"memoryUsage"`
	PerformanceData []PlatformPerformancePoint `json:"performanceData"`
}

// TenantUsage summarizes one tenant's footprint for the engineering dashboard.
type TenantUsage struct {
	TenantID        uint    `json:"tenantId"`
	TenantName      string  `json:"tenantName"`
	Apps            int     `json:"apps"`
	TotalRequests   float64 `json:"totalRequests"`
	ErrorRate       float64 `json:"errorRate"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}
