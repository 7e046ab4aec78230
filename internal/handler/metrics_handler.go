package handler

import (
	"net/http"
	"time"

	"cloudle-service/internal/model"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetAppMetrics returns the metrics snapshot for one tenant application.
// The app lookup is tenant-scoped first, then the telemetry backend is
// queried under the request context so a client navigating away abandons
// the upstream call.
func GetAppMetrics(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID := pathTenantID(c)
	appID := c.Param("appId")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var app model.Application
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", appID, tenantID).First(&app); result.Error != nil {
		log.Warn("App not found for metrics",
			zap.String("app_id", appID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
	}

	metrics, err := telemetryClient.AppMetrics(c.Request().Context(), tenantID, app.ID)
	if err != nil {
		log.Error("Failed to fetch app metrics",
			zap.Uint("app_id", app.ID),
			zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, metrics)
}

// GetPlatformMetrics returns the platform-wide metrics snapshot for the
// engineering dashboard.
func GetPlatformMetrics(c echo.Context) error {
	log := logger.FromContext(c)

	metrics, err := telemetryClient.PlatformMetrics(c.Request().Context())
	if err != nil {
		log.Error("Failed to fetch platform metrics", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, metrics)
}

// GetTenantUsage aggregates per-tenant footprint for the engineering
// dashboard: app counts from the registry joined with per-app telemetry.
// Telemetry failures for individual apps degrade to registry-only numbers
// rather than failing the whole report.
func GetTenantUsage(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenants []model.Tenant
	if result := database.GetDB().Find(&tenants); result.Error != nil {
		log.Error("Failed to list tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	usage := make([]model.TenantUsage, 0, len(tenants))
	for _, tenant := range tenants {
		var apps []model.Application
		if result := database.GetDB().Where("tenant_id = ?", tenant.ID).Find(&apps); result.Error != nil {
			log.Error("Failed to list apps for tenant",
				zap.Uint("tenant_id", tenant.ID),
				zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve apps"})
		}

		entry := model.TenantUsage{
			TenantID:   tenant.ID,
			TenantName: tenant.OrgName,
			Apps:       len(apps),
		}

		sampled := 0
		for _, app := range apps {
			metrics, err := telemetryClient.AppMetrics(ctx, tenant.ID, app.ID)
			if err != nil {
				log.Warn("Skipping app telemetry in usage report",
					zap.Uint("app_id", app.ID),
					zap.Error(err))
				continue
			}
			entry.TotalRequests += metrics.RequestThroughput
			entry.ErrorRate += metrics.ErrorRate
			entry.AvgResponseTime += metrics.AvgResponseTime
			sampled++
		}
		if sampled > 0 {
			entry.ErrorRate /= float64(sampled)
			entry.AvgResponseTime /= float64(sampled)
		}

		usage = append(usage, entry)
	}

	return c.JSON(http.StatusOK, usage)
}
