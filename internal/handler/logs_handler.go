package handler

import (
	"net/http"
	"strconv"
	"time"

	"cloudle-service/internal/model"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// GetAppLogs returns recent log entries for an application, most-recent-
// first. The level filter, when supplied, restricts results to exactly
// that level. Each call is an independent snapshot; the dashboard re-polls
// on its own interval and the request context cancels abandoned fetches.
func GetAppLogs(c echo.Context) error {
	log := logger.FromContext(c)

	appIDParam := c.QueryParam("appId")
	appID, err := strconv.ParseUint(appIDParam, 10, 32)
	if err != nil || appID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "appId is required"})
	}

	limit := defaultLogLimit
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	level := c.QueryParam("level")

	// Logs are addressed by appId alone, so tenant scope is enforced
	// against the registry before touching the backend
	tenantID, _ := c.Get("tenant_id").(uint)
	defer prometheus.TrackDBOperation("query")(time.Now())
	var app model.Application
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", appID, tenantID).First(&app); result.Error != nil {
		log.Warn("App not found for logs",
			zap.Uint64("app_id", appID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
	}

	entries, err := telemetryClient.AppLogs(c.Request().Context(), app.ID, limit, level)
	if err != nil {
		log.Error("Failed to fetch app logs",
			zap.Uint("app_id", app.ID),
			zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, entries)
}
