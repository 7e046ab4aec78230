// Package handler contains the HTTP handlers for the Cloudle control-plane
// API: tenant registry, user directory, tenant-scoped application registry
// with lifecycle control, and the metrics/log gateway endpoints.
package handler

import (
	"errors"
	"net/http"

	"cloudle-service/internal/apperror"
	"cloudle-service/internal/telemetry"
	"cloudle-service/pkg/config"

	"github.com/labstack/echo/v4"
)

var (
	telemetryClient *telemetry.Client
	appsCfg         config.AppsConfig
)

// Init wires the handlers to the service configuration and the telemetry
// backend client. Must be called once before the server starts.
func Init(cfg *config.Config) {
	telemetryClient = telemetry.NewClient(&cfg.Telemetry)
	appsCfg = cfg.Apps
}

// respondError maps an apperror to its JSON shape and HTTP status. Upstream
// failures carry a retryable flag so the dashboard can render a retry
// affordance instead of crashing.
func respondError(c echo.Context, err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		body := echo.Map{"error": ae.Message, "kind": string(ae.Kind)}
		if ae.Retryable() {
			body["retryable"] = true
		}
		return c.JSON(ae.HTTPStatus(), body)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
