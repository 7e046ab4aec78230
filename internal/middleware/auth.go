package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"cloudle-service/pkg/jwtutil"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header.
// The token's claims are the only authorization authority: client-held
// flags are never trusted.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store the verified identity in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("tenant_id", claims.TenantID)
		c.Set("tenant_email", claims.TenantEmail)
		c.Set("tenant_name", claims.TenantName)

		log.Debug("Request authenticated",
			zap.Uint("user_id", claims.UserID),
			zap.Uint("tenant_id", claims.TenantID))

		return next(c)
	}
}

// RequireTenantScope ensures the :tenantId path parameter matches the
// tenant asserted by the verified token. Cross-tenant access is refused
// before any handler runs.
func RequireTenantScope(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		tokenTenantID, ok := c.Get("tenant_id").(uint)
		if !ok {
			log.Error("Missing tenant context on authenticated request")
			prometheus.RecordAuthError("missing_tenant_context")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		pathTenantID, err := strconv.ParseUint(c.Param("tenantId"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
		}

		if uint(pathTenantID) != tokenTenantID {
			log.Warn("Tenant scope violation",
				zap.Uint("token_tenant_id", tokenTenantID),
				zap.Uint64("path_tenant_id", pathTenantID))
			prometheus.RecordAuthError("tenant_scope_violation")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}

		return next(c)
	}
}
