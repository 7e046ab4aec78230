package handler

import (
	"errors"
	"net/http"
	"time"

	"cloudle-service/internal/model"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTenant handles tenant creation during registration. Tenants are
// keyed by organization email; the unique constraint on org_email is the
// duplicate check, so concurrent registrations for the same email cannot
// both succeed.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		OrgName  string `json:"orgName"`
		OrgEmail string `json:"orgEmail"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.OrgName == "" || req.OrgEmail == "" {
		log.Error("Invalid tenant data",
			zap.String("org_name", req.OrgName),
			zap.String("org_email", req.OrgEmail))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization name and email are required"})
	}

	tenant := model.Tenant{
		OrgName:  req.OrgName,
		OrgEmail: req.OrgEmail,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Warn("Tenant already exists", zap.String("org_email", req.OrgEmail))
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant already exists"})
		}
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	log.Info("Tenant created",
		zap.Uint("id", tenant.ID),
		zap.String("org_name", tenant.OrgName),
		zap.String("org_email", tenant.OrgEmail))

	return c.JSON(http.StatusCreated, tenant)
}

// TenantExists reports whether a tenant is registered under the given
// organization email. Used by the registration flow before creating users.
func TenantExists(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("exists")

	orgEmail := c.QueryParam("orgEmail")
	if orgEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "orgEmail is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	if result := database.GetDB().Model(&model.Tenant{}).Where("org_email = ?", orgEmail).Count(&count); result.Error != nil {
		log.Error("Failed to check tenant existence", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"exists": count > 0})
}

// GetTenant retrieves tenant details. Tenant scope is enforced by the
// RequireTenantScope middleware, so the id always matches the caller's
// verified tenant.
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("get")

	id := pathTenantID(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		log.Error("Tenant not found", zap.Uint("tenant_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}
