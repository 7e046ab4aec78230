package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cloudle-service/internal/model"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppRequest defines the structure for application creation requests
type AppRequest struct {
	Name        string `json:"name"`
	Runtime     string `json:"runtime"`
	OwnerUserID uint   `json:"ownerUserId"`
}

// AppPatchRequest defines the structure for partial application updates.
// Nil fields are left untouched; the status field is the lifecycle toggle.
type AppPatchRequest struct {
	Name    *string `json:"name,omitempty"`
	Runtime *string `json:"runtime,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// AppResponse is an application record plus its derived public URL.
type AppResponse struct {
	model.Application
	AppURL string `json:"appUrl"`
}

func appResponse(app model.Application) AppResponse {
	return AppResponse{Application: app, AppURL: app.URL(appsCfg.Domain)}
}

func pathTenantID(c echo.Context) uint {
	// RequireTenantScope has already validated the parameter
	id, _ := strconv.ParseUint(c.Param("tenantId"), 10, 32)
	return uint(id)
}

// CreateApp deploys a new application under a tenant. The owner must be a
// user of the same tenant; the app starts in the stopped state.
func CreateApp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("create")
	tenantID := pathTenantID(c)

	var req AppRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid app creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !model.ValidRuntime(req.Runtime) {
		log.Warn("Unsupported runtime requested", zap.String("runtime", req.Runtime))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "runtime must be one of php, nodejs, dotnet"})
	}
	if req.OwnerUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ownerUserId is required"})
	}

	// The owning user must belong to the same tenant
	defer prometheus.TrackDBOperation("query")(time.Now())
	var owner model.User
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", req.OwnerUserID, tenantID).First(&owner); result.Error != nil {
		log.Error("Owner user not found in tenant",
			zap.Uint("owner_user_id", req.OwnerUserID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "owner user not found"})
	}

	app := model.Application{
		TenantID:    tenantID,
		OwnerUserID: req.OwnerUserID,
		Name:        req.Name,
		Runtime:     req.Runtime,
		Status:      model.StatusStopped,
		SSLStatus:   model.SSLInactive,
		Routes:      model.RouteList{},
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&app); result.Error != nil {
		log.Error("Failed to create app",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create app"})
	}

	log.Info("Application created",
		zap.Uint("app_id", app.ID),
		zap.Uint("tenant_id", tenantID),
		zap.String("name", app.Name),
		zap.String("runtime", app.Runtime))

	return c.JSON(http.StatusCreated, appResponse(app))
}

// ListApps returns all applications belonging to the tenant
func ListApps(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("list")
	tenantID := pathTenantID(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var apps []model.Application
	if result := database.GetDB().Where("tenant_id = ?", tenantID).Find(&apps); result.Error != nil {
		log.Error("Failed to list apps",
			zap.Uint("tenant_id", tenantID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve apps"})
	}

	responses := make([]AppResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, appResponse(app))
	}

	return c.JSON(http.StatusOK, responses)
}

// GetApp retrieves a single application. The lookup is always scoped to
// the tenant: a valid appId under the wrong tenant is a plain not-found,
// never a leak.
func GetApp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("get")
	tenantID := pathTenantID(c)
	appID := c.Param("appId")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var app model.Application
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", appID, tenantID).First(&app); result.Error != nil {
		log.Warn("App not found",
			zap.String("app_id", appID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
	}

	return c.JSON(http.StatusOK, appResponse(app))
}

// UpdateApp applies a partial patch to an application and returns the full
// updated record. The row is locked for the duration of the transaction so
// two concurrent status toggles serialize instead of racing; no
// half-applied state is ever visible.
func UpdateApp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("update")
	tenantID := pathTenantID(c)
	appID := c.Param("appId")

	var req AppPatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid app update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil && *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
	}
	if req.Runtime != nil && !model.ValidRuntime(*req.Runtime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "runtime must be one of php, nodejs, dotnet"})
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be running or stopped"})
	}

	var app model.Application
	notFound := false

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Row lock serializes concurrent writers per appId
		if result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", appID, tenantID).
			First(&app); result.Error != nil {
			notFound = true
			return result.Error
		}

		if req.Name != nil {
			app.Name = *req.Name
		}
		if req.Runtime != nil {
			app.Runtime = *req.Runtime
		}
		if req.Status != nil && *req.Status != app.Status {
			applyStatusTransition(&app, *req.Status, log)
		}

		return tx.Save(&app).Error
	})
	if err != nil {
		if notFound {
			log.Warn("App not found for update",
				zap.String("app_id", appID),
				zap.Uint("tenant_id", tenantID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
		}
		log.Error("Failed to update app",
			zap.String("app_id", appID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update app"})
	}

	log.Info("Application updated",
		zap.Uint("app_id", app.ID),
		zap.Uint("tenant_id", tenantID),
		zap.String("status", app.Status))

	return c.JSON(http.StatusOK, appResponse(app))
}

// applyStatusTransition sets the new lifecycle state and its side effects:
// running makes the app URL reachable and activates SSL, stopped reverses
// both. The caller computes the target state; the transition itself is a
// plain set.
func applyStatusTransition(app *model.Application, target string, log *zap.Logger) {
	app.Status = target
	if target == model.StatusRunning {
		app.SSLStatus = model.SSLActive
		prometheus.RecordAppOperation("start")
		prometheus.RunningAppsGauge.Inc()
		log.Info("Application starting",
			zap.Uint("app_id", app.ID),
			zap.String("path", fmt.Sprintf("/apps/%d/", app.ID)))
	} else {
		app.SSLStatus = model.SSLInactive
		prometheus.RecordAppOperation("stop")
		prometheus.RunningAppsGauge.Dec()
		log.Info("Application stopping", zap.Uint("app_id", app.ID))
	}
}

// DeleteApp removes an application permanently. Deletion is irreversible.
func DeleteApp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("delete")
	tenantID := pathTenantID(c)
	appID := c.Param("appId")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ? AND tenant_id = ?", appID, tenantID).Delete(&model.Application{})
	if result.Error != nil {
		log.Error("Failed to delete app",
			zap.String("app_id", appID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete app"})
	}
	if result.RowsAffected == 0 {
		log.Warn("App not found for deletion",
			zap.String("app_id", appID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
	}

	log.Info("Application deleted",
		zap.String("app_id", appID),
		zap.Uint("tenant_id", tenantID))

	return c.NoContent(http.StatusNoContent)
}

// UploadApp stores an uploaded application archive for a tenant app. The
// body is capped at the configured size; oversized uploads fail cleanly.
func UploadApp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAppOperation("upload")
	tenantID := pathTenantID(c)
	appID := c.Param("appId")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var app model.Application
	if result := database.GetDB().Where("id = ? AND tenant_id = ?", appID, tenantID).First(&app); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
	}

	body := http.MaxBytesReader(c.Response(), c.Request().Body, appsCfg.MaxUploadBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		log.Error("Failed to read upload body",
			zap.Uint("app_id", app.ID),
			zap.Error(err))
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "upload too large"})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty upload"})
	}

	if err := os.MkdirAll(appsCfg.UploadDir, 0o755); err != nil {
		log.Error("Failed to create upload directory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	target := filepath.Join(appsCfg.UploadDir, fmt.Sprintf("app_%d.zip", app.ID))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Error("Failed to store upload",
			zap.String("target", target),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	log.Info("Application archive uploaded",
		zap.Uint("app_id", app.ID),
		zap.Int("bytes", len(data)))

	return c.JSON(http.StatusOK, echo.Map{"message": "upload stored"})
}
