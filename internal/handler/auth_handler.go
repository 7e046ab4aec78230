package handler

import (
	"errors"
	"net/http"
	"time"

	"cloudle-service/internal/model"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/jwtutil"
	"cloudle-service/pkg/logger"
	"cloudle-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the user record is missing, so a
// failed login takes the same time whether or not the account exists.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("cloudle-dummy-password"), bcrypt.DefaultCost)
	return h
}()

// Register creates a user under an existing tenant. The password is
// hashed with bcrypt before storage; the plaintext is never persisted.
// Duplicate detection rides on the (tenant_id, email) unique constraint.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		TenantEmail string `json:"tenantEmail"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantEmail == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("tenant_email", req.TenantEmail),
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenantEmail, email and password are required"})
	}

	// The tenant must exist before any user can register under it
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().Where("org_email = ?", req.TenantEmail).First(&tenant); result.Error != nil {
		log.Error("Unknown tenant for registration", zap.String("tenant_email", req.TenantEmail))
		prometheus.RecordAuthError("unknown_tenant")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		TenantID: tenant.ID,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Warn("User already exists",
				zap.String("tenant_email", req.TenantEmail),
				zap.String("email", req.Email))
			prometheus.RecordAuthError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user": map[string]interface{}{
			"id":        user.ID,
			"email":     user.Email,
			"tenant_id": user.TenantID,
		},
	})
}

// Login authenticates a (tenant, user, password) triple and issues a
// signed, time-limited session token. Failures are uniform "invalid
// credentials" regardless of which lookup failed.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		TenantEmail string `json:"tenantEmail"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantEmail == "" || req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenantEmail, email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().Where("org_email = ?", req.TenantEmail).First(&tenant); result.Error != nil {
		log.Error("Login against unknown tenant", zap.String("tenant_email", req.TenantEmail))
		prometheus.RecordAuthError("invalid_tenant")
		// Burn a hash comparison so unknown tenants are indistinguishable
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var user model.User
	if result := database.GetDB().Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&user); result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// bcrypt comparison is constant-time over the hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, tenant.ID, tenant.OrgEmail, tenant.OrgName)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("tenant_name", tenant.OrgName))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
		"tenant": map[string]interface{}{
			"id":       tenant.ID,
			"orgName":  tenant.OrgName,
			"orgEmail": tenant.OrgEmail,
		},
	})
}
