package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloudle-service/pkg/config"
	"cloudle-service/pkg/database"
	"cloudle-service/pkg/jwtutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "handler-test-key", ExpirationHours: 1})
}

// newMockDB installs a sqlmock-backed gorm connection as the global DB.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	database.SetDB(db)
	t.Cleanup(func() {
		database.SetDB(nil)
		sqlDB.Close()
	})

	return mock
}

// initHandlers points the handler package at a test configuration. The
// telemetry base URL may be an httptest server standing in for the backend.
func initHandlers(t *testing.T, telemetryURL string) {
	t.Helper()
	Init(&config.Config{
		Telemetry: config.TelemetryConfig{BaseURL: telemetryURL, Timeout: time.Second},
		Apps: config.AppsConfig{
			Domain:         "apps.cloudle.local",
			UploadDir:      t.TempDir(),
			MaxUploadBytes: 1 << 20,
		},
	})
}

// newJSONContext builds an echo context carrying a JSON body.
func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func setTenantScope(c echo.Context, tenantID string) {
	c.SetParamNames("tenantId")
	c.SetParamValues(tenantID)
	c.Set("tenant_id", mustUint(tenantID))
}

func setTenantAppScope(c echo.Context, tenantID, appID string) {
	c.SetParamNames("tenantId", "appId")
	c.SetParamValues(tenantID, appID)
	c.Set("tenant_id", mustUint(tenantID))
}

func mustUint(s string) uint {
	var v uint
	for _, r := range s {
		v = v*10 + uint(r-'0')
	}
	return v
}

func appColumns() []string {
	return []string{"id", "tenant_id", "owner_user_id", "name", "runtime", "status", "ssl_status", "routes", "created_at", "updated_at", "deleted_at"}
}

func appRow(mockRows *sqlmock.Rows, id, tenantID, ownerID int, name, runtime, status, sslStatus string) *sqlmock.Rows {
	now := time.Now()
	return mockRows.AddRow(id, tenantID, ownerID, name, runtime, status, sslStatus, []byte(`[]`), now, now, nil)
}
