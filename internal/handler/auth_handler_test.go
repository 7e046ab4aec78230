package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func tenantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "org_name", "org_email"}).
		AddRow(101, "Acme", "admin@acme.com")
}

func userRowsWithPassword(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "tenant_id", "email", "password"}).
		AddRow(3, 101, "dev@acme.com", string(hash))
}

func TestRegister(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows())
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"tenantEmail": "admin@acme.com", "email": "dev@acme.com", "password": "Secret123"}`)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The response must never echo the password or its hash
	assert.NotContains(t, rec.Body.String(), "Secret123")
	assert.NotContains(t, rec.Body.String(), "password")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUnknownTenant(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_name", "org_email"}))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"tenantEmail": "ghost@acme.com", "email": "dev@acme.com", "password": "Secret123"}`)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant not found")
}

func TestRegisterDuplicateUser(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows())
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"tenantEmail": "admin@acme.com", "email": "dev@acme.com", "password": "Secret123"}`)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already registered")
}

func TestRegisterMissingFields(t *testing.T) {
	newMockDB(t)

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"email": "dev@acme.com"}`)

	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRowsWithPassword(t, "Secret123"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"tenantEmail": "admin@acme.com", "email": "dev@acme.com", "password": "Secret123"}`)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token  string `json:"token"`
		Tenant struct {
			ID       uint   `json:"id"`
			OrgEmail string `json:"orgEmail"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, uint(101), body.Tenant.ID)
	assert.Equal(t, "admin@acme.com", body.Tenant.OrgEmail)
}

func TestLoginWrongPassword(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRowsWithPassword(t, "Secret123"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"tenantEmail": "admin@acme.com", "email": "dev@acme.com", "password": "wrong"}`)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginUnknownUserSameResponseAsWrongPassword(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows())
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "email", "password"}))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"tenantEmail": "admin@acme.com", "email": "ghost@acme.com", "password": "Secret123"}`)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Same error body whether the account exists or not
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginUnknownTenant(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_name", "org_email"}))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/login",
		`{"tenantEmail": "ghost@acme.com", "email": "dev@acme.com", "password": "Secret123"}`)

	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}
