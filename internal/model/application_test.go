package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRuntime(t *testing.T) {
	assert.True(t, ValidRuntime(RuntimePHP))
	assert.True(t, ValidRuntime(RuntimeNodeJS))
	assert.True(t, ValidRuntime(RuntimeDotNet))
	assert.False(t, ValidRuntime("java"))
	assert.False(t, ValidRuntime(""))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusRunning))
	assert.True(t, ValidStatus(StatusStopped))
	assert.False(t, ValidStatus("starting"))
	assert.False(t, ValidStatus(""))
}

func TestApplicationURLDerivedFromAppID(t *testing.T) {
	app := Application{ID: 1042}
	assert.Equal(t, "https://apps.cloudle.local/apps/1042/", app.URL("apps.cloudle.local"))
}

func TestRouteListRoundTrip(t *testing.T) {
	routes := RouteList{"/", "/api", "/static"}

	value, err := routes.Value()
	require.NoError(t, err)

	var decoded RouteList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, routes, decoded)
}

func TestRouteListScanNil(t *testing.T) {
	var routes RouteList
	require.NoError(t, routes.Scan(nil))
	assert.Empty(t, routes)
}

func TestRouteListValueNilEncodesEmptyArray(t *testing.T) {
	var routes RouteList
	value, err := routes.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}

func TestRouteListScanRejectsUnsupportedType(t *testing.T) {
	var routes RouteList
	assert.Error(t, routes.Scan(42))
}
