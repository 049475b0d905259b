package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devharshthakur/rdns.toys/geo"
	"github.com/devharshthakur/rdns.toys/toys"
)

func testAdmin(t *testing.T) http.Handler {
	t.Helper()

	locations, err := geo.Load(sampleGeoData)
	require.NoError(t, err)
	index := geo.NewIndex(locations)

	registry := toys.NewRegistry("example", nil)
	require.NoError(t, registry.Register("geo", toys.NewGeoService(index)))
	require.NoError(t, registry.Register("pi", toys.NewPiService()))

	a := &adminServer{registry: registry, index: index, started: time.Now()}
	return a.router()
}

func TestAdminHealthcheck(t *testing.T) {
	h := testAdmin(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status    string `json:"status"`
		Locations int    `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 10, body.Locations)
}

func TestAdminServices(t *testing.T) {
	h := testAdmin(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Services []string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"geo", "help", "ip", "pi"}, body.Services)
}

func TestAdminDump(t *testing.T) {
	h := testAdmin(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services/geo/dump", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10 locations")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services/nope/dump", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
