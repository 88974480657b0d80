package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattplan/wattplan/internal/engine"
	"github.com/wattplan/wattplan/internal/store"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := NewServer(st, nil, slog.New(slog.DiscardHandler))
	return srv, srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestDeviceCRUD(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/devices", engine.Device{
		Name:          "Air Conditioner",
		Type:          "Air Conditioner",
		Watts:         1500,
		BaselineHours: 8,
		Priority:      3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created engine.Device
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID, "server assigns an id")
	assert.Equal(t, engine.FrequencyDaily, created.Frequency, "frequency defaults to daily")

	rec = doJSON(t, h, http.MethodGet, "/api/devices/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	created.BaselineHours = 6
	rec = doJSON(t, h, http.MethodPut, "/api/devices/"+created.ID, created)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var devices []engine.Device
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&devices))
	require.Len(t, devices, 1)
	assert.Equal(t, 6.0, devices[0].BaselineHours)

	rec = doJSON(t, h, http.MethodDelete, "/api/devices/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/devices/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDeviceValidation(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/devices", engine.Device{Name: "No Watts"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/devices", engine.Device{Watts: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/settings", store.Settings{
		MonthlyBudget: 45000,
		PricePerKWh:   225,
		Latitude:      6.5244,
		Longitude:     3.3792,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings store.Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.Equal(t, 45000.0, settings.MonthlyBudget)
	assert.Equal(t, 225.0, settings.PricePerKWh)
}

func TestGetPlanValidation(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/plans/fastest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/plans/cost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no plan generated yet")
}

func TestGeneratePlansRequiresSetup(t *testing.T) {
	srv, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/plans/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no settings yet")

	require.NoError(t, srv.store.SaveSettings(&store.Settings{
		MonthlyBudget: 45000,
		PricePerKWh:   225,
	}))

	rec = doJSON(t, h, http.MethodPost, "/api/plans/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no devices yet")
}
