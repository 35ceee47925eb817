package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printbridge/internal/status"
)

type fakeLister struct {
	names []string
	err   error
}

func (f *fakeLister) AvailablePrinters() ([]string, error) {
	return f.names, f.err
}

func statusRouter(t *testing.T, st *status.Service, lister PrinterLister) *gin.Engine {
	t.Helper()

	env := newTestEnv(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewStatusHandler(st, env.service, lister)
	h.RegisterRoutes(r, r.Group("/api"))
	return r
}

func TestHealth(t *testing.T) {
	st := status.NewService()
	st.Set(status.Running, "")
	r := statusRouter(t, st, &fakeLister{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string `json:"status"`
		Service   string `json:"service"`
		State     string `json:"state"`
		Office    bool   `json:"office"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "printbridge", resp.Service)
	assert.Equal(t, "running", resp.State)
	assert.True(t, resp.Office)
	assert.Positive(t, resp.Timestamp)
}

func TestGetStatus(t *testing.T) {
	st := status.NewService()
	st.Set(status.Error, "failed to bind :8281")
	r := statusRouter(t, st, &fakeLister{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"error"`)
	assert.Contains(t, w.Body.String(), "failed to bind :8281")
}

func TestGetPrinters(t *testing.T) {
	r := statusRouter(t, status.NewService(), &fakeLister{names: []string{"Basement", "Office_Laser"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/printers", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Printers []string `json:"printers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Basement", "Office_Laser"}, resp.Printers)
}

func TestGetPrintersFailure(t *testing.T) {
	r := statusRouter(t, status.NewService(), &fakeLister{err: errors.New("cups unreachable")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/printers", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
