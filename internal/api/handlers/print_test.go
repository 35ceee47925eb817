package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printbridge/internal/bridge"
	"printbridge/internal/config"
	"printbridge/internal/fetch"
	"printbridge/internal/queue"
)

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, sourceURL string) (string, error) {
	tmp, err := os.CreateTemp("", "converted_*.pdf")
	if err != nil {
		return "", err
	}
	tmp.Close()
	return tmp.Name(), nil
}

type stubOffice struct {
	stubConverter
	available bool
}

func (s stubOffice) Available() bool { return s.available }

type stubPrinter struct{}

func (stubPrinter) Print(docPath string, job queue.Job, interactive bool) (bool, error) {
	return true, nil
}

type testEnv struct {
	router  *gin.Engine
	service *bridge.Service
	queue   *queue.Model
	docURL  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	t.Cleanup(srv.Close)

	fetcher := fetch.NewClient(&config.FetchConfig{
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	})

	model := queue.NewModel()
	service := bridge.NewService(model, fetcher, stubConverter{}, stubOffice{available: true}, stubPrinter{}, nil, zap.NewNop())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPrintHandler(service, zap.NewNop()).RegisterRoutes(router)

	return &testEnv{
		router:  router,
		service: service,
		queue:   model,
		docURL:  srv.URL + "/invoice.pdf",
	}
}

func (e *testEnv) post(body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/print", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func TestSubmitBatchAccepted(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`[{"fileUrl":"` + env.docURL + `","fileName":"invoice","landscape":true}]`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"accepted":1`)

	env.service.Wait()
	require.Equal(t, 1, env.queue.Size())

	job := env.queue.Succeeded()[0]
	assert.Equal(t, "invoice", job.DisplayName)
	assert.True(t, job.Landscape)
	assert.NotEmpty(t, job.ID)
	assert.False(t, job.SubmittedAt.IsZero())
}

func TestSubmitBatchTrimsURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`[{"fileUrl":"  ` + env.docURL + `  "}]`)

	require.Equal(t, http.StatusOK, w.Code)
	env.service.Wait()
	require.Equal(t, 1, env.queue.Size())
	assert.Equal(t, env.docURL, env.queue.Succeeded()[0].SourceURL)
}

func TestSubmitBatchInvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`{"fileUrl":"not-an-array"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid print data")
}

func TestSubmitBatchEmptyArray(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`[]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestSubmitBatchMissingFileURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`[{"fileName":"no-url"}]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBatchBlankFileURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(`[{"fileUrl":"   "}]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.service.Wait()
	assert.True(t, env.queue.IsEmpty())
}
