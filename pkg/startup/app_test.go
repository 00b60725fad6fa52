package startup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppName:            "fern-test",
		Version:            "test",
		StoreDriver:        config.StoreDriverMemory,
		StartupMaxAttempts: 1,
		AllowOrigins:       []string{"*"},
		AllowMethods:       []string{http.MethodGet, http.MethodPost},
		OTLPProtocol:       "grpc",
	}
}

func newTestServer(t *testing.T) (*App, *echo.Echo) {
	t.Helper()
	ctx := context.Background()

	app, err := New(ctx, memoryConfig(), ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(ctx) })

	e, err := app.Server(ctx)
	require.NoError(t, err)
	return app, e
}

func TestMemoryAppServesIdentityRoutes(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/masters", strings.NewReader(`{"name":"Bench Press"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderUserID, "owner-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var master models.MasterExercise
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &master))
	assert.Equal(t, "bench press", master.NormalizedName)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestMemoryAppRequiresOwnerHeader(t *testing.T) {
	_, e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/masters/all", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RequestID)
}

func TestReadinessFollowsRunState(t *testing.T) {
	app, e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	app.Health.SetReady(true)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, health.StatusHealthy, body.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/masters/all", nil)
	req.Header.Set(middleware.HeaderUserID, "owner-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fern_http_requests_total")
}

func TestTracingConfig(t *testing.T) {
	cfg := memoryConfig()
	assert.Equal(t, "log", TracingConfig(cfg).Exporter)

	cfg.OTLPEnabled = true
	cfg.OTLPEndpoint = "collector:4317"
	tc := TracingConfig(cfg)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "collector:4317", tc.OTLP.Endpoint)
}

func TestDatabaseConfig(t *testing.T) {
	cfg := &config.Config{DatabaseDriver: "postgres", DatabaseHost: "db", DatabasePort: "5432", DatabaseName: "fern", DatabaseSSLMode: "disable"}

	dsn := DatabaseConfig(cfg).DSN()

	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "dbname=fern")
}
