package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmpharma/pharmacy-api/config"
	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/handlers"
	"github.com/hmpharma/pharmacy-api/health"
	"github.com/hmpharma/pharmacy-api/logging"
	"github.com/hmpharma/pharmacy-api/store"
	"github.com/hmpharma/pharmacy-api/validation"
)

func TestMain(m *testing.M) {
	if _, err := logging.InitLogger("error", ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            "test",
		LogLevel:       "error",
		DBPath:         "pharmacy_test.db",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		RatePerSec:     1000,
		RateBurst:      1000,
		ExpiryWarnDays: 30,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := store.NewRegistry(db)
	v := validation.New()
	resources := []RouteRegistrar{
		handlers.NewResource(store.New[entities.Customers](db, entities.ResourceCustomers), v),
	}
	checker := health.NewChecker(db, registry, nil)
	return NewServer(cfg, resources, checker.Handler())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request")
}

func TestResourceRoutesMounted(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRateLimitHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSec = 0.001
	cfg.RateBurst = 2
	srv := newTestServer(t, cfg)

	// Burst of 2 tokens pays for one GET (cost 2); the next request is refused.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
		req.RemoteAddr = "10.1.2.3:1234"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitPerClient(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSec = 0.001
	cfg.RateBurst = 2
	srv := newTestServer(t, cfg)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBody = 64
	srv := newTestServer(t, cfg)

	body := bytes.Repeat([]byte("x"), 256)
	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewReader(body))
	req.Header.Set("Content-Length", "256")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRealIPMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	RealIPMiddleware(inner).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", seen)
}

func TestTokenCost(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   int64
	}{
		{http.MethodGet, "/health", 1},
		{http.MethodGet, "/metrics", 1},
		{http.MethodGet, "/api/customers", 2},
		{http.MethodGet, "/api/customers/_search", 5},
		{http.MethodPost, "/api/customers", 5},
		{http.MethodDelete, "/api/customers/1", 5},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, tokenCost(req), "%s %s", tt.method, tt.path)
	}
}
