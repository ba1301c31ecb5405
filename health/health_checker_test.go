package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/store"
)

type fakeScans struct{ last time.Time }

func (f fakeScans) LastScan() time.Time { return f.last }

type failingCounter struct{}

func (failingCounter) Counts(context.Context) (map[string]int64, error) {
	return nil, assert.AnError
}

func checkHealth(t *testing.T, c *Checker) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.Handler()(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthy(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := store.NewRegistry(db)
	_, err = registry.Customers.Create(context.Background(), &entities.Customers{})
	require.NoError(t, err)

	c := NewChecker(db, registry, fakeScans{last: time.Now()})
	code, body := checkHealth(t, c)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["database"])
	records := data["records"].(map[string]any)
	assert.Equal(t, float64(1), records[entities.ResourceCustomers])
	assert.Equal(t, float64(0), records[entities.ResourceMedicines])
}

func TestUnhealthyWhenDatabaseUnreachable(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	registry := store.NewRegistry(db)
	require.NoError(t, db.Close())

	c := NewChecker(db, registry, nil)
	code, body := checkHealth(t, c)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestDegradedWhenCountsFail(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewChecker(db, failingCounter{}, nil)
	code, body := checkHealth(t, c)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
}

func TestDegradedWhenScanStale(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewChecker(db, store.NewRegistry(db), fakeScans{last: time.Now().Add(-72 * time.Hour)})
	code, body := checkHealth(t, c)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
}

func TestZeroScanTimeIsNotStale(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewChecker(db, store.NewRegistry(db), fakeScans{})
	_, body := checkHealth(t, c)
	assert.Equal(t, "healthy", body["status"])
}
