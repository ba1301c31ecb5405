package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/store"
	"github.com/hmpharma/pharmacy-api/validation"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "pharmacy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	v := validation.New()
	r := chi.NewRouter()
	NewResource(store.New[entities.Customers](db, entities.ResourceCustomers), v).Register(r)
	NewResource(store.New[entities.Medicines](db, entities.ResourceMedicines), v).Register(r)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeList[T any](t *testing.T, rec *httptest.ResponseRecorder) []T {
	t.Helper()
	var out []T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCustomerLifecycle(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers",
		map[string]any{"name": "Alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotNil(t, created.ID)
	assert.Equal(t, fmt.Sprintf("/api/customers/%d", *created.ID), resp.Header().Get("Location"))

	resp = doRequest(t, r, http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeList[entities.Customers](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", *list[0].Name)

	resp = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/customers/%d", *created.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/customers/%d", *created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateWithPresetIDRejected(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers",
		map[string]any{"id": 7, "name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "error")
}

func TestCreateInvalidPayload(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers",
		map[string]any{"name": "Alice", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateIDRules(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := *created.ID

	// Body id must match the path id.
	resp = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/customers/%d", id),
		map[string]any{"id": id + 1, "name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Body id must be present.
	resp = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/customers/%d", id),
		map[string]any{"name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/customers/%d", id),
		map[string]any{"id": id, "name": "Alice Updated"})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Alice Updated", *updated.Name)
}

func TestUpdateMissingRecord(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPut, "/api/customers/99",
		map[string]any{"id": 99, "name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPatchSkipsNullFields(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers",
		map[string]any{"name": "Alice", "phone": "555-0100", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := *created.ID

	resp = doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/customers/%d", id),
		map[string]any{"id": id, "phone": "555-0199", "email": nil})
	require.Equal(t, http.StatusOK, resp.Code)

	var patched entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &patched))
	assert.Equal(t, "555-0199", *patched.Phone)
	require.NotNil(t, patched.Email)
	assert.Equal(t, "alice@example.com", *patched.Email)
	assert.Equal(t, "Alice", *patched.Name)
}

func TestPatchRejectsInvalidMergedRecord(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPost, "/api/customers", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := *created.ID

	resp = doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/customers/%d", id),
		map[string]any{"id": id, "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Nothing was written.
	resp = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stored entities.Customers
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stored))
	assert.Nil(t, stored.Email)
}

func TestPatchMissingRecord(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodPatch, "/api/customers/42",
		map[string]any{"id": 42, "name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListEmptyReturnsArray(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}

func TestListSorted(t *testing.T) {
	r := newTestRouter(t)

	for _, name := range []string{"Paracetamol", "Amoxicillin", "Ibuprofen"} {
		resp := doRequest(t, r, http.MethodPost, "/api/medicines", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := doRequest(t, r, http.MethodGet, "/api/medicines?sort=name,asc&cacheBuster=123", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeList[entities.Medicines](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "Amoxicillin", *list[0].Name)
	assert.Equal(t, "Ibuprofen", *list[1].Name)
	assert.Equal(t, "Paracetamol", *list[2].Name)
}

func TestSearchIgnoresCaseAndAccents(t *testing.T) {
	r := newTestRouter(t)

	for _, name := range []string{"Doliprane Bébé", "Aspirine"} {
		resp := doRequest(t, r, http.MethodPost, "/api/medicines", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := doRequest(t, r, http.MethodGet, "/api/medicines/_search?query=BEBE", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeList[entities.Medicines](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Doliprane Bébé", *list[0].Name)

	// An empty query behaves as a plain list.
	resp = doRequest(t, r, http.MethodGet, "/api/medicines/_search?query=", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeList[entities.Medicines](t, resp), 2)
}

func TestInvalidPathID(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/customers/abc", "/api/customers/0", "/api/customers/-3"} {
		resp := doRequest(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, path)
	}
}

func TestResponseHeaders(t *testing.T) {
	r := newTestRouter(t)

	resp := doRequest(t, r, http.MethodGet, "/api/customers", nil)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.NotEmpty(t, resp.Header().Get("Last-Modified"))
}
