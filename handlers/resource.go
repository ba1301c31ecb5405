package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/logging"
	"github.com/hmpharma/pharmacy-api/store"
	"github.com/hmpharma/pharmacy-api/validation"
)

// record mirrors the store's pointer-to-struct constraint.
type record[U any] interface {
	entities.Record
	*U
}

// Resource serves the REST endpoints of one entity type. The eleven resources
// differ only in entity shape, so a single generic implementation is
// instantiated per type.
type Resource[U any, T record[U]] struct {
	store    *store.Store[U, T]
	validate *validation.Validator
}

// NewResource creates the HTTP resource backed by st.
func NewResource[U any, T record[U]](st *store.Store[U, T], v *validation.Validator) *Resource[U, T] {
	return &Resource[U, T]{store: st, validate: v}
}

// Register mounts the resource under /api/<resource> on r.
func (res *Resource[U, T]) Register(r chi.Router) {
	r.Route("/api/"+res.store.Resource(), func(r chi.Router) {
		r.Get("/", res.list)
		r.Get("/_search", res.search)
		r.Post("/", res.create)
		r.Get("/{id}", res.get)
		r.Put("/{id}", res.update)
		r.Patch("/{id}", res.patch)
		r.Delete("/{id}", res.remove)
	})
}

// list serves GET /api/<resource>?sort=field,dir&cacheBuster=<ts>. The
// cacheBuster parameter is accepted and ignored.
func (res *Resource[U, T]) list(w http.ResponseWriter, r *http.Request) {
	spec := entities.ParseSort(r.URL.Query().Get("sort"))

	recs, err := res.store.List(r.Context(), spec)
	if err != nil {
		logging.Error("List failed", "resource", res.store.Resource(), "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to list "+res.store.Resource())
		return
	}
	if recs == nil {
		recs = []T{}
	}
	RespondWithJSON(w, http.StatusOK, recs)
}

// search serves GET /api/<resource>/_search?query=<q>. An empty query falls
// back to a plain list.
func (res *Resource[U, T]) search(w http.ResponseWriter, r *http.Request) {
	spec := entities.ParseSort(r.URL.Query().Get("sort"))
	query := r.URL.Query().Get("query")

	recs, err := res.store.Search(r.Context(), query, spec)
	if err != nil {
		logging.Error("Search failed", "resource", res.store.Resource(), "query", query, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to search "+res.store.Resource())
		return
	}
	if recs == nil {
		recs = []T{}
	}
	RespondWithJSON(w, http.StatusOK, recs)
}

func (res *Resource[U, T]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := res.pathID(w, r)
	if !ok {
		return
	}

	rec, err := res.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, res.store.Resource()+" not found")
		return
	}
	if err != nil {
		logging.Error("Get failed", "resource", res.store.Resource(), "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to get "+res.store.Resource())
		return
	}
	RespondWithJSON(w, http.StatusOK, rec)
}

func (res *Resource[U, T]) create(w http.ResponseWriter, r *http.Request) {
	rec, ok := res.decodeBody(w, r)
	if !ok {
		return
	}
	if err := res.validate.ValidateCreate(rec); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := res.store.Create(r.Context(), rec)
	if err != nil {
		logging.Error("Create failed", "resource", res.store.Resource(), "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to create "+res.store.Resource())
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/%s/%d", res.store.Resource(), *created.GetID()))
	RespondWithJSON(w, http.StatusCreated, created)
}

func (res *Resource[U, T]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := res.pathID(w, r)
	if !ok {
		return
	}
	rec, ok := res.decodeBody(w, r)
	if !ok {
		return
	}
	if err := res.validate.ValidateUpdate(rec, id); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := res.store.Update(r.Context(), rec)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, res.store.Resource()+" not found")
		return
	}
	if err != nil {
		logging.Error("Update failed", "resource", res.store.Resource(), "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to update "+res.store.Resource())
		return
	}
	RespondWithJSON(w, http.StatusOK, updated)
}

func (res *Resource[U, T]) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := res.pathID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	rec, ok := res.decodeBytes(w, body)
	if !ok {
		return
	}
	if err := res.validate.ValidatePatch(rec, id); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The merged record is validated before anything is written.
	var fieldErr error
	merged, err := res.store.Patch(r.Context(), id, body, func(m T) error {
		fieldErr = res.validate.ValidateRecord(m)
		return fieldErr
	})
	if fieldErr != nil {
		RespondWithError(w, http.StatusBadRequest, fieldErr.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, res.store.Resource()+" not found")
		return
	}
	if err != nil {
		logging.Error("Patch failed", "resource", res.store.Resource(), "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to update "+res.store.Resource())
		return
	}
	RespondWithJSON(w, http.StatusOK, merged)
}

func (res *Resource[U, T]) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := res.pathID(w, r)
	if !ok {
		return
	}

	err := res.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, res.store.Resource()+" not found")
		return
	}
	if err != nil {
		logging.Error("Delete failed", "resource", res.store.Resource(), "id", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "failed to delete "+res.store.Resource())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (res *Resource[U, T]) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		logging.Warn("Unusual user input", "resource", res.store.Resource(), "id", raw)
		RespondWithError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (res *Resource[U, T]) decodeBody(w http.ResponseWriter, r *http.Request) (T, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var zero T
		RespondWithError(w, http.StatusBadRequest, "failed to read request body")
		return zero, false
	}
	return res.decodeBytes(w, body)
}

func (res *Resource[U, T]) decodeBytes(w http.ResponseWriter, body []byte) (T, bool) {
	rec := T(new(U))
	if err := decodeJSON(body, rec); err != nil {
		var zero T
		RespondWithError(w, http.StatusBadRequest, "invalid "+res.store.Resource()+" payload")
		return zero, false
	}
	return rec, true
}
