// Package client implements the generic entity client: for one entity type it
// performs the REST operations against /api/<resource> and republishes the
// results as observable state (loading and updating flags, the last-fetched
// list and record, a one-shot update-success signal, and the last error).
//
// One client instance owns one entity type's state slice; instances are
// independent of each other. State settlement is last-settled-wins: when
// overlapping operations race, whichever response arrives last is the one the
// state keeps, regardless of issue order.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/logging"
)

// record mirrors the store's pointer-to-struct constraint.
type record[U any] interface {
	entities.Record
	*U
}

// State is the observable snapshot of one entity type.
type State[T entities.Record] struct {
	Entities      []T    // last-fetched list (list view source)
	Entity        T      // last-fetched or last-mutated record (detail/form source)
	Loading       bool   // a read is in flight
	Updating      bool   // a write is in flight
	UpdateSuccess bool   // the most recent write completed; one-shot navigation signal
	ErrorMessage  string // error from the most recent operation, if any
}

// Client is the entity client for one resource.
type Client[U any, T record[U]] struct {
	httpClient *http.Client
	baseURL    string
	resource   string

	mu    sync.Mutex
	state State[T]
	subs  []func(State[T])

	refreshes sync.WaitGroup
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New creates a client for one resource, e.g.
// New[entities.Customers]("http://localhost:8000", entities.ResourceCustomers).
func New[U any, T record[U]](baseURL, resource string, opts ...Option) *Client[U, T] {
	o := options{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client[U, T]{
		httpClient: o.httpClient,
		baseURL:    baseURL,
		resource:   resource,
	}
	c.state.Entity = T(new(U))
	return c
}

// State returns a snapshot of the current state. The Entities slice is shared;
// treat it as read-only.
func (c *Client[U, T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called with every state change, starting with
// the current state.
func (c *Client[U, T]) Subscribe(fn func(State[T])) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	snapshot := c.state
	c.mu.Unlock()
	fn(snapshot)
}

// Wait blocks until all background list refreshes scheduled by writes have
// settled.
func (c *Client[U, T]) Wait() {
	c.refreshes.Wait()
}

// FetchList requests all records, optionally sorted per spec. The fetched
// list is re-sorted client-side as a safeguard in case the backend ordering
// disagrees; with a zero spec the fetched order is kept. On failure the
// previous list is left unchanged.
func (c *Client[U, T]) FetchList(ctx context.Context, spec entities.SortSpec) ([]T, error) {
	c.beginRead()

	recs, err := c.getList(ctx, c.listURL(spec))
	if err != nil {
		c.settleReadError(err)
		return nil, err
	}
	entities.SortRecords(recs, spec)

	c.apply(func(s *State[T]) {
		s.Loading = false
		s.Entities = recs
	})
	return recs, nil
}

// SearchList requests records matching a free-text query. An empty query
// falls back to FetchList; the search endpoint is never called with an empty
// term.
func (c *Client[U, T]) SearchList(ctx context.Context, query string, spec entities.SortSpec) ([]T, error) {
	if query == "" {
		return c.FetchList(ctx, spec)
	}

	c.beginRead()

	url := fmt.Sprintf("%s/api/%s/_search?query=%s", c.baseURL, c.resource, urlQueryEscape(query))
	if !spec.IsZero() {
		url += "&sort=" + urlQueryEscape(spec.String())
	}
	recs, err := c.getList(ctx, url)
	if err != nil {
		c.settleReadError(err)
		return nil, err
	}
	entities.SortRecords(recs, spec)

	c.apply(func(s *State[T]) {
		s.Loading = false
		s.Entities = recs
	})
	return recs, nil
}

// FetchOne requests a single record by identifier. On failure the previous
// record is left unchanged.
func (c *Client[U, T]) FetchOne(ctx context.Context, id int64) (T, error) {
	c.beginRead()

	rec := T(new(U))
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/api/%s/%d", c.baseURL, c.resource, id), nil, http.StatusOK, rec)
	if err != nil {
		c.settleReadError(err)
		var zero T
		return zero, err
	}

	c.apply(func(s *State[T]) {
		s.Loading = false
		s.Entity = rec
	})
	return rec, nil
}

// Create cleans and POSTs a new record. On success the state's record is the
// backend-returned, identifier-bearing one, UpdateSuccess is set, and one
// background list refresh is scheduled.
func (c *Client[U, T]) Create(ctx context.Context, rec T) (T, error) {
	c.beginWrite()

	body, err := Clean(rec, true)
	if err != nil {
		c.settleWriteError(err)
		var zero T
		return zero, err
	}

	created := T(new(U))
	err = c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/api/%s", c.baseURL, c.resource), body, http.StatusCreated, created)
	if err != nil {
		c.settleWriteError(err)
		var zero T
		return zero, err
	}

	c.settleWrite(created)
	c.scheduleRefresh()
	return created, nil
}

// Update cleans and PUTs the full record; rec must carry an identifier. Same
// success contract as Create.
func (c *Client[U, T]) Update(ctx context.Context, rec T) (T, error) {
	return c.write(ctx, http.MethodPut, rec)
}

// PartialUpdate PATCHes the record; only its non-null fields change
// server-side. Same success contract as Create.
func (c *Client[U, T]) PartialUpdate(ctx context.Context, rec T) (T, error) {
	return c.write(ctx, http.MethodPatch, rec)
}

func (c *Client[U, T]) write(ctx context.Context, method string, rec T) (T, error) {
	var zero T

	c.beginWrite()

	if rec.GetID() == nil {
		err := fmt.Errorf("%s: %s requires a record id", c.resource, method)
		c.settleWriteError(err)
		return zero, err
	}

	body, err := Clean(rec, false)
	if err != nil {
		c.settleWriteError(err)
		return zero, err
	}

	updated := T(new(U))
	url := fmt.Sprintf("%s/api/%s/%d", c.baseURL, c.resource, *rec.GetID())
	if err := c.doJSON(ctx, method, url, body, http.StatusOK, updated); err != nil {
		c.settleWriteError(err)
		return zero, err
	}

	c.settleWrite(updated)
	c.scheduleRefresh()
	return updated, nil
}

// Remove DELETEs the record. On success the state's record is cleared to an
// empty record, UpdateSuccess is set, and one background list refresh is
// scheduled.
func (c *Client[U, T]) Remove(ctx context.Context, id int64) error {
	c.beginWrite()

	url := fmt.Sprintf("%s/api/%s/%d", c.baseURL, c.resource, id)
	if err := c.doJSON(ctx, http.MethodDelete, url, nil, http.StatusNoContent, nil); err != nil {
		c.settleWriteError(err)
		return err
	}

	c.settleWrite(T(new(U)))
	c.scheduleRefresh()
	return nil
}

// Reset clears the record to empty and UpdateSuccess to false; used when a
// creation form opens fresh.
func (c *Client[U, T]) Reset() {
	c.apply(func(s *State[T]) {
		s.Entity = T(new(U))
		s.UpdateSuccess = false
	})
}

// state transitions

func (c *Client[U, T]) beginRead() {
	c.apply(func(s *State[T]) {
		s.Loading = true
		s.ErrorMessage = ""
		s.UpdateSuccess = false
	})
}

func (c *Client[U, T]) beginWrite() {
	c.apply(func(s *State[T]) {
		s.Updating = true
		s.ErrorMessage = ""
		s.UpdateSuccess = false
	})
}

func (c *Client[U, T]) settleReadError(err error) {
	c.apply(func(s *State[T]) {
		s.Loading = false
		s.ErrorMessage = err.Error()
	})
}

func (c *Client[U, T]) settleWriteError(err error) {
	c.apply(func(s *State[T]) {
		s.Updating = false
		s.ErrorMessage = err.Error()
	})
}

func (c *Client[U, T]) settleWrite(rec T) {
	c.apply(func(s *State[T]) {
		s.Updating = false
		s.UpdateSuccess = true
		s.Entity = rec
	})
}

// apply mutates the state under the lock and notifies subscribers outside it.
func (c *Client[U, T]) apply(mutate func(*State[T])) {
	c.mu.Lock()
	mutate(&c.state)
	snapshot := c.state
	subs := c.subs
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// scheduleRefresh runs exactly one follow-up list fetch with no sort argument
// in the background. It replaces the list on success; its failure is logged
// and never surfaces in ErrorMessage or UpdateSuccess.
func (c *Client[U, T]) scheduleRefresh() {
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		recs, err := c.getList(ctx, c.listURL(entities.SortSpec{}))
		if err != nil {
			logging.Warn("Background list refresh failed", "resource", c.resource, "error", err)
			return
		}
		c.apply(func(s *State[T]) {
			s.Entities = recs
		})
	}()
}

// HTTP plumbing

func (c *Client[U, T]) listURL(spec entities.SortSpec) string {
	url := fmt.Sprintf("%s/api/%s?cacheBuster=%d", c.baseURL, c.resource, time.Now().UnixMilli())
	if !spec.IsZero() {
		url += "&sort=" + urlQueryEscape(spec.String())
	}
	return url
}

func (c *Client[U, T]) getList(ctx context.Context, url string) ([]T, error) {
	var recs []T
	if err := c.doJSON(ctx, http.MethodGet, url, nil, http.StatusOK, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// doJSON performs one request and decodes the response into out when the
// status matches want. Any other status is a terminal failure; there are no
// retries.
func (c *Client[U, T]) doJSON(ctx context.Context, method, url string, body []byte, want int, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, c.resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, c.resource, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "resource", c.resource, "error", err)
		}
	}()

	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: %s", method, c.resource, serverMessage(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, c.resource, err)
	}
	return nil
}

// serverMessage extracts the backend's error message, falling back to the
// HTTP status line.
func serverMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			return fmt.Sprintf("%s (status %d)", payload.Error, resp.StatusCode)
		}
	}
	return "unexpected status " + strconv.Itoa(resp.StatusCode)
}
