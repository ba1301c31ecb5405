package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hmpharma/pharmacy-api/entities"
	"github.com/hmpharma/pharmacy-api/logging"
)

// record constrains T to a pointer to a concrete entity struct so the store
// can allocate fresh records when decoding rows.
type record[U any] interface {
	entities.Record
	*U
}

// Store persists one resource's records as JSON documents. All eleven
// resources share this implementation; only the table differs.
type Store[U any, T record[U]] struct {
	db       *sql.DB
	resource string
	table    string
}

// New creates a store for one resource, e.g.
// New[entities.Medicines](db, entities.ResourceMedicines).
func New[U any, T record[U]](db *sql.DB, resource string) *Store[U, T] {
	return &Store[U, T]{db: db, resource: resource, table: TableName(resource)}
}

// Resource returns the kebab-case resource name this store serves.
func (s *Store[U, T]) Resource() string { return s.resource }

// Create inserts rec, assigns the new identifier into it, and returns the
// stored record. rec must not carry an identifier.
func (s *Store[U, T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if rec.GetID() != nil {
		return zero, fmt.Errorf("%s: create with preset id %d", s.resource, *rec.GetID())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logging.Warn("Rollback failed", "resource", s.resource, "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (doc, search_text) VALUES ('{}', '')", s.table))
	if err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", s.resource, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return zero, fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.SetID(id)

	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", s.resource, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = ?, search_text = ? WHERE id = ?", s.table),
		string(doc), SearchText(doc), id); err != nil {
		return zero, fmt.Errorf("failed to store %s: %w", s.resource, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s create: %w", s.resource, err)
	}

	return rec, nil
}

// Get returns the record with the given identifier, or ErrNotFound.
func (s *Store[U, T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	var doc string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", s.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", s.resource, err)
	}
	return s.decode(doc)
}

// List returns every record, ordered per spec (identifier order when no sort
// was requested).
func (s *Store[U, T]) List(ctx context.Context, spec entities.SortSpec) ([]T, error) {
	return s.query(ctx,
		fmt.Sprintf("SELECT doc FROM %s ORDER BY id", s.table), spec)
}

// Search returns records whose folded text contains the folded query,
// case- and accent-insensitively. An empty query behaves as List.
func (s *Store[U, T]) Search(ctx context.Context, query string, spec entities.SortSpec) ([]T, error) {
	if query == "" {
		return s.List(ctx, spec)
	}
	return s.query(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE search_text LIKE ? ESCAPE '\\' ORDER BY id", s.table),
		spec, "%"+escapeLike(Fold(query))+"%")
}

// Update replaces the stored record wholesale. The incoming record must carry
// an identifier of an existing record.
func (s *Store[U, T]) Update(ctx context.Context, rec T) (T, error) {
	var zero T
	if rec.GetID() == nil {
		return zero, fmt.Errorf("%s: update without id", s.resource)
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", s.resource, err)
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = ?, search_text = ? WHERE id = ?", s.table),
		string(doc), SearchText(doc), *rec.GetID())
	if err != nil {
		return zero, fmt.Errorf("failed to update %s: %w", s.resource, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return zero, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return zero, ErrNotFound
	}
	return rec, nil
}

// Patch merges the non-null fields of the supplied partial document into the
// stored record and returns the result. Null and absent fields keep their
// stored values. When check is non-nil it runs on the merged record before
// anything is written; its error aborts the patch.
func (s *Store[U, T]) Patch(ctx context.Context, id int64, partial []byte, check func(T) error) (T, error) {
	var zero T

	current, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	stored, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", s.resource, err)
	}
	var base, delta map[string]any
	if err := json.Unmarshal(stored, &base); err != nil {
		return zero, fmt.Errorf("failed to decode stored %s: %w", s.resource, err)
	}
	if err := json.Unmarshal(partial, &delta); err != nil {
		return zero, fmt.Errorf("failed to decode %s patch: %w", s.resource, err)
	}
	for field, value := range delta {
		if value == nil {
			continue
		}
		base[field] = value
	}
	base["id"] = id

	merged, err := json.Marshal(base)
	if err != nil {
		return zero, fmt.Errorf("failed to encode merged %s: %w", s.resource, err)
	}
	rec, err := s.decode(string(merged))
	if err != nil {
		return zero, err
	}
	if check != nil {
		if err := check(rec); err != nil {
			return zero, err
		}
	}
	return s.Update(ctx, rec)
}

// Delete removes the record with the given identifier, or returns ErrNotFound.
func (s *Store[U, T]) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.resource, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store[U, T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.resource, err)
	}
	return n, nil
}

func (s *Store[U, T]) query(ctx context.Context, stmt string, spec entities.SortSpec, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.resource, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("Failed to close rows", "resource", s.resource, "error", err)
		}
	}()

	var recs []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.resource, err)
		}
		rec, err := s.decode(doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", s.resource, err)
	}

	entities.SortRecords(recs, spec)
	return recs, nil
}

func (s *Store[U, T]) decode(doc string) (T, error) {
	rec := T(new(U))
	if err := json.Unmarshal([]byte(doc), rec); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode %s: %w", s.resource, err)
	}
	return rec, nil
}
