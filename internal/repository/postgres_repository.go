package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autek/internal/domain"
	"autek/internal/recordstore"
)

type postgresRepository[T domain.Record] struct {
	db       *sql.DB
	resource string
	now      func() time.Time
}

// NewPostgresRepository stores the records of one resource as JSONB rows of
// the catalog_records table, keeping insertion order in the position column.
func NewPostgresRepository[T domain.Record](db *sql.DB, resource string) Repository[T] {
	return &postgresRepository[T]{db: db, resource: resource, now: time.Now}
}

// List retrieves every record of the resource in insertion order
func (r *postgresRepository[T]) List(ctx context.Context) ([]T, error) {
	query := `
		SELECT body
		FROM catalog_records
		WHERE resource = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, r.resource)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.resource, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.resource, err)
		}

		record, err := decodeBody[T](body)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.resource, err)
	}

	return records, nil
}

// Get retrieves a record by id
func (r *postgresRepository[T]) Get(ctx context.Context, id int64) (T, error) {
	query := `
		SELECT body
		FROM catalog_records
		WHERE resource = $1 AND id = $2
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, r.resource, id), id)
}

// Create assigns a fresh id and inserts the record
func (r *postgresRepository[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	tx, err := r.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	var maxID int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM catalog_records WHERE resource = $1`,
		r.resource,
	).Scan(&maxID)
	if err != nil {
		return zero, fmt.Errorf("failed to read max id of %s: %w", r.resource, err)
	}

	created, err := recordstore.WithID(record, nextID(r.now(), maxID))
	if err != nil {
		return zero, err
	}

	body, err := json.Marshal(created)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", r.resource, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalog_records (resource, id, body) VALUES ($1, $2, $3)`,
		r.resource, created.RecordID(), string(body),
	)
	if err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", r.resource, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s: %w", r.resource, err)
	}
	return created, nil
}

// Update shallow-merges patch over the stored record
func (r *postgresRepository[T]) Update(ctx context.Context, id int64, patch Patch) (T, error) {
	_, updated, err := r.Modify(ctx, id, func(T) (Patch, error) {
		return patch, nil
	})
	return updated, err
}

// Modify merges the patch built from the row locked for update
func (r *postgresRepository[T]) Modify(ctx context.Context, id int64, mutate Mutation[T]) (before, after T, err error) {
	var zero T

	tx, err := r.begin(ctx)
	if err != nil {
		return zero, zero, err
	}
	defer tx.Rollback()

	existing, err := r.scanOne(tx.QueryRowContext(ctx,
		`SELECT body FROM catalog_records WHERE resource = $1 AND id = $2 FOR UPDATE`,
		r.resource, id,
	), id)
	if err != nil {
		return zero, zero, err
	}

	patch, err := mutate(existing)
	if err != nil {
		return zero, zero, err
	}

	updated, err := recordstore.Merge(existing, patch.Without("id"))
	if err != nil {
		return zero, zero, err
	}

	body, err := json.Marshal(updated)
	if err != nil {
		return zero, zero, fmt.Errorf("failed to encode %s: %w", r.resource, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE catalog_records SET body = $3 WHERE resource = $1 AND id = $2`,
		r.resource, id, string(body),
	)
	if err != nil {
		return zero, zero, fmt.Errorf("failed to update %s: %w", r.resource, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, zero, fmt.Errorf("failed to commit %s: %w", r.resource, err)
	}
	return existing, updated, nil
}

// Delete removes the record and returns it
func (r *postgresRepository[T]) Delete(ctx context.Context, id int64) (T, error) {
	var zero T

	tx, err := r.begin(ctx)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	removed, err := r.scanOne(tx.QueryRowContext(ctx,
		`DELETE FROM catalog_records WHERE resource = $1 AND id = $2 RETURNING body`,
		r.resource, id,
	), id)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit %s: %w", r.resource, err)
	}
	return removed, nil
}

// begin opens a transaction holding the resource's advisory lock until
// commit or rollback.
func (r *postgresRepository[T]) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, r.resource); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to lock %s: %w", r.resource, err)
	}
	return tx, nil
}

func (r *postgresRepository[T]) scanOne(row *sql.Row, id int64) (T, error) {
	var zero T

	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%w: %s id %d", ErrNotFound, r.resource, id)
		}
		return zero, fmt.Errorf("failed to find %s by id: %w", r.resource, err)
	}

	return decodeBody[T](body)
}

func decodeBody[T domain.Record](body []byte) (T, error) {
	var record T
	if err := json.Unmarshal(body, &record); err != nil {
		return record, fmt.Errorf("%w: %v", recordstore.ErrParse, err)
	}
	return record, nil
}
