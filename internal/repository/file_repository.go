package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autek/internal/domain"
	"autek/internal/recordstore"
)

// fileLocks maps an absolute file path to the mutex guarding it, so that
// repositories opened twice on the same file still exclude each other.
var fileLocks sync.Map

type fileRepository[T domain.Record] struct {
	file string
	mu   *sync.Mutex
	now  func() time.Time
}

// NewFileRepository opens a JSON array file as a repository, creating it
// as an empty array when it does not exist yet.
func NewFileRepository[T domain.Record](file string) (Repository[T], error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %w", recordstore.ErrIO, err)
		}
		if err := recordstore.WriteAll[T](abs, nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", recordstore.ErrIO, abs, err)
	}

	lock, _ := fileLocks.LoadOrStore(abs, &sync.Mutex{})

	return &fileRepository[T]{
		file: abs,
		mu:   lock.(*sync.Mutex),
		now:  time.Now,
	}, nil
}

// List returns every record in file order
func (r *fileRepository[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return recordstore.ReadAll[T](r.file)
}

// Get returns the record with the given id
func (r *fileRepository[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T

	records, err := r.List(ctx)
	if err != nil {
		return zero, err
	}

	for _, record := range records {
		if record.RecordID() == id {
			return record, nil
		}
	}
	return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Create assigns a fresh id and appends the record
func (r *fileRepository[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := recordstore.AppendWith(r.file, func(existing []T) (T, error) {
		return recordstore.WithID(record, nextID(r.now(), maxRecordID(existing)))
	})
	if err != nil {
		return zero, err
	}
	return records[len(records)-1], nil
}

// Update shallow-merges patch over the record with the given id
func (r *fileRepository[T]) Update(ctx context.Context, id int64, patch Patch) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	_, updated, err := r.Modify(ctx, id, func(T) (Patch, error) {
		return patch, nil
	})
	return updated, err
}

// Modify merges the patch built from the stored record while the file is
// locked, so the mutation sees every earlier write
func (r *fileRepository[T]) Modify(ctx context.Context, id int64, mutate Mutation[T]) (before, after T, err error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return recordstore.ModifyByID[T](r.file, id, mutate)
}

// Delete removes the record with the given id and returns it
func (r *fileRepository[T]) Delete(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return recordstore.RemoveByID[T](r.file, id)
}
