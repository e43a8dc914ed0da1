package repository

import (
	"context"
	"time"

	"autek/internal/domain"
	"autek/internal/recordstore"
)

// Resource files of the JSON backend, relative to the data directory
const (
	ShowcaseFile       = "showcase.db.json"
	CategoryFile       = "category.db.json"
	PopularProductFile = "popularproduct.db.json"
	ProductFile        = "products.db.json"
)

// Resource keys of the PostgreSQL backend
const (
	ShowcaseResource       = "showcase"
	CategoryResource       = "category"
	PopularProductResource = "popular_product"
	ProductResource        = "product"
)

// ErrNotFound is returned by every backend when no record has the requested id
var ErrNotFound = recordstore.ErrNotFound

// Patch is a set of top-level fields shallow-merged over a stored record
type Patch = recordstore.Patch

// Mutation derives a patch from the record as it is stored when the
// repository holds its lock
type Mutation[T domain.Record] func(existing T) (Patch, error)

// Repository defines the interface for resource data access.
//
// Mutations are serialized per resource: the file backend holds a per-file
// mutex, the PostgreSQL backend a per-resource advisory lock.
type Repository[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id int64, patch Patch) (T, error)
	Modify(ctx context.Context, id int64, mutate Mutation[T]) (before, after T, err error)
	Delete(ctx context.Context, id int64) (T, error)
}

// nextID keeps ids in the epoch-millisecond range of existing data while
// guaranteeing they never repeat within a resource.
func nextID(now time.Time, maxID int64) int64 {
	id := now.UnixMilli()
	if id <= maxID {
		id = maxID + 1
	}
	return id
}

func maxRecordID[T domain.Record](records []T) int64 {
	var maxID int64
	for _, record := range records {
		if record.RecordID() > maxID {
			maxID = record.RecordID()
		}
	}
	return maxID
}
