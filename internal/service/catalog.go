package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"autek/internal/asset"
	"autek/internal/domain"
	"autek/internal/recordstore"
	"autek/internal/repository"

	"go.uber.org/zap"
)

// ErrValidation marks input the caller has to fix
var ErrValidation = errors.New("validation failed")

// Upload is an image file received with a form submission
type Upload struct {
	Filename string
	Content  io.Reader
}

// Result is a completed mutation. Warnings lists asset cleanup failures that
// did not fail the mutation itself.
type Result[T any] struct {
	Record   T
	Warnings []string
}

// PriceInput carries the price sub-fields present in a form. Absent fields
// keep their stored value.
type PriceInput struct {
	Current  *float64
	Old      *float64
	Discount *float64
}

func (p PriceInput) empty() bool {
	return p.Current == nil && p.Old == nil && p.Discount == nil
}

func (p PriceInput) apply(price domain.Price) domain.Price {
	if p.Current != nil {
		price.Current = *p.Current
	}
	if p.Old != nil {
		price.Old = *p.Old
	}
	if p.Discount != nil {
		price.Discount = *p.Discount
	}
	return price
}

// catalog composes a repository with the asset store. It owns the asset
// lifecycle shared by every resource.
type catalog[T domain.Record] struct {
	name   string
	repo   repository.Repository[T]
	assets asset.Store
	logger *zap.Logger
}

func newCatalog[T domain.Record](name string, repo repository.Repository[T], assets asset.Store, logger *zap.Logger) *catalog[T] {
	return &catalog[T]{name: name, repo: repo, assets: assets, logger: logger}
}

// create stores the image first so the record can reference it. The image
// is discarded again when the record cannot be stored.
func (c *catalog[T]) create(ctx context.Context, image *Upload, build func(imagePath string) T) (Result[T], error) {
	imagePath, err := c.save(ctx, image)
	if err != nil {
		return Result[T]{}, err
	}

	created, err := c.repo.Create(ctx, build(imagePath))
	if err != nil {
		c.discard(ctx, imagePath)
		return Result[T]{}, fmt.Errorf("failed to create %s: %w", c.name, err)
	}

	c.logger.Info("Record created", zap.String("resource", c.name), zap.Int64("id", created.RecordID()))
	return Result[T]{Record: created}, nil
}

// update merges the patch built from the stored record. A new image
// replaces the stored one, whose asset is then removed. The patch is built
// under the repository lock, so concurrent updates see each other.
func (c *catalog[T]) update(ctx context.Context, id int64, image *Upload, build func(existing T) repository.Patch) (Result[T], error) {
	// 404 before an asset is stored for nothing
	if _, err := c.repo.Get(ctx, id); err != nil {
		return Result[T]{}, err
	}

	imagePath, err := c.save(ctx, image)
	if err != nil {
		return Result[T]{}, err
	}

	before, updated, err := c.repo.Modify(ctx, id, func(existing T) (repository.Patch, error) {
		patch := repository.Patch{}
		for key, value := range build(existing) {
			patch[key] = value
		}
		if imagePath != "" {
			patch["image"] = recordstore.Field(imagePath)
		}
		return patch, nil
	})
	if err != nil {
		c.discard(ctx, imagePath)
		return Result[T]{}, fmt.Errorf("failed to update %s %d: %w", c.name, id, err)
	}

	result := Result[T]{Record: updated}
	if old := before.ImagePath(); old != "" && old != updated.ImagePath() {
		result.Warnings = c.release(ctx, old)
	}

	c.logger.Info("Record updated", zap.String("resource", c.name), zap.Int64("id", id))
	return result, nil
}

// delete removes the record and then, best effort, its asset
func (c *catalog[T]) delete(ctx context.Context, id int64) (Result[T], error) {
	removed, err := c.repo.Delete(ctx, id)
	if err != nil {
		return Result[T]{}, err
	}

	c.logger.Info("Record deleted", zap.String("resource", c.name), zap.Int64("id", id))
	return Result[T]{Record: removed, Warnings: c.release(ctx, removed.ImagePath())}, nil
}

func (c *catalog[T]) save(ctx context.Context, image *Upload) (string, error) {
	if image == nil {
		return "", nil
	}

	path, err := c.assets.Save(ctx, image.Filename, image.Content)
	if err != nil {
		return "", fmt.Errorf("failed to save %s image: %w", c.name, err)
	}
	return path, nil
}

// release removes an asset that is no longer referenced and reports a
// failure as a warning
func (c *catalog[T]) release(ctx context.Context, path string) []string {
	if path == "" {
		return nil
	}

	if err := c.assets.Remove(ctx, path); err != nil {
		c.logger.Warn("Failed to remove asset",
			zap.String("resource", c.name),
			zap.String("path", path),
			zap.Error(err),
		)
		return []string{fmt.Sprintf("image %s was not removed: %v", path, err)}
	}
	return nil
}

// discard drops a freshly stored asset after the record write failed
func (c *catalog[T]) discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := c.assets.Remove(ctx, path); err != nil {
		c.logger.Warn("Failed to discard unused asset", zap.String("path", path), zap.Error(err))
	}
}

// set adds the field to the patch when the form carried it
func set[V any](patch repository.Patch, key string, value *V) {
	if value != nil {
		patch[key] = recordstore.Field(*value)
	}
}
