package service

import (
	"context"
	"fmt"
	"strings"

	"autek/internal/asset"
	"autek/internal/domain"
	"autek/internal/repository"

	"go.uber.org/zap"
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	ProductsByTitle(ctx context.Context, title string) ([]domain.Product, error)
	Create(ctx context.Context, title string, image Upload) (Result[domain.Category], error)
	Update(ctx context.Context, id int64, title *string, image *Upload) (Result[domain.Category], error)
	Delete(ctx context.Context, id int64) (Result[domain.Category], error)
}

type categoryService struct {
	*catalog[domain.Category]
	products repository.Repository[domain.Product]
}

// NewCategoryService creates a new instance of CategoryService. Products are
// needed to filter the catalog by category title.
func NewCategoryService(
	repo repository.Repository[domain.Category],
	products repository.Repository[domain.Product],
	assets asset.Store,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		catalog:  newCatalog("category", repo, assets, logger),
		products: products,
	}
}

// List returns all categories
func (s *categoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// ProductsByTitle returns the products whose category equals title, ignoring
// case. An unknown title yields an empty list.
func (s *categoryService) ProductsByTitle(ctx context.Context, title string) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	matched := []domain.Product{}
	for _, product := range products {
		if strings.EqualFold(product.Category, title) {
			matched = append(matched, product)
		}
	}
	return matched, nil
}

// Create stores the image and appends the category
func (s *categoryService) Create(ctx context.Context, title string, image Upload) (Result[domain.Category], error) {
	if strings.TrimSpace(title) == "" {
		return Result[domain.Category]{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if image.Content == nil {
		return Result[domain.Category]{}, fmt.Errorf("%w: image is required", ErrValidation)
	}

	return s.create(ctx, &image, func(imagePath string) domain.Category {
		return domain.Category{Title: title, Image: imagePath}
	})
}

// Update renames the category and optionally replaces its image
func (s *categoryService) Update(ctx context.Context, id int64, title *string, image *Upload) (Result[domain.Category], error) {
	return s.update(ctx, id, image, func(domain.Category) repository.Patch {
		patch := repository.Patch{}
		set(patch, "title", title)
		return patch
	})
}

// Delete removes the category and its image
func (s *categoryService) Delete(ctx context.Context, id int64) (Result[domain.Category], error) {
	return s.delete(ctx, id)
}
