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

// ProductService defines the interface for catalog products
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, product domain.Product, image *Upload) (Result[domain.Product], error)
	Update(ctx context.Context, id int64, patch repository.Patch) (Result[domain.Product], error)
	Delete(ctx context.Context, id int64) (Result[domain.Product], error)
}

type productService struct {
	*catalog[domain.Product]
}

// NewProductService creates a new instance of ProductService
func NewProductService(repo repository.Repository[domain.Product], assets asset.Store, logger *zap.Logger) ProductService {
	return &productService{newCatalog("product", repo, assets, logger)}
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *productService) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// Create appends the product. The image is optional.
func (s *productService) Create(ctx context.Context, product domain.Product, image *Upload) (Result[domain.Product], error) {
	if strings.TrimSpace(product.Title) == "" {
		return Result[domain.Product]{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	return s.create(ctx, image, func(imagePath string) domain.Product {
		product.ID = 0
		product.Image = imagePath
		return product
	})
}

// Update shallow-merges a JSON patch. The id in the path always wins over
// an id in the patch.
func (s *productService) Update(ctx context.Context, id int64, patch repository.Patch) (Result[domain.Product], error) {
	return s.update(ctx, id, nil, func(domain.Product) repository.Patch {
		return patch.Without("id")
	})
}

// Delete removes the product and its image
func (s *productService) Delete(ctx context.Context, id int64) (Result[domain.Product], error) {
	return s.delete(ctx, id)
}
