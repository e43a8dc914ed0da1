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

// PopularProductInput holds the fields present in a popular product update
type PopularProductInput struct {
	Title       *string
	Description *string
	UzumLink    *string
	Rate        *float64
	Price       PriceInput
}

// PopularProductService defines the interface for homepage highlights
type PopularProductService interface {
	List(ctx context.Context) ([]domain.PopularProduct, error)
	Create(ctx context.Context, product domain.PopularProduct, image Upload) (Result[domain.PopularProduct], error)
	Update(ctx context.Context, id int64, input PopularProductInput, image *Upload) (Result[domain.PopularProduct], error)
	Delete(ctx context.Context, id int64) (Result[domain.PopularProduct], error)
}

type popularProductService struct {
	*catalog[domain.PopularProduct]
}

// NewPopularProductService creates a new instance of PopularProductService
func NewPopularProductService(repo repository.Repository[domain.PopularProduct], assets asset.Store, logger *zap.Logger) PopularProductService {
	return &popularProductService{newCatalog("popular product", repo, assets, logger)}
}

func (s *popularProductService) List(ctx context.Context) ([]domain.PopularProduct, error) {
	return s.repo.List(ctx)
}

// Create stores the image and appends the product; id and image are assigned here
func (s *popularProductService) Create(ctx context.Context, product domain.PopularProduct, image Upload) (Result[domain.PopularProduct], error) {
	if strings.TrimSpace(product.Title) == "" {
		return Result[domain.PopularProduct]{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if image.Content == nil {
		return Result[domain.PopularProduct]{}, fmt.Errorf("%w: image is required", ErrValidation)
	}

	return s.create(ctx, &image, func(imagePath string) domain.PopularProduct {
		product.ID = 0
		product.Image = imagePath
		return product
	})
}

// Update merges the present fields; price sub-fields merge into the stored price
func (s *popularProductService) Update(ctx context.Context, id int64, input PopularProductInput, image *Upload) (Result[domain.PopularProduct], error) {
	return s.update(ctx, id, image, func(existing domain.PopularProduct) repository.Patch {
		patch := repository.Patch{}
		set(patch, "title", input.Title)
		set(patch, "description", input.Description)
		set(patch, "uzum_link", input.UzumLink)
		set(patch, "rate", input.Rate)
		if !input.Price.empty() {
			price := input.Price.apply(existing.Price)
			set(patch, "price", &price)
		}
		return patch
	})
}

// Delete removes the product and its image
func (s *popularProductService) Delete(ctx context.Context, id int64) (Result[domain.PopularProduct], error) {
	return s.delete(ctx, id)
}
