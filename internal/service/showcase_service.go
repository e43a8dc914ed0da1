package service

import (
	"context"
	"fmt"

	"autek/internal/asset"
	"autek/internal/domain"
	"autek/internal/repository"

	"go.uber.org/zap"
)

// ShowcaseInput holds the banner fields present in an update
type ShowcaseInput struct {
	MainText *string
	TagLine  *string
	UzumLink *string
	Price    PriceInput
}

// ShowcaseService defines the interface for the homepage banner
type ShowcaseService interface {
	List(ctx context.Context) ([]domain.Showcase, error)
	Update(ctx context.Context, id int64, input ShowcaseInput, image *Upload) (Result[domain.Showcase], error)
	EnsureSingleton(ctx context.Context) (domain.Showcase, error)
}

type showcaseService struct {
	*catalog[domain.Showcase]
}

// NewShowcaseService creates a new instance of ShowcaseService
func NewShowcaseService(repo repository.Repository[domain.Showcase], assets asset.Store, logger *zap.Logger) ShowcaseService {
	return &showcaseService{newCatalog("showcase", repo, assets, logger)}
}

// List returns the singleton array
func (s *showcaseService) List(ctx context.Context) ([]domain.Showcase, error) {
	return s.repo.List(ctx)
}

// Update changes the banner with the given id
func (s *showcaseService) Update(ctx context.Context, id int64, input ShowcaseInput, image *Upload) (Result[domain.Showcase], error) {
	return s.update(ctx, id, image, func(existing domain.Showcase) repository.Patch {
		patch := repository.Patch{}
		set(patch, "main_text", input.MainText)
		set(patch, "tag_line", input.TagLine)
		set(patch, "uzum_link", input.UzumLink)
		if !input.Price.empty() {
			price := input.Price.apply(existing.Price)
			set(patch, "price", &price)
		}
		return patch
	})
}

// EnsureSingleton seeds an empty banner when none is stored, so the
// storefront always has a record to update
func (s *showcaseService) EnsureSingleton(ctx context.Context) (domain.Showcase, error) {
	showcases, err := s.repo.List(ctx)
	if err != nil {
		return domain.Showcase{}, fmt.Errorf("failed to read showcase: %w", err)
	}
	if len(showcases) > 0 {
		if len(showcases) > 1 {
			s.logger.Warn("Showcase holds more than one record, serving the first", zap.Int("count", len(showcases)))
		}
		return showcases[0], nil
	}

	created, err := s.repo.Create(ctx, domain.Showcase{})
	if err != nil {
		return domain.Showcase{}, fmt.Errorf("failed to seed showcase: %w", err)
	}

	s.logger.Info("Seeded empty showcase", zap.Int64("id", created.ID))
	return created, nil
}
