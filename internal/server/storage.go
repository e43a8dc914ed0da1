package server

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"autek/internal/asset"
	"autek/internal/config"
	"autek/internal/database"
	"autek/internal/domain"
	"autek/internal/legacy"
	"autek/internal/repository"

	"go.uber.org/zap"
)

// Storage holds the repository of every resource
type Storage struct {
	Showcases       repository.Repository[domain.Showcase]
	Categories      repository.Repository[domain.Category]
	PopularProducts repository.Repository[domain.PopularProduct]
	Products        repository.Repository[domain.Product]

	db *sql.DB
}

// OpenStorage opens the repositories of the configured driver. The file
// driver first normalizes legacy records; the postgres driver first applies
// the migrations.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		return openFileStorage(cfg.Storage.DataDir, logger)
	case config.StoragePostgres:
		return openPostgresStorage(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}

func openFileStorage(dataDir string, logger *zap.Logger) (*Storage, error) {
	if err := legacy.Migrate(dataDir, logger); err != nil {
		return nil, fmt.Errorf("failed to normalize legacy records: %w", err)
	}

	var (
		s   Storage
		err error
	)
	if s.Showcases, err = repository.NewFileRepository[domain.Showcase](filepath.Join(dataDir, repository.ShowcaseFile)); err != nil {
		return nil, err
	}
	if s.Categories, err = repository.NewFileRepository[domain.Category](filepath.Join(dataDir, repository.CategoryFile)); err != nil {
		return nil, err
	}
	if s.PopularProducts, err = repository.NewFileRepository[domain.PopularProduct](filepath.Join(dataDir, repository.PopularProductFile)); err != nil {
		return nil, err
	}
	if s.Products, err = repository.NewFileRepository[domain.Product](filepath.Join(dataDir, repository.ProductFile)); err != nil {
		return nil, err
	}

	logger.Info("Using JSON file storage", zap.String("data_dir", dataDir))
	return &s, nil
}

func openPostgresStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db, cfg.Storage.MigrationsDir, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Using PostgreSQL storage",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	return &Storage{
		Showcases:       repository.NewPostgresRepository[domain.Showcase](db, repository.ShowcaseResource),
		Categories:      repository.NewPostgresRepository[domain.Category](db, repository.CategoryResource),
		PopularProducts: repository.NewPostgresRepository[domain.PopularProduct](db, repository.PopularProductResource),
		Products:        repository.NewPostgresRepository[domain.Product](db, repository.ProductResource),
		db:              db,
	}, nil
}

// Close releases the database connection, if any
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenAssets returns the configured asset backend
func OpenAssets(ctx context.Context, cfg *config.Config, logger *zap.Logger) (asset.Store, error) {
	switch cfg.Assets.Driver {
	case config.AssetLocal:
		return asset.NewLocalStore(cfg.Assets.PublicDir, logger), nil
	case config.AssetS3:
		store, err := asset.NewS3Store(ctx, cfg.Assets.S3, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ASSET_DRIVER %q", cfg.Assets.Driver)
	}
}
