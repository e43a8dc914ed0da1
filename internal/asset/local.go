package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LocalStore writes assets to <public dir>/uploads so the HTTP server can
// serve them as static files.
type LocalStore struct {
	dir    string
	logger *zap.Logger
}

// NewLocalStore creates a store rooted at the given public directory
func NewLocalStore(publicDir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		dir:    filepath.Join(publicDir, filepath.FromSlash(URLPrefix)),
		logger: logger,
	}
}

// Dir is the directory holding the uploaded files
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes content under a generated name and returns /uploads/<name>
func (s *LocalStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := newName(filename)
	target := filepath.Join(s.dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create asset %s: %w", name, err)
	}

	written, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}

	s.logger.Info("Asset stored",
		zap.String("name", name),
		zap.String("original", filename),
		zap.String("size", humanize.Bytes(uint64(written))),
	)

	return URLPrefix + name, nil
}

// Remove deletes a stored asset by its public path
func (s *LocalStore) Remove(ctx context.Context, path string) error {
	name, err := nameFromPath(path)
	if err != nil {
		return fmt.Errorf("%w: %q", err, path)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return fmt.Errorf("failed to remove asset %s: %w", path, err)
	}

	s.logger.Info("Asset removed", zap.String("path", path))
	return nil
}
