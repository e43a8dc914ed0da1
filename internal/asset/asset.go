// Package asset stores uploaded images and hands back the path records use
// to reference them.
package asset

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path every stored asset lives under
const URLPrefix = "/uploads/"

var (
	ErrNotExist    = errors.New("asset does not exist")
	ErrInvalidPath = errors.New("asset path is not under " + URLPrefix)
)

// Store persists uploaded files. Remove failures are meant to be reported as
// warnings by callers, never as request failures.
type Store interface {
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// newName keeps the original extension behind an opaque uuid
func newName(original string) string {
	return uuid.NewString() + filepath.Ext(filepath.Base(original))
}

// nameFromPath extracts the stored file name from a public asset path
func nameFromPath(path string) (string, error) {
	if !strings.HasPrefix(path, URLPrefix) {
		return "", ErrInvalidPath
	}

	name := strings.TrimPrefix(path, URLPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidPath
	}
	return name, nil
}
