// Package legacy rewrites resource files written by earlier versions of the
// catalog into the current record shapes. It runs once at startup, before
// any repository opens the files.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autek/internal/domain"
	"autek/internal/recordstore"
	"autek/internal/repository"

	"go.uber.org/zap"
)

// ErrUnknownShape is returned for records that cannot be mapped onto the
// current shape. Startup stops rather than guessing.
var ErrUnknownShape = errors.New("record has an unknown shape")

// Report describes what normalizing one file changed
type Report struct {
	File    string
	Changed int
	Notes   []string
}

// fixer rewrites the fields of one legacy record in place
type fixer func(fields map[string]json.RawMessage) (notes []string, changed bool, err error)

// Migrate normalizes every resource file in dataDir. Files already in the
// current shape are left untouched.
func Migrate(dataDir string, logger *zap.Logger) error {
	steps := []func() (Report, error){
		func() (Report, error) {
			return Normalize[domain.Showcase](filepath.Join(dataDir, repository.ShowcaseFile), nil)
		},
		func() (Report, error) {
			return Normalize[domain.Category](filepath.Join(dataDir, repository.CategoryFile), nil)
		},
		func() (Report, error) {
			return Normalize[domain.PopularProduct](filepath.Join(dataDir, repository.PopularProductFile), fixPopularProduct)
		},
		func() (Report, error) {
			return Normalize[domain.Product](filepath.Join(dataDir, repository.ProductFile), fixProduct)
		},
	}

	for _, step := range steps {
		report, err := step()
		if err != nil {
			return err
		}

		for _, note := range report.Notes {
			logger.Warn("Legacy record note", zap.String("file", report.File), zap.String("note", note))
		}
		if report.Changed > 0 {
			logger.Info("Normalized legacy records",
				zap.String("file", report.File),
				zap.Int("changed", report.Changed),
			)
		}
	}
	return nil
}

// Normalize applies fix to every record of file and checks that each one
// decodes into T without unknown fields. The file is rewritten only when a
// record changed. A missing file is not an error.
func Normalize[T domain.Record](file string, fix fixer) (Report, error) {
	report := Report{File: file}

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("%w: read %s: %w", recordstore.ErrIO, file, err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return report, fmt.Errorf("%w: %s: %v", recordstore.ErrParse, file, err)
	}

	records := make([]T, 0, len(raw))
	for i, fields := range raw {
		if fields == nil {
			return report, fmt.Errorf("%w: %s record %d is null", ErrUnknownShape, file, i)
		}

		if fix != nil {
			notes, changed, err := fix(fields)
			if err != nil {
				return report, fmt.Errorf("%w: %s record %s: %v", ErrUnknownShape, file, fields["id"], err)
			}
			if changed {
				report.Changed++
			}
			for _, note := range notes {
				report.Notes = append(report.Notes, fmt.Sprintf("record %s: %s", fields["id"], note))
			}
		}

		var zero T
		record, err := recordstore.Merge(zero, recordstore.Patch(fields))
		if err != nil {
			return report, fmt.Errorf("%w: %s record %s: %v", ErrUnknownShape, file, fields["id"], err)
		}
		records = append(records, record)
	}

	if report.Changed == 0 {
		return report, nil
	}
	if err := recordstore.WriteAll(file, records); err != nil {
		return report, err
	}
	return report, nil
}

// fixProduct keeps the first of the legacy images and renames price.old
func fixProduct(fields map[string]json.RawMessage) ([]string, bool, error) {
	var notes []string
	changed := false

	if raw, ok := fields["images"]; ok {
		var images []string
		if err := json.Unmarshal(raw, &images); err != nil {
			return nil, false, fmt.Errorf("images is not a list of paths: %v", err)
		}
		delete(fields, "images")
		changed = true

		var image string
		if current, ok := fields["image"]; ok {
			if err := json.Unmarshal(current, &image); err != nil {
				return nil, false, fmt.Errorf("image is not a path: %v", err)
			}
		}
		if image == "" && len(images) > 0 {
			fields["image"] = recordstore.Field(images[0])
			images = images[1:]
		}
		if len(images) > 0 {
			notes = append(notes, fmt.Sprintf("dropped %d extra images: %s", len(images), strings.Join(images, ", ")))
		}
	}

	if raw, ok := fields["price"]; ok && isObject(raw) {
		var price map[string]json.RawMessage
		if err := json.Unmarshal(raw, &price); err != nil {
			return nil, false, fmt.Errorf("price: %v", err)
		}
		if old, ok := price["old"]; ok {
			if _, exists := price["old_price"]; !exists {
				price["old_price"] = old
			}
			delete(price, "old")
			fields["price"] = recordstore.Field(price)
			changed = true
		}
	}

	return notes, changed, nil
}

// fixPopularProduct turns the flat numeric price with its top-level
// discount into the price object
func fixPopularProduct(fields map[string]json.RawMessage) ([]string, bool, error) {
	var notes []string
	changed := false

	price := map[string]json.RawMessage{}
	if raw, ok := fields["price"]; ok {
		switch {
		case isObject(raw):
			if err := json.Unmarshal(raw, &price); err != nil {
				return nil, false, fmt.Errorf("price: %v", err)
			}
		case isNumber(raw):
			price["current"] = raw
			changed = true
		default:
			return nil, false, fmt.Errorf("price is neither a number nor an object: %s", raw)
		}
	}

	for legacyKey, key := range map[string]string{"discount": "discount", "oldPrice": "old"} {
		value, ok := fields[legacyKey]
		if !ok {
			continue
		}
		if _, exists := price[key]; exists {
			notes = append(notes, fmt.Sprintf("dropped top-level %s %s, price.%s is set", legacyKey, value, key))
		} else {
			price[key] = value
		}
		delete(fields, legacyKey)
		changed = true
	}

	if changed {
		fields["price"] = recordstore.Field(price)
	}
	return notes, changed, nil
}

func isObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

func isNumber(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	var n json.Number
	return json.Unmarshal(trimmed, &n) == nil
}
