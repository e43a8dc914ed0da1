package recordstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autek/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "records.db.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestReadAll_MissingFileIsIOError(t *testing.T) {
	_, err := ReadAll[domain.Category](filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestReadAll_NotAnArrayIsParseError(t *testing.T) {
	for _, content := range []string{`{"id": 1}`, `not json`, `null`, `[{"id": "x"}]`} {
		file := writeFile(t, content)
		_, err := ReadAll[domain.Category](file)
		assert.ErrorIs(t, err, ErrParse, content)
	}
}

func TestReadAll_EmptyArray(t *testing.T) {
	records, err := ReadAll[domain.Category](writeFile(t, `[]`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestWriteAll_Layout(t *testing.T) {
	file := filepath.Join(t.TempDir(), "category.db.json")
	err := WriteAll(file, []domain.Category{{ID: 1, Title: "Phones & <Tablets>", Image: "/uploads/a.png"}})
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"title\": \"Phones & <Tablets>\",\n    \"image\": \"/uploads/a.png\"\n  }\n]", string(data))
}

func TestWriteAll_NilWritesEmptyArray(t *testing.T) {
	file := filepath.Join(t.TempDir(), "category.db.json")
	require.NoError(t, WriteAll[domain.Category](file, nil))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestAppend_ReturnsFullArray(t *testing.T) {
	file := writeFile(t, `[{"id": 1, "title": "Phones", "image": ""}]`)

	records, err := Append(file, domain.Category{ID: 2, Title: "Laptops"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[1].ID)

	stored, err := ReadAll[domain.Category](file)
	require.NoError(t, err)
	assert.Equal(t, records, stored)
}

func TestAppendWith_BuildsFromCurrentContents(t *testing.T) {
	file := writeFile(t, `[{"id": 7, "title": "Phones", "image": ""}]`)

	records, err := AppendWith(file, func(existing []domain.Category) (domain.Category, error) {
		return domain.Category{ID: existing[len(existing)-1].ID + 1, Title: "Laptops"}, nil
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(8), records[1].ID)

	before, _ := os.ReadFile(file)
	boom := errors.New("boom")
	_, err = AppendWith(file, func([]domain.Category) (domain.Category, error) {
		return domain.Category{}, boom
	})
	assert.ErrorIs(t, err, boom)

	after, _ := os.ReadFile(file)
	assert.Equal(t, before, after)
}

func TestReplaceByID_ShallowMerge(t *testing.T) {
	file := filepath.Join(t.TempDir(), "products.db.json")
	require.NoError(t, WriteAll(file, []domain.Product{{
		ID:    42,
		Title: "X",
		Price: domain.ProductPrice{Current: 100, OldPrice: 120, Discount: 17},
	}}))

	updated, err := ReplaceByID[domain.Product](file, 42, Patch{
		"description": Field("updated"),
		"id":          Field(7),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), updated.ID)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "updated", updated.Description)
	assert.Equal(t, domain.ProductPrice{Current: 100, OldPrice: 120, Discount: 17}, updated.Price)
}

func TestReplaceByID_UnknownFieldRejected(t *testing.T) {
	file := filepath.Join(t.TempDir(), "products.db.json")
	require.NoError(t, WriteAll(file, []domain.Product{{ID: 1, Title: "X"}}))
	before, _ := os.ReadFile(file)

	_, err := ReplaceByID[domain.Product](file, 1, Patch{"images": Field([]string{"/uploads/a.png"})})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	after, _ := os.ReadFile(file)
	assert.Equal(t, before, after)
}

func TestReplaceAndRemove_NotFoundLeavesFileUntouched(t *testing.T) {
	file := filepath.Join(t.TempDir(), "popularproduct.db.json")
	require.NoError(t, WriteAll(file, []domain.PopularProduct{{ID: 1, Title: "Mouse"}}))
	before, err := os.ReadFile(file)
	require.NoError(t, err)

	_, err = ReplaceByID[domain.PopularProduct](file, 7, Patch{"title": Field("Keyboard")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = RemoveByID[domain.PopularProduct](file, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestModifyByID_SeesStoredRecord(t *testing.T) {
	file := filepath.Join(t.TempDir(), "category.db.json")
	require.NoError(t, WriteAll(file, []domain.Category{{ID: 1, Title: "Phones", Image: "/uploads/1.png"}}))

	before, after, err := ModifyByID(file, 1, func(existing domain.Category) (Patch, error) {
		return Patch{"title": Field(existing.Title + " & Tablets")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Phones", before.Title)
	assert.Equal(t, "Phones & Tablets", after.Title)
	assert.Equal(t, "/uploads/1.png", after.Image)

	stored, err := ReadAll[domain.Category](file)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{after}, stored)
}

func TestModifyByID_MutationErrorLeavesFileUntouched(t *testing.T) {
	file := filepath.Join(t.TempDir(), "category.db.json")
	require.NoError(t, WriteAll(file, []domain.Category{{ID: 1, Title: "Phones"}}))
	before, _ := os.ReadFile(file)

	boom := errors.New("boom")
	_, _, err := ModifyByID(file, 1, func(domain.Category) (Patch, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	after, _ := os.ReadFile(file)
	assert.Equal(t, before, after)
}

func TestRemoveByID_ReturnsRemovedRecord(t *testing.T) {
	file := filepath.Join(t.TempDir(), "category.db.json")
	require.NoError(t, WriteAll(file, []domain.Category{
		{ID: 1, Title: "Phones", Image: "/uploads/1.png"},
		{ID: 2, Title: "Laptops", Image: "/uploads/2.png"},
		{ID: 3, Title: "Tablets", Image: "/uploads/3.png"},
	}))

	removed, err := RemoveByID[domain.Category](file, 2)
	require.NoError(t, err)
	assert.Equal(t, "Laptops", removed.Title)

	records, err := ReadAll[domain.Category](file)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(3), records[1].ID)
}

func TestWithID(t *testing.T) {
	category, err := WithID(domain.Category{Title: "Phones"}, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), category.ID)
	assert.Equal(t, "Phones", category.Title)
}

// Property: a read/write cycle with no modification does not change the file
func TestProperty_ReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	properties := gopter.NewProperties(nil)

	properties.Property("writeAll(readAll(file)) keeps the file byte-identical", prop.ForAll(
		func(titles []string, current float64) bool {
			records := make([]domain.Product, 0, len(titles))
			for i, title := range titles {
				records = append(records, domain.Product{
					ID:       int64(i + 1),
					Title:    title,
					Price:    domain.ProductPrice{Current: current, OldPrice: current * 2},
					Category: "Phones",
				})
			}

			file := filepath.Join(dir, "roundtrip.db.json")
			if err := WriteAll(file, records); err != nil {
				return false
			}
			before, err := os.ReadFile(file)
			if err != nil {
				return false
			}

			loaded, err := ReadAll[domain.Product](file)
			if err != nil {
				return false
			}
			if err := WriteAll(file, loaded); err != nil {
				return false
			}
			after, err := os.ReadFile(file)
			if err != nil {
				return false
			}

			return string(before) == string(after)
		},
		gen.SliceOf(gen.AnyString()),
		gen.Float64Range(0, 1e7),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: only patched fields change, omitted fields keep their values
func TestProperty_ShallowMergeLaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("patch fields win and other fields are kept", prop.ForAll(
		func(title, description, newDescription string, patchTitle bool) bool {
			original := domain.PopularProduct{
				ID:          5,
				Title:       title,
				Description: description,
				Price:       domain.Price{Current: 10, Old: 12, Discount: 2},
				Rate:        4.5,
				Image:       "/uploads/x.png",
			}

			patch := Patch{"description": Field(newDescription)}
			if patchTitle {
				patch["title"] = Field("patched")
			}

			merged, err := Merge(original, patch)
			if err != nil {
				return false
			}

			expected := original
			expected.Description = newDescription
			if patchTitle {
				expected.Title = "patched"
			}
			return merged == expected
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestMerge_TypeMismatchRejected(t *testing.T) {
	_, err := Merge(domain.PopularProduct{ID: 1}, Patch{"price": json.RawMessage(`12.5`)})
	assert.ErrorIs(t, err, ErrInvalidPatch)
}
