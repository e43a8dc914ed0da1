// Package recordstore reads and writes resource files: JSON arrays of
// records keyed by a numeric id. Every operation is a full read-modify-write
// of the file; callers serialize access (see the repository package).
package recordstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"autek/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrIO           = errors.New("record file io failure")
	ErrParse        = errors.New("record file is not a valid record array")
	ErrInvalidPatch = errors.New("patch does not match the record shape")
)

// Patch is a set of top-level fields merged over a record
type Patch map[string]json.RawMessage

// ReadAll parses the whole file as an array of records
func ReadAll[T domain.Record](file string) ([]T, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, file, err)
	}

	records := []T{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, file, err)
	}
	if records == nil {
		// a literal null is not an array
		return nil, fmt.Errorf("%w: %s: null", ErrParse, file)
	}

	return records, nil
}

// WriteAll overwrites the file with the pretty-printed records
func WriteAll[T domain.Record](file string, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := Encode(records)
	if err != nil {
		return err
	}

	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, file, err)
	}
	return nil
}

// Encode renders a value the way resource files are laid out: two-space
// indent, no HTML escaping, no trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Append adds a record to the end of the file and returns the new contents
func Append[T domain.Record](file string, record T) ([]T, error) {
	return AppendWith(file, func([]T) (T, error) {
		return record, nil
	})
}

// AppendWith appends the record build derives from the current contents,
// which is how a new record gets an id that is free in the file.
func AppendWith[T domain.Record](file string, build func(existing []T) (T, error)) ([]T, error) {
	records, err := ReadAll[T](file)
	if err != nil {
		return nil, err
	}

	record, err := build(records)
	if err != nil {
		return nil, err
	}

	records = append(records, record)
	if err := WriteAll(file, records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceByID shallow-merges patch over the record with the given id and
// returns the merged record. The id itself cannot be patched.
func ReplaceByID[T domain.Record](file string, id int64, patch Patch) (T, error) {
	_, merged, err := ModifyByID(file, id, func(T) (Patch, error) {
		return patch, nil
	})
	return merged, err
}

// ModifyByID merges the patch that mutate derives from the stored record and
// returns the record before and after the change. Nothing is written when
// mutate fails.
func ModifyByID[T domain.Record](file string, id int64, mutate func(existing T) (Patch, error)) (before, after T, err error) {
	var zero T

	records, err := ReadAll[T](file)
	if err != nil {
		return zero, zero, err
	}

	index := indexOf(records, id)
	if index == -1 {
		return zero, zero, fmt.Errorf("%w: id %d in %s", ErrNotFound, id, file)
	}

	before = records[index]
	patch, err := mutate(before)
	if err != nil {
		return zero, zero, err
	}

	merged, err := Merge(before, patch.Without("id"))
	if err != nil {
		return zero, zero, err
	}

	records[index] = merged
	if err := WriteAll(file, records); err != nil {
		return zero, zero, err
	}
	return before, merged, nil
}

// RemoveByID drops the record with the given id and returns it
func RemoveByID[T domain.Record](file string, id int64) (T, error) {
	var zero T

	records, err := ReadAll[T](file)
	if err != nil {
		return zero, err
	}

	index := indexOf(records, id)
	if index == -1 {
		return zero, fmt.Errorf("%w: id %d in %s", ErrNotFound, id, file)
	}

	removed := records[index]
	records = append(records[:index], records[index+1:]...)
	if err := WriteAll(file, records); err != nil {
		return zero, err
	}
	return removed, nil
}

// Merge overlays the top-level fields of patch on record. The result must
// still decode into T without unknown fields.
func Merge[T any](record T, patch Patch) (T, error) {
	var zero T

	raw, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("decode record fields: %w", err)
	}
	for key, value := range patch {
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	var out T
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}

// WithID returns a copy of record carrying the given id
func WithID[T any](record T, id int64) (T, error) {
	return Merge(record, Patch{"id": json.RawMessage(fmt.Sprintf("%d", id))})
}

// Field builds a patch value, panicking only on values json cannot encode
func Field(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("recordstore: unencodable patch value %T: %v", v, err))
	}
	return raw
}

// Without returns the patch minus one key, leaving p untouched
func (p Patch) Without(key string) Patch {
	if _, ok := p[key]; !ok {
		return p
	}
	out := make(Patch, len(p))
	for k, v := range p {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func indexOf[T domain.Record](records []T, id int64) int {
	for i, record := range records {
		if record.RecordID() == id {
			return i
		}
	}
	return -1
}
