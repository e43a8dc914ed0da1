package transport

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"autek/internal/middleware"
	"autek/internal/recordstore"
	"autek/internal/repository"
	"autek/internal/service"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

var errMissingID = errors.New("id is required")

// respondWithServiceError maps service and storage errors onto HTTP statuses.
// Unexpected errors are answered with 500 and the raw cause attached.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, resource, action string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, recordstore.ErrInvalidPatch):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid "+resource+" fields", err.Error())
	case errors.Is(err, context.Canceled):
		logger.Debug("Request cancelled", zap.String("resource", resource), zap.String("action", action))
	default:
		logger.Error("Request failed",
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		middleware.RespondWithErrorDetails(w, http.StatusInternalServerError, "failed to "+action+" "+resource, err.Error())
	}
}

// respondWithDecodeError answers a body that could not be read or validated
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}

	middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
}

// parseID reads a record id, rejecting anything that is not a whole number
func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errMissingID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseForm reads a multipart or urlencoded body of at most maxSize bytes
func parseForm(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// decodeForm binds posted values onto dst by their form tags and validates
// it. Blank values count as absent, so optional pointer fields stay nil.
func decodeForm(values url.Values, dst interface{}) error {
	input := map[string]interface{}{}
	for key, vals := range values {
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		input[key] = vals[0]
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return err
	}

	return middleware.ValidateRequest(dst)
}

// formFile is an uploaded file that must be closed once handled
type formFile struct {
	multipart.File
	name string
}

// openFormFile opens the first file posted under field. It returns nil when
// the form carries no such file.
func openFormFile(r *http.Request, field string) (*formFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	header := r.MultipartForm.File[field][0]
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", field, err)
	}
	return &formFile{File: file, name: header.Filename}, nil
}

func (f *formFile) upload() *service.Upload {
	if f == nil {
		return nil
	}
	return &service.Upload{Filename: f.name, Content: f.File}
}

func (f *formFile) close() {
	if f != nil {
		f.Close()
	}
}

// hasField reports whether the form posted field as a value or a file
func hasField(r *http.Request, field string) bool {
	if _, ok := r.PostForm[field]; ok {
		return true
	}
	return r.MultipartForm != nil && len(r.MultipartForm.File[field]) > 0
}

// cleanupForm drops temporary files of a parsed multipart form
func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

func priceInput(current, old, discount *float64) service.PriceInput {
	return service.PriceInput{Current: current, Old: old, Discount: discount}
}
