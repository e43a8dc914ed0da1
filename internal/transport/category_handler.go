package transport

import (
	"net/http"

	"autek/internal/middleware"
	"autek/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents the category creation form
type CreateCategoryRequest struct {
	Title string `form:"title" validate:"required"`
}

// UpdateCategoryRequest represents the category update form
type UpdateCategoryRequest struct {
	ID    int64   `form:"id" validate:"required"`
	Title *string `form:"title"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	maxUploadSize   int64
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, maxUploadSize int64, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/category", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/upload", h.Create)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

// List returns every category, or with ?title= the products of that category
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if title := r.URL.Query().Get("title"); title != "" {
		products, err := h.categoryService.ProductsByTitle(r.Context(), title)
		if err != nil {
			respondWithServiceError(w, h.logger, "category", "filter", err)
			return
		}
		middleware.RespondWithData(w, http.StatusOK, products, "", nil)
		return
	}

	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "category", "list", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, categories, "", nil)
}

// Create handles the title + image form
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer cleanupForm(r)

	var req CreateCategoryRequest
	if err := decodeForm(r.PostForm, &req); err != nil {
		h.logger.Debug("Category validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	image, err := openFormFile(r, "image")
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}
	if image == nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "image", Message: "This field is required"},
		})
		return
	}
	defer image.close()

	result, err := h.categoryService.Create(r.Context(), req.Title, *image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "category", "create", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "category created", result.Warnings)
}

// Update renames a category and optionally replaces its image
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer cleanupForm(r)

	var req UpdateCategoryRequest
	if err := decodeForm(r.PostForm, &req); err != nil {
		h.logger.Debug("Category validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	image, err := openFormFile(r, "image")
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer image.close()

	result, err := h.categoryService.Update(r.Context(), req.ID, req.Title, image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "category", "update", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "category updated", result.Warnings)
}

// Delete removes the category given by ?id=
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.categoryService.Delete(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "category", "delete", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "category deleted", result.Warnings)
}
