package transport

import (
	"net/http"

	"autek/internal/domain"
	"autek/internal/middleware"
	"autek/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreatePopularProductRequest represents the popular product creation form.
// price is the current price.
type CreatePopularProductRequest struct {
	Title       string  `form:"title" validate:"required"`
	Description string  `form:"description"`
	Price       float64 `form:"price" validate:"gte=0"`
	OldPrice    float64 `form:"old_price" validate:"gte=0"`
	Discount    float64 `form:"discount" validate:"gte=0"`
	Rate        float64 `form:"rate" validate:"gte=0,lte=5"`
	UzumLink    string  `form:"uzum_link"`
}

// UpdatePopularProductRequest represents the popular product update form
type UpdatePopularProductRequest struct {
	ID          int64    `form:"id" validate:"required"`
	Title       *string  `form:"title"`
	Description *string  `form:"description"`
	Price       *float64 `form:"price" validate:"omitempty,gte=0"`
	OldPrice    *float64 `form:"old_price" validate:"omitempty,gte=0"`
	Discount    *float64 `form:"discount" validate:"omitempty,gte=0"`
	Rate        *float64 `form:"rate" validate:"omitempty,gte=0,lte=5"`
	UzumLink    *string  `form:"uzum_link"`
}

// PopularProductHandler handles HTTP requests for homepage highlights
type PopularProductHandler struct {
	popularProductService service.PopularProductService
	maxUploadSize         int64
	logger                *zap.Logger
}

// NewPopularProductHandler creates a new PopularProductHandler
func NewPopularProductHandler(popularProductService service.PopularProductService, maxUploadSize int64, logger *zap.Logger) *PopularProductHandler {
	return &PopularProductHandler{
		popularProductService: popularProductService,
		maxUploadSize:         maxUploadSize,
		logger:                logger,
	}
}

// RegisterRoutes registers all popular product routes
func (h *PopularProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/popular-prod", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

func (h *PopularProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.popularProductService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "popular product", "list", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, products, "", nil)
}

// Create handles the popular product form. The image is required.
func (h *PopularProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer cleanupForm(r)

	var req CreatePopularProductRequest
	if err := decodeForm(r.PostForm, &req); err != nil {
		h.logger.Debug("Popular product validation failed", zap.Error(err))
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

	result, err := h.popularProductService.Create(r.Context(), domain.PopularProduct{
		Title:       req.Title,
		Description: req.Description,
		Price:       domain.Price{Current: req.Price, Old: req.OldPrice, Discount: req.Discount},
		Rate:        req.Rate,
		UzumLink:    req.UzumLink,
	}, *image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "popular product", "create", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "popular product created", result.Warnings)
}

// Update merges the posted fields into the popular product with the posted id
func (h *PopularProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer cleanupForm(r)

	var req UpdatePopularProductRequest
	if err := decodeForm(r.PostForm, &req); err != nil {
		h.logger.Debug("Popular product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	image, err := openFormFile(r, "image")
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer image.close()

	result, err := h.popularProductService.Update(r.Context(), req.ID, service.PopularProductInput{
		Title:       req.Title,
		Description: req.Description,
		UzumLink:    req.UzumLink,
		Rate:        req.Rate,
		Price:       priceInput(req.Price, req.OldPrice, req.Discount),
	}, image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "popular product", "update", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "popular product updated", result.Warnings)
}

// Delete removes the popular product given by ?id= along with its image
func (h *PopularProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.popularProductService.Delete(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "popular product", "delete", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "popular product deleted", result.Warnings)
}
