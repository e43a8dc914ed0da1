package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"autek/internal/domain"
	"autek/internal/export"
	"autek/internal/middleware"
	"autek/internal/repository"
	"autek/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation form
type CreateProductRequest struct {
	Title           string  `form:"title" validate:"required"`
	Rate            float64 `form:"rate" validate:"gte=0,lte=5"`
	Current         float64 `form:"current" validate:"gte=0"`
	OldPrice        float64 `form:"old_price" validate:"gte=0"`
	Discount        float64 `form:"discount" validate:"gte=0"`
	Description     string  `form:"description"`
	FullDescription string  `form:"full_description"`
	UzumLink        string  `form:"uzum_link"`
	Category        string  `form:"category"`
}

// ProductHandler handles HTTP requests for catalog products
type ProductHandler struct {
	productService service.ProductService
	maxUploadSize  int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, maxUploadSize int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		maxUploadSize:  maxUploadSize,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/product", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/export", h.Export)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "list", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, products, "", nil)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "get", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, product, "", nil)
}

// Create handles the product form. The image is optional; the legacy
// multi-image field is refused.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer cleanupForm(r)

	if hasField(r, "images") {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "images", Message: "Multiple images are not supported, send a single image"},
		})
		return
	}

	var req CreateProductRequest
	if err := decodeForm(r.PostForm, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	image, err := openFormFile(r, "image")
	if err != nil {
		respondWithDecodeError(w, err)
		return
	}
	defer image.close()

	result, err := h.productService.Create(r.Context(), domain.Product{
		Title:           req.Title,
		Rate:            req.Rate,
		Price:           domain.ProductPrice{Current: req.Current, OldPrice: req.OldPrice, Discount: req.Discount},
		Description:     req.Description,
		FullDescription: req.FullDescription,
		UzumLink:        req.UzumLink,
		Category:        req.Category,
	}, image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "create", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "product created", result.Warnings)
}

// Update applies a JSON patch, either bare or wrapped as {"data": {...}}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := decodePatch(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		h.logger.Debug("Product patch rejected", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	result, err := h.productService.Update(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "update", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "product updated", result.Warnings)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.productService.Delete(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "delete", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "product deleted", result.Warnings)
}

// Export downloads the catalog as a spreadsheet
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "product", "export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Products(&buf, products); err != nil {
		respondWithServiceError(w, h.logger, "product", "export", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// decodePatch reads a JSON object, unwrapping a {"data": {...}} envelope
func decodePatch(body io.Reader) (repository.Patch, error) {
	var patch repository.Patch
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, errors.New("patch must be a JSON object")
	}

	if inner, ok := patch["data"]; ok && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		var unwrapped repository.Patch
		if err := json.Unmarshal(inner, &unwrapped); err != nil {
			return nil, err
		}
		return unwrapped, nil
	}
	return patch, nil
}
