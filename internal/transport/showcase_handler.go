package transport

import (
	"net/http"
	"strings"

	"autek/internal/middleware"
	"autek/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ShowcaseRequest is the banner update. It arrives as a form, or as JSON
// when no image changes; JSON keys it does not declare are refused.
type ShowcaseRequest struct {
	ID       int64    `form:"id" json:"id" validate:"required"`
	MainText *string  `form:"main_text" json:"main_text"`
	TagLine  *string  `form:"tag_line" json:"tag_line"`
	Current  *float64 `form:"current" json:"current" validate:"omitempty,gte=0"`
	Old      *float64 `form:"old" json:"old" validate:"omitempty,gte=0"`
	Discount *float64 `form:"discount" json:"discount" validate:"omitempty,gte=0"`
	UzumLink *string  `form:"uzum_link" json:"uzum_link"`

	// JSON clients may send the price block nested, the way it is stored.
	// Flat fields win when both are present.
	Price *ShowcasePrice `form:"-" json:"price"`
}

type ShowcasePrice struct {
	Current  *float64 `json:"current" validate:"omitempty,gte=0"`
	Old      *float64 `json:"old" validate:"omitempty,gte=0"`
	Discount *float64 `json:"discount" validate:"omitempty,gte=0"`
}

// price folds the nested block under the flat fields
func (req ShowcaseRequest) price() service.PriceInput {
	current, old, discount := req.Current, req.Old, req.Discount
	if req.Price != nil {
		if current == nil {
			current = req.Price.Current
		}
		if old == nil {
			old = req.Price.Old
		}
		if discount == nil {
			discount = req.Price.Discount
		}
	}
	return priceInput(current, old, discount)
}

// ShowcaseHandler handles HTTP requests for the homepage banner
type ShowcaseHandler struct {
	showcaseService service.ShowcaseService
	maxUploadSize   int64
	logger          *zap.Logger
}

// NewShowcaseHandler creates a new ShowcaseHandler
func NewShowcaseHandler(showcaseService service.ShowcaseService, maxUploadSize int64, logger *zap.Logger) *ShowcaseHandler {
	return &ShowcaseHandler{
		showcaseService: showcaseService,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

// RegisterRoutes registers all showcase routes
func (h *ShowcaseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/showcase", func(r chi.Router) {
		r.Get("/", h.List)
		r.Put("/", h.Update)
	})
}

// List returns the singleton array
func (h *ShowcaseHandler) List(w http.ResponseWriter, r *http.Request) {
	showcases, err := h.showcaseService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "showcase", "list", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, showcases, "", nil)
}

// Update changes the banner fields present in the request
func (h *ShowcaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ShowcaseRequest
	var image *formFile

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
		if err := middleware.DecodeStrictAndValidate(r, &req); err != nil {
			h.logger.Debug("Showcase validation failed", zap.Error(err))
			respondWithDecodeError(w, err)
			return
		}
	} else {
		if err := parseForm(w, r, h.maxUploadSize); err != nil {
			respondWithDecodeError(w, err)
			return
		}
		defer cleanupForm(r)

		if err := decodeForm(r.PostForm, &req); err != nil {
			h.logger.Debug("Showcase validation failed", zap.Error(err))
			respondWithDecodeError(w, err)
			return
		}

		var err error
		if image, err = openFormFile(r, "image"); err != nil {
			respondWithDecodeError(w, err)
			return
		}
		defer image.close()
	}

	result, err := h.showcaseService.Update(r.Context(), req.ID, service.ShowcaseInput{
		MainText: req.MainText,
		TagLine:  req.TagLine,
		UzumLink: req.UzumLink,
		Price:    req.price(),
	}, image.upload())
	if err != nil {
		respondWithServiceError(w, h.logger, "showcase", "update", err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, result.Record, "showcase updated", result.Warnings)
}
