package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/middleware"
	"github.com/your-org/wanted/internal/usecases"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// Messages shown to the client for upstream failures
const (
	msgRateLimited    = "Rate limit exceeded. Please try again later."
	msgTimeout        = "Request timeout. Please try again."
	msgUpstreamFailed = "Failed to fetch data from FBI API"
	msgPersonNotFound = "Person not found"
	msgQueryRequired  = "Search query is required"
)

// WantedHandler handles HTTP requests for the wanted directory
type WantedHandler struct {
	usecase *usecases.WantedUsecase
	logger  *zap.Logger
}

// NewWantedHandler creates a new wanted handler
func NewWantedHandler(usecase *usecases.WantedUsecase, logger *zap.Logger) *WantedHandler {
	return &WantedHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Routes mounts the wanted endpoints. Static paths come before /{id}.
func (h *WantedHandler) Routes(r chi.Router) {
	r.Get("/", h.ListWanted)
	r.Get("/search", h.SearchWanted)
	r.Get("/filters/options", h.FilterOptions)
	r.Get("/{id}", h.GetPerson)
}

// ListWanted handles GET /api/wanted?page=&pageSize=
func (h *WantedHandler) ListWanted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	page, pageSize := parsePaginationParams(r)

	result, err := h.usecase.ListWanted(ctx, page, pageSize)
	if err != nil {
		h.respondUpstreamError(w, err, requestID, "failed to list wanted persons")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result, requestID)
}

// SearchWanted handles GET /api/wanted/search?query=&page=&pageSize=
func (h *WantedHandler) SearchWanted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	query := r.URL.Query().Get("query")
	page, pageSize := parsePaginationParams(r)

	result, err := h.usecase.SearchWanted(ctx, query, page, pageSize)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			respondError(w, http.StatusBadRequest, msgQueryRequired, requestID)
			return
		}
		h.respondUpstreamError(w, err, requestID, "failed to search wanted persons")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result, requestID)
}

// FilterOptions handles GET /api/wanted/filters/options
func (h *WantedHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	result, err := h.usecase.FilterOptions(ctx)
	if err != nil {
		h.respondUpstreamError(w, err, requestID, "failed to build filter options")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result, requestID)
}

// GetPerson handles GET /api/wanted/{id}
func (h *WantedHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id parameter is required", requestID)
		return
	}

	result, err := h.usecase.GetPerson(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, http.StatusNotFound, msgPersonNotFound, requestID)
			return
		}
		h.respondUpstreamError(w, err, requestID, "failed to get wanted person")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result, requestID)
}

// respondUpstreamError maps upstream failures to a 500 with a client-facing message
func (h *WantedHandler) respondUpstreamError(w http.ResponseWriter, err error, requestID, logMsg string) {
	h.logger.Error(logMsg,
		zap.String("request_id", requestID),
		zap.Error(err),
	)

	message := msgUpstreamFailed
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		message = msgRateLimited
	case errors.Is(err, domain.ErrUpstreamTimeout):
		message = msgTimeout
	}
	respondError(w, http.StatusInternalServerError, message, requestID)
}

// parsePaginationParams reads page and pageSize. Missing or invalid values
// fall back to the defaults; pageSize is capped at maxPageSize.
func parsePaginationParams(r *http.Request) (page, pageSize int) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	pageSize, err = strconv.Atoi(query.Get("pageSize"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}
