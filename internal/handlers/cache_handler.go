package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/middleware"
)

// cacheBackend names the cache implementation in admin responses
const cacheBackend = "enhanced-memory"

const warmupTimeout = 15 * time.Second

// CacheAdmin is the administrative surface of the cache
type CacheAdmin interface {
	Stats() cache.Stats
	Clear()
	Warmup(ctx context.Context)
}

// CacheHandler exposes cache stats, clear and warmup over HTTP
type CacheHandler struct {
	cache  CacheAdmin
	logger *zap.Logger
}

// NewCacheHandler creates a new cache admin handler
func NewCacheHandler(c CacheAdmin, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  c,
		logger: logger,
	}
}

// StatusResponse is the body of every cache admin endpoint
type StatusResponse struct {
	Status  string      `json:"status"`
	Cache   string      `json:"cache,omitempty"`
	Message string      `json:"message,omitempty"`
	Stats   cache.Stats `json:"stats"`
}

// Stats handles GET /api/cache/stats
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, StatusResponse{
		Status: "ok",
		Cache:  cacheBackend,
		Stats:  h.cache.Stats(),
	}, middleware.GetRequestID(r.Context()))
}

// Clear handles POST /api/cache/clear
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.cache.Clear()
	h.logger.Info("cache cleared via admin endpoint", zap.String("request_id", requestID))

	respondJSON(w, h.logger, http.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "Cache cleared successfully",
		Stats:   h.cache.Stats(),
	}, requestID)
}

// Warmup handles POST /api/cache/warmup. Warmup never fails, so neither does this.
func (h *CacheHandler) Warmup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), warmupTimeout)
	defer cancel()
	h.cache.Warmup(ctx)

	respondJSON(w, h.logger, http.StatusOK, StatusResponse{
		Status:  "ok",
		Message: "Cache warmup completed",
		Stats:   h.cache.Stats(),
	}, requestID)
}

// Health handles GET /health
func (h *CacheHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, StatusResponse{
		Status: "ok",
		Cache:  cacheBackend,
		Stats:  h.cache.Stats(),
	}, middleware.GetRequestID(r.Context()))
}
