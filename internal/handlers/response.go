package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/middleware"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("X-Request-ID", requestID)
	middleware.WriteError(w, status, message, requestID)
}

// NotFound answers unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found", middleware.GetRequestID(r.Context()))
}

// MethodNotAllowed answers known routes hit with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", middleware.GetRequestID(r.Context()))
}
