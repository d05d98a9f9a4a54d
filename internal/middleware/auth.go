package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
)

// UserKey is the context key for the authenticated user
type UserKey struct{}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(UserKey{}).(domain.User)
	return user, ok
}

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (domain.User, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header.
// A missing token is 401, a bad or expired one is 403.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "Access token required", requestID)
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("rejected access token",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				WriteError(w, http.StatusForbidden, "Invalid or expired token", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token part of an Authorization header
func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
