package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	UserIDFromToken(token string) (uuid.UUID, error)
}

func Auth(verifier TokenVerifier, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WithField("path", r.URL.Path).Debug("missing authorization header")
				writeUnauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WithField("path", r.URL.Path).Debug("invalid authorization header format")
				writeUnauthorized(w, "Invalid authorization header")
				return
			}

			userID, err := verifier.UserIDFromToken(parts[1])
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("token validation failed")
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"kind":"unauthenticated","message":"` + message + `"}}`))
}
