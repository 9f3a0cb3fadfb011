package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"collector-engine/internal/domain"
	"collector-engine/internal/repository"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

// TokenMiddleware authenticates requests with a personal access token, taken
// from the Authorization header or, for websocket clients, the token query
// parameter.
func TokenMiddleware(tokenRepo *repository.PersonalAccessTokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pat *domain.PersonalAccessToken

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				plainToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if plainToken != "" {
					if p, err := tokenRepo.FindTokenByPlainToken(r.Context(), plainToken); err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				if token := r.URL.Query().Get("token"); token != "" {
					if p, err := tokenRepo.FindTokenByPlainToken(r.Context(), token); err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if pat.ExpiresAt != nil && pat.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, pat.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0, errors.New("userID not found in context")
	}
	return userID, nil
}
