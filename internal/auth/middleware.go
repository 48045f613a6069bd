package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userClaimsKey = contextKey("userClaims")

// UserID extracts the authenticated user's id from a request context. The
// second return value is false when the request did not pass the middleware.
func UserID(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*Claims)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// Middleware creates a middleware that gates routes behind a valid bearer
// access token. It has no side effects and must run before any repository
// access.
func Middleware(ts *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, "Bearer ")
				if len(parts) == 2 {
					tokenStr = parts[1]
				}
			}

			if tokenStr == "" {
				unauthenticated(w, "No token, authorization denied")
				return
			}

			claims, err := ts.VerifyAccess(tokenStr)
			if err != nil {
				unauthenticated(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
