package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const operatorKey contextKey = "operator"

// JWTAuthMiddleware guards the mutating ops routes.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		claims, err := ValidateToken(tokenStr)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey, claims.Operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperator extracts the authenticated operator from the request
// context.
func GetOperator(r *http.Request) string {
	if val := r.Context().Value(operatorKey); val != nil {
		return val.(string)
	}
	return ""
}
