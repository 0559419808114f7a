package main

import (
	"net/http"
	"strings"

	"fms-project/api-gateway/utils"
)

func authMiddleware(next http.Handler, allowedRoles []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if claims.Role == "" {
			http.Error(w, "Missing role in token", http.StatusUnauthorized)
			return
		}

		if !contains(allowedRoles, claims.Role) {
			http.Error(w, "Access forbidden", http.StatusForbidden)
			return
		}

		// Downstream services trust these headers, never the client's.
		r.Header.Set("Role", claims.Role)
		r.Header.Set("User-ID", claims.UserID)
		next.ServeHTTP(w, r)
	})
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
