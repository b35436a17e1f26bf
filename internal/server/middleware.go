package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/truthline/truthline/internal/storage"
)

type contextKey string

const userContextKey contextKey = "user"

// requireAuth resolves the Bearer token and attaches the user to the request context
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.sendError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.sendError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user attached by requireAuth
func currentUser(r *http.Request) *storage.User {
	user, _ := r.Context().Value(userContextKey).(*storage.User)
	return user
}
