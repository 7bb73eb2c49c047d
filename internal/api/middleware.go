package api

import (
	"net/http"
)

// authMiddleware checks if the caller has an authenticated session with a
// valid (or refreshable) access token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.sessionStore.Get(r, "loadplan-session")

		authenticated, ok := session.Values["authenticated"].(bool)
		if !ok || !authenticated {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		refreshed, err := s.authManager.RefreshTokenIfNeeded(session)
		if err != nil {
			http.Error(w, "Authentication expired", http.StatusUnauthorized)
			return
		}

		if refreshed {
			if err := session.Save(r, w); err != nil {
				// The request can still proceed on the still-valid in-memory
				// session; the refreshed token just won't persist past this
				// response.
				s.logf("failed to save session after token refresh: %v", err)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// adminMiddleware restricts a route to the configured admin user ids.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.getUserIDFromSession(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !s.isAdmin(userID) {
			http.Error(w, "Forbidden: administrator role required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAdmin(userID string) bool {
	for _, id := range s.config.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
