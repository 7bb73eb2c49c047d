package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthStatusResponse represents the authentication status.
type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

// handleLogin starts the OAuth login flow against the instance-source.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.authManager.GetAuthorizationURL()
	if err != nil {
		http.Error(w, "Failed to generate authorization URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"authUrl": authURL})
}

// handleAuthCallback handles the OAuth callback and establishes the session.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, "loadplan-session")

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := s.authManager.ExchangeCodeForTokens(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange authorization code", http.StatusInternalServerError)
		return
	}

	session.Values["authenticated"] = true
	session.Values["access_token"] = token.AccessToken
	session.Values["refresh_token"] = token.RefreshToken
	session.Values["token_expiry"] = token.Expiry.Unix()
	session.Values["user_id"] = userIDFromToken(token.AccessToken)

	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, s.config.FrontendURL, http.StatusFound)
}

// handleLogout clears the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, "loadplan-session")

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to clear session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

// handleAuthStatus reports whether the caller has a valid session.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, "loadplan-session")

	authenticated, ok := session.Values["authenticated"].(bool)
	if !ok || !authenticated {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AuthStatusResponse{Authenticated: false})
		return
	}

	userID, _ := session.Values["user_id"].(string)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthStatusResponse{Authenticated: true, UserID: userID})
}

// getUserIDFromSession extracts the caller's user id from the session.
func (s *Server) getUserIDFromSession(r *http.Request) (string, error) {
	session, _ := s.sessionStore.Get(r, "loadplan-session")

	userID, ok := session.Values["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("no user id in session")
	}
	return userID, nil
}

// userIDFromToken derives a stable caller identity from an opaque access
// token. The instance-source has no userinfo endpoint this module talks
// to, so identity is pinned to the token itself rather than a profile
// lookup; sufficient to key audit entries and the admin allowlist.
func userIDFromToken(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])[:16]
}
