package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/coldchain/loadplan/internal/config"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
)

// Manager handles authentication and access-token management against the
// single instance-source OAuth environment a depot's data feed lives in.
type Manager struct {
	config       *config.Config
	sessionStore sessions.Store
	oauth        *oauth2.Config
}

// NewManager creates a new auth manager.
func NewManager(cfg *config.Config, store sessions.Store) *Manager {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.SourceClientID,
		ClientSecret: cfg.SourceClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.SourceAuthEndpoint,
			TokenURL: cfg.SourceTokenEndpoint,
		},
		RedirectURL: cfg.OAuthRedirectURI,
		Scopes:      []string{"openid", "profile"},
	}

	return &Manager{config: cfg, sessionStore: store, oauth: oauthCfg}
}

// GetAuthorizationURL generates the OAuth authorization URL.
func (m *Manager) GetAuthorizationURL() (string, error) {
	state, err := generateRandomState()
	if err != nil {
		return "", err
	}
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// ExchangeCodeForTokens exchanges an authorization code for access and refresh tokens.
func (m *Manager) ExchangeCodeForTokens(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

// RefreshTokenIfNeeded checks if the token needs refreshing and refreshes it
// if necessary. Returns (true, nil) if refreshed, (false, nil) if still valid.
func (m *Manager) RefreshTokenIfNeeded(session *sessions.Session) (bool, error) {
	expiryUnix, ok := session.Values["token_expiry"].(int64)
	if !ok {
		return false, fmt.Errorf("invalid token expiry in session")
	}

	expiry := time.Unix(expiryUnix, 0)
	timeUntilExpiry := time.Until(expiry)

	if timeUntilExpiry > m.config.TokenRefreshBuffer {
		return false, nil
	}

	refreshToken, ok := session.Values["refresh_token"].(string)
	if !ok || refreshToken == "" {
		return false, fmt.Errorf("no refresh token available")
	}

	token := &oauth2.Token{RefreshToken: refreshToken}
	tokenSource := m.oauth.TokenSource(context.Background(), token)

	newToken, err := tokenSource.Token()
	if err != nil {
		return false, fmt.Errorf("failed to refresh token: %w", err)
	}

	session.Values["access_token"] = newToken.AccessToken
	if newToken.RefreshToken != "" {
		session.Values["refresh_token"] = newToken.RefreshToken
	}
	session.Values["token_expiry"] = newToken.Expiry.Unix()

	return true, nil
}

// GetAccessToken retrieves the access token from the session.
func (m *Manager) GetAccessToken(session *sessions.Session) (string, error) {
	token, ok := session.Values["access_token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("no access token in session")
	}
	return token, nil
}

func generateRandomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
