package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coldchain/loadplan/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ServiceAccountTokenManager manages the client-credentials OAuth token the
// instance-source worker uses to pull a day's planning artefacts without a
// user session.
type ServiceAccountTokenManager struct {
	cc    *clientcredentials.Config
	token *oauth2.Token
	mu    sync.RWMutex
}

// NewServiceAccountTokenManager creates a new service account token manager.
func NewServiceAccountTokenManager(cfg *config.Config) *ServiceAccountTokenManager {
	return &ServiceAccountTokenManager{
		cc: &clientcredentials.Config{
			ClientID:     cfg.SourceClientID,
			ClientSecret: cfg.SourceClientSecret,
			TokenURL:     cfg.SourceTokenEndpoint,
		},
	}
}

// GetToken returns a valid access token, refreshing it if expired.
func (m *ServiceAccountTokenManager) GetToken() (string, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token != nil && token.Valid() {
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != nil && m.token.Valid() {
		return m.token.AccessToken, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	newToken, err := m.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get instance-source token: %w", err)
	}

	m.token = newToken
	return newToken.AccessToken, nil
}
