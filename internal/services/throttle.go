package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/coldchain/loadplan/internal/db"
	"golang.org/x/time/rate"
)

// RateLimiterService keeps one token-bucket limiter per depot, sized from
// the source_throttle_* system settings. The API's plan-run trigger uses
// Allow to cap how often a depot may request a new planning run.
type RateLimiterService struct {
	mu           sync.RWMutex
	limiters     map[string]*rate.Limiter // key: depot id
	settingsRepo *db.Queries
}

// NewRateLimiterService creates a new rate limiter service.
func NewRateLimiterService(settingsRepo *db.Queries) *RateLimiterService {
	return &RateLimiterService{
		limiters:     make(map[string]*rate.Limiter),
		settingsRepo: settingsRepo,
	}
}

// GetLimiter returns or creates the rate limiter for a depot.
func (s *RateLimiterService) GetLimiter(ctx context.Context, depotID string) (*rate.Limiter, error) {
	s.mu.RLock()
	limiter, exists := s.limiters[depotID]
	s.mu.RUnlock()

	if exists {
		return limiter, nil
	}

	return s.loadLimiter(ctx, depotID)
}

func (s *RateLimiterService) loadLimiter(ctx context.Context, depotID string) (*rate.Limiter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists := s.limiters[depotID]; exists {
		return limiter, nil
	}

	settings, err := s.settingsRepo.GetSystemSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}

	requestsPerSec := parseIntSetting(settings, "source_throttle_requests_per_second", 10)
	burstSize := parseIntSetting(settings, "source_throttle_burst_size", 5)

	limiter := rate.NewLimiter(rate.Limit(requestsPerSec), burstSize)
	s.limiters[depotID] = limiter

	return limiter, nil
}

// Wait blocks until a request for this depot is allowed under the rate limit.
func (s *RateLimiterService) Wait(ctx context.Context, depotID string) error {
	limiter, err := s.GetLimiter(ctx, depotID)
	if err != nil {
		return err
	}
	return limiter.Wait(ctx)
}

// Allow checks if a request for this depot is allowed without blocking.
func (s *RateLimiterService) Allow(ctx context.Context, depotID string) (bool, error) {
	limiter, err := s.GetLimiter(ctx, depotID)
	if err != nil {
		return false, err
	}
	return limiter.Allow(), nil
}

// ReloadSettings refreshes a depot's limiter when throttle settings change.
func (s *RateLimiterService) ReloadSettings(ctx context.Context, depotID string) error {
	s.mu.Lock()
	delete(s.limiters, depotID)
	s.mu.Unlock()

	_, err := s.loadLimiter(ctx, depotID)
	return err
}

func parseIntSetting(settings []db.SystemSetting, key string, defaultValue int) int {
	for _, setting := range settings {
		if setting.SettingKey == key {
			if val, err := strconv.Atoi(setting.SettingValue); err == nil {
				return val
			}
		}
	}
	return defaultValue
}
