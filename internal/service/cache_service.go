package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheService caches department, faculty and level names keyed by kind and id.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// LookupName returns a cached name. Read failures count as misses.
func (s *CacheService) LookupName(ctx context.Context, kind, id string) (string, bool) {
	if !s.Enabled() || id == "" {
		return "", false
	}
	key := lookupKey(kind, id)
	start := time.Now()
	var name string
	err := s.repo.Get(ctx, key, &name)
	s.metrics.RecordCacheOperation(err == nil && name != "", time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return name, name != ""
}

// StoreName caches a successfully resolved name.
func (s *CacheService) StoreName(ctx context.Context, kind, id, name string) {
	if !s.Enabled() || id == "" || name == "" {
		return
	}
	key := lookupKey(kind, id)
	start := time.Now()
	err := s.repo.Set(ctx, key, name, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func lookupKey(kind, id string) string {
	return fmt.Sprintf("idcard:lookup:%s:%s", kind, id)
}
