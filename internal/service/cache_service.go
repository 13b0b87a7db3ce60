package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

// Cache key prefixes. Writes invalidate prefix + ":*".
const (
	cachePrefixSubjects = "subjects"
	cachePrefixSchools  = "schools"
	cachePrefixClasses  = "classes"
	cachePrefixTerms    = "terms"
	cachePrefixSessions = "sessions"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService orchestrates cache operations and related metrics.
// Cache failures are logged and never fail the calling request.
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
		defaultTTL = 10 * time.Minute
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

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores the value in cache; a non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every key under the given prefixes.
func (s *CacheService) Invalidate(ctx context.Context, prefixes ...string) {
	if !s.Enabled() {
		return
	}
	for _, prefix := range prefixes {
		pattern := prefix + ":*"
		if _, err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// cacheKey joins a prefix and the stringified parts into a key such as "subjects:list:math:1:20:name:ASC".
func cacheKey(prefix string, parts ...interface{}) string {
	b := strings.Builder{}
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(strings.ToLower(fmt.Sprint(p)))
	}
	return b.String()
}

type cachedPage[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// cachedList serves a listing from cache or load, recording query timing under label.
func cachedList[T any](ctx context.Context, cache *CacheService, metrics *MetricsService, key, label string, load func() ([]T, int, error)) ([]T, int, bool, error) {
	var page cachedPage[T]
	if cache.Get(ctx, key, &page) {
		return page.Items, page.Total, true, nil
	}

	start := time.Now()
	items, total, err := load()
	if err != nil {
		return nil, 0, false, err
	}
	metrics.ObserveDBQuery(label, time.Since(start))
	if items == nil {
		items = []T{}
	}
	cache.Set(ctx, key, cachedPage[T]{Items: items, Total: total}, 0)
	return items, total, false, nil
}
