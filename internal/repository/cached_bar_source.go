package repository

import (
	"context"
	"errors"
	"time"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	"AMDScope/pkg/cache"
	applogger "AMDScope/pkg/logger"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// CachedBarSource decorates a BarSource with a read-through cache.
// Concurrent misses on one key are collapsed by a short-lived fill lock;
// losers of the lock fetch directly instead of waiting.
type CachedBarSource struct {
	next    domrepo.BarSource
	cache   cache.Service
	ttl     time.Duration
	lockTTL time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

// NewCachedBarSource wraps next. A nil metrics recorder is replaced by a no-op.
func NewCachedBarSource(next domrepo.BarSource, c cache.Service, ttl, lockTTL time.Duration, m domrepo.Metrics, l *applogger.Logger) *CachedBarSource {
	if m == nil {
		m = domrepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &CachedBarSource{next: next, cache: c, ttl: ttl, lockTTL: lockTTL, metrics: m, l: l}
}

func (s *CachedBarSource) Name() string { return s.next.Name() }

func (s *CachedBarSource) FetchBars(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) ([]models.Bar, error) {
	key := cache.GenerateKeyWithParams("bars", s.next.Name(), symbol, period.String(), string(interval))

	var bars []models.Bar
	err := s.cache.Get(ctx, key, &bars)
	switch {
	case err == nil && len(bars) > 0:
		s.metrics.RecordCache(cacheHit)
		return bars, nil
	case err == nil, errors.Is(err, cache.ErrCacheMiss):
		s.metrics.RecordCache(cacheMiss)
	default:
		s.metrics.RecordCache(cacheError)
		s.l.Warn("bar cache get failed", applogger.String("key", key), applogger.Error(err))
	}

	lock := cache.LockKey(key)
	locked, lerr := s.cache.TryLock(ctx, lock, s.lockTTL)
	if lerr != nil {
		s.l.Warn("bar cache lock failed", applogger.String("key", key), applogger.Error(lerr))
	}
	if locked {
		defer func() {
			if err := s.cache.Unlock(context.WithoutCancel(ctx), lock); err != nil {
				s.l.Warn("bar cache unlock failed", applogger.String("key", key), applogger.Error(err))
			}
		}()
	}

	bars, err = s.next.FetchBars(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if locked {
		if err := s.cache.Set(ctx, key, bars, s.ttl); err != nil {
			s.metrics.RecordCache(cacheError)
			s.l.Warn("bar cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return bars, nil
}

// Health delegates to the wrapped source when it reports liveness.
func (s *CachedBarSource) Health(ctx context.Context) error {
	if hc, ok := s.next.(domrepo.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

var _ domrepo.BarSource = (*CachedBarSource)(nil)
