package rates

import (
	"context"
	"sync"
	"time"
	"tradepost/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = time.Hour

	// retryBackoff is how long a failed refresh suppresses further attempts.
	retryBackoff = time.Minute
)

// Source fetches fresh conversion factors from an external provider.
type Source interface {
	Fetch(ctx context.Context) (domain.Rates, error)
}

type SourceFunc func(ctx context.Context) (domain.Rates, error)

func (f SourceFunc) Fetch(ctx context.Context) (domain.Rates, error) {
	return f(ctx)
}

// Cache serves exchange rates with a fixed TTL. A stale read triggers one
// refresh shared by every concurrent caller; when the refresh fails the
// previous rates keep being served.
type Cache struct {
	source  Source
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	snapshot domain.ExchangeRateSnapshot
	failedAt time.Time

	group singleflight.Group
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTimeout bounds each refresh call to the source.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache seeds the cache with fallback rates. The seed counts as never
// fetched, so the first read attempts a refresh.
func NewCache(source Source, fallback domain.Rates, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		ttl:     DefaultTTL,
		timeout: 5 * time.Second,
		now:     time.Now,
		snapshot: domain.ExchangeRateSnapshot{
			Rates:    fallback.Clone(),
			Fallback: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRates never fails: on refresh error or timeout it returns the last good
// rates, or the fallback seed if nothing was ever fetched.
func (c *Cache) GetRates(ctx context.Context) domain.ExchangeRateSnapshot {
	current := c.current()
	if !c.stale(current) || c.backingOff() {
		return current
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.ExchangeRateSnapshot)
	case <-ctx.Done():
		return current
	}
}

func (c *Cache) current() domain.ExchangeRateSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copySnapshot(c.snapshot)
}

func (c *Cache) backingOff() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.failedAt.IsZero() && c.now().Sub(c.failedAt) < retryBackoff
}

func (c *Cache) stale(s domain.ExchangeRateSnapshot) bool {
	return s.FetchedAt.IsZero() || c.now().Sub(s.FetchedAt) >= c.ttl
}

func (c *Cache) refresh() domain.ExchangeRateSnapshot {
	// A refresh may have landed between the stale check and this call.
	if current := c.current(); !c.stale(current) {
		return current
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	fetched, err := c.source.Fetch(ctx)
	if err == nil && len(fetched) == 0 {
		err = domain.ErrExternalService
	}
	if err != nil {
		zap.L().Warn("Exchange rate refresh failed, serving cached rates", zap.Error(err))

		c.mu.Lock()
		defer c.mu.Unlock()
		c.failedAt = c.now()
		return copySnapshot(c.snapshot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := c.snapshot.Rates.Clone()
	for pair, factor := range fetched {
		merged[pair] = factor
	}
	c.snapshot = domain.ExchangeRateSnapshot{
		Rates:     merged,
		FetchedAt: c.now(),
	}
	c.failedAt = time.Time{}

	zap.L().Info("Exchange rates refreshed", zap.Int("pairs", len(merged)))

	return copySnapshot(c.snapshot)
}

func copySnapshot(s domain.ExchangeRateSnapshot) domain.ExchangeRateSnapshot {
	s.Rates = s.Rates.Clone()
	return s
}
