// Package cache memoizes ranked lists in Redis. Concurrent misses for the same
// key are collapsed into one ranking call.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/query"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/resilience"
)

const (
	keyPrefix = "rank:"

	defaultStoreTimeout = 250 * time.Millisecond
)

// Store is the key-value surface the cache needs; *pkgredis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Ranker is the ranking the cache wraps. Fingerprint identifies the corpus
// it ranks so entries from another index are never served.
type Ranker interface {
	Rank(ctx context.Context, q query.Query, depth int, s ranking.Scorer) (ranking.RankedList, error)
	Fingerprint() string
}

// RankCache is a Ranker that serves repeated (scorer, query, depth) requests
// from the store and falls through to the wrapped ranker otherwise. Store calls
// are bounded by a timeout and skipped entirely while the breaker is open.
type RankCache struct {
	next         Ranker
	store        Store
	ttl          time.Duration
	storeTimeout time.Duration
	breaker      *resilience.Breaker
	group        singleflight.Group
	metrics      *metrics.Metrics
	logger       *slog.Logger
	hits         atomic.Int64
	misses       atomic.Int64
}

type Option func(*RankCache)

// WithStoreTimeout bounds each store round trip. Non-positive values keep
// the default.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *RankCache) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithBreaker replaces the default breaker guarding the store.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *RankCache) { c.breaker = b }
}

func New(next Ranker, store Store, ttl time.Duration, m *metrics.Metrics, opts ...Option) *RankCache {
	c := &RankCache{
		next:         next,
		store:        store,
		ttl:          ttl,
		storeTimeout: defaultStoreTimeout,
		metrics:      m,
		logger:       slog.Default().With("component", "rank-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker("rank-cache", resilience.BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			IsFailure:        isStoreFailure,
		})
	}
	return c
}

// isStoreFailure ignores key-not-found so that misses never open the breaker.
func isStoreFailure(err error) bool {
	return err != nil && !pkgredis.IsNilError(err)
}

func (c *RankCache) Rank(ctx context.Context, q query.Query, depth int, s ranking.Scorer) (ranking.RankedList, error) {
	key := BuildKey(c.next.Fingerprint(), q, depth, s)
	if list, ok := c.get(ctx, key); ok {
		return list, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		list, err := c.next.Rank(ctx, q, depth, s)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(ranking.RankedList), nil
}

func (c *RankCache) get(ctx context.Context, key string) (ranking.RankedList, bool) {
	var data []byte
	err := c.breaker.Do(func() error {
		return resilience.CallWithin(ctx, c.storeTimeout, "cache get", func(ctx context.Context) error {
			var err error
			data, err = c.store.Get(ctx, key)
			return err
		})
	})
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrBreakerOpen):
			c.logger.Debug("cache get skipped", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var list ranking.RankedList
	if err := cbor.Unmarshal(data, &list); err != nil {
		c.logger.Error("cache decode failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return list, true
}

func (c *RankCache) set(ctx context.Context, key string, list ranking.RankedList) {
	data, err := cbor.Marshal(list)
	if err != nil {
		c.logger.Error("cache encode failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return resilience.CallWithin(ctx, c.storeTimeout, "cache set", func(ctx context.Context) error {
			return c.store.Set(ctx, key, data, c.ttl)
		})
	})
	if err != nil && !errors.Is(err, resilience.ErrBreakerOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *RankCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *RankCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating rank cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *RankCache) Fingerprint() string { return c.next.Fingerprint() }

func (c *RankCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey hashes the corpus fingerprint, the scorer identity, the analyzed
// query terms and the depth. Queries that analyze to the same terms share an
// entry.
func BuildKey(corpus string, q query.Query, depth int, s ranking.Scorer) string {
	var b strings.Builder
	b.WriteString(corpus)
	b.WriteByte('|')
	b.WriteString(string(s.Method()))
	for _, p := range s.Params() {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
	}
	b.WriteString("|")
	for i, t := range q.Terms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Text)
		b.WriteByte('^')
		b.WriteString(strconv.Itoa(t.Weight))
	}
	fmt.Fprintf(&b, "|depth=%d", depth)
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
