// Package foldcache caches predicted structures (raw PDB bytes) in a
// key-value store, keyed by the sha256 of the sequence. Fold jobs run for
// minutes, so cached structures carry a TTL instead of living forever.
package foldcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/db"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

const keyPrefix = "fold:"

// store is the consumer interface for the structure cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFolder caches folding results around an inner folder.
type CachedFolder struct {
	inner      domain.Folder
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. cacheTotal is a counter vec with labels
// "kind" and "result", passed explicitly.
func New(
	inner domain.Folder,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFolder {
	return &CachedFolder{
		inner:      inner,
		store:      s,
		prefix:     prefix + keyPrefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fold returns a cached structure or calls the inner folder.
func (c *CachedFolder) Fold(ctx context.Context, sequence string) ([]byte, error) {
	key := c.cacheKey(sequence)

	data, err := c.store.Get(ctx, key)
	if err == nil && len(data) > 0 {
		c.incCache("hit")
		return data, nil
	}
	if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		c.logger.Warn("Failed to get cached structure", zap.String("key", key), zap.Error(err))
	}
	c.incCache("miss")

	pdb, err := c.inner.Fold(ctx, sequence)
	if err != nil {
		return nil, fmt.Errorf("fold: %w", err)
	}

	if err := c.store.SetWithTTL(ctx, key, pdb, c.ttl); err != nil {
		c.logger.Warn("Failed to cache structure", zap.String("key", key), zap.Error(err))
	}
	return pdb, nil
}

func (c *CachedFolder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("structure", result).Inc()
	}
}

func (c *CachedFolder) cacheKey(sequence string) string {
	h := sha256.Sum256([]byte(sequence))
	return c.prefix + hex.EncodeToString(h[:])
}
