// Package embcache caches per-residue embeddings in a key-value store, keyed
// by the sha256 of the sequence.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/db"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

const keyPrefix = "emb:"

// store is the consumer interface for the embedding cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder caches per-residue embeddings around an inner embedder.
type CachedEmbedder struct {
	inner      domain.ResidueEmbedder
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. cacheTotal is a counter vec with labels
// "kind" and "result", passed explicitly.
func New(
	inner domain.ResidueEmbedder,
	s store,
	prefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		prefix:     prefix + keyPrefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// EmbedResidues returns a cached embedding or calls the inner embedder.
func (c *CachedEmbedder) EmbedResidues(ctx context.Context, sequence string) (domain.ResidueEmbedding, error) {
	key := c.cacheKey(sequence)

	if emb, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return emb, nil
	}
	c.incCache("miss")

	emb, err := c.inner.EmbedResidues(ctx, sequence)
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("embed residues: %w", err)
	}

	c.putToCache(ctx, key, emb)
	return emb, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("embedding", result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(sequence string) string {
	h := sha256.Sum256([]byte(sequence))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) (domain.ResidueEmbedding, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return domain.ResidueEmbedding{}, false
	}

	emb, err := decodeMatrix(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return domain.ResidueEmbedding{}, false
	}
	return emb, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, emb domain.ResidueEmbedding) {
	if err := c.store.Set(ctx, key, encodeMatrix(emb)); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

// encodeMatrix serializes an L x D embedding as two uint32 dimensions
// followed by row-major little-endian float64 values.
func encodeMatrix(emb domain.ResidueEmbedding) []byte {
	l, d := emb.Len(), emb.Dim()
	buf := make([]byte, 8+l*d*8)
	binary.LittleEndian.PutUint32(buf[0:], uint32(l))
	binary.LittleEndian.PutUint32(buf[4:], uint32(d))
	off := 8
	for i := 0; i < l; i++ {
		for _, v := range emb.Row(i) {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
			off += 8
		}
	}
	return buf
}

func decodeMatrix(data []byte) (domain.ResidueEmbedding, error) {
	if len(data) < 8 {
		return domain.ResidueEmbedding{}, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	l := int(binary.LittleEndian.Uint32(data[0:]))
	d := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) != 8+l*d*8 {
		return domain.ResidueEmbedding{}, fmt.Errorf(
			"invalid embedding cache data: len=%d for %dx%d matrix", len(data), l, d,
		)
	}

	rows := make([][]float64, l)
	off := 8
	for i := range rows {
		row := make([]float64, d)
		for j := range row {
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
		rows[i] = row
	}
	emb, err := domain.NewResidueEmbedding(rows)
	if err != nil {
		return domain.ResidueEmbedding{}, fmt.Errorf("decode embedding: %w", err)
	}
	return emb, nil
}
