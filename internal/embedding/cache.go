package embedding

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/quovi/discover/internal/metrics"
	"github.com/quovi/discover/internal/restaurant"
)

// Cache lazily builds one Table per process and hands it out read-only.
// Concurrent callers share a single build; a table is published only once it
// is complete.
type Cache struct {
	gen    Generator
	logger *zap.Logger

	table      atomic.Pointer[Table]
	generation atomic.Uint64
	builds     atomic.Uint64
	group      singleflight.Group
}

// Stats describes the cache state.
type Stats struct {
	Ready     bool   `json:"ready"`
	Size      int    `json:"size"`
	Dimension int    `json:"dimension"`
	Generator string `json:"generator"`
	Builds    uint64 `json:"builds"`
}

// NewCache creates an empty cache backed by gen.
func NewCache(gen Generator, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{gen: gen, logger: logger.Named("embeddings")}
}

// GetOrBuild returns the cached table, building it from catalog on first use.
// Cancelling ctx stops the wait but not a build shared with other callers.
func (c *Cache) GetOrBuild(ctx context.Context, catalog []restaurant.Restaurant) (*Table, error) {
	if t := c.table.Load(); t != nil {
		return t, nil
	}

	gen := c.generation.Load()
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		if t := c.table.Load(); t != nil {
			return t, nil
		}

		start := time.Now()
		t, err := Build(context.WithoutCancel(ctx), c.gen, catalog)
		metrics.RecordEmbeddingBuild(c.gen.Name(), t.Len(), err)
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)

		// A Clear during the build invalidates it.
		if c.generation.Load() == gen {
			c.table.CompareAndSwap(nil, t)
		}
		c.logger.Info("embedding table built",
			zap.String("generator", c.gen.Name()),
			zap.Int("size", t.Len()),
			zap.Int("dimension", t.Dimension()),
			zap.Duration("duration", time.Since(start)),
		)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Table), nil
	}
}

// Clear drops the cached table. The next GetOrBuild rebuilds it.
func (c *Cache) Clear() {
	c.generation.Add(1)
	c.table.Store(nil)
	metrics.EmbeddingTableSize.Set(0)
	c.logger.Info("embedding table cleared")
}

// Stats returns a snapshot of the cache state.
func (c *Cache) Stats() Stats {
	t := c.table.Load()
	return Stats{
		Ready:     t != nil,
		Size:      t.Len(),
		Dimension: t.Dimension(),
		Generator: c.gen.Name(),
		Builds:    c.builds.Load(),
	}
}
