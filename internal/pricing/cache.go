package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is how long a built model is served without rebuilding.
const DefaultTTL = 30 * time.Second

// BundleSource supplies the historical bundle records. Read-only from the
// pricing core's point of view.
type BundleSource interface {
	ListBundles(ctx context.Context) ([]Bundle, error)
}

// Snapshot pairs a built model with the bundle slice it was built from, so
// grading and trends rank against exactly the data the model saw.
type Snapshot struct {
	Model   *Model
	Bundles []Bundle
	BuiltAt time.Time
}

// Cache memoizes the last successfully built model for a short TTL. One
// value per process; rebuilds are last-writer-wins.
type Cache struct {
	source  BundleSource
	builder *Builder
	ttl     time.Duration
	logger  zerolog.Logger

	mu   sync.Mutex
	snap *Snapshot
}

// NewCache wires a bundle source and builder into a model cache.
func NewCache(source BundleSource, builder *Builder, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source:  source,
		builder: builder,
		ttl:     ttl,
		logger:  logger.With().Str("component", "model_cache").Logger(),
	}
}

// Get returns the cached snapshot, rebuilding when the TTL has lapsed or
// force is set. A repository failure degrades to the stale snapshot; only
// when no model was ever built does it yield an explicitly empty one, which
// is not cached so the next call retries.
func (c *Cache) Get(ctx context.Context, force bool) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.snap != nil && time.Since(c.snap.BuiltAt) < c.ttl {
		return c.snap
	}

	bundles, err := c.source.ListBundles(ctx)
	if err != nil {
		if c.snap != nil {
			c.logger.Warn().Err(err).
				Time("built_at", c.snap.BuiltAt).
				Msg("bundle fetch failed; serving stale model")
			return c.snap
		}
		c.logger.Error().Err(err).Msg("bundle fetch failed with no prior model; serving empty model")
		return &Snapshot{Model: EmptyModel(), BuiltAt: time.Now().UTC()}
	}

	c.snap = &Snapshot{
		Model:   c.builder.Build(bundles),
		Bundles: bundles,
		BuiltAt: time.Now().UTC(),
	}
	return c.snap
}
