package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	// DefaultMasterCacheTTL bounds staleness if an invalidation is ever lost
	DefaultMasterCacheTTL = 10 * time.Minute

	masterCachePrefix = "fern:masters:"
	// generation keys never expire; an expiry could reset a counter to a value a stale
	// reader still holds
	generationPrefix = "fern:master-generation:"
)

// MasterCache caches each owner's master exercise list as JSON. Cache failures are logged and
// treated as misses; the database stays the source of truth.
//
// Each owner also has a generation counter. Invalidate advances it, and SetMasters only
// writes while it is unchanged from the value read before the list was loaded.
type MasterCache struct {
	client *Client
	ttl    time.Duration
	logger ectologger.Logger
}

// NewMasterCache creates a master cache. A non-positive ttl uses DefaultMasterCacheTTL.
func NewMasterCache(client *Client, ttl time.Duration, logger ectologger.Logger) *MasterCache {
	if ttl <= 0 {
		ttl = DefaultMasterCacheTTL
	}
	return &MasterCache{client: client, ttl: ttl, logger: logger}
}

func masterKey(ownerID string) string {
	return masterCachePrefix + ownerID
}

func generationKey(ownerID string) string {
	return generationPrefix + ownerID
}

// Generation returns the owner's invalidation counter. ok is false when Redis cannot be read,
// in which case the caller must not fill the cache.
func (c *MasterCache) Generation(ctx context.Context, ownerID string) (int64, bool) {
	generation, err := c.client.Counter(ctx, generationKey(ownerID))
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("master cache generation read failed")
		return 0, false
	}
	return generation, true
}

// GetMasters returns the cached list of the owner, if any
func (c *MasterCache) GetMasters(ctx context.Context, ownerID string) ([]models.MasterExercise, bool) {
	ctx, span := tracing.StartSpan(ctx, "MasterCache.GetMasters")
	defer span.End()

	data, err := c.client.Get(ctx, masterKey(ownerID))
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("master cache read failed")
		return nil, false
	}

	var masters []models.MasterExercise
	if err := json.Unmarshal(data, &masters); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("master cache entry is corrupt, dropping it")
		c.Invalidate(ctx, ownerID)
		return nil, false
	}
	return masters, true
}

// SetMasters caches the owner's list if no invalidation happened since generation was read
func (c *MasterCache) SetMasters(ctx context.Context, ownerID string, generation int64, masters []models.MasterExercise) {
	ctx, span := tracing.StartSpan(ctx, "MasterCache.SetMasters")
	defer span.End()

	if masters == nil {
		masters = []models.MasterExercise{}
	}
	data, err := json.Marshal(masters)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to encode master cache entry")
		return
	}
	stored, err := c.client.SetIfCounter(ctx, generationKey(ownerID), generation, masterKey(ownerID), data, c.ttl)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("master cache write failed")
		return
	}
	if !stored {
		c.logger.WithContext(ctx).WithField("owner_id", ownerID).Debug("masters changed while loading, skipping cache fill")
	}
}

// Invalidate drops the owner's cached list
func (c *MasterCache) Invalidate(ctx context.Context, ownerID string) {
	ctx, span := tracing.StartSpan(ctx, "MasterCache.Invalidate")
	defer span.End()

	if err := c.client.IncrAndDel(ctx, generationKey(ownerID), masterKey(ownerID)); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("owner_id", ownerID).Error("master cache invalidation failed")
	}
}
