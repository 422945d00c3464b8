package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mardix/equiptest/pkg/logger"
)

// CachedRepo wraps a Repository with a Redis read-through cache for
// association lookups. Associations are reference data read on every
// reconcile, so they are cached as JSON under "assoc:<sessionTypeId>" with a
// short TTL; everything else passes straight through. Cache failures degrade
// to the underlying repo, never to an error.
type CachedRepo struct {
	Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepo(inner Repository, client *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepo{Repository: inner, client: client, ttl: ttl}
}

func (c *CachedRepo) key(sessionTypeID string) string {
	return "assoc:" + sessionTypeID
}

func (c *CachedRepo) ListAssociations(ctx context.Context, sessionTypeID string) ([]Association, error) {
	if b, err := c.client.Get(ctx, c.key(sessionTypeID)).Bytes(); err == nil {
		var out []Association
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// stale or corrupt entry: drop it and fall through
		_ = c.client.Del(ctx, c.key(sessionTypeID)).Err()
	} else if err != redis.Nil {
		logger.Warnf("association cache get failed: %v", err)
	}

	out, err := c.Repository.ListAssociations(ctx, sessionTypeID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := c.client.Set(ctx, c.key(sessionTypeID), b, c.ttl).Err(); err != nil {
			logger.Warnf("association cache set failed: %v", err)
		}
	}
	return out, nil
}

// Invalidate drops the cached associations for one session type. Call after
// back-office edits to the association table.
func (c *CachedRepo) Invalidate(ctx context.Context, sessionTypeID string) error {
	return c.client.Del(ctx, c.key(sessionTypeID)).Err()
}
