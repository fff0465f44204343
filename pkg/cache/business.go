package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/metrics"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/redis/go-redis/v9"
)

var _ domain.BusinessRepository = (*BusinessCache)(nil)

// BusinessCache is a read-through cache over a BusinessRepository. Redis failures fall
// back to the underlying repository.
type BusinessCache struct {
	next    domain.BusinessRepository
	client  *Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewBusinessCache wraps next with a Redis cache. m may be nil.
func NewBusinessCache(next domain.BusinessRepository, client *Client, ttl time.Duration, m *metrics.Metrics, log logger.Logger) *BusinessCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.Default()
	}
	return &BusinessCache{next: next, client: client, ttl: ttl, metrics: m, logger: log}
}

func businessKey(id string) string {
	return "business:meta:" + id
}

// GetBusiness returns cached metadata when present
func (c *BusinessCache) GetBusiness(ctx context.Context, businessID string) (*models.BusinessMetadata, error) {
	key := businessKey(businessID)

	raw, err := c.client.Get(ctx, key)
	switch {
	case err == nil:
		var biz models.BusinessMetadata
		if jsonErr := json.Unmarshal([]byte(raw), &biz); jsonErr == nil {
			c.metrics.RecordCache("redis", true)
			return &biz, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("business cache read failed", "business_id", businessID, "error", err)
	}

	c.metrics.RecordCache("redis", false)

	biz, err := c.next.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(biz); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("business cache write failed", "business_id", businessID, "error", err)
		}
	}
	return biz, nil
}

// Invalidate drops the cached entry
func (c *BusinessCache) Invalidate(ctx context.Context, businessID string) error {
	return c.client.Delete(ctx, businessKey(businessID))
}
