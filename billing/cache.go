package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Card is the public membership view resolved by barcode. This is the
// only data exposed to unauthenticated partner lookups.
type Card struct {
	Barcode  string             `json:"barcode"`
	PlanName string             `json:"planName"`
	Status   SubscriptionStatus `json:"status"`
	EndDate  *time.Time         `json:"endDate,omitempty"`
}

// CardCache caches public card lookups. Implementations are best-effort:
// a failing cache degrades to database reads, never to request failures.
type CardCache interface {
	Get(ctx context.Context, barcode string) (*Card, bool)
	Set(ctx context.Context, card *Card)
	Invalidate(ctx context.Context, barcodes ...string)
}

// RedisCardCache implements CardCache on Redis with a short TTL, keeping
// partner-facing lookups off the primary database.
type RedisCardCache struct {
	client *redis.Client
	ttl    time.Duration
}

const cardKeyPrefix = "card:"

// NewRedisCardCache wraps a Redis client. A non-positive ttl defaults to
// one minute; card state changes rarely, but supersession must surface
// quickly, so the window stays short.
func NewRedisCardCache(client *redis.Client, ttl time.Duration) *RedisCardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCardCache{client: client, ttl: ttl}
}

func (c *RedisCardCache) Get(ctx context.Context, barcode string) (*Card, bool) {
	raw, err := c.client.Get(ctx, cardKeyPrefix+barcode).Bytes()
	if err != nil {
		return nil, false
	}
	var card Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, false
	}
	return &card, true
}

func (c *RedisCardCache) Set(ctx context.Context, card *Card) {
	raw, err := json.Marshal(card)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cardKeyPrefix+card.Barcode, raw, c.ttl).Err()
}

func (c *RedisCardCache) Invalidate(ctx context.Context, barcodes ...string) {
	if len(barcodes) == 0 {
		return
	}
	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = cardKeyPrefix + b
	}
	_ = c.client.Del(ctx, keys...).Err()
}

var _ CardCache = (*RedisCardCache)(nil)
