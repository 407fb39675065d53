// Package catalog exposes per-product preparation times kept in Redis by the
// admin tooling. Only the read path consults it; ingestion stores orders
// exactly as they arrive.
package catalog

import (
	"context"
	"strconv"
	"time"

	"kitchen-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

type PrepTimes struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPrepTimes(client *redis.Client, ttl time.Duration) *PrepTimes {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PrepTimes{client: client, ttl: ttl}
}

func key(productName string) string { return "prep:" + productName }

// Seconds returns the preparation time for a product, or false when the
// catalog has no entry.
func (p *PrepTimes) Seconds(ctx context.Context, productName string) (int, bool, error) {
	val, err := p.client.Get(ctx, key(productName)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	seconds, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, nil // stale junk, treat as absent
	}
	return seconds, true, nil
}

// SetSeconds records a product's preparation time with the catalog TTL.
func (p *PrepTimes) SetSeconds(ctx context.Context, productName string, seconds int) error {
	return p.client.Set(ctx, key(productName), strconv.Itoa(seconds), p.ttl).Err()
}

// Annotate fills PreparationTimeSeconds on each item that has a catalog
// entry. A Redis failure leaves the remaining items unannotated; the read
// path treats the catalog as best-effort.
func (p *PrepTimes) Annotate(ctx context.Context, items []domain.OrderItem) {
	for i := range items {
		seconds, ok, err := p.Seconds(ctx, items[i].ProductName)
		if err != nil {
			return
		}
		if ok {
			items[i].PreparationTimeSeconds = seconds
		}
	}
}
