package infra

import (
	"context"
	"encoding/json"
	"time"

	"bookpos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	priceCacheTTL    = 4 * time.Hour
	priceCachePrefix = "price:"
)

// PriceCache is a redis read-through cache for the public price check.
// Every redis error degrades to a miss.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPriceCache(rdb *redis.Client) *PriceCache {
	return &PriceCache{rdb: rdb, ttl: priceCacheTTL}
}

func (p *PriceCache) Get(ctx context.Context, isbn string) (*dto.PriceCheckResponse, bool) {
	raw, err := p.rdb.Get(ctx, priceCachePrefix+isbn).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("isbn", isbn).Msg("price cache read failed")
		}
		return nil, false
	}
	var resp dto.PriceCheckResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (p *PriceCache) Set(ctx context.Context, isbn string, v *dto.PriceCheckResponse) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Detached from the request so a client hang-up does not drop the write.
	if err := p.rdb.Set(context.WithoutCancel(ctx), priceCachePrefix+isbn, b, p.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("isbn", isbn).Msg("price cache write failed")
	}
}

func (p *PriceCache) Invalidate(ctx context.Context, isbns ...string) {
	if len(isbns) == 0 {
		return
	}
	keys := make([]string, len(isbns))
	for i, k := range isbns {
		keys[i] = priceCachePrefix + k
	}
	if err := p.rdb.Del(context.WithoutCancel(ctx), keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("isbns", isbns).Msg("price cache invalidation failed")
	}
}
