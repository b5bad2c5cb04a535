package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

const countryKeyPrefix = "country:"

// DefaultCountryTTL applies when NewCachedCountries is given a zero TTL.
const DefaultCountryTTL = 10 * time.Minute

type countryBackend interface {
	Create(ctx context.Context, c *model.Country) error
	GetByID(ctx context.Context, id string) (*model.Country, error)
	List(ctx context.Context) ([]model.Country, error)
	Delete(ctx context.Context, id string) error
}

// CachedCountries puts a Redis read-through cache in front of a country
// store. Only single-country lookups are cached; a Redis failure degrades
// to a direct read.
type CachedCountries struct {
	next   countryBackend
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewCachedCountries wraps next. The client lifecycle is managed by the caller.
func NewCachedCountries(next countryBackend, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedCountries {
	if ttl <= 0 {
		ttl = DefaultCountryTTL
	}
	return &CachedCountries{next: next, client: client, ttl: ttl, log: log}
}

func (c *CachedCountries) Create(ctx context.Context, country *model.Country) error {
	if err := c.next.Create(ctx, country); err != nil {
		return err
	}
	c.evict(ctx, country.ID)
	return nil
}

func (c *CachedCountries) GetByID(ctx context.Context, id string) (*model.Country, error) {
	key := countryKeyPrefix + id
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var country model.Country
		if jerr := json.Unmarshal(raw, &country); jerr == nil {
			return &country, nil
		}
		c.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "country cache read failed", "country_id", id, "error", err)
	}

	country, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(country); jerr == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.WarnContext(ctx, "country cache write failed", "country_id", id, "error", serr)
		}
	}
	return country, nil
}

func (c *CachedCountries) List(ctx context.Context) ([]model.Country, error) {
	return c.next.List(ctx)
}

func (c *CachedCountries) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *CachedCountries) evict(ctx context.Context, id string) {
	if err := c.client.Del(ctx, countryKeyPrefix+id).Err(); err != nil {
		c.log.WarnContext(ctx, "country cache evict failed", "country_id", id, "error", err)
	}
}
