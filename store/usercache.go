package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
)

type (
	UserLookup interface {
		LookupUserByID(ctx context.Context, id int64) (User, error)
	}

	// UserCache is a read-through cache for user lookups by id.
	//
	// Users are never updated after creation, so an entry only leaves the
	// cache when it expires or is evicted. Missing users are not cached.
	UserCache struct {
		cache *bigcache.BigCache
		users UserLookup
	}
)

func NewUserCache(users UserLookup, ttl time.Duration) (*UserCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create user cache, cause %w", err)
	}
	return &UserCache{
		cache: cache,
		users: users,
	}, nil
}

func (c *UserCache) LookupUserByID(ctx context.Context, id int64) (User, error) {
	log := logutil.GetOrDefault(ctx)
	key := strconv.FormatInt(id, 10)
	buf, err := c.cache.Get(key)
	if err == nil {
		var u User
		if err = json.Unmarshal(buf, &u); err == nil {
			return u, nil
		}
		log.Warn().Err(err).Int64("user_id", id).Msg("Discarding corrupted user cache entry")
		if err := c.cache.Delete(key); err != nil {
			log.Debug().Err(err).Int64("user_id", id).Msg("Unable to remove corrupted user cache entry")
		}
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		log.Warn().Err(err).Int64("user_id", id).Msg("Unexpected error reading the user cache")
	}

	u, err := c.users.LookupUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	buf, err = json.Marshal(u)
	if err != nil {
		return u, nil
	}
	if err = c.cache.Set(key, buf); err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Unable to cache user")
	}
	return u, nil
}

func (c *UserCache) Close() error {
	return c.cache.Close()
}
