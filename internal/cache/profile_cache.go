package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/user-directory/internal/metrics"
	"github.com/iliyamo/user-directory/internal/model"
)

// DefaultTTL is how long a profile stays cached when no TTL is configured.
const DefaultTTL = 300 * time.Second

const (
	userNamePrefix = "users_name_"
	emailPrefix    = "user_email_"
)

// UserNameKey is the cache key for a profile looked up by user name.
func UserNameKey(userName string) string { return userNamePrefix + userName }

// EmailKey is the cache key for a profile looked up by email.
func EmailKey(email string) string { return emailPrefix + email }

// ProfileCache is a cache-aside layer that stores JSON-encoded values.
type ProfileCache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

type Option func(*ProfileCache)

// WithMetrics records hits, misses and failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ProfileCache) { c.metrics = m }
}

// WithLogger replaces the standard logrus logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *ProfileCache) { c.log = l }
}

// New builds a ProfileCache over store. A non-positive ttl uses DefaultTTL.
func New(store Store, ttl time.Duration, opts ...Option) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ProfileCache{store: store, ttl: ttl, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the default entry lifetime.
func (c *ProfileCache) TTL() time.Duration { return c.ttl }

// ReadThrough returns the value cached at key, or calls load, caches its
// result for the default TTL and returns it. Store and (de)serialization
// failures are reported as model.ErrCache; loader errors are returned
// unchanged and nothing is cached.
func ReadThrough[T any](ctx context.Context, c *ProfileCache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	bs, hit, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.CacheError("get")
		return zero, fmt.Errorf("%w: get %s: %v", model.ErrCache, key, err)
	}
	if hit {
		var v T
		if err := json.Unmarshal(bs, &v); err != nil {
			c.metrics.CacheError("decode")
			return zero, fmt.Errorf("%w: decode %s: %v", model.ErrCache, key, err)
		}
		c.metrics.CacheHit(keyType(key))
		return v, nil
	}

	c.metrics.CacheMiss(keyType(key))
	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if err := c.Put(ctx, key, v, 0); err != nil {
		return zero, err
	}
	return v, nil
}

// Put overwrites key with value. A non-positive ttl uses the default.
func (c *ProfileCache) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	bs, err := json.Marshal(value)
	if err != nil {
		c.metrics.CacheError("encode")
		return fmt.Errorf("%w: encode %s: %v", model.ErrCache, key, err)
	}
	if err := c.store.Set(ctx, key, bs, ttl); err != nil {
		c.metrics.CacheError("set")
		return fmt.Errorf("%w: set %s: %v", model.ErrCache, key, err)
	}
	return nil
}

// Invalidate removes keys. Keys that are not cached are not an error.
func (c *ProfileCache) Invalidate(ctx context.Context, keys ...string) error {
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.metrics.CacheError("delete")
		return fmt.Errorf("%w: delete %v: %v", model.ErrCache, keys, err)
	}
	return nil
}

// RefreshProfile overwrites both identifier keys of p. If an overwrite fails
// it falls back to invalidating the keys so no stale entry survives; only
// when that also fails is an error returned.
func (c *ProfileCache) RefreshProfile(ctx context.Context, p model.UserProfile) error {
	keys := []string{UserNameKey(p.UserName), EmailKey(p.Email)}
	for _, k := range keys {
		if err := c.Put(ctx, k, p, 0); err != nil {
			c.log.WithError(err).WithField("key", k).Warn("profile cache overwrite failed, invalidating")
			if derr := c.Invalidate(ctx, keys...); derr != nil {
				return derr
			}
			return nil
		}
	}
	return nil
}

// ForgetProfile drops both identifier keys.
func (c *ProfileCache) ForgetProfile(ctx context.Context, userName, email string) error {
	return c.Invalidate(ctx, UserNameKey(userName), EmailKey(email))
}

func keyType(key string) string {
	switch {
	case strings.HasPrefix(key, userNamePrefix):
		return "user_name"
	case strings.HasPrefix(key, emailPrefix):
		return "email"
	default:
		return "other"
	}
}
