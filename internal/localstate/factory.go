package localstate

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver selects the backing storage for a Store.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverRedis  Driver = "redis"
)

// Option configures store construction.
type Option func(*config)

type config struct {
	dir         string
	redisClient *redis.Client
	redisTTL    time.Duration
	keyPrefix   string
}

// WithDir sets the directory used by the file driver.
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) Option {
	return func(c *config) { c.redisClient = client }
}

// WithRedisTTL sets the expiry applied to redis entries. Zero means no
// expiry.
func WithRedisTTL(ttl time.Duration) Option {
	return func(c *config) { c.redisTTL = ttl }
}

// WithKeyPrefix namespaces redis keys, e.g. per user or per device.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.keyPrefix = prefix }
}

// New creates a Store for the given driver.
// The file driver requires WithDir; the redis driver requires
// WithRedisClient.
func New(driver Driver, opts ...Option) (Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return newMemoryStore(), nil

	case DriverFile:
		if cfg.dir == "" {
			return nil, ErrInvalidConfig
		}
		return newFileStore(cfg.dir)

	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{
			client: cfg.redisClient,
			ttl:    cfg.redisTTL,
			prefix: cfg.keyPrefix,
		}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
