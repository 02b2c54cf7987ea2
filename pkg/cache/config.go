package cache

import "time"

const (
	defaultRedisHost    = "localhost"
	defaultRedisPort    = 6379
	defaultRedisPool    = 10
	defaultKeyPrefix    = "candlecast"
	defaultMemoryMax    = 1000
	defaultMemorySweep  = 5 * time.Minute
	defaultLayeredL1Max = 1000
)

// RedisOption configures the redis store.
type RedisOption func(*RedisConfig)

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) { c.Host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) { c.Port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

// MemoryOption configures the in-process store.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds in-process store settings.
type MemoryConfig struct {
	MaxSize       int
	SweepInterval time.Duration
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) { c.MaxSize = size }
}

func WithMemorySweep(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) { c.SweepInterval = interval }
}

// LayeredOption configures the two-level store.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds layered store settings.
type LayeredConfig struct {
	MemoryMaxSize int
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) { c.MemoryMaxSize = size }
}
