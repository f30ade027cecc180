package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API       APIConfig
	Storage   StorageConfig
	Broadcast BroadcastConfig
	Session   SessionConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

// APIConfig points at the reservation REST backend.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:5000/api"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=15s"`
}

type StorageConfig struct {
	// Driver is one of memory, file, redis, mongo.
	Driver string `env:"STORAGE_DRIVER, default=file"`
	Path   string `env:"STORAGE_PATH,   default=.tablebook/state.json"`
	// Secret seals the file store when set.
	Secret string `env:"STORAGE_SECRET"`
}

type BroadcastConfig struct {
	// Driver is one of local, redis, none.
	Driver string `env:"BROADCAST_DRIVER, default=local"`
}

type SessionConfig struct {
	VerifyOnRestore bool `env:"SESSION_VERIFY_ON_RESTORE, default=false"`
	ExpiryFromToken bool `env:"SESSION_EXPIRY_FROM_TOKEN, default=false"`
	// ExpiryCheck is a cron schedule; "off" disables the watcher.
	ExpiryCheck string `env:"SESSION_EXPIRY_CHECK, default=@every 1m"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=tablebook"`
	Collection string `env:"MONGO_COLLECTION, default=client_state"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Prefix   string `env:"REDIS_PREFIX,   default=tablebook:"`
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "file", "redis", "mongo":
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Broadcast.Driver {
	case "local", "redis", "none":
	default:
		return fmt.Errorf("config: unknown BROADCAST_DRIVER %q", c.Broadcast.Driver)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: API_BASE_URL is required")
	}
	return nil
}
