package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	APIURL    string        `env:"TREKKERS_API_URL, default=http://localhost:3000/api/v1"`
	Timeout   time.Duration `env:"TREKKERS_TIMEOUT, default=15s"`
	LogLevel  string        `env:"LOG_LEVEL,        default=info"`
	LogPretty bool          `env:"LOG_PRETTY,       default=true"`

	Credentials CredentialConfig
	Redis       RedisConfig
	Toggle      ToggleConfig
	Mock        MockConfig
}

// CredentialConfig selects where the bearer token is persisted.
type CredentialConfig struct {
	Backend string `env:"TREKKERS_CREDENTIAL_BACKEND, default=file"`
	// Key is the well-known storage key of the token: the file name (without
	// extension) for the file backend, the key suffix for redis.
	Key string `env:"TREKKERS_TOKEN_KEY, default=token"`
	Dir string `env:"TREKKERS_CONFIG_DIR"`
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Prefix string `env:"REDIS_PREFIX, default=trekkers"`
}

type ToggleConfig struct {
	Workers int `env:"TREKKERS_TOGGLE_WORKERS, default=4"`
}

// MockConfig configures the in-process mock tour backend.
type MockConfig struct {
	Addr      string        `env:"MOCK_ADDR,       default=:3000"`
	JWTSecret string        `env:"MOCK_JWT_SECRET, default=trekkers-dev-secret"`
	TokenTTL  time.Duration `env:"MOCK_TOKEN_TTL,  default=24h"`
}

// Load reads an optional .env file from the working directory, then the
// process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l. Tests pass envconfig.MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for entry points that cannot continue without config.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("config: TREKKERS_API_URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: TREKKERS_TIMEOUT must be positive, got %s", c.Timeout)
	}
	switch c.Credentials.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: TREKKERS_CREDENTIAL_BACKEND must be one of file, redis, memory; got %q", c.Credentials.Backend)
	}
	if c.Credentials.Key == "" {
		return fmt.Errorf("config: TREKKERS_TOKEN_KEY must not be empty")
	}
	if c.Toggle.Workers < 1 || c.Toggle.Workers > 64 {
		return fmt.Errorf("config: TREKKERS_TOGGLE_WORKERS must be between 1 and 64, got %d", c.Toggle.Workers)
	}
	return nil
}

// TokenPath is the file that holds the credential for the file backend.
func (c CredentialConfig) TokenPath() (string, error) {
	dir := c.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: locate config dir: %w", err)
		}
		dir = filepath.Join(base, "trekkers")
	}
	return filepath.Join(dir, c.Key+".json"), nil
}

// RedisKey is the key that holds the credential for the redis backend.
func (c *Config) RedisKey() string {
	return c.Redis.Prefix + ":" + c.Credentials.Key
}
