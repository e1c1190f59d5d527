package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// defaultConfigPath is probed when --config is not given.
const defaultConfigPath = "logweave.toml"

// Config holds the settings read from the TOML config file. Every field has
// a working default, so running without a config file is fine.
type Config struct {
	Analyze AnalyzeConfig `toml:"analyze"`
	Serve   ServeConfig   `toml:"serve"`
	Cache   CacheConfig   `toml:"cache"`
}

// AnalyzeConfig configures the analyzers.
type AnalyzeConfig struct {
	// MaxMalformed is the number of malformed input records tolerated
	// before an analysis is aborted.
	MaxMalformed int `toml:"max_malformed"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the render cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	TTLHours  int    `toml:"ttl_hours"`
}

func defaultConfig() Config {
	return Config{
		Serve: ServeConfig{Addr: ":8080"},
		Cache: CacheConfig{
			Backend:  "file",
			Dir:      ".logweave-cache",
			TTLHours: 24 * 7,
		},
	}
}

// loadConfig reads the config file at path, falling back to
// [defaultConfigPath] and then to built-in defaults. A missing default file
// is not an error; a missing explicit --config file is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TTL returns the cache expiration as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// configKey is the context key for the loaded config.
const configKey ctxKey = 1

// withConfig returns a new context with the given config attached.
func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext retrieves the config from ctx, or the defaults if the
// context carries none.
func configFromContext(ctx context.Context) Config {
	if cfg, ok := ctx.Value(configKey).(Config); ok {
		return cfg
	}
	return defaultConfig()
}
