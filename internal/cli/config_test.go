package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Error("explicit missing config file should be an error")
	}

	// Missing default file falls back to built-in defaults. Run from a
	// directory without a logweave.toml.
	cwd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	cfg, err = loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want :8080", cfg.Serve.Addr)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logweave.toml")
	content := `[analyze]
max_malformed = 5

[serve]
addr = ":9090"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl_hours = 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Analyze.MaxMalformed != 5 {
		t.Errorf("MaxMalformed = %d, want 5", cfg.Analyze.MaxMalformed)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Serve.Addr)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache config = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL() != 2*time.Hour {
		t.Errorf("TTL() = %v, want 2h", cfg.Cache.TTL())
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logweave.toml")
	if err := os.WriteFile(path, []byte("[serve]\naddr = \":1234\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	// Unset sections keep their defaults.
	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Serve.Addr != ":1234" {
		t.Errorf("Serve.Addr = %q, want :1234", cfg.Serve.Addr)
	}
}

func TestConfigContext(t *testing.T) {
	ctx := context.Background()
	if got := configFromContext(ctx); got.Serve.Addr != ":8080" {
		t.Errorf("default config from bare context, got %+v", got)
	}

	cfg := defaultConfig()
	cfg.Serve.Addr = ":7777"
	ctx = withConfig(ctx, cfg)
	if got := configFromContext(ctx); got.Serve.Addr != ":7777" {
		t.Errorf("config from context = %+v", got)
	}
}
