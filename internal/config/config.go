package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is injected at build time via ldflags.
var Version = "dev"

// Search engine backends.
const (
	EngineMeilisearch = "meilisearch"
	EngineEmbedded    = "embedded"
)

// Permission policies applied when a user's libraries cannot be determined.
const (
	PolicyFailOpen   = "fail-open"
	PolicyFailClosed = "fail-closed"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Jellyfin    JellyfinConfig    `mapstructure:"jellyfin" yaml:"jellyfin"`
	Search      SearchConfig      `mapstructure:"search" yaml:"search"`
	Permissions PermissionsConfig `mapstructure:"permissions" yaml:"permissions"`
	Index       IndexConfig       `mapstructure:"index" yaml:"index"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string `mapstructure:"host" yaml:"host"`
	Port          int    `mapstructure:"port" yaml:"port"`
	AdminKey      string `mapstructure:"admin_key" yaml:"admin_key"`
	DebugRequests bool   `mapstructure:"debug_requests" yaml:"debug_requests"`
}

// JellyfinConfig holds origin media server configuration.
type JellyfinConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Token     string        `mapstructure:"token" yaml:"token"`
	ConfigDir string        `mapstructure:"config_dir" yaml:"config_dir"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SearchConfig holds search engine configuration.
type SearchConfig struct {
	Engine        string        `mapstructure:"engine" yaml:"engine"`
	URL           string        `mapstructure:"url" yaml:"url"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	Index         string        `mapstructure:"index" yaml:"index"`
	EmbeddedPath  string        `mapstructure:"embedded_path" yaml:"embedded_path"`
	LimitPerType  int           `mapstructure:"limit_per_type" yaml:"limit_per_type"`
	LimitUnscoped int           `mapstructure:"limit_unscoped" yaml:"limit_unscoped"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PermissionsConfig holds library permission scoping configuration.
type PermissionsConfig struct {
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// FailOpen reports whether unresolvable permissions fall back to an unscoped search.
func (p PermissionsConfig) FailOpen() bool {
	return p.Policy != PolicyFailClosed
}

// IndexConfig holds index synchronization configuration.
type IndexConfig struct {
	Schedule   string `mapstructure:"schedule" yaml:"schedule"`
	RunOnStart bool   `mapstructure:"run_on_start" yaml:"run_on_start"`
	BatchSize  int    `mapstructure:"batch_size" yaml:"batch_size"`
	Workers    int    `mapstructure:"workers" yaml:"workers"`
	PruneStale bool   `mapstructure:"prune_stale" yaml:"prune_stale"`
}

// DatabaseConfig holds the service's own state database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Jellyfin: JellyfinConfig{
			ConfigDir: "/config",
			Timeout:   30 * time.Second,
		},
		Search: SearchConfig{
			Engine:        EngineMeilisearch,
			URL:           "http://localhost:7700",
			Index:         "items",
			LimitPerType:  15,
			LimitUnscoped: 20,
			Timeout:       10 * time.Second,
		},
		Permissions: PermissionsConfig{
			Policy: PolicyFailOpen,
		},
		Index: IndexConfig{
			Schedule:   "0 3 * * *",
			RunOnStart: true,
			BatchSize:  5000,
			Workers:    2,
			PruneStale: true,
		},
		Database: DatabaseConfig{
			Path: "./data/jellysearch.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// legacyEnv maps config keys to the environment variables used by earlier
// JellySearch releases so existing container setups keep working.
var legacyEnv = map[string]string{
	"jellyfin.url":          "JELLYFIN_URL",
	"jellyfin.token":        "JELLYFIN_TOKEN",
	"jellyfin.config_dir":   "JELLYFIN_CONFIG_DIR",
	"search.url":            "MEILI_URL",
	"search.api_key":        "MEILI_MASTER_KEY",
	"server.debug_requests": "JELLYSEARCH_DEBUG_REQUESTS",
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > .env file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside of docker-compose setups
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.jellysearch")
	}

	v.SetEnvPrefix("JELLYSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "JELLYSEARCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default() into viper so env-only setups get every key.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.admin_key", d.Server.AdminKey)
	v.SetDefault("server.debug_requests", d.Server.DebugRequests)

	v.SetDefault("jellyfin.url", d.Jellyfin.URL)
	v.SetDefault("jellyfin.token", d.Jellyfin.Token)
	v.SetDefault("jellyfin.config_dir", d.Jellyfin.ConfigDir)
	v.SetDefault("jellyfin.timeout", d.Jellyfin.Timeout)

	v.SetDefault("search.engine", d.Search.Engine)
	v.SetDefault("search.url", d.Search.URL)
	v.SetDefault("search.api_key", d.Search.APIKey)
	v.SetDefault("search.index", d.Search.Index)
	v.SetDefault("search.embedded_path", d.Search.EmbeddedPath)
	v.SetDefault("search.limit_per_type", d.Search.LimitPerType)
	v.SetDefault("search.limit_unscoped", d.Search.LimitUnscoped)
	v.SetDefault("search.timeout", d.Search.Timeout)

	v.SetDefault("permissions.policy", d.Permissions.Policy)

	v.SetDefault("index.schedule", d.Index.Schedule)
	v.SetDefault("index.run_on_start", d.Index.RunOnStart)
	v.SetDefault("index.batch_size", d.Index.BatchSize)
	v.SetDefault("index.workers", d.Index.Workers)
	v.SetDefault("index.prune_stale", d.Index.PruneStale)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

// Validate checks option values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Search.Engine {
	case EngineMeilisearch, EngineEmbedded:
	default:
		return fmt.Errorf("invalid search.engine %q (valid: %s, %s)", c.Search.Engine, EngineMeilisearch, EngineEmbedded)
	}

	switch c.Permissions.Policy {
	case PolicyFailOpen, PolicyFailClosed:
	default:
		return fmt.Errorf("invalid permissions.policy %q (valid: %s, %s)", c.Permissions.Policy, PolicyFailOpen, PolicyFailClosed)
	}

	if c.Search.LimitPerType <= 0 || c.Search.LimitUnscoped <= 0 {
		return fmt.Errorf("search limits must be positive (limit_per_type=%d, limit_unscoped=%d)",
			c.Search.LimitPerType, c.Search.LimitUnscoped)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Index.Workers <= 0 {
		return fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers)
	}

	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redacted returns a copy with secrets masked, for printing.
func (c *Config) Redacted() *Config {
	out := *c
	out.Server.AdminKey = mask(c.Server.AdminKey)
	out.Jellyfin.Token = mask(c.Jellyfin.Token)
	out.Search.APIKey = mask(c.Search.APIKey)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
