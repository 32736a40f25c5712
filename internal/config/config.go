// Package config loads the trending feed configuration from YAML and
// environment variables.
package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/Sternrassler/gh-trending-feed/pkg/logging"
	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/search"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
)

// Config is the root configuration.
// Source priority:
//  1. explicit path passed to MustLoad/Load;
//  2. the CONFIG_PATH environment variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
//
// Environment variables override file values in every case.
type Config struct {
	Search SearchConfig `yaml:"search"`
	Pager  PagerConfig  `yaml:"pager"`
	Redis  RedisConfig  `yaml:"redis"`
	Log    LogConfig    `yaml:"log"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// SearchConfig holds upstream API settings.
type SearchConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"SEARCH_BASE_URL" env-default:"https://api.github.com"`
	UserAgent      string        `yaml:"user_agent"      env:"USER_AGENT"      env-default:"gh-trending-feed/1.0"`
	RateLimit      float64       `yaml:"rate_limit"      env:"RATE_LIMIT"      env-default:"1"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"    env:"HTTP_TIMEOUT"    env-default:"30s"`
	CacheRetention time.Duration `yaml:"cache_retention" env:"CACHE_RETENTION" env-default:"10m"`
}

// PagerConfig holds controller and trigger settings.
type PagerConfig struct {
	Mode               string `yaml:"mode"                env:"PAGER_MODE"          env-default:"replace"`
	PageSize           int    `yaml:"page_size"           env:"PAGE_SIZE"           env-default:"30"`
	WindowDays         int    `yaml:"window_days"         env:"WINDOW_DAYS"         env-default:"10"`
	Sort               string `yaml:"sort"                env:"SORT"                env-default:"stars"`
	Order              string `yaml:"order"               env:"ORDER"               env-default:"desc"`
	ProximityThreshold int    `yaml:"proximity_threshold" env:"PROXIMITY_THRESHOLD" env-default:"3"`
}

// RedisConfig enables the revalidation cache and shared quota state.
// An empty Addr runs without Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB" env-default:"0"`
}

// LogConfig holds logger settings. File is used by the terminal UI, which
// cannot log to stderr.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
	File   string `yaml:"file"   env:"LOG_FILE"`
}

// HTTPConfig holds the listen address of the HTTP surface.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Options returns the go-redis options, or nil when Redis is disabled.
func (r RedisConfig) Options() *redis.Options {
	if !r.Enabled() {
		return nil
	}
	return &redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	}
}

// SearchClientConfig builds the search client configuration.
// redisClient may be nil.
func (c *Config) SearchClientConfig(redisClient *redis.Client) search.Config {
	return search.Config{
		BaseURL:        c.Search.BaseURL,
		UserAgent:      c.Search.UserAgent,
		Redis:          redisClient,
		CacheRetention: c.Search.CacheRetention,
		RateLimit:      c.Search.RateLimit,
		HTTPTimeout:    c.Search.HTTPTimeout,
	}
}

// ControllerConfig builds the pager configuration. The mode has already
// been checked by validate.
func (c *Config) ControllerConfig() pager.Config {
	mode, _ := pager.ParseMode(c.Pager.Mode)
	return pager.Config{
		Mode:       mode,
		PageSize:   c.Pager.PageSize,
		WindowDays: c.Pager.WindowDays,
		Sort:       c.Pager.Sort,
		Order:      c.Pager.Order,
		Now:        time.Now,
	}
}

// LoggingConfig builds the logger configuration writing to out.
func (c *Config) LoggingConfig(out io.Writer) logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
		Output: out,
	}
}

// MustLoad wraps Load and panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority:
// 1) explicit path; 2) CONFIG_PATH; 3) ./local.yaml; 4) env.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)
	switch {
	case path != "":
		c, err = tryRead(path)
	case os.Getenv("CONFIG_PATH") != "":
		c, err = tryRead(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
				return nil, fmt.Errorf("failed to read local.yaml: %w", err)
			}
		} else if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
		c = &cfg
	}
	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate performs basic value checks.
func (c *Config) validate() error {
	if c.Search.UserAgent == "" {
		return fmt.Errorf("search.user_agent is required")
	}
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("search.rate_limit must be >= 0")
	}
	if c.Search.HTTPTimeout < 0 {
		return fmt.Errorf("search.http_timeout must be >= 0")
	}
	if _, err := pager.ParseMode(c.Pager.Mode); err != nil {
		return fmt.Errorf("pager.mode: %w", err)
	}
	if c.Pager.PageSize < 1 || c.Pager.PageSize > search.MaxPageSize {
		return fmt.Errorf("pager.page_size must be within 1..%d", search.MaxPageSize)
	}
	if c.Pager.WindowDays < 1 {
		return fmt.Errorf("pager.window_days must be > 0")
	}
	switch c.Pager.Sort {
	case "stars", "forks", "help-wanted-issues", "updated":
	default:
		return fmt.Errorf("pager.sort must be one of stars, forks, help-wanted-issues, updated")
	}
	if c.Pager.Order != "asc" && c.Pager.Order != "desc" {
		return fmt.Errorf("pager.order must be asc or desc")
	}
	if c.Pager.ProximityThreshold < 1 {
		return fmt.Errorf("pager.proximity_threshold must be > 0")
	}
	return nil
}
