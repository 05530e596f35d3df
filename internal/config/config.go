package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full service configuration. Field names double as YAML keys.
type Config struct {
	Port string `yaml:"port"`

	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	DashboardPassword string        `yaml:"dashboard_password"`
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTLegacySecrets  []string      `yaml:"jwt_legacy_secrets"`
	CookieSecure      bool          `yaml:"cookie_secure"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	LoginFailureDelay time.Duration `yaml:"login_failure_delay"`

	PriceCacheTTL   time.Duration `yaml:"price_cache_ttl"`
	MetricsCacheTTL time.Duration `yaml:"metrics_cache_ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	CoinGeckoURL    string        `yaml:"coingecko_url"`
	DefiLlamaURL    string        `yaml:"defillama_url"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`

	WebDir       string `yaml:"web_dir"`
	SeedDefaults bool   `yaml:"seed_defaults"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Port:              "8080",
		SQLitePath:        "./cryptodash.db",
		CookieSecure:      true,
		SessionTTL:        24 * time.Hour,
		LoginFailureDelay: time.Second,
		PriceCacheTTL:     time.Minute,
		MetricsCacheTTL:   5 * time.Minute,
		RefreshInterval:   30 * time.Second,
		HTTPTimeout:       10 * time.Second,
		CoinGeckoURL:      "https://api.coingecko.com/api/v3",
		DefiLlamaURL:      "https://api.llama.fi",
		SeedDefaults:      true,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Secrets returns the signing secret followed by the legacy secrets still
// accepted for verification. Empty entries are dropped.
func (c *Config) Secrets() []string {
	out := make([]string, 0, 1+len(c.JWTLegacySecrets))
	if c.JWTSecret != "" {
		out = append(out, c.JWTSecret)
	}
	for _, s := range c.JWTLegacySecrets {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.DashboardPassword == "" {
		return errors.New("DASHBOARD_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return errors.New("either DATABASE_URL or SQLITE_PATH must be set")
	}
	durations := map[string]time.Duration{
		"session_ttl":       c.SessionTTL,
		"price_cache_ttl":   c.PriceCacheTTL,
		"metrics_cache_ttl": c.MetricsCacheTTL,
		"refresh_interval":  c.RefreshInterval,
		"http_timeout":      c.HTTPTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.LoginFailureDelay < 0 {
		return errors.New("login_failure_delay cannot be negative")
	}
	return nil
}
