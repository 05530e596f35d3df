package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from the defaults, the YAML file at path (if
// path is non-empty and the file exists), a .env file in the working
// directory and finally the process environment. The result is not
// validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %q: %w", path, err)
			}
		}
	}

	// Load .env file if it exists, but don't fail if it's missing (e.g. in production)
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Port, "PORT")
	setStr(&cfg.DatabaseURL, "POSTGRES_URL")
	setStr(&cfg.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.SQLitePath, "SQLITE_PATH")

	setStr(&cfg.DashboardPassword, "DASHBOARD_PASSWORD")
	setStr(&cfg.JWTSecret, "JWT_SECRET")
	setList(&cfg.JWTLegacySecrets, "JWT_LEGACY_SECRETS")
	setBool(&cfg.CookieSecure, "COOKIE_SECURE")
	setDuration(&cfg.SessionTTL, "SESSION_TTL")
	setDuration(&cfg.LoginFailureDelay, "LOGIN_FAILURE_DELAY")

	setDuration(&cfg.PriceCacheTTL, "PRICE_CACHE_TTL")
	setDuration(&cfg.MetricsCacheTTL, "METRICS_CACHE_TTL")
	setDuration(&cfg.RefreshInterval, "PRICE_REFRESH_INTERVAL")
	setDuration(&cfg.HTTPTimeout, "HTTP_TIMEOUT")
	setStr(&cfg.CoinGeckoURL, "COINGECKO_URL")
	setStr(&cfg.DefiLlamaURL, "DEFILLAMA_URL")
	setStr(&cfg.RedisAddr, "REDIS_ADDR")
	setStr(&cfg.RedisPassword, "REDIS_PASSWORD")

	setStr(&cfg.WebDir, "WEB_DIR")
	setBool(&cfg.SeedDefaults, "SEED_DEFAULTS")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.LogFormat, "LOG_FORMAT")
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// setDuration accepts Go durations ("30s") or a bare number of seconds.
func setDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = time.Duration(n) * time.Second
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
