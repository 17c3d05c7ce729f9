// Package config defines the top-level configuration for the lounge bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LOUNGEBOT_* environment variables.
type Config struct {
	Feeds     FeedsConfig     `toml:"feeds"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Valuation ValuationConfig `toml:"valuation"`
	Policy    PolicyConfig    `toml:"policy"`
	Cycle     CycleConfig     `toml:"cycle"`
	Session   SessionConfig   `toml:"session"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// FeedsConfig holds the upstream odds feed endpoints.
type FeedsConfig struct {
	// MoneylineBaseURL is the sportsbook coupon API root.
	MoneylineBaseURL string `toml:"moneyline_base_url"`
	// MoneylinePath is the coupon path under the base URL.
	MoneylinePath string `toml:"moneyline_path"`
	// PoolBaseURL is the pari-mutuel pool site root.
	PoolBaseURL string `toml:"pool_base_url"`
	// PoolStatuses filters the pool feed to these status codes. Empty means
	// upcoming matches only.
	PoolStatuses []int `toml:"pool_statuses"`
	// RequestsPerMinute bounds feed polling through the shared rate limiter.
	// 0 disables the bound.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: with
// Enabled false the bot runs without the snapshot cache, signal bus, locks,
// and rate limiting.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for cold archive
// export.
type S3Config struct {
	Enabled        bool     `toml:"enabled"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	ExportInterval duration `toml:"export_interval"`
	// MaxAge is how long archive rows stay in Postgres before export.
	MaxAge duration `toml:"max_age"`
}

// ValuationConfig holds the derived-value computation parameters.
type ValuationConfig struct {
	// CurrencyMode selects how multi-currency pools are reduced:
	// "largest-bucket" or "sum".
	CurrencyMode string `toml:"currency_mode"`
	// Rates maps ISO currency codes to the reporting-currency (USD) rate.
	// Empty falls back to the built-in table.
	Rates map[string]float64 `toml:"rates"`
}

// PolicyConfig holds the wager reconciliation thresholds.
type PolicyConfig struct {
	// MinEV is the expected value the better side must exceed (0.2 = 20%).
	MinEV float64 `toml:"min_ev"`
	// MinPool is the per-side pool floor in reporting-currency units.
	MinPool float64 `toml:"min_pool"`
	// Stake is the fixed amount wagered when opening a position.
	Stake float64 `toml:"stake"`
	// Window is how far before match start reconciliation considers a match.
	Window duration `toml:"window"`
	// AutoWager enables placing and cancelling real wagers. Off, the
	// reconciler is not run and the bot only observes and signals.
	AutoWager bool `toml:"auto_wager"`
}

// CycleConfig holds the observation loop parameters.
type CycleConfig struct {
	// Interval between observation passes.
	Interval duration `toml:"interval"`
	// ReconcileInterval between reconciliation passes, when auto-wagering.
	ReconcileInterval duration `toml:"reconcile_interval"`
	// SignalMinEV is the EV threshold for publishing a high-EV signal.
	SignalMinEV float64 `toml:"signal_min_ev"`
	// SignalMinPool is the per-side pool floor for publishing a signal.
	SignalMinPool float64 `toml:"signal_min_pool"`
}

// SessionConfig holds the browser-driven login parameters for the pool site.
type SessionConfig struct {
	SteamBaseURL     string   `toml:"steam_base_url"`
	LoginRedirectURL string   `toml:"login_redirect_url"`
	LoginURL         string   `toml:"login_url"`
	SiteURL          string   `toml:"site_url"`
	SteamCookiesPath string   `toml:"steam_cookies_path"`
	SessionSavePath  string   `toml:"session_save_path"`
	Headless         bool     `toml:"headless"`
	Timeout          duration `toml:"timeout"`
	MaxAttempts      int      `toml:"max_attempts"`
	Backoff          duration `toml:"backoff"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit is per-client requests per second; 0 disables.
	RateLimit int `toml:"rate_limit"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	SMTPHost          string   `toml:"smtp_host"`
	SMTPPort          int      `toml:"smtp_port"`
	SMTPUsername      string   `toml:"smtp_username"`
	SMTPPassword      string   `toml:"smtp_password"`
	SMTPFrom          string   `toml:"smtp_from"`
	SMTPTo            []string `toml:"smtp_to"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Feeds: FeedsConfig{
			MoneylineBaseURL:  "https://www.bovada.lv",
			MoneylinePath:     "/services/sports/event/coupon/events/A/description/esports/counter-strike-2",
			PoolBaseURL:       "https://csgolounge.com",
			RequestsPerMinute: 30,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "loungebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "loungebot-archive",
			ForcePathStyle: true,
			ExportInterval: duration{24 * time.Hour},
			MaxAge:         duration{30 * 24 * time.Hour},
		},
		Valuation: ValuationConfig{
			CurrencyMode: "largest-bucket",
		},
		Policy: PolicyConfig{
			MinEV:   0.2,
			MinPool: 10,
			Stake:   1,
			Window:  duration{30 * time.Minute},
		},
		Cycle: CycleConfig{
			Interval:          duration{time.Minute},
			ReconcileInterval: duration{5 * time.Minute},
			SignalMinEV:       0.2,
			SignalMinPool:     10,
		},
		Session: SessionConfig{
			SteamBaseURL:     "https://steamcommunity.com",
			SteamCookiesPath: "steam_cookies.json",
			SessionSavePath:  "session.json",
			Headless:         true,
			Timeout:          duration{2 * time.Minute},
			MaxAttempts:      3,
			Backoff:          duration{5 * time.Second},
		},
		Server: ServerConfig{
			Enabled:   false,
			Port:      8080,
			RateLimit: 20,
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
			Events:   []string{"high_ev"},
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"cycle":     true, // one observation pass, then exit
	"watch":     true, // periodic observation passes
	"reconcile": true, // one reconciliation pass, then exit
	"serve":     true, // query API only
	"full":      true, // watch + reconcile + serve
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: cycle, watch, reconcile, serve, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feeds
	if c.Feeds.MoneylineBaseURL == "" {
		errs = append(errs, "feeds: moneyline_base_url must not be empty")
	}
	if c.Feeds.PoolBaseURL == "" {
		errs = append(errs, "feeds: pool_base_url must not be empty")
	}
	for _, s := range c.Feeds.PoolStatuses {
		if s < 0 || s > 3 {
			errs = append(errs, fmt.Sprintf("feeds: pool status must be 0-3, got %d", s))
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.MaxAge.Duration <= 0 {
			errs = append(errs, "s3: max_age must be positive when enabled")
		}
	}

	// Valuation
	switch c.Valuation.CurrencyMode {
	case "", "largest-bucket", "sum":
	default:
		errs = append(errs, fmt.Sprintf("valuation: currency_mode must be largest-bucket or sum, got %q", c.Valuation.CurrencyMode))
	}
	for code, rate := range c.Valuation.Rates {
		if rate <= 0 {
			errs = append(errs, fmt.Sprintf("valuation: rate for %s must be > 0, got %g", code, rate))
		}
	}

	// Policy
	if c.Policy.MinEV < 0 {
		errs = append(errs, "policy: min_ev must be >= 0")
	}
	if c.Policy.MinPool < 0 {
		errs = append(errs, "policy: min_pool must be >= 0")
	}
	if c.Policy.AutoWager {
		if c.Policy.Stake <= 0 {
			errs = append(errs, "policy: stake must be > 0 when auto_wager is enabled")
		}
		if c.Policy.Window.Duration <= 0 {
			errs = append(errs, "policy: window must be positive when auto_wager is enabled")
		}
		if c.Session.SiteURL == "" {
			errs = append(errs, "session: site_url is required when auto_wager is enabled")
		}
		if c.Session.LoginRedirectURL == "" {
			errs = append(errs, "session: login_redirect_url is required when auto_wager is enabled")
		}
	}

	// Cycle
	needsLoop := c.Mode == "watch" || c.Mode == "full"
	if needsLoop && c.Cycle.Interval.Duration <= 0 {
		errs = append(errs, "cycle: interval must be positive for mode "+c.Mode)
	}

	// Session
	if c.Session.MaxAttempts < 1 {
		errs = append(errs, "session: max_attempts must be >= 1")
	}

	// Server
	serverNeeded := c.Server.Enabled || c.Mode == "serve" || c.Mode == "full"
	if serverNeeded {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify — SMTP fields must be set together, or all empty.
	smtpAny := c.Notify.SMTPHost != "" || c.Notify.SMTPFrom != "" || len(c.Notify.SMTPTo) > 0
	if smtpAny {
		if c.Notify.SMTPHost == "" || c.Notify.SMTPFrom == "" || len(c.Notify.SMTPTo) == 0 {
			errs = append(errs, "notify: smtp_host, smtp_from, and smtp_to must all be set together")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
