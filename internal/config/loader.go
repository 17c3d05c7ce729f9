package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LOUNGEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LOUNGEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Feeds ──
	setStr(&cfg.Feeds.MoneylineBaseURL, "LOUNGEBOT_FEEDS_MONEYLINE_BASE_URL")
	setStr(&cfg.Feeds.MoneylinePath, "LOUNGEBOT_FEEDS_MONEYLINE_PATH")
	setStr(&cfg.Feeds.PoolBaseURL, "LOUNGEBOT_FEEDS_POOL_BASE_URL")
	setInt(&cfg.Feeds.RequestsPerMinute, "LOUNGEBOT_FEEDS_REQUESTS_PER_MINUTE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LOUNGEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "LOUNGEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LOUNGEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LOUNGEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LOUNGEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LOUNGEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LOUNGEBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LOUNGEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LOUNGEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LOUNGEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LOUNGEBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LOUNGEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LOUNGEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LOUNGEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LOUNGEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LOUNGEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LOUNGEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LOUNGEBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LOUNGEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LOUNGEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "LOUNGEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LOUNGEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LOUNGEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LOUNGEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LOUNGEBOT_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ExportInterval, "LOUNGEBOT_S3_EXPORT_INTERVAL")
	setDuration(&cfg.S3.MaxAge, "LOUNGEBOT_S3_MAX_AGE")

	// ── Valuation ──
	setStr(&cfg.Valuation.CurrencyMode, "LOUNGEBOT_VALUATION_CURRENCY_MODE")

	// ── Policy ──
	setFloat64(&cfg.Policy.MinEV, "LOUNGEBOT_POLICY_MIN_EV")
	setFloat64(&cfg.Policy.MinPool, "LOUNGEBOT_POLICY_MIN_POOL")
	setFloat64(&cfg.Policy.Stake, "LOUNGEBOT_POLICY_STAKE")
	setDuration(&cfg.Policy.Window, "LOUNGEBOT_POLICY_WINDOW")
	setBool(&cfg.Policy.AutoWager, "LOUNGEBOT_POLICY_AUTO_WAGER")

	// ── Cycle ──
	setDuration(&cfg.Cycle.Interval, "LOUNGEBOT_CYCLE_INTERVAL")
	setDuration(&cfg.Cycle.ReconcileInterval, "LOUNGEBOT_CYCLE_RECONCILE_INTERVAL")
	setFloat64(&cfg.Cycle.SignalMinEV, "LOUNGEBOT_CYCLE_SIGNAL_MIN_EV")
	setFloat64(&cfg.Cycle.SignalMinPool, "LOUNGEBOT_CYCLE_SIGNAL_MIN_POOL")

	// ── Session ──
	setStr(&cfg.Session.SteamBaseURL, "LOUNGEBOT_SESSION_STEAM_BASE_URL")
	setStr(&cfg.Session.LoginRedirectURL, "LOUNGEBOT_SESSION_LOGIN_REDIRECT_URL")
	setStr(&cfg.Session.LoginURL, "LOUNGEBOT_SESSION_LOGIN_URL")
	setStr(&cfg.Session.SiteURL, "LOUNGEBOT_SESSION_SITE_URL")
	setStr(&cfg.Session.SteamCookiesPath, "LOUNGEBOT_SESSION_STEAM_COOKIES_PATH")
	setStr(&cfg.Session.SessionSavePath, "LOUNGEBOT_SESSION_SAVE_PATH")
	setBool(&cfg.Session.Headless, "LOUNGEBOT_SESSION_HEADLESS")
	setDuration(&cfg.Session.Timeout, "LOUNGEBOT_SESSION_TIMEOUT")
	setInt(&cfg.Session.MaxAttempts, "LOUNGEBOT_SESSION_MAX_ATTEMPTS")
	setDuration(&cfg.Session.Backoff, "LOUNGEBOT_SESSION_BACKOFF")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "LOUNGEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "LOUNGEBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LOUNGEBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LOUNGEBOT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "LOUNGEBOT_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LOUNGEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LOUNGEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LOUNGEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.SMTPHost, "LOUNGEBOT_NOTIFY_SMTP_HOST")
	setInt(&cfg.Notify.SMTPPort, "LOUNGEBOT_NOTIFY_SMTP_PORT")
	setStr(&cfg.Notify.SMTPUsername, "LOUNGEBOT_NOTIFY_SMTP_USERNAME")
	setStr(&cfg.Notify.SMTPPassword, "LOUNGEBOT_NOTIFY_SMTP_PASSWORD")
	setStr(&cfg.Notify.SMTPFrom, "LOUNGEBOT_NOTIFY_SMTP_FROM")
	setStringSlice(&cfg.Notify.SMTPTo, "LOUNGEBOT_NOTIFY_SMTP_TO")
	setStringSlice(&cfg.Notify.Events, "LOUNGEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LOUNGEBOT_MODE")
	setStr(&cfg.LogLevel, "LOUNGEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
