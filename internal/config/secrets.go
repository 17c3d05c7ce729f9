package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	redact(&out.Redis.Password)

	// S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Server
	redact(&out.Server.APIKey)

	// Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)
	redact(&out.Notify.SMTPPassword)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Notify.SMTPTo != nil {
		out.Notify.SMTPTo = make([]string, len(cfg.Notify.SMTPTo))
		copy(out.Notify.SMTPTo, cfg.Notify.SMTPTo)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Feeds.PoolStatuses != nil {
		out.Feeds.PoolStatuses = make([]int, len(cfg.Feeds.PoolStatuses))
		copy(out.Feeds.PoolStatuses, cfg.Feeds.PoolStatuses)
	}

	// Copy maps so mutations to the redacted copy do not affect the original.
	if cfg.Valuation.Rates != nil {
		out.Valuation.Rates = make(map[string]float64, len(cfg.Valuation.Rates))
		for k, v := range cfg.Valuation.Rates {
			out.Valuation.Rates[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
