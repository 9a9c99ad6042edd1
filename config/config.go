package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Mail      MailConfig      `yaml:"mail"`
	Push      PushConfig      `yaml:"push"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Warnings  WarningConfig   `yaml:"warnings"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	BaseURL         string  `yaml:"base_url"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MailConfig holds the SMTP settings for outbound warning mails.
type MailConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	From        string `yaml:"from"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	PoolSize   int    `yaml:"pool_size"`
}

// AuthConfig holds the JWT settings for the user-facing endpoints.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SchedulerConfig holds the cadence of the background jobs.
type SchedulerConfig struct {
	WatchdogIntervalSeconds int           `yaml:"watchdog_interval_seconds"`
	WatchdogInterval        time.Duration `yaml:"-"`
	HeartbeatTimeoutMinutes int           `yaml:"heartbeat_timeout_minutes"`
	TokenGCIntervalHours    int           `yaml:"token_gc_interval_hours"`
	TokenGCInterval         time.Duration `yaml:"-"`
	TokenGraceHours         int           `yaml:"token_grace_hours"`
	TokenGrace              time.Duration `yaml:"-"`
}

// WarningConfig holds the escalation thresholds in minutes.
type WarningConfig struct {
	StaleAfterMinutes int `yaml:"stale_after_minutes"`
	DraftMinutes      int `yaml:"draft_minutes"`
	UnseenMinutes     int `yaml:"unseen_minutes"`
	ConfirmedMinutes  int `yaml:"confirmed_minutes"`
	IgnoredMinutes    int `yaml:"ignored_minutes"`
	DestroyMinutes    int `yaml:"destroy_minutes"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:8080"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Mail.Port <= 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.MaxAttempts <= 0 {
		cfg.Mail.MaxAttempts = 3
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.PoolSize <= 0 {
		cfg.Push.PoolSize = 1
	}

	if cfg.Scheduler.WatchdogIntervalSeconds <= 0 {
		cfg.Scheduler.WatchdogIntervalSeconds = 60
	}
	cfg.Scheduler.WatchdogInterval = time.Duration(cfg.Scheduler.WatchdogIntervalSeconds) * time.Second
	if cfg.Scheduler.HeartbeatTimeoutMinutes <= 0 {
		cfg.Scheduler.HeartbeatTimeoutMinutes = 2
	}
	if cfg.Scheduler.TokenGCIntervalHours <= 0 {
		cfg.Scheduler.TokenGCIntervalHours = 7 * 24
	}
	cfg.Scheduler.TokenGCInterval = time.Duration(cfg.Scheduler.TokenGCIntervalHours) * time.Hour
	if cfg.Scheduler.TokenGraceHours <= 0 {
		cfg.Scheduler.TokenGraceHours = 7 * 24
	}
	cfg.Scheduler.TokenGrace = time.Duration(cfg.Scheduler.TokenGraceHours) * time.Hour

	if cfg.Warnings.StaleAfterMinutes <= 0 {
		cfg.Warnings.StaleAfterMinutes = 15
	}
	if cfg.Warnings.DraftMinutes <= 0 {
		cfg.Warnings.DraftMinutes = 5
	}
	if cfg.Warnings.UnseenMinutes <= 0 {
		cfg.Warnings.UnseenMinutes = 30
	}
	if cfg.Warnings.ConfirmedMinutes <= 0 {
		cfg.Warnings.ConfirmedMinutes = 15
	}
	if cfg.Warnings.IgnoredMinutes <= 0 {
		cfg.Warnings.IgnoredMinutes = 60
	}
	if cfg.Warnings.DestroyMinutes <= 0 {
		cfg.Warnings.DestroyMinutes = 120
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
