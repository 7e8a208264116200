package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Accounts AccountsConfig `yaml:"accounts" mapstructure:"accounts"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Session  SessionConfig  `yaml:"session" mapstructure:"session"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Survey   SurveyConfig   `yaml:"survey" mapstructure:"survey"`
	Analyze  AnalyzeConfig  `yaml:"analyze" mapstructure:"analyze"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AccountsConfig selects where school accounts and feedback live.
type AccountsConfig struct {
	Backend         string `yaml:"backend" mapstructure:"backend"` // "store" or "sheets"
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	AccountSheet    string `yaml:"account_sheet" mapstructure:"account_sheet"`
	FeedbackSheet   string `yaml:"feedback_sheet" mapstructure:"feedback_sheet"`
}

// AuthConfig configures API access tokens.
type AuthConfig struct {
	JWTSecret          string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTLMinutes    int    `yaml:"token_ttl_minutes" mapstructure:"token_ttl_minutes"`
	LoginRatePerMinute int    `yaml:"login_rate_per_minute" mapstructure:"login_rate_per_minute"`
	MinPasswordLength  int    `yaml:"min_password_length" mapstructure:"min_password_length"`
}

// SessionConfig configures per-school application state.
type SessionConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"` // "memory" or "redis"
	RedisAddr  string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB    int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// SurveyConfig overrides the column keywords used by the pipeline.
type SurveyConfig struct {
	DemographicKeywords []string `yaml:"demographic_keywords" mapstructure:"demographic_keywords"`
	KaashMarker         string   `yaml:"kaash_marker" mapstructure:"kaash_marker"`
}

// AnalyzeConfig configures local batch analysis.
type AnalyzeConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// ReportConfig configures PDF reports.
type ReportConfig struct {
	Title    string `yaml:"title" mapstructure:"title"`
	LogoPath string `yaml:"logo_path" mapstructure:"logo_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "apnapan.db")
	v.SetDefault("accounts.backend", "store")
	v.SetDefault("accounts.spreadsheet_id", "")
	v.SetDefault("accounts.credentials_file", "")
	v.SetDefault("accounts.account_sheet", "Accounts")
	v.SetDefault("accounts.feedback_sheet", "Feedback")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_minutes", 720)
	v.SetDefault("auth.login_rate_per_minute", 10)
	v.SetDefault("auth.min_password_length", 6)
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.ttl_minutes", 720)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("survey.demographic_keywords", []string{"gender", "religion"})
	v.SetDefault("survey.kaash_marker", "kaash")
	v.SetDefault("analyze.max_concurrent_files", 4)
	v.SetDefault("report.title", "Apnapan Pulse Report")
	v.SetDefault("report.logo_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, "auth.jwt_secret is required")
		}
		if c.Session.Backend != "memory" && c.Session.Backend != "redis" {
			errs = append(errs, "session.backend must be memory or redis")
		}
		errs = append(errs, c.storeErrors()...)
		errs = append(errs, c.accountErrors()...)
	case "accounts":
		errs = append(errs, c.storeErrors()...)
		errs = append(errs, c.accountErrors()...)
	case "store":
		errs = append(errs, c.storeErrors()...)
	case "analyze":
		if c.Analyze.MaxConcurrentFiles < 1 || c.Analyze.MaxConcurrentFiles > 64 {
			errs = append(errs, "analyze.max_concurrent_files must be between 1 and 64")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storeErrors() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) accountErrors() []string {
	var errs []string
	switch c.Accounts.Backend {
	case "store":
	case "sheets":
		if c.Accounts.SpreadsheetID == "" {
			errs = append(errs, "accounts.spreadsheet_id is required for the sheets backend")
		}
	default:
		errs = append(errs, "accounts.backend must be store or sheets")
	}
	if c.Auth.MinPasswordLength < 1 {
		errs = append(errs, "auth.min_password_length must be >= 1")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
