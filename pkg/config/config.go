package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	SMTP       SMTPConfig
	Analytics  AnalyticsConfig
	Summarizer SummarizerConfig
	Reports    ReportsConfig
	Scheduler  SchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig configures the outbound report mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// AnalyticsConfig points at the external ad-platform analytics API.
type AnalyticsConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// SummarizerConfig governs the report summarization model.
type SummarizerConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ReportsConfig covers generated-report exposure: signed public links and
// read-through caching of the view endpoint.
type ReportsConfig struct {
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// SchedulerConfig toggles the recurring report scheduler.
type SchedulerConfig struct {
	Enabled    bool
	InitOnBoot bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = v.GetString("BASE_URL")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		From:     v.GetString("SMTP_FROM"),
		Password: v.GetString("SMTP_PASSWORD"),
	}

	cfg.Analytics = AnalyticsConfig{
		BaseURL:   v.GetString("ANALYTICS_BASE_URL"),
		AuthToken: v.GetString("ANALYTICS_AUTH_TOKEN"),
		Timeout:   parseDuration(v.GetString("ANALYTICS_TIMEOUT"), 30*time.Second),
	}

	cfg.Summarizer = SummarizerConfig{
		BaseURL:     v.GetString("SUMMARIZER_BASE_URL"),
		APIKey:      v.GetString("SUMMARIZER_API_KEY"),
		Model:       v.GetString("SUMMARIZER_MODEL"),
		MaxTokens:   v.GetInt("SUMMARIZER_MAX_TOKENS"),
		Temperature: v.GetFloat64("SUMMARIZER_TEMPERATURE"),
		Timeout:     parseDuration(v.GetString("SUMMARIZER_TIMEOUT"), 60*time.Second),
	}

	cfg.Reports = ReportsConfig{
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CacheEnabled:    v.GetBool("REPORTS_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("REPORTS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:    v.GetBool("SCHEDULER_ENABLED"),
		InitOnBoot: v.GetBool("SCHEDULER_INIT_ON_BOOT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ad_reports")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_PASSWORD", "")

	v.SetDefault("ANALYTICS_BASE_URL", "https://bizdev.newform.ai/sample-data")
	v.SetDefault("ANALYTICS_AUTH_TOKEN", "")
	v.SetDefault("ANALYTICS_TIMEOUT", "30s")

	v.SetDefault("SUMMARIZER_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("SUMMARIZER_API_KEY", "")
	v.SetDefault("SUMMARIZER_MODEL", "gpt-4o")
	v.SetDefault("SUMMARIZER_MAX_TOKENS", 150)
	v.SetDefault("SUMMARIZER_TEMPERATURE", 0.7)
	v.SetDefault("SUMMARIZER_TIMEOUT", "60s")

	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CACHE_ENABLED", false)
	v.SetDefault("REPORTS_CACHE_TTL", "10m")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_INIT_ON_BOOT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
