package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Problem point single-per-day enforcement policies.
const (
	PolicyReject = "reject"
	PolicyWarn   = "warn"
	PolicyOff    = "off"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Sentry        SentryConfig
	School        SchoolConfig
	PasswordReset PasswordResetConfig
	Mail          MailConfig
	Metrics       MetricsConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SentryConfig enables error reporting when a DSN is present.
type SentryConfig struct {
	DSN     string
	Release string
}

// SchoolConfig carries the academic and listing rules shared by the domain services.
type SchoolConfig struct {
	Timezone              string
	Location              *time.Location
	DefaultPageSize       int
	MaxPageSize           int
	MinSearchLength       int
	LegacySearchMode      bool
	SinglePerDayPolicy    string
	BCryptCost            int
	DefaultImportPassword string
}

// PasswordResetConfig tunes the OTP flow and its rate limiter.
type PasswordResetConfig struct {
	OTPTTL      time.Duration
	MaxRequests int
	Window      time.Duration
	MaxAttempts int
}

// MailConfig configures outgoing email. Without an API key messages are only logged.
type MailConfig struct {
	SendgridAPIKey string
	FromName       string
	FromAddress    string
	Workers        int
	MaxRetries     int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sentry = SentryConfig{
		DSN:     v.GetString("SENTRY_DSN"),
		Release: v.GetString("SENTRY_RELEASE"),
	}

	cfg.School = SchoolConfig{
		Timezone:              v.GetString("SCHOOL_TIMEZONE"),
		DefaultPageSize:       positiveOr(v.GetInt("SCHOOL_PAGE_SIZE"), 10),
		MaxPageSize:           positiveOr(v.GetInt("SCHOOL_MAX_PAGE_SIZE"), 100),
		MinSearchLength:       v.GetInt("SCHOOL_MIN_SEARCH_LENGTH"),
		LegacySearchMode:      v.GetBool("QUERY_LEGACY_SEARCH_MODE"),
		SinglePerDayPolicy:    parsePolicy(v.GetString("PROBLEM_POINT_SINGLE_PER_DAY")),
		BCryptCost:            positiveOr(v.GetInt("BCRYPT_COST"), 10),
		DefaultImportPassword: v.GetString("IMPORT_DEFAULT_PASSWORD"),
	}
	cfg.School.Location = loadLocation(cfg.School.Timezone)

	cfg.PasswordReset = PasswordResetConfig{
		OTPTTL:      parseDuration(v.GetString("PASSWORD_RESET_OTP_TTL"), 10*time.Minute),
		MaxRequests: positiveOr(v.GetInt("PASSWORD_RESET_MAX_REQUESTS"), 3),
		Window:      parseDuration(v.GetString("PASSWORD_RESET_WINDOW"), 15*time.Minute),
		MaxAttempts: positiveOr(v.GetInt("PASSWORD_RESET_MAX_ATTEMPTS"), 5),
	}

	cfg.Mail = MailConfig{
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		Workers:        positiveOr(v.GetInt("MAIL_WORKERS"), 2),
		MaxRetries:     v.GetInt("MAIL_MAX_RETRIES"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_info")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "student-info-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_RELEASE", "")

	v.SetDefault("SCHOOL_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SCHOOL_PAGE_SIZE", 10)
	v.SetDefault("SCHOOL_MAX_PAGE_SIZE", 100)
	v.SetDefault("SCHOOL_MIN_SEARCH_LENGTH", 3)
	v.SetDefault("QUERY_LEGACY_SEARCH_MODE", false)
	v.SetDefault("PROBLEM_POINT_SINGLE_PER_DAY", PolicyWarn)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("IMPORT_DEFAULT_PASSWORD", "changeme123")

	v.SetDefault("PASSWORD_RESET_OTP_TTL", "10m")
	v.SetDefault("PASSWORD_RESET_MAX_REQUESTS", 3)
	v.SetDefault("PASSWORD_RESET_WINDOW", "15m")
	v.SetDefault("PASSWORD_RESET_MAX_ATTEMPTS", 5)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Student Info")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@student-info.local")
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_MAX_RETRIES", 3)

	v.SetDefault("ENABLE_METRICS", true)
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

func parsePolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case PolicyReject:
		return PolicyReject
	case PolicyOff:
		return PolicyOff
	default:
		return PolicyWarn
	}
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
