package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port    string `yaml:"port" env:"SERVER_PORT"`
		Mode    string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL string `yaml:"base_url" env:"SERVER_BASE_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
		// CleanupInterval is how often expired refresh tokens are purged. Zero disables the purge.
		CleanupInterval time.Duration `yaml:"cleanup_interval" env:"JWT_CLEANUP_INTERVAL"`
	} `yaml:"jwt"`

	Logging struct {
		Level        string `yaml:"level" env:"LOG_LEVEL"`
		Format       string `yaml:"format" env:"LOG_FORMAT"`
		RollbarToken string `yaml:"rollbar_token" env:"ROLLBAR_TOKEN"`
		Environment  string `yaml:"environment" env:"APP_ENV"`
	} `yaml:"logging"`

	App struct {
		Name        string `yaml:"name" env:"APP_NAME"`
		Timezone    string `yaml:"timezone" env:"APP_TIMEZONE"`
		StoragePath string `yaml:"storage_path" env:"APP_STORAGE_PATH"`
		// Shown on profiles when neither the user nor its manager has an organization name.
		DefaultOrganization string `yaml:"default_organization" env:"APP_DEFAULT_ORGANIZATION"`
		SuperuserUsername   string `yaml:"superuser_username" env:"APP_SUPERUSER_USERNAME"`
		SuperuserEmail      string `yaml:"superuser_email" env:"APP_SUPERUSER_EMAIL"`
		SuperuserPassword   string `yaml:"superuser_password" env:"APP_SUPERUSER_PASSWORD"`
	} `yaml:"app"`

	Boarding struct {
		QRSecret           string        `yaml:"qr_secret" env:"BOARDING_QR_SECRET"`
		QRSalt             string        `yaml:"qr_salt" env:"BOARDING_QR_SALT"`
		QRMaxAge           time.Duration `yaml:"qr_max_age" env:"BOARDING_QR_MAX_AGE"`
		RequireAssignedBus bool          `yaml:"require_assigned_bus" env:"BOARDING_REQUIRE_ASSIGNED_BUS"`
	} `yaml:"boarding"`

	Notifier struct {
		Enabled     bool          `yaml:"enabled" env:"NOTIFIER_ENABLED"`
		Interval    time.Duration `yaml:"interval" env:"NOTIFIER_INTERVAL"`
		RunTimeout  time.Duration `yaml:"run_timeout" env:"NOTIFIER_RUN_TIMEOUT"`
		UseRedis    bool          `yaml:"use_redis_lock" env:"NOTIFIER_USE_REDIS_LOCK"`
		LockTTL     time.Duration `yaml:"lock_ttl" env:"NOTIFIER_LOCK_TTL"`
		LockKey     string        `yaml:"lock_key" env:"NOTIFIER_LOCK_KEY"`
		EveningLead time.Duration `yaml:"evening_lead" env:"NOTIFIER_EVENING_LEAD"`
	} `yaml:"notifier"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Email struct {
		// Provider is one of smtp, ses, sendgrid or log.
		Provider  string `yaml:"provider" env:"EMAIL_PROVIDER"`
		FromName  string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"EMAIL_FROM_ADDRESS"`

		SMTP struct {
			Host     string `yaml:"host" env:"SMTP_HOST"`
			Port     int    `yaml:"port" env:"SMTP_PORT"`
			Username string `yaml:"username" env:"SMTP_USERNAME"`
			Password string `yaml:"password" env:"SMTP_PASSWORD"`
			UseTLS   bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		} `yaml:"smtp"`

		SES struct {
			Region string `yaml:"region" env:"AWS_REGION"`
		} `yaml:"ses"`

		SendGrid struct {
			APIKey string `yaml:"api_key" env:"SENDGRID_API_KEY"`
		} `yaml:"sendgrid"`
	} `yaml:"email"`

	Push struct {
		Enabled bool          `yaml:"enabled" env:"PUSH_ENABLED"`
		URL     string        `yaml:"url" env:"PUSH_URL"`
		Timeout time.Duration `yaml:"timeout" env:"PUSH_TIMEOUT"`
	} `yaml:"push"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`

	Tracing struct {
		Enabled     bool   `yaml:"enabled" env:"TRACING_ENABLED"`
		ServiceName string `yaml:"service_name" env:"TRACING_SERVICE_NAME"`
	} `yaml:"tracing"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "edutransit"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "edutransit.app"
	config.JWT.CleanupInterval = time.Hour

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Environment = "development"

	config.App.Name = "EduTransit"
	config.App.Timezone = "UTC"
	config.App.StoragePath = "uploads"
	config.App.DefaultOrganization = "EduTransit College"

	config.Boarding.QRSalt = "edutransit.boarding"
	config.Boarding.QRMaxAge = 35 * time.Second

	config.Notifier.Enabled = true
	config.Notifier.Interval = 60 * time.Second
	config.Notifier.RunTimeout = 50 * time.Second
	config.Notifier.LockTTL = 55 * time.Second
	config.Notifier.LockKey = "edutransit:notifier:missed-boarding"
	config.Notifier.EveningLead = 3 * time.Minute

	config.Redis.Addr = "localhost:6379"

	config.Email.Provider = "log"
	config.Email.FromName = "School Transport Team"
	config.Email.FromEmail = "admin@schoolapp.com"
	config.Email.SMTP.Port = 587

	config.Push.Enabled = true
	config.Push.URL = "https://exp.host/--/api/v2/push/send"
	config.Push.Timeout = 10 * time.Second

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"

	config.Tracing.ServiceName = "edutransit"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if _, err := time.LoadLocation(config.App.Timezone); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", config.App.Timezone, err)
	}

	// QR tokens fall back to the JWT secret so a fresh install works without extra setup.
	if config.Boarding.QRSecret == "" {
		config.Boarding.QRSecret = config.JWT.Secret
	}
	if config.Boarding.QRMaxAge <= 0 {
		return fmt.Errorf("boarding qr_max_age must be positive")
	}

	if config.Notifier.Interval <= 0 {
		return fmt.Errorf("notifier interval must be positive")
	}

	switch strings.ToLower(config.Email.Provider) {
	case "smtp":
		if config.Email.SMTP.Host == "" {
			return fmt.Errorf("smtp host is required when email provider is smtp")
		}
	case "ses":
		if config.Email.SES.Region == "" {
			return fmt.Errorf("ses region is required when email provider is ses")
		}
	case "sendgrid":
		if config.Email.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required when email provider is sendgrid")
		}
	case "log", "":
	default:
		return fmt.Errorf("unknown email provider %q", config.Email.Provider)
	}

	return nil
}

// Location returns the time zone used for trip scheduling and boarding dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(GetEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return value
}
