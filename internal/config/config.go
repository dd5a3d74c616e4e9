package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the explicit configuration object injected into constructors.
// Nothing in the application reads the environment after Load returns.
type Config struct {
	Env               string
	Port              string
	JWTSecret         string
	JWTAccessDuration time.Duration
	Database          DatabaseConfig
	GenAPI            GenAPIConfig
	WorkDir           string
	S3                S3Config
	AdminEmail        string
	AdminPassword     string
}

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	TimeZone string
}

// DSN builds the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// GenAPIConfig configures the content generation service client. Timeout and
// retry behavior are explicit: requests time out after Timeout and the client
// never retries internally.
type GenAPIConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	TokenTTL time.Duration
}

// S3Config enables optional archiving of result files to object storage
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Enabled reports whether S3 archiving is configured
func (c S3Config) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Load reads configuration from the environment once, with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Env:               getEnvOrDefault("ENV", "production"),
		Port:              getEnvOrDefault("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTAccessDuration: parseDurationOrDefault("JWT_ACCESS_DURATION", 15*time.Minute),
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
			TimeZone: getEnvOrDefault("DB_TIMEZONE", "UTC"),
		},
		GenAPI: GenAPIConfig{
			BaseURL:  getEnvOrDefault("GENAPI_BASE_URL", "https://api.contentgen.example.com"),
			APIKey:   os.Getenv("GENAPI_API_KEY"),
			Timeout:  parseDurationOrDefault("GENAPI_TIMEOUT", 30*time.Second),
			TokenTTL: parseDurationOrDefault("GENAPI_TOKEN_TTL", 30*time.Minute),
		},
		WorkDir: getEnvOrDefault("WORK_DIR", "var/content"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
		},
		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
