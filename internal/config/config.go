package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendURL string

	Google OAuthConfig

	SMTP SMTPConfig

	NotifyTimeout time.Duration
	RedisURL      string

	OpenAI OpenAIConfig

	HealthInterval    time.Duration
	HealthMaxInterval time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			FromName: getEnv("SMTP_FROM_NAME", "Planit"),
		},

		NotifyTimeout: getDuration("NOTIFY_TIMEOUT", 15*time.Second),
		RedisURL:      getEnv("REDIS_URL", ""),

		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},

		HealthInterval:    getDuration("HEALTH_INTERVAL", 10*time.Second),
		HealthMaxInterval: getDuration("HEALTH_MAX_INTERVAL", 2*time.Minute),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getDuration falls back when the variable is unset or unparsable.
func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
