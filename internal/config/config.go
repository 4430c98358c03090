// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// TLS modes for the SMTP transport.
const (
	TLSModeStartTLS = "starttls"
	TLSModeImplicit = "tls"
)

// Config is an explicit value object passed to each component at
// construction. Nothing in the application reads the environment after
// Load returns.
type Config struct {
	ServerAddress string
	DatabaseURL   string
	AMQPURL       string

	SMTP  SMTPConfig
	Mail  MailConfig
	Admin AdminConfig

	// BaseURL is prepended to unsubscribe paths in outgoing mail.
	BaseURL string
	// SecretKey signs unsubscribe tokens and session cookies.
	SecretKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	TLSMode  string
}

type MailConfig struct {
	SenderEmail   string
	SenderName    string
	RatePerMinute int
}

type AdminConfig struct {
	Username string
	Password string
}

// Load reads configuration from the environment. Call godotenv.Load in
// main first if a .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		// Empty AMQPURL makes the server run sends in-process instead of
		// handing them to a worker.
		AMQPURL: os.Getenv("AMQP_URL"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			TLSMode:  getEnv("SMTP_TLS_MODE", TLSModeStartTLS),
		},
		Mail: MailConfig{
			SenderEmail:   os.Getenv("SMTP_SENDER_EMAIL"),
			SenderName:    os.Getenv("SMTP_SENDER_NAME"),
			RatePerMinute: getEnvInt("MAIL_RATE_PER_MINUTE", 20),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "changeme"),
		},
		BaseURL:   getEnv("BASE_URL", "http://localhost:8080"),
		SecretKey: getEnv("SECRET_KEY", "dev-secret-change-in-production"),
	}

	// Legacy DB_* pieces, used when DATABASE_URL is absent.
	if cfg.DatabaseURL == "" {
		user := os.Getenv("DB_USER")
		pass := os.Getenv("DB_PASSWORD")
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		name := os.Getenv("DB_NAME")
		if user == "" || name == "" {
			return nil, fmt.Errorf("config: DATABASE_URL (or DB_USER+DB_NAME) is required")
		}
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, pass, host, port, name)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mail.RatePerMinute <= 0 {
		return fmt.Errorf("config: MAIL_RATE_PER_MINUTE must be > 0")
	}
	if c.SMTP.TLSMode != TLSModeStartTLS && c.SMTP.TLSMode != TLSModeImplicit {
		return fmt.Errorf("config: SMTP_TLS_MODE must be %q or %q", TLSModeStartTLS, TLSModeImplicit)
	}
	return nil
}

// SMTPConfigured reports whether an outbound transport can be built.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.Mail.SenderEmail != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
