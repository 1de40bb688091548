package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	TokenTypePaseto = "paseto"
	TokenTypeJWT    = "jwt"

	SecretsBackendEnv = "env"
	SecretsBackendSSM = "ssm"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Google   GoogleConfig
	Email    EmailConfig
	Secrets  SecretsConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type StorageConfig struct {
	Driver string // postgres or memory
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	AutoMigrate    bool
}

type AuthConfig struct {
	TokenType string // paseto or jwt
	// PASETO symmetric key (must be 32 bytes for v4.local)
	PasetoKey []byte
	// HMAC secret for HS256 tokens (at least 32 bytes)
	JWTSecret            []byte
	SessionTokenDuration time.Duration
	OTPTTL               time.Duration
}

type GoogleConfig struct {
	ClientID string // expected audience of Google ID tokens
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
}

type SecretsConfig struct {
	Backend           string // env or ssm
	ParamPrefix       string // SSM path for relative parameter names
	TokenKeyParam     string // parameter holding PASETO_KEY or JWT_SECRET
	SMTPPasswordParam string // parameter holding SMTP_PASS
}

// SecretResolver fetches a secret value by name.
type SecretResolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Load reads configuration from environment variables, loading a .env file
// first when one exists. Call Validate once secrets are in place.
func Load() (*Config, error) {
	_ = godotenv.Load()

	smtpUser := getEnv("SMTP_USER", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "notes"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			AutoMigrate:    getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			TokenType:            strings.ToLower(getEnv("AUTH_TOKEN_TYPE", TokenTypePaseto)),
			PasetoKey:            []byte(getEnv("PASETO_KEY", "")),
			JWTSecret:            []byte(getEnv("JWT_SECRET", "")),
			SessionTokenDuration: getDurationEnv("SESSION_TOKEN_DURATION", 7*24*time.Hour),
			OTPTTL:               getDurationEnv("OTP_TTL", 10*time.Minute),
		},
		Google: GoogleConfig{
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     smtpUser,
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromAddress:  getEnv("SMTP_FROM", smtpUser),
		},
		Secrets: SecretsConfig{
			Backend:           strings.ToLower(getEnv("SECRETS_BACKEND", SecretsBackendEnv)),
			ParamPrefix:       getEnv("SSM_PARAM_PREFIX", "/notes"),
			TokenKeyParam:     getEnv("SSM_TOKEN_KEY_PARAM", ""),
			SMTPPasswordParam: getEnv("SSM_SMTP_PASSWORD_PARAM", ""),
		},
	}

	return cfg, nil
}

// ResolveSecrets replaces the token key and SMTP password with values from
// resolver for every parameter name that is configured.
func (c *Config) ResolveSecrets(ctx context.Context, resolver SecretResolver) error {
	if c.Secrets.TokenKeyParam != "" {
		value, err := resolver.GetSecret(ctx, c.Secrets.TokenKeyParam)
		if err != nil {
			return fmt.Errorf("resolve token key: %w", err)
		}
		if c.Auth.TokenType == TokenTypeJWT {
			c.Auth.JWTSecret = []byte(value)
		} else {
			c.Auth.PasetoKey = []byte(value)
		}
	}

	if c.Secrets.SMTPPasswordParam != "" {
		value, err := resolver.GetSecret(ctx, c.Secrets.SMTPPasswordParam)
		if err != nil {
			return fmt.Errorf("resolve smtp password: %w", err)
		}
		c.Email.SMTPPassword = value
	}

	return nil
}

// Validate checks enumerated settings and key material.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}

	switch c.Secrets.Backend {
	case SecretsBackendEnv, SecretsBackendSSM:
	default:
		return fmt.Errorf("SECRETS_BACKEND must be %q or %q, got %q", SecretsBackendEnv, SecretsBackendSSM, c.Secrets.Backend)
	}

	switch c.Auth.TokenType {
	case TokenTypePaseto:
		// v4.local requires a 32-byte key
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	case TokenTypeJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.Auth.JWTSecret))
		}
	default:
		return fmt.Errorf("AUTH_TOKEN_TYPE must be %q or %q, got %q", TokenTypePaseto, TokenTypeJWT, c.Auth.TokenType)
	}

	if c.Auth.SessionTokenDuration <= 0 {
		return fmt.Errorf("SESSION_TOKEN_DURATION must be positive")
	}
	if c.Auth.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
