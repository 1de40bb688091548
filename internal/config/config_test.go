package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERVER_PORT", "APP_ENV", "SERVER_READ_TIMEOUT", "TRUSTED_ORIGINS",
	"STORAGE_DRIVER", "DB_AUTO_MIGRATE", "AUTH_TOKEN_TYPE", "PASETO_KEY",
	"JWT_SECRET", "SESSION_TOKEN_DURATION", "OTP_TTL", "GOOGLE_CLIENT_ID",
	"SMTP_HOST", "SMTP_USER", "SMTP_PASS", "SMTP_FROM", "SECRETS_BACKEND",
	"SSM_PARAM_PREFIX", "SSM_TOKEN_KEY_PARAM", "SSM_SMTP_PASSWORD_PARAM",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, TokenTypePaseto, cfg.Auth.TokenType)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTPHost)
	assert.Equal(t, SecretsBackendEnv, cfg.Secrets.Backend)
	assert.Equal(t, "/notes", cfg.Secrets.ParamPrefix)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TRUSTED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("OTP_TTL", "300")
	t.Setenv("SESSION_TOKEN_DURATION", "not-a-number")
	t.Setenv("SMTP_USER", "mailer@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, "mailer@example.com", cfg.Email.FromAddress)
}

func validConfig() *Config {
	return &Config{
		Storage: StorageConfig{Driver: StorageDriverMemory},
		Auth: AuthConfig{
			TokenType:            TokenTypePaseto,
			PasetoKey:            []byte(strings.Repeat("k", 32)),
			SessionTokenDuration: time.Hour,
			OTPTTL:               time.Minute,
		},
		Secrets: SecretsConfig{Backend: SecretsBackendEnv},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid paseto", mutate: func(c *Config) {}},
		{
			name:    "short paseto key",
			mutate:  func(c *Config) { c.Auth.PasetoKey = []byte("short") },
			wantErr: "PASETO_KEY must be exactly 32 bytes, got 5",
		},
		{
			name: "valid jwt",
			mutate: func(c *Config) {
				c.Auth.TokenType = TokenTypeJWT
				c.Auth.JWTSecret = []byte(strings.Repeat("s", 48))
			},
		},
		{
			name: "short jwt secret",
			mutate: func(c *Config) {
				c.Auth.TokenType = TokenTypeJWT
				c.Auth.JWTSecret = []byte("s")
			},
			wantErr: "JWT_SECRET must be at least 32 bytes, got 1",
		},
		{
			name:    "unknown token type",
			mutate:  func(c *Config) { c.Auth.TokenType = "macaroon" },
			wantErr: "AUTH_TOKEN_TYPE",
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: "STORAGE_DRIVER",
		},
		{
			name:    "unknown secrets backend",
			mutate:  func(c *Config) { c.Secrets.Backend = "vault" },
			wantErr: "SECRETS_BACKEND",
		},
		{
			name:    "zero otp ttl",
			mutate:  func(c *Config) { c.Auth.OTPTTL = 0 },
			wantErr: "OTP_TTL",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

type mapResolver map[string]string

func (m mapResolver) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("missing " + name)
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.PasetoKey = nil
	cfg.Secrets = SecretsConfig{
		Backend:           SecretsBackendSSM,
		TokenKeyParam:     "/notes/paseto-key",
		SMTPPasswordParam: "/notes/smtp-pass",
	}

	resolver := mapResolver{
		"/notes/paseto-key": strings.Repeat("p", 32),
		"/notes/smtp-pass":  "hunter2",
	}

	require.NoError(t, cfg.ResolveSecrets(context.Background(), resolver))
	assert.Equal(t, strings.Repeat("p", 32), string(cfg.Auth.PasetoKey))
	assert.Equal(t, "hunter2", cfg.Email.SMTPPassword)
	assert.NoError(t, cfg.Validate())
}

func TestResolveSecrets_JWTAndErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.TokenType = TokenTypeJWT
	cfg.Secrets.TokenKeyParam = "/notes/jwt-secret"

	require.NoError(t, cfg.ResolveSecrets(context.Background(), mapResolver{"/notes/jwt-secret": "jwt"}))
	assert.Equal(t, "jwt", string(cfg.Auth.JWTSecret))

	cfg.Secrets.SMTPPasswordParam = "/notes/absent"
	err := cfg.ResolveSecrets(context.Background(), mapResolver{"/notes/jwt-secret": "jwt"})
	assert.ErrorContains(t, err, "resolve smtp password")
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "notes", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=notes sslmode=require", db.ConnectionString())

	db.ChannelBinding = "require"
	assert.True(t, strings.HasSuffix(db.ConnectionString(), " channel_binding=require"))
}
