package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"

	_ "github.com/redmonkez12/notes-api/docs" // Swagger docs
	"github.com/redmonkez12/notes-api/internal/auth"
	"github.com/redmonkez12/notes-api/internal/config"
	"github.com/redmonkez12/notes-api/internal/database"
	"github.com/redmonkez12/notes-api/internal/email"
	httpServer "github.com/redmonkez12/notes-api/internal/http"
	"github.com/redmonkez12/notes-api/internal/logging"
	"github.com/redmonkez12/notes-api/internal/note"
	"github.com/redmonkez12/notes-api/internal/secret"
	"github.com/redmonkez12/notes-api/internal/user"
)

// @title           Notes API
// @version         1.0
// @description     Notes backend with email one-time passcodes, Google sign-in and owner-scoped notes.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	if err := resolveSecrets(ctx, cfg); err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"token_type", cfg.Auth.TokenType,
	)

	users, notes, cleanup, err := initStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer cleanup()

	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	if cfg.Email.SMTPUser == "" || cfg.Email.SMTPPassword == "" {
		logger.Warn("SMTP credentials missing, OTP emails will fail")
	}
	emailService := email.NewService(cfg.Email, cfg.Auth.OTPTTL)

	if cfg.Google.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in will reject every token")
	}
	googleVerifier, err := auth.NewGoogleVerifier(ctx, cfg.Google.ClientID,
		option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Google verifier: %w", err)
	}

	otpService := auth.NewOTPService(users, tokenService, emailService, cfg.Auth.OTPTTL, cfg.Auth.SessionTokenDuration)
	googleService := auth.NewGoogleAuthService(users, tokenService, googleVerifier, cfg.Auth.SessionTokenDuration)
	noteService := note.NewService(notes)

	authHandler := auth.NewHandler(otpService, googleService)
	noteHandler := note.NewHandler(noteService)
	authMiddleware := auth.NewMiddleware(tokenService)

	router := httpServer.NewRouter(cfg, authHandler, noteHandler, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	var resolver config.SecretResolver
	switch cfg.Secrets.Backend {
	case config.SecretsBackendSSM:
		ssmResolver, err := secret.NewDefaultSSMResolver(ctx, cfg.Secrets.ParamPrefix)
		if err != nil {
			return err
		}
		resolver = ssmResolver
	default:
		resolver = secret.NewEnvResolver()
	}

	return cfg.ResolveSecrets(ctx, resolver)
}

// initStores opens the configured storage backend and returns a cleanup func.
func initStores(ctx context.Context, cfg *config.Config, logger *logging.Logger) (user.Store, note.Repository, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return user.NewMemoryStore(), note.NewMemoryRepository(), func() {}, nil
	}

	sqlDB, err := database.Open(cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	db := database.NewBunDB(sqlDB)
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err.Error())
		}
	}

	return user.NewRepository(db), note.NewPostgresRepository(db), cleanup, nil
}

func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenType == config.TokenTypeJWT {
		return auth.NewJWTService(cfg.JWTSecret)
	}
	return auth.NewPasetoService(cfg.PasetoKey)
}
