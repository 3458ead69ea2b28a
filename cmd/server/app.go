package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tome-api/internal/config"
	"github.com/phrazzld/tome-api/internal/generation"
	"github.com/phrazzld/tome-api/internal/platform/gemini"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/platform/postgres"
	"github.com/phrazzld/tome-api/internal/service/auth"
	"github.com/phrazzld/tome-api/internal/service/content"
	"github.com/phrazzld/tome-api/internal/store"
)

// application bundles the wired dependencies the server runs on.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore      store.UserStore
	jwtService     auth.JWTService
	passwordHasher *auth.BcryptHasher
	contentService content.Service
}

// initializeApp loads configuration, sets up logging, connects to the
// database, applies migrations, and wires all services.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("database migrations applied")

	userStore := postgres.NewPostgresUserStore(db, log)
	moduleStore := postgres.NewPostgresModuleStore(db, log)
	grantStore := postgres.NewPostgresGrantStore(db, log)
	libraryStore := postgres.NewPostgresLibraryStore(db, log)
	progressStore := postgres.NewPostgresProgressStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	// Generation is optional: without an API key the endpoint reports the
	// feature as unavailable instead of failing startup.
	var generator generation.Generator
	if cfg.LLM.GeminiAPIKey != "" {
		g, err := gemini.NewGenerator(ctx, log, cfg.LLM)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create item generator: %w", err)
		}
		generator = g
	} else {
		log.Info("no LLM API key configured, item generation disabled")
	}

	contentService := content.NewService(
		store.NewTxRunner(db),
		moduleStore,
		grantStore,
		libraryStore,
		progressStore,
		generator,
		log,
	)

	return &application{
		config:         cfg,
		logger:         log,
		db:             db,
		userStore:      userStore,
		jwtService:     jwtService,
		passwordHasher: auth.NewBcryptHasher(),
		contentService: contentService,
	}, nil
}
