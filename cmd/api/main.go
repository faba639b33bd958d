package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/adapter/auth"
	dbadapter "github.com/AmimerNabil/achieveai/internal/adapter/db"
	httpadapter "github.com/AmimerNabil/achieveai/internal/adapter/http"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/handlers"
	httpmiddleware "github.com/AmimerNabil/achieveai/internal/adapter/http/middleware"
	mongoadapter "github.com/AmimerNabil/achieveai/internal/adapter/mongo"
	appservice "github.com/AmimerNabil/achieveai/internal/app/service"
	"github.com/AmimerNabil/achieveai/internal/config"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
	"github.com/AmimerNabil/achieveai/pkg/translator"
)

const startupTimeout = 15 * time.Second

type taskStore interface {
	ports.TaskRepository
	ports.HealthChecker
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	// Make zap available to packages that log through zap.L().
	zap.ReplaceGlobals(logger)
	defer func() {
		if err := logger.Sync(); err != nil {
			zap.L().Debug("failed to sync logger", zap.Error(err))
		}
	}()

	cfg := config.LoadConfig()

	translator.InitTranslator(translator.Config{
		TranslationFolder:  cfg.TranslationFolder,
		SupportedLanguages: []string{translator.LanguageFr, translator.LanguageEn},
	})

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open task store", zap.String("store", cfg.TaskStore), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close task store", zap.Error(err))
		}
	}()

	// The Google verifier keeps its context for fetching signing keys.
	verifier, err := newVerifier(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to set up authentication", zap.String("auth_mode", cfg.AuthMode), zap.Error(err))
	}

	taskService := appservice.NewTaskService(store, clockwork.NewRealClock())

	r := gin.New()
	r.Use(gin.Recovery(), httpmiddleware.GinZapMiddleware(logger))
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("invalid trusted proxies", zap.Strings("trusted_proxies", cfg.TrustedProxies), zap.Error(err))
	}
	httpadapter.RegisterRoutes(
		r,
		handlers.NewHealthHandler(store, cfg.TaskStore),
		handlers.NewTaskHandler(taskService),
		verifier,
	)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("store", cfg.TaskStore),
		zap.String("auth_mode", cfg.AuthMode),
	)
	if err := r.Run(addr); err != nil {
		logger.Fatal("could not start server", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (taskStore, func() error, error) {
	switch cfg.TaskStore {
	case config.StoreMongo:
		client, err := mongoadapter.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repository := mongoadapter.NewTaskRepository(client, cfg.MongoDatabase, cfg.MongoCollection)
		if err := repository.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repository, func() error { return client.Disconnect(context.Background()) }, nil

	case config.StoreMySQL:
		db, err := dbadapter.ConnectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := dbadapter.Migrate(ctx, db, dbadapter.DialectMySQL); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return dbadapter.NewTaskRepository(db), db.Close, nil

	case config.StoreSQLite:
		db, err := dbadapter.ConnectSQLite(cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := dbadapter.Migrate(ctx, db, dbadapter.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return dbadapter.NewTaskRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown TASK_STORE %q", cfg.TaskStore)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (ports.IdentityVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthGoogle:
		verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	case config.AuthStatic:
		if len(cfg.StaticTokens) == 0 {
			return nil, fmt.Errorf("AUTH_STATIC_TOKENS is empty")
		}
		zap.L().Warn("static bearer tokens enabled; do not use in production")
		return auth.NewStaticVerifierFromConfig(cfg.StaticTokens), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
}
