package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/db"
	httpserver "github.com/yungbote/lawflow-backend/internal/http"
	"github.com/yungbote/lawflow-backend/internal/observability"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	dbService    *db.Service
	shutdownOTel func(context.Context) error
}

func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	return logger.New(logMode)
}

func New(ctx context.Context) (*App, error) {
	LoadDotEnv()
	log, err := NewLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if cfg.Notion.Token == "" {
		log.Warn("NOTION_TOKEN is not set; publishing will fail until configured")
	}
	shutdownOTel := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset, dbService.Ping)
	server := wireServer(log, cfg, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		dbService:    dbService,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		errCh <- a.Server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
