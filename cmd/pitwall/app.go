package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/datasource"
	"github.com/yourusername/pitwall/internal/iracing"
	"github.com/yourusername/pitwall/internal/notify"
	"github.com/yourusername/pitwall/internal/repository"
	"github.com/yourusername/pitwall/internal/service"
)

// app holds the wired dependency graph shared by every command
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *database.DB
	repos      *repository.Repositories
	httpClient *datasource.RateLimitedHTTPClient
	provider   *iracing.Client
	pages      *cache.PageCache
	userStats  *service.UserStatsService
	sync       *service.SyncService
	notifier   *notify.Notifier
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	db, err := database.Initialize(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	httpClient := datasource.NewHTTPClientFromConfig(cfg.IRacing, log)
	provider := iracing.NewClient(cfg.IRacing, httpClient, cfg.IsDevelopment(), log)
	pages := cache.NewPageCache(cfg.CacheTTL())

	userStats := service.NewUserStatsService(provider, repos.User, repos.DriverStats, log)
	syncService := service.NewSyncService(cfg.IRacing.Enabled, provider, repos, userStats, pages, log)

	notifier, err := notify.NewDiscordNotifier(cfg.Notifications, repos.EventReader, repos.Registration, cfg.Location(), log)
	if err != nil {
		_ = httpClient.Close()
		db.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"provider":      provider.Name(),
		"sync_enabled":  cfg.IRacing.Enabled,
		"credentials":   cfg.IRacing.HasCredentials(),
		"notifications": cfg.Notifications.Enabled,
	}).Info("Dependencies initialized")

	return &app{
		cfg:        cfg,
		logger:     log,
		db:         db,
		repos:      repos,
		httpClient: httpClient,
		provider:   provider,
		pages:      pages,
		userStats:  userStats,
		sync:       syncService,
		notifier:   notifier,
	}, nil
}

func (a *app) Close() {
	if err := a.httpClient.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close HTTP client")
	}
	a.db.Close()
}
