package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-portal/internal/config"
	"job-portal/internal/database"
	"job-portal/internal/database/migration"
	"job-portal/internal/database/migrations"
	dbpostgres "job-portal/internal/database/postgres"
	"job-portal/internal/infrastructure/cache"
	"job-portal/internal/pkg/jwt"
	"job-portal/internal/repository"
	"job-portal/internal/usecase/portal"
	"job-portal/internal/usecase/snapshot"
	"job-portal/internal/ws"

	"go.uber.org/zap"
)

// Container holds the long-lived dependencies shared by the HTTP and
// websocket servers. DB and SnapshotService are nil when Postgres is not
// configured.
type Container struct {
	Config          config.Config
	Logger          *zap.Logger
	DB              database.DB
	Cache           *cache.Redis
	Snapshots       snapshot.Store
	SnapshotService *snapshot.Service
	JWT             jwt.Service
	Hub             *ws.Hub
	Registry        *portal.Registry
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{Config: cfg, Logger: logger}

	c.Cache = cache.NewRedis(ctx, cfg.Redis, logger)
	c.Snapshots = snapshot.Disabled{}

	if cfg.Database.Enabled() {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := dbpostgres.Connect(connCtx, cfg.Database, cfg.App.AppName)
		cancel()
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.DB = db

		runner := migration.Runner{FS: migrations.FS, Logger: logger.Named("migration")}
		applied, err := runner.Run(ctx, db.SQLDB())
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		repo := repository.NewPostgresJobRecordRepository(db)
		c.SnapshotService = snapshot.NewService(repo, c.Cache, cfg.Redis.SnapshotTTL, logger)
		c.Snapshots = c.SnapshotService
		if len(applied) > 0 {
			if err := c.SnapshotService.InvalidateAll(ctx); err != nil {
				logger.Warn("drop cached snapshots after migration", zap.Error(err))
			}
		}
	} else {
		logger.Info("postgres not configured, snapshots disabled")
	}

	c.JWT = jwt.NewHMACService(cfg.Session.Secret, cfg.App.AppName, cfg.Session.TokenTTL)
	c.Hub = ws.NewHub(logger)
	c.Registry = portal.NewRegistry(portal.RegistryConfig{
		Logger:           logger.Named("portal"),
		Publisher:        c.Hub,
		FailOnStaleIndex: cfg.App.IsDevelopment(),
	})

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	return errors.Join(errs...)
}
