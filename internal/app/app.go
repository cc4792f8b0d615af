package app

import (
	"context"
	"fmt"

	"github.com/penflow/penflow-sync-service/internal/dao"
	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/service"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/workerpool"
	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Name service name
const Name = "penflow-sync-service"

// WebClientName default client name for browser connections
const WebClientName = "Web"

// App application container holding every dependency and service.
type App struct {
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository layer
	ChangeRepo   domain.ChangeRepository
	SessionRepo  domain.SessionRepository
	UserRepo     domain.UserRepository
	DocumentRepo domain.DocumentRepository

	// Service layer
	ChangelogService service.ChangelogService
	SnapshotService  service.SnapshotService
	SessionService   service.SessionService
	UserService      service.UserService
	DocumentService  service.DocumentService

	TokenManager *pkgapp.TokenManager
}

// NewApp creates the application container and wires all dependencies.
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config: cfg,
		logger: logger,
		DB:     db,
	}

	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	dbConfig := &dao.DatabaseConfig{
		Type:            cfg.Database.Type,
		Path:            cfg.Database.Path,
		UserName:        cfg.Database.UserName,
		Password:        cfg.Database.Password,
		Host:            cfg.Database.Host,
		Name:            cfg.Database.Name,
		TablePrefix:     cfg.Database.TablePrefix,
		AutoMigrate:     cfg.Database.AutoMigrate,
		Charset:         cfg.Database.Charset,
		ParseTime:       cfg.Database.ParseTime,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		RunMode:         cfg.Server.RunMode,
	}

	a.Dao = dao.New(db, context.Background(),
		dao.WithConfig(dbConfig),
		dao.WithLogger(logger),
		dao.WithWriteQueueManager(a.writeQueueMgr),
	)

	a.TokenManager = pkgapp.NewTokenManager(
		cfg.Security.ShareTokenKey,
		cfg.GetShareTokenExpiry(),
		Name,
	)

	a.ChangeRepo = dao.NewChangeRepository(a.Dao)
	a.SessionRepo = dao.NewSessionRepository(a.Dao)
	a.UserRepo = dao.NewUserRepository(a.Dao)
	a.DocumentRepo = dao.NewDocumentRepository(a.Dao)

	svcConfig := &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: cfg.User.RegisterIsEnable,
		},
		App: service.AppServiceConfig{
			AddChangeMaxRetries: cfg.App.AddChangeMaxRetries,
			SessionExpiry:       cfg.Security.SessionExpiry,
			ShareTokenExpiry:    cfg.Security.ShareTokenExpiry,
		},
	}

	a.ChangelogService = service.NewChangelogService(a.ChangeRepo, a.DocumentRepo, a.writeQueueMgr, logger, svcConfig)
	a.SnapshotService = service.NewSnapshotService(a.ChangeRepo, logger)
	a.SessionService = service.NewSessionService(a.SessionRepo, logger, svcConfig)
	a.UserService = service.NewUserService(a.UserRepo, a.SessionService, logger, svcConfig)
	a.DocumentService = service.NewDocumentService(a.DocumentRepo, a.ChangelogService, logger)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// Close releases the container's resources; the write queue drains first so
// in-flight appends land before the connection goes away.
func (a *App) Close(ctx context.Context) error {
	if a.writeQueueMgr != nil {
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue shutdown", zap.Error(err))
		}
	}
	if a.workerPool != nil {
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("worker pool shutdown", zap.Error(err))
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config returns the application configuration.
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger returns the logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// WorkerPool returns the shared worker pool.
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueue returns the per-changeset write queue manager.
func (a *App) WriteQueue() *writequeue.Manager {
	return a.writeQueueMgr
}

// Version returns the build identity.
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}
