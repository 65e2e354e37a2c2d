// Package server wires configuration, persistence, storage and services
// together and runs the HTTP API until the process is signalled.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/rest"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/storage"
	"github.com/gin-gonic/gin"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	fileService *services.FileService
	guard       *auth.Guard
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	st, err := openStorage(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey))
	hasher := auth.NewPasswordHasher(c.BcryptCost)
	extensions := services.NewExtensionPolicy(c.AllowedExtensions, c.BlockedExtensions)

	us := services.NewUserService(repos, hasher, tokens, c.AccessTokenValidityDuration, logger)
	fs := services.NewFileService(repos, st, extensions, c.MaxFileSize, logger)

	return &App{
		config:      c,
		logger:      logger,
		repos:       repos,
		userService: us,
		fileService: fs,
		guard:       auth.NewGuard(tokens),
	}, nil
}

// openRepositories returns the in-memory manager for config.MemoryDSN and a
// migrated Postgres manager otherwise.
func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == config.MemoryDSN {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	m, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}

func openStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3(ctx, storage.S3Options{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
	default:
		return storage.NewDisk(c.UploadDir)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddr, app.logger, app.userService, app.fileService, app.guard,
		rest.Options{AuthRateLimit: app.config.AuthRateLimit, MaxFileSize: app.config.MaxFileSize})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or the
// HTTP server fails, then releases the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
