package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sundayezeilo/filedrop/internal/config"
	"github.com/sundayezeilo/filedrop/internal/db/migrations"
	db "github.com/sundayezeilo/filedrop/internal/db/sqlc"
	"github.com/sundayezeilo/filedrop/internal/filelink"
	"github.com/sundayezeilo/filedrop/internal/objectstore"
	"github.com/sundayezeilo/filedrop/internal/pages"
	"github.com/sundayezeilo/filedrop/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DBPool  *pgxpool.Pool
	Redis   *redis.Client
	Store   *objectstore.Store
	Server  *server.Server
	Handler *filelink.Handler

	sweeper     *filelink.Sweeper
	stopSweeper context.CancelFunc
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.App.ServiceVersion,
		"link_store", cfg.Links.Store,
	)

	a := &App{Config: cfg, Logger: logger}

	repo, err := a.setupRepository(ctx)
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	s3Client, err := objectstore.NewClient(ctx, cfg.Storage)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	store, err := objectstore.New(s3Client, objectstore.Config{
		Bucket:     cfg.Storage.Bucket,
		PresignTTL: cfg.Storage.PresignTTL,
	})
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	a.Store = store

	hasher, err := filelink.NewBcryptHasher(cfg.Links.BcryptCost)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	svc, err := filelink.NewService(repo, store, &filelink.ServiceConfig{
		TokenBytes: cfg.Links.KeyTokenBytes,
		Hasher:     hasher,
		Logger:     logger,
	})
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to create link service: %w", err)
	}

	renderer, err := pages.New()
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}

	a.Handler = filelink.NewHandler(filelink.HandlerConfig{
		Service: svc,
		Logger:  logger,
		Pages:   renderer,
	})
	a.Server = server.New(cfg, logger, a.Handler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"bucket", store.Bucket(),
	)

	return a, nil
}

// setupRepository connects the configured link store. For Postgres it also
// applies migrations and prepares the expiry sweeper.
func (a *App) setupRepository(ctx context.Context) (filelink.Repository, error) {
	switch a.Config.Links.Store {
	case config.StoreRedis:
		client, err := connectRedis(ctx, a.Config, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = client
		return filelink.NewCoalescingRepository(filelink.NewRedisRepository(client, a.Config.Redis.KeyPrefix)), nil

	default:
		pool, err := connectDatabase(ctx, a.Config, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DBPool = pool

		if err := migrations.Apply(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}

		repo := filelink.NewRepository(db.New(pool))
		a.sweeper = filelink.NewSweeper(repo, a.Config.Links.SweepInterval, a.Logger)
		return filelink.NewCoalescingRepository(repo), nil
	}
}

// Start runs the HTTP server and, when enabled, the expiry sweeper. It
// returns once the server has stopped; the sweeper is stopped with it.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	a.stopSweeper = stop

	g.Go(func() error {
		defer stop()
		return a.Server.Start(runCtx)
	})

	if a.sweeper != nil && a.Config.Links.SweepInterval > 0 {
		g.Go(func() error {
			a.sweeper.Run(runCtx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.stopSweeper != nil {
		a.stopSweeper()
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
		a.Logger.Info("redis connection closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

// connectRedis opens and pings the Redis link store.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("connecting to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established")

	return client, nil
}
