package container

import (
	"context"
	"fmt"

	"stays-be/internal/config"
	"stays-be/internal/repository"
	"stays-be/internal/service"
	"stays-be/internal/service/auth"
	"stays-be/internal/service/catalog"
	"stays-be/pkg/database"
	"stays-be/pkg/logger"
	"stays-be/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container. Postgres and Redis are
// both required: favorites split across the two stores and the realtime
// feed rides the Redis pub/sub channel.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	logger.Info("Postgres connection pool initialized")

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Redis client initialized")

	repos := &repository.Repositories{
		Favorites: repository.NewFavoriteRepository(db),
		Links:     repository.NewLinkRepository(db),
		Events:    repository.NewImportEventRepository(db),
	}

	authService := auth.NewService(cfg.SessionJWTSecret, logger.Named("auth"))
	catalogService := catalog.NewClient(cfg.CatalogURL, logger.Named("catalog"))
	favoriteService := service.NewFavoriteService(repos.Favorites, redisClient, logger.Named("favorites"))
	notifierService := service.NewNotifierService(redisClient, repos.Links, logger.Named("notifier"))
	linkService := service.NewLinkService(
		repos.Links,
		repos.Events,
		favoriteService,
		notifierService,
		catalogService,
		redisClient,
		logger.Named("links"),
		cfg.ShareBaseURL,
	)
	statsService := service.NewStatsService(repos.Events, repos.Links, logger.Named("stats"))

	services := &service.Services{
		Auth:      authService,
		Favorites: favoriteService,
		Links:     linkService,
		Stats:     statsService,
		Notifier:  notifierService,
		Catalog:   catalogService,
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
	}, nil
}

// Close releases the container's connections
func (c *Container) Close() error {
	var firstErr error
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return firstErr
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetFavoriteService returns the favorite service
func (c *Container) GetFavoriteService() service.FavoriteService {
	return c.Services.Favorites
}

// GetLinkService returns the link service
func (c *Container) GetLinkService() service.LinkService {
	return c.Services.Links
}

// GetStatsService returns the stats service
func (c *Container) GetStatsService() service.StatsService {
	return c.Services.Stats
}

// GetNotifierService returns the notifier service
func (c *Container) GetNotifierService() service.NotifierService {
	return c.Services.Notifier
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetDB returns the Postgres pool wrapper
func (c *Container) GetDB() *database.PostgresDB {
	return c.DB
}

// GetRedis returns the Redis client
func (c *Container) GetRedis() *redis.Client {
	return c.RedisClient
}
