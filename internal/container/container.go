package container

import (
	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/config"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/oauth"
	"pathlight-web/internal/session"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/redis"
	"pathlight-web/pkg/token"
	"pathlight-web/pkg/tokenstore"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	API         *apiclient.Client
	Guard       *session.Guard
	Dashboard   *dashboard.Service
	OAuth       oauth.Provider
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, using in-memory dashboard cache")
		} else {
			redisClient = client
			logger.WithField("key_prefix", client.KeyBuilder.GetPrefix()).Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, using in-memory dashboard cache")
	}

	var cache dashboard.Cache = dashboard.NewMemoryCache(cfg.DashboardCacheTTL)
	if redisClient != nil {
		cache = dashboard.NewRedisCache(redisClient, cfg.DashboardCacheTTL, logger.Logger)
	}

	validator := token.NewValidator()

	c := &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		API:         apiclient.New(cfg.BackendURL, cfg.RequestTimeout, logger),
		Guard:       session.NewGuard(validator, logger),
		Dashboard: dashboard.NewService(cache, logger, dashboard.Options{
			Timeout:   cfg.DashboardTimeout,
			Freshness: cfg.DashboardCacheTTL,
		}),
	}

	if cfg.OAuthEnabled() {
		c.OAuth = oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		logger.Info("Google sign-in enabled")
	}

	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// CookieOptions returns the token cookie settings derived from config
func (c *Container) CookieOptions() tokenstore.CookieOptions {
	opts := tokenstore.DefaultCookieOptions()
	opts.Secure = c.Config.CookieSecure
	if c.Config.RememberFor > 0 {
		opts.RememberFor = c.Config.RememberFor
	}
	return opts
}
