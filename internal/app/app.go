// Package app builds the shared object graph used by the API server and the
// worker from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/config"
	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/mailer"
)

// App holds every long-lived dependency.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repos      *db.Repositories
	Identities identity.Provider
	Mailer     mailer.Mailer
	Publisher  events.Publisher
	Redis      *redis.Client // nil when REDIS_ADDR is unset or unreachable
	Cache      cache.Cache

	Sessions core.SessionService
	Users    core.UserService
	Usage    core.UsageService
	Plans    core.PlanService
	Admin    core.AdminService
	Feedback core.FeedbackService

	closers []func() error
}

// NewLogger builds a zap logger for LOG_FORMAT.
func NewLogger(format string) (*zap.Logger, error) {
	if strings.EqualFold(format, "production") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// New connects to the configured backends and wires the services. Redis and
// RabbitMQ are optional; without them caching, rate limiting and event
// delivery degrade to no-ops.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := db.InitFirebase(ctx, cfg, logger); err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	authClient := db.GetFirebaseAuthClient()
	if authClient == nil {
		return nil, errors.New("firebase auth client is nil after initialization")
	}
	a.Identities = identity.NewFirebaseProvider(authClient)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory account store; data is lost on restart.")
		a.Repos = db.NewMemoryStore().Repositories()
	default:
		client := db.GetFirestoreClient()
		if client == nil {
			return nil, errors.New("firestore client is nil after initialization")
		}
		a.Repos = db.NewFirestoreRepositories(client)
	}

	a.Cache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable; caching and rate limiting disabled", zap.Error(err))
		} else {
			a.Redis = rdb
			a.Cache = cache.NewRedisCache(rdb, "eatlens")
			a.closers = append(a.closers, rdb.Close)
			logger.Info("Redis connected", zap.String("addr", cfg.RedisAddr))
		}
	}

	a.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		pub, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsQueue, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable; plan events will not be delivered", zap.Error(err))
		} else {
			a.Publisher = pub
			a.closers = append(a.closers, pub.Close)
			logger.Info("RabbitMQ publisher ready", zap.String("queue", cfg.EventsQueue))
		}
	}

	a.Mailer = mailer.New(cfg, logger)

	clock := core.SystemClock{}
	audit := core.NewAuditService(a.Repos.Audit)
	a.Sessions = core.NewSessionService(a.Repos.Accounts, a.Identities, audit, a.Publisher, clock, logger)
	a.Users = core.NewUserService(a.Repos.Users, a.Identities, a.Mailer, cfg.AdminEmail, clock, logger)
	a.Usage = core.NewUsageService(a.Repos.Accounts, clock, logger)
	a.Plans = core.NewPlanService(a.Repos.Accounts, a.Repos.Users, audit, a.Publisher, clock, logger)
	a.Admin = core.NewAdminService(a.Repos, audit, a.Cache, logger)
	a.Feedback = core.NewFeedbackService(a.Repos.Reviews, a.Repos.Messages, a.Cache, cfg.ReviewsCacheTTL, clock, logger)

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Error while closing dependency", zap.Error(err))
		}
	}
}
