package container

import (
	"context"
	"fmt"

	"chamber-v2/internal/config"
	"chamber-v2/internal/crypto"
	"chamber-v2/internal/repository"
	"chamber-v2/internal/service"
	"chamber-v2/pkg/database"
	"chamber-v2/pkg/logger"
	"chamber-v2/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Crypto      *crypto.Context

	Audit     *service.AuditService
	Lifecycle *service.LifecycleService
	Voting    *service.VotingService
	Results   *service.ResultsService
	Reports   *service.ReportService
	AuthGate  service.AuthorizationGate
}

// New creates a new dependency injection container. Postgres and the crypto
// context are mandatory; Redis is an optional cache layer.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cryptoCtx, err := crypto.NewContext(cfg.MasterKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize crypto context: %w", err)
	}

	// Redis is optional; everything degrades to Postgres-only paths.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, rerr := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if rerr != nil {
			log.WithError(rerr).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	pollRepo := repository.NewPollRepository(db)
	ballotRepo := repository.NewBallotRepository(db)
	voterRepo := repository.NewVoterRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)

	audit := service.NewAuditService(auditRepo, log.Logger)
	lifecycle := service.NewLifecycleService(pollRepo, voterRepo, audit, log.Logger)
	voting := service.NewVotingService(
		db, pollRepo, ballotRepo, voterRepo, auditRepo,
		cryptoCtx, redisClient, audit, log.Logger, cfg.RatingScaleMax,
	)
	results := service.NewResultsService(
		pollRepo, ballotRepo, cryptoCtx, redisClient, audit, log.Logger, cfg.RatingScaleMax,
	)
	reports := service.NewReportService(pollRepo, reportRepo, results, audit, log.Logger)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Crypto:      cryptoCtx,
		Audit:       audit,
		Lifecycle:   lifecycle,
		Voting:      voting,
		Results:     results,
		Reports:     reports,
		AuthGate:    service.NewJWTGate(cfg.JWTSecret, log.Logger),
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if the Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Health checks the mandatory dependencies
func (c *Container) Health(ctx context.Context) error {
	return c.DB.Health(ctx)
}

// Close releases held resources
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	c.DB.Close()
}
