package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/config"
	orderRepo "delivery-backend/internal/domains/order/repository"
	refundHandler "delivery-backend/internal/domains/refund/handler"
	refundRepo "delivery-backend/internal/domains/refund/repository"
	refundService "delivery-backend/internal/domains/refund/service"
	infraCache "delivery-backend/internal/infrastructure/cache"
	"delivery-backend/internal/infrastructure/database"
	"delivery-backend/internal/infrastructure/lock"
	"delivery-backend/internal/infrastructure/queue"
	"delivery-backend/internal/shared/authctx"
	"delivery-backend/pkg/cache"
	"delivery-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa tất cả dependencies của application.
// API và worker dùng chung container; worker không dùng handler layer.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Cache       cache.Cache
	Locker      lock.Locker
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Enqueuer    *queue.TaskEnqueuer

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	OrderRepo  orderRepo.OrderRepository
	RefundRepo refundRepo.RefundRepository
	TxManager  refundRepo.TransactionManager

	// ========================================
	// SERVICE LAYER
	// ========================================
	RefundService  refundService.RefundService
	ReportService  refundService.ReportService
	CleanupService refundService.CleanupService

	// ========================================
	// HANDLER LAYER
	// ========================================
	RefundHandler *refundHandler.RefundHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph.
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Redis, lock, queue client)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	log.Info().Msg("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("✅ Config loaded")

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRedis()

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)
	c.AsynqClient = asynq.NewClient(c.RedisOpt())
	c.Enqueuer = queue.NewTaskEnqueuer(c.AsynqClient, cfg.Job)

	// ========================================
	// STEP 3: REPOSITORIES
	// ========================================
	c.initRepositories()
	log.Info().Msg("✅ Repositories initialized")

	// ========================================
	// STEP 4: SERVICES
	// ========================================
	c.initServices()
	log.Info().Msg("✅ Services initialized")

	// ========================================
	// STEP 5: HANDLERS
	// ========================================
	c.RefundHandler = refundHandler.NewRefundHandler(c.RefundService, c.ReportService, c.Enqueuer)
	log.Info().Msg("✅ Handlers initialized")

	log.Info().Msg("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initDatabase() error {
	log.Info().Msg("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	// Connect với timeout 30s
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Info().Msg("✅ Database connected")
	return nil
}

// initRedis wires the cache and the lock on one client.
// Redis down is not fatal for the API: reports fall back to the database.
func (c *Container) initRedis() {
	log.Info().Msg("🔴 Connecting to Redis...")

	cfg := c.Config.Redis
	c.RedisClient = infraCache.NewRedisClient(cfg.Host, cfg.Password, cfg.DB)

	redisCache := infraCache.NewRedisCache(c.RedisClient)
	if err := redisCache.Connect(context.Background()); err != nil {
		log.Warn().Err(err).Msg("⚠️  Redis connection failed (non-critical)")
	}

	c.Cache = redisCache
	c.Locker = lock.NewRedsyncLocker(c.RedisClient)
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
	c.RefundRepo = refundRepo.NewRefundRepository(pool)
	c.TxManager = refundRepo.NewPostgresTransactionManager(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.RefundService = refundService.NewRefundService(
		c.RefundRepo,
		c.OrderRepo,
		c.TxManager,
		c.Cache,
		cfg.Refund,
	)

	c.ReportService = refundService.NewReportService(
		c.RefundRepo,
		authctx.NewContextAuth(),
		c.Cache,
		cfg.Refund.ReportCacheTTL,
	)

	c.CleanupService = refundService.NewCleanupService(
		c.OrderRepo,
		c.RefundRepo,
		c.TxManager,
		c.Locker,
		c.Cache,
		cfg.Job,
	)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisOpt returns the asynq connection settings for the shared Redis.
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close asynq client")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close database")
		} else {
			log.Info().Msg("✅ Database connections closed")
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("⚠️  Failed to close Redis")
		} else {
			log.Info().Msg("✅ Redis connections closed")
		}
	}

	log.Info().Msg("✅ Container cleanup completed")
}
