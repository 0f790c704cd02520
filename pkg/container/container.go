package container

import (
	"context"
	"fmt"
	"time"

	"checkout-backend/internal/config"
	checkoutHandler "checkout-backend/internal/domains/checkout/handler"
	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/domains/checkout/publisher"
	"checkout-backend/internal/domains/checkout/repository"
	"checkout-backend/internal/domains/checkout/resolver"
	checkoutService "checkout-backend/internal/domains/checkout/service"
	"checkout-backend/internal/domains/payment/gateway"
	"checkout-backend/internal/domains/payment/gateway/mock"
	infraCache "checkout-backend/internal/infrastructure/cache"
	"checkout-backend/internal/infrastructure/database"
	infraKafka "checkout-backend/internal/infrastructure/kafka"
	"checkout-backend/pkg/cache"
	"checkout-backend/pkg/jwt"
	"checkout-backend/pkg/logger"
	"checkout-backend/pkg/metrics"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
)

const poolMonitorInterval = 15 * time.Second

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Both binaries build one.
type Container struct {
	// INFRASTRUCTURE
	Config      *config.Config
	DB          *database.PostgresDB // nil with the memory storage driver
	Redis       *infraCache.RedisClient
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Kafka       *infraKafka.Client
	KafkaWriter *kafka.Writer // nil when no brokers are configured

	// METRICS
	Registry        *prometheus.Registry
	CheckoutMetrics *metrics.CheckoutMetrics

	// REPOSITORIES / PORTS
	SessionRepo   repository.SessionRepository
	CartReader    repository.CartReader
	Resolver      model.ArticleResolver // cached, review page only
	FreshResolver model.ArticleResolver // uncached, start and confirm
	Payments      *gateway.Registry
	Publisher     publisher.Publisher

	// SERVICES
	CheckoutService *checkoutService.CheckoutService

	// HANDLERS
	CheckoutHandler *checkoutHandler.CheckoutHandler

	stopMonitor context.CancelFunc
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer wires the graph in dependency order:
// infrastructure, repositories, services, handlers.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.Info("initializing container", map[string]interface{}{"env": cfg.App.Environment})

	c := &Container{Config: cfg}

	// STEP 1: DATABASE
	if err := c.initDatabase(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// STEP 2: REDIS + CACHE
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Redis.Connect(ctx); err != nil {
		// the resolver cache degrades to pass-through, queue publishes retry
		logger.Warn("redis unavailable, continuing", map[string]interface{}{"error": err.Error()})
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client, "checkout")

	// STEP 3: AUTH, QUEUE, KAFKA
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)
	c.AsynqClient = asynq.NewClient(RedisOpt(cfg))
	c.Kafka = infraKafka.NewClient(cfg.Kafka.Brokers)
	if c.Kafka.Enabled() {
		c.KafkaWriter = c.Kafka.NewWriter(cfg.Kafka.Topic)
	}

	// STEP 4: METRICS
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.CheckoutMetrics = metrics.NewCheckoutMetrics(c.Registry)

	// STEP 5: REPOSITORIES
	if err := c.initRepositories(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// STEP 6: SERVICES
	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// STEP 7: HANDLERS
	c.CheckoutHandler = checkoutHandler.NewCheckoutHandler(c.CheckoutService)

	if c.DB != nil {
		monitorCtx, stop := context.WithCancel(context.Background())
		c.stopMonitor = stop
		go c.DB.MonitorPool(monitorCtx, poolMonitorInterval, func(s database.PoolStats) {
			c.CheckoutMetrics.ObservePool(s.AcquiredConns, s.TotalConns)
		})
	}

	logger.Info("container initialized", map[string]interface{}{
		"storage":     cfg.Checkout.StorageDriver,
		"publish_via": cfg.Checkout.PublishVia,
		"kafka":       c.Kafka.Enabled(),
	})
	return c, nil
}

// RedisOpt is the asynq connection shared by client, server and scheduler
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initDatabase() error {
	if c.Config.Checkout.StorageDriver == config.StorageMemory {
		logger.Warn("memory storage driver selected, sessions are not persisted", nil)
		return nil
	}

	dbConfig, err := c.Config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if c.Config.Checkout.RunMigrations {
		if err := database.RunMigrations(dbConfig); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db := database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	return nil
}

func (c *Container) initRepositories() error {
	if c.DB == nil {
		c.SessionRepo = repository.NewMemoryRepository()
		c.CartReader = repository.NewMemoryCartReader()
		c.FreshResolver = resolver.NewCatalog()
		c.Resolver = c.FreshResolver
	} else {
		c.SessionRepo = repository.NewPostgresRepository(c.DB.Pool)
		c.CartReader = repository.NewPostgresCartReader(c.DB.Pool)
		c.FreshResolver = resolver.NewPostgresResolver(c.DB.Pool)
		c.Resolver = resolver.NewCachedResolver(
			c.FreshResolver,
			c.Cache,
			c.Config.Checkout.ResolverCacheTTL,
		)
	}

	providers, err := mock.DefaultProviders(c.Config.Payment.RedirectURL, c.Config.Payment.Providers)
	if err != nil {
		return err
	}
	c.Payments, err = gateway.NewRegistry(providers...)
	if err != nil {
		return err
	}

	c.Publisher, err = c.buildPublisher()
	return err
}

func (c *Container) buildPublisher() (publisher.Publisher, error) {
	switch c.Config.Checkout.PublishVia {
	case "asynq":
		return publisher.NewAsynqPublisher(c.AsynqClient), nil
	case "kafka":
		if c.KafkaWriter == nil {
			return nil, fmt.Errorf("publish via kafka requires KAFKA_BROKERS")
		}
		return publisher.NewKafkaPublisher(c.KafkaWriter), nil
	case "both":
		if c.KafkaWriter == nil {
			return nil, fmt.Errorf("publish via both requires KAFKA_BROKERS")
		}
		return publisher.NewMultiPublisher(
			publisher.NewAsynqPublisher(c.AsynqClient),
			publisher.NewKafkaPublisher(c.KafkaWriter),
		), nil
	default:
		return nil, fmt.Errorf("unknown publisher %q", c.Config.Checkout.PublishVia)
	}
}

func (c *Container) initServices() error {
	c.CheckoutService = checkoutService.NewCheckoutService(
		checkoutService.Deps{
			Sessions:      c.SessionRepo,
			Carts:         c.CartReader,
			Resolver:      c.Resolver,
			FreshResolver: c.FreshResolver,
			Payments:      c.Payments,
			Publisher:     c.Publisher,
			Metrics:       c.CheckoutMetrics,
		},
		checkoutService.Config{
			SessionTTL:      c.Config.Checkout.SessionTTL,
			ExpireBatchSize: c.Config.Job.ExpireBatchSize,
			Currency:        c.Config.Checkout.Currency,
		},
	)
	return nil
}

// Cleanup releases every resource. Safe on a partially built container.
func (c *Container) Cleanup() {
	logger.Info("cleaning up container resources", nil)

	if c.stopMonitor != nil {
		c.stopMonitor()
	}
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("failed to close asynq client", err)
		}
	}
	if c.KafkaWriter != nil {
		if err := c.KafkaWriter.Close(); err != nil {
			logger.Error("failed to close kafka writer", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
