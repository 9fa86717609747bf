package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-service/clients"
	apperrors "menu-service/common/errors"
	"menu-service/common/logger"
	"menu-service/common/middleware"
	"menu-service/config"
	"menu-service/controllers"
	"menu-service/database"
	"menu-service/kafka"
	awspkg "menu-service/pkg/aws"
	"menu-service/routes"
	"menu-service/services"
	"menu-service/ws"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Bootstrap logger until configuration is known
	logger.Initialize(os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// --- 1. AWS, logging & metrics ---

	var awsCfg sdkaws.Config
	awsReady := false
	if cfg.CloudWatchEnabled || cfg.SNSTopicArn != "" {
		awsCfg, err = awspkg.LoadAWSConfig(rootCtx)
		if err != nil {
			zap.L().Warn("AWS config unavailable, AWS integrations disabled", zap.Error(err))
		} else {
			awsReady = true
		}
	}

	log := logger.Log
	if cfg.CloudWatchEnabled && awsReady {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(rootCtx, awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName)
		if err != nil {
			zap.L().Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
			log = logger.Initialize(cfg.Env)
		} else {
			log = logger.InitializeWithWriter(cfg.Env, cwLogs)
		}
	} else {
		log = logger.Initialize(cfg.Env)
	}
	defer func() { _ = log.Sync() }()

	var metrics awspkg.MetricsRecorder
	if awsReady {
		metrics = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	}

	// --- 2. Storage ---

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = database.NewRedisClient(rootCtx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Redis is required by configuration", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
	}

	var cartRepo database.CartRepository
	if cfg.CartStore == "redis" {
		cartRepo = database.NewRedisCartRepository(redisClient, cfg.CartTTL)
	} else {
		memRepo := database.NewMemoryCartRepository(cfg.CartTTL)
		memRepo.StartSweeper(rootCtx, time.Minute)
		cartRepo = memRepo
	}

	var catalogCache database.CatalogCache
	if cfg.CatalogCache == "redis" {
		catalogCache = database.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL)
	} else {
		catalogCache = database.NewMemoryCatalogCache(cfg.CatalogCacheTTL)
	}

	// --- 3. Checkout publishing ---

	var publishers services.MultiPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal("Failed to create Kafka producer", zap.Error(err))
		}
		defer producer.Close()
		publishers = append(publishers, services.NewKafkaCheckoutPublisher(producer))
		log.Info("Kafka checkout publishing enabled", zap.String("topic", cfg.KafkaTopic))
	}
	if cfg.SNSTopicArn != "" && awsReady {
		publishers = append(publishers, services.NewSNSCheckoutPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicArn))
		log.Info("SNS checkout publishing enabled", zap.String("topic_arn", cfg.SNSTopicArn))
	}
	var publisher services.CheckoutPublisher
	if len(publishers) > 0 {
		publisher = publishers
	}

	// --- 4. Dependency injection ---

	menuClient := clients.NewMenuClient(cfg.UpstreamURL, cfg.UpstreamFallbackURL, cfg.UpstreamTimeout, log)
	restaurantService := services.NewRestaurantService(menuClient, catalogCache, metrics, log)

	// The hub needs the cart service for initial snapshots and the service
	// notifies the hub, so the hub reads through a late-bound reference.
	carts := &lateCartReader{}
	hub := ws.NewCartHub(carts, middleware.SplitOrigins(cfg.AllowedOrigins), log)
	go hub.Run(rootCtx)

	checkoutLoc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid checkout timezone", zap.Error(err))
	}
	cartService := services.NewCartService(cartRepo, restaurantService, publisher, hub, metrics, services.CheckoutOptions{
		Scheme:      cfg.MessagingScheme,
		Currency:    cfg.Currency,
		DefaultLang: cfg.DefaultLang,
		Location:    checkoutLoc,
	}, log)
	carts.CartService = cartService

	checks := map[string]controllers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := routes.Handlers{
		Health:      controllers.NewHealthController(cfg.ServiceName, checks),
		Restaurants: controllers.NewRestaurantController(restaurantService, cfg.DefaultLang),
		Cart:        controllers.NewCartController(cartService),
		CartHub:     hub,
	}

	// --- 5. HTTP server & middleware ---

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(rootCtx, rate.Limit(float64(cfg.RateLimitPerMinute)/60), cfg.RateLimitBurst, 10*time.Minute)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(limiter))
	r.Use(middleware.MetricsMiddleware(metrics, cfg.ServiceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, handlers, routes.Options{
		SessionCookieTTL: int(cfg.CartTTL.Seconds()),
		CookieSecure:     cfg.CookieSecure,
		AdminToken:       cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Menu Service starting",
			zap.String("port", cfg.Port),
			zap.String("cart_store", cfg.CartStore),
			zap.String("catalog_cache", cfg.CatalogCache),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- 6. Graceful shutdown ---

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopBackground()
	log.Info("Server exited")
}

// lateCartReader is bound to the cart service after the hub is built.
type lateCartReader struct {
	services.CartService
}
