package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	"github.com/mohammedbabelly/zakah-calculator/internal/aggregator"
	"github.com/mohammedbabelly/zakah-calculator/internal/cache"
	"github.com/mohammedbabelly/zakah-calculator/internal/config"
	"github.com/mohammedbabelly/zakah-calculator/internal/database"
	_ "github.com/mohammedbabelly/zakah-calculator/internal/docs" // Import swagger docs
	"github.com/mohammedbabelly/zakah-calculator/internal/events"
	"github.com/mohammedbabelly/zakah-calculator/internal/handlers"
	"github.com/mohammedbabelly/zakah-calculator/internal/logger"
	"github.com/mohammedbabelly/zakah-calculator/internal/metrics"
	"github.com/mohammedbabelly/zakah-calculator/internal/middleware"
	"github.com/mohammedbabelly/zakah-calculator/internal/provider"
	"github.com/mohammedbabelly/zakah-calculator/internal/validator"
)

// @title           Zakah Calculator API
// @version         1.0
// @description     Live gold prices, exchange rates and zakah valuation for gold and cash holdings.

// @host      localhost:8080
// @BasePath  /api

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	rateFetcher := provider.NewExchangeRateFetcher(httpClient, cfg.ExchangeRateURL)
	var sources []provider.GoldSource
	if cfg.GoldPriceProxyURL != "" {
		sources = append(sources, provider.NewGoldPriceProxySource(httpClient, cfg.GoldPriceProxyURL))
	}
	sources = append(sources,
		provider.NewGoldPriceOrgSource(httpClient, cfg.GoldPriceOrgURL),
		provider.NewNBPSource(httpClient, cfg.NBPGoldURL, rateFetcher),
	)
	resolver := provider.NewGoldPriceResolver(sources, collector, log)
	log.Infow("gold price sources configured", "sources", resolver.Sources())

	store, dbManager, err := openStore(cfg)
	if err != nil {
		return err
	}
	if dbManager != nil {
		defer func() {
			if err := dbManager.Close(); err != nil {
				log.Warnw("closing session store failed", "error", err.Error())
			}
		}()
	}
	rateCache := cache.NewRateCache(store, log)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaRatesTopic)
		log.Infow("publishing rate snapshots", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaRatesTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("closing publisher failed", "error", err.Error())
		}
	}()

	agg := aggregator.New(resolver, rateFetcher, rateCache, publisher, collector, log, aggregator.Options{
		StaleAfter: 2 * cfg.RefreshInterval,
	})
	if agg.Hydrate(ctx) {
		log.Info("Restored rates from session store")
	}

	go aggregator.NewScheduler(agg, cfg.RefreshInterval, log).Run(ctx)

	refreshLimiter, err := middleware.NewRateLimiter(cfg.RefreshRateLimit)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(resolver, agg, refreshLimiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting zakah calculator server on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err.Error())
	}

	// A shared postgres store outlives the process, so the session ends here.
	if cfg.CacheDriver == config.CacheDriverPostgres {
		if err := rateCache.Clear(shutdownCtx); err != nil {
			log.Warnw("clearing session store failed", "error", err.Error())
		}
	}
	return nil
}

// openStore returns the session store for the configured driver. The
// manager is nil for the in-process memory store.
func openStore(cfg *config.Config) (cache.Store, *database.Manager, error) {
	if cfg.CacheDriver == config.CacheDriverMemory {
		return cache.NewMemoryStore(), nil, nil
	}

	dbManager, err := database.NewManager(cfg.CacheDriver, cfg.CacheDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		_ = dbManager.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return cache.NewGormStore(dbManager.DB()), dbManager, nil
}

func newRouter(resolver handlers.GoldPriceResolver, rates handlers.RatesService, refreshLimiter *limiter.Limiter) *gin.Engine {
	goldPriceHandler := handlers.NewGoldPriceHandler(resolver)
	ratesHandler := handlers.NewRatesHandler(rates)
	zakahHandler := handlers.NewZakahHandler(rates)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging("/metrics", "/api/health"))
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/gold-price", goldPriceHandler.GetGoldPrice)

	v1 := router.Group("/api/v1")

	ratesGroup := v1.Group("/rates")
	ratesGroup.GET("", ratesHandler.GetRates)
	ratesGroup.POST("/refresh", middleware.RateLimit(refreshLimiter), ratesHandler.RefreshRates)
	ratesGroup.PUT("/manual", ratesHandler.SetManualRates)

	v1.POST("/zakah/calculate", zakahHandler.Calculate)

	return router
}
