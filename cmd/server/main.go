package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fashionstock-dashboard/config"
	"fashionstock-dashboard/internal/api"
	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/broker"
	"fashionstock-dashboard/internal/redisclient"
	"fashionstock-dashboard/internal/service"
	"fashionstock-dashboard/internal/session"
	"fashionstock-dashboard/internal/store"
	"fashionstock-dashboard/internal/util"
	"fashionstock-dashboard/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting FashionStock dashboard",
		zap.String("env", cfg.Server.Env),
		zap.String("backend", cfg.Backend.BaseURL))

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer("fashionstock-dashboard", cfg.Observ.JaegerEndpoint, cfg.Observ.SampleRatio)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()
	var checks []api.Check

	// Redis, Postgres and Kafka are optional. Each stays a nil interface when
	// unavailable so the services skip it.
	var (
		cache  service.SnapshotCache
		locker worker.Locker
		dedup  worker.Deduper
	)
	var redisClient *redisclient.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			logger.Warn("Redis unavailable, running without snapshot cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache, locker, dedup = redisClient, redisClient, redisClient
			checks = append(checks, api.Check{Name: "redis", Ping: redisClient.Ping})
			logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var journal service.SaleJournal
	if cfg.Database.URL != "" {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate sale journal", zap.Error(err))
		}
		journal = db
		checks = append(checks, api.Check{Name: "postgres", Ping: db.Ping})
		logger.Info("Sale journal ready")
	}

	var (
		events   service.EventPublisher
		consumer *broker.Consumer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
		consumer = broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		logger.Info("Kafka configured", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicEvents))
	}

	client := backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		RateLimitRPS:   cfg.Backend.RateLimitRPS,
		RateLimitBurst: cfg.Backend.RateLimitBurst,
	})
	issuer := session.NewIssuer(cfg.Session.Secret, cfg.Session.TTL)
	carts := service.NewCartRegistry()
	ttl := cfg.Dashboard.SnapshotCacheTTL

	svc := api.Services{
		Auth:      service.NewAuthService(client, issuer),
		Dashboard: service.NewDashboardService(client, cache, ttl),
		Reports:   service.NewReportService(client, cache, ttl),
		Products:  service.NewProductService(client, cache, events, ttl),
		Sales:     service.NewSalesService(client, cache, journal, events, carts, ttl),
		Users:     service.NewUserService(client, cache, events, ttl),
	}

	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	var workers sync.WaitGroup

	poller := worker.NewDashboardPoller(svc.Dashboard, locker, cfg.Dashboard.RefreshInterval)
	janitor := worker.NewCartJanitor(carts, cfg.Dashboard.CartSweepEvery, cfg.Dashboard.CartIdleTimeout)
	workers.Add(2)
	go func() {
		defer workers.Done()
		poller.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		janitor.Run(workerCtx)
	}()

	var cacheWorker *worker.CacheWorker
	if consumer != nil && redisClient != nil {
		cacheWorker = worker.NewCacheWorker(consumer, redisClient, svc.Dashboard, dedup, cfg.Kafka.DedupTTL)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := cacheWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Cache worker error", zap.Error(err))
			}
		}()
	} else if consumer != nil {
		_ = consumer.Close()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(svc, issuer, cfg.Server.CORSOrigins, checks...)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if cacheWorker != nil {
		if err := cacheWorker.Stop(); err != nil {
			logger.Warn("Error stopping cache worker", zap.Error(err))
		}
	}
	workers.Wait()

	logger.Info("Server exited")
}
