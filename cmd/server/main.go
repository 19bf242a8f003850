package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepmate/practice-service/internal/analytics"
	"github.com/prepmate/practice-service/internal/bank"
	"github.com/prepmate/practice-service/internal/cache"
	"github.com/prepmate/practice-service/internal/config"
	"github.com/prepmate/practice-service/internal/events"
	"github.com/prepmate/practice-service/internal/exams"
	"github.com/prepmate/practice-service/internal/handlers"
	"github.com/prepmate/practice-service/internal/intent"
	"github.com/prepmate/practice-service/internal/provider"
	"github.com/prepmate/practice-service/internal/repositories/postgres"
	"github.com/prepmate/practice-service/internal/selector"
	"github.com/prepmate/practice-service/internal/session"
	"github.com/prepmate/practice-service/internal/utils"
	"github.com/prepmate/practice-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := utils.NewLogger(cfg.Environment)
	logger.Info("Starting practice service", "environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)

	// Redis is optional; without it question fetches just skip the cache.
	var questionCache cache.CacheService
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, question cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			questionCache = cache.NewRedisCache(redisClient, logger)
		}
	}

	registry := exams.NewDefaultRegistry(cfg.ExamStructPath, logger)

	questionBank := bank.New(logger)
	importer := bank.NewImporter(questionBank, logger)
	if err := importer.LoadDir(cfg.QuestionBankDir); err != nil {
		logger.Error("Failed to load question bank", "error", err)
		os.Exit(1)
	}

	// The local bank backs the remote provider; with no remote configured
	// it serves alone.
	var questionSource provider.QuestionProvider = questionBank
	if cfg.ProviderURL != "" {
		var remote provider.QuestionProvider = provider.NewHTTPProvider(
			cfg.ProviderURL, &http.Client{}, logger)
		if questionCache != nil {
			remote = provider.NewCached(remote, questionCache, cfg.QuestionCacheTTL, logger)
		}
		remote = provider.NewBounded(remote, cfg.ProviderTimeout)
		questionSource = provider.NewFailover(remote, questionBank, logger)
	}

	aggregator := analytics.NewAggregator(repo.Profiles(), analytics.Config{
		MinSampleSize:      cfg.MinSampleSize,
		WeakTopicThreshold: cfg.WeakTopicThreshold,
		WeakSubjectLimit:   cfg.WeakSubjectLimit,
		StrongThreshold:    cfg.StrongThreshold,
		TrendWindow:        cfg.TrendWindow,
		TrendMargin:        cfg.TrendMargin,
	}, logger)

	questionSelector := selector.New(questionSource, registry,
		cfg.TopicPracticeCount, cfg.WeakFocusRatio, logger)

	var publisher events.EventPublisher = events.NoopEventPublisher{}
	if len(cfg.Events.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.Events.KafkaBrokers,
			TopicName:    cfg.Events.TopicName,
			Logger:       logger,
		})
		if err != nil {
			logger.Error("Failed to create Kafka publisher", "error", err)
			os.Exit(1)
		}
		publisher = kafkaPublisher
	}
	defer publisher.Close()

	store := session.NewStore(cfg.SessionTimeout, logger)
	engine := session.NewEngine(store, intent.NewRuleBased(), questionSelector,
		aggregator, repo.Summaries(), publisher, registry, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go store.Run(sweepCtx, cfg.SweepInterval)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(engine, aggregator, repo.Summaries(),
		importer, questionBank, store, utils.NewValidator(), logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	if err := aggregator.FlushAll(shutdownCtx); err != nil {
		logger.Error("Failed to flush analytics profiles", "error", err)
	}
	logger.Info("Server stopped")
}
