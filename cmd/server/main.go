package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/config"
	"mailpilot/internal/feedback"
	"mailpilot/internal/handler"
	"mailpilot/internal/httpserver"
	"mailpilot/internal/mailclient"
	"mailpilot/internal/mqhandler"
	"mailpilot/internal/oracle"
	"mailpilot/internal/pipeline"
	"mailpilot/internal/quota"
	"mailpilot/internal/repository"
	"mailpilot/internal/routing"
	"mailpilot/internal/suggest"
	"mailpilot/internal/taxonomy"
	"mailpilot/pkg/db"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/mq"
	"mailpilot/pkg/outbox"
	"mailpilot/pkg/redis"
)

func main() {
	cfg := config.Load("config.yaml")
	logger := logger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting mailpilot server...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	quotaTracker := quota.NewTracker(rdb)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("DB ready")

	// MQ publisher + outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("MQ publisher init failed", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger)
	go dispatcher.Start(ctx)

	// repositories
	tax := taxonomy.New(cfg.Categories)
	ruleRepo := repository.NewRuleRepository(dbConn, tax)
	logRepo := repository.NewLogRepository(dbConn, outboxRepo)
	correctionRepo := repository.NewCorrectionRepository(dbConn)
	statsRepo := repository.NewStatsRepository(dbConn)

	// classification
	oracleClient := oracle.NewClient(
		cfg.Classifier.URL,
		time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second,
		correctionRepo,
		tax,
		logger,
	)
	engine := routing.NewEngine(oracleClient, cfg.FallbackCategory, logger)

	// mail client
	gmail := mailclient.NewGmailClient(cfg.Gmail)
	labels := mailclient.NewLabelCache(gmail, logger)

	// pipeline
	pipe := pipeline.New(
		gmail, labels, ruleRepo, quotaTracker, engine, logRepo, statsRepo,
		quota.DayKey,
		pipeline.Config{
			QuotaLimit:   int64(cfg.Pipeline.QuotaDailyLimit),
			Concurrency:  cfg.Pipeline.Concurrency,
			MessageDelay: time.Duration(cfg.Pipeline.MessageDelayMS) * time.Millisecond,
		},
		logger,
	)

	// services
	feedbackSvc := feedback.NewService(correctionRepo, logRepo, tax, logger)
	suggestEngine := suggest.NewEngine(logRepo, ruleRepo)

	// handlers
	processHandler := handler.NewProcessHandler(pipe, cfg.Pipeline.BatchSize, cfg.Pipeline.CleanupBatchSize, logger)
	pushHandler := handler.NewPushHandler(publisher, logger)
	rulesHandler := handler.NewRulesHandler(ruleRepo, suggestEngine, logger)
	correctionsHandler := handler.NewCorrectionsHandler(feedbackSvc, logger)
	statsHandler := handler.NewStatsHandler(statsRepo, logRepo, quotaTracker, int64(cfg.Pipeline.QuotaDailyLimit), logger)

	// -------------------------
	// Push Consumer
	// -------------------------
	logger.Info("Init consumer: mail.push.received.q")
	pushConsumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		"mail.push.received.q",
		"mail.push.received",
		logger,
	)
	if err != nil {
		logger.Fatal("Push consumer init failed", zap.Error(err))
	}
	pushConsumer.SetHandler(mqhandler.NewPushHandler(pipe, publisher, logger).Handle)

	go func() {
		if err := pushConsumer.StartConsuming(); err != nil {
			logger.Fatal("Push consumer crashed", zap.Error(err))
		}
	}()
	defer pushConsumer.Close()

	// HTTP
	router := httpserver.NewRouter(
		processHandler,
		pushHandler,
		rulesHandler,
		correctionsHandler,
		statsHandler,
		cfg.Push.JWTSecret,
		dbConn,
		publisher,
	)

	logger.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("HTTP server crashed", zap.Error(err))
	}
}
