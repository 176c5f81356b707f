// Worker process: asynq worker pool plus the cron scheduler that feeds it.
package main

import (
	"log"

	"blackcoral/internal/ai"
	"blackcoral/internal/compliance"
	"blackcoral/internal/config"
	"blackcoral/internal/database"
	"blackcoral/internal/logger"
	"blackcoral/internal/samgov"
	"blackcoral/internal/tasks"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	database.Init(cfg.DBDSN)

	var summarizer ai.Summarizer = ai.Disabled{}
	if cfg.AIAPIKey != "" {
		summarizer = ai.NewClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
	}

	evaluator := compliance.NewEvaluator(database.DB, nil, zlog)
	samClient := samgov.NewClient(cfg.SAMGovAPIKey, cfg.SAMGovBaseURL)

	handler := tasks.NewHandler(
		database.DB,
		evaluator,
		summarizer,
		samClient,
		zlog,
		cfg.JobSoftTimeout,
		cfg.SessionRetention,
	)

	schedule := tasks.DefaultSchedule()

	scheduler, err := tasks.NewScheduler(cfg.RedisAddr, schedule, cfg.JobHardTimeout, zlog)
	if err != nil {
		zlog.Fatal("failed to build scheduler", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Shutdown()

	srv := tasks.NewWorkerServer(cfg.RedisAddr, cfg.WorkerConcurrency, schedule, zlog)
	mux := tasks.NewMux(handler)

	zlog.Info("starting worker",
		zap.String("redis", cfg.RedisAddr),
		zap.Int("concurrency", cfg.WorkerConcurrency))
	if err := srv.Run(mux); err != nil {
		zlog.Fatal("worker error", zap.Error(err))
	}
}
