package main

import (
	"fmt"
	"log"

	"blackcoral/internal/config"
	"blackcoral/internal/database"
	"blackcoral/internal/logger"
	"blackcoral/internal/server"
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
	tasks.InitClient(cfg.RedisAddr)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	zlog.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
