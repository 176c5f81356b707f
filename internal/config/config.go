package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	Environment   string

	RedisAddr         string
	WorkerConcurrency int

	// лимиты исполнения фоновых задач
	JobSoftTimeout time.Duration // кооперативная отмена
	JobHardTimeout time.Duration // принудительное завершение

	SessionRetention time.Duration // незакрытые сессии старше — закрываются

	SAMGovAPIKey  string
	SAMGovBaseURL string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Environment:   os.Getenv("ENVIRONMENT"),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 10),

		JobSoftTimeout: envDuration("JOB_SOFT_TIMEOUT", 50*time.Minute),
		JobHardTimeout: envDuration("JOB_HARD_TIMEOUT", time.Hour),

		SessionRetention: envDuration("SESSION_RETENTION", 24*time.Hour),

		SAMGovAPIKey:  os.Getenv("SAM_GOV_API_KEY"),
		SAMGovBaseURL: os.Getenv("SAM_GOV_BASE_URL"),

		AIAPIKey:  os.Getenv("AI_API_KEY"),
		AIBaseURL: os.Getenv("AI_BASE_URL"),
		AIModel:   os.Getenv("AI_MODEL"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.SAMGovBaseURL == "" {
		cfg.SAMGovBaseURL = "https://api.sam.gov/opportunities/v2"
	}
	if cfg.AIBaseURL == "" {
		cfg.AIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.AIModel == "" {
		cfg.AIModel = "gpt-4o-mini"
	}
	if cfg.JobSoftTimeout >= cfg.JobHardTimeout {
		log.Fatal("JOB_SOFT_TIMEOUT must be shorter than JOB_HARD_TIMEOUT")
	}

	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
