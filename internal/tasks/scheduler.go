package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewMux routes task types to their handlers.
func NewMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSyncOpportunities, h.HandleSyncOpportunities)
	mux.HandleFunc(TypeProcessDocuments, h.HandleProcessDocuments)
	mux.HandleFunc(TypeEvaluateCompliance, h.HandleEvaluateCompliance)
	mux.HandleFunc(TypeSummarize, h.HandleSummarize)
	mux.HandleFunc(TypeCleanupSessions, h.HandleCleanupSessions)
	return mux
}

// NewWorkerServer builds the asynq worker pool. Queues are weighted per the
// schedule's priority table; a task is acknowledged only after its handler
// returns, so a crashed worker leads to redelivery.
func NewWorkerServer(redisAddr string, concurrency int, sched Schedule, log *zap.Logger) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      sched.QueuePriorities,
			Logger:      zapLogger{log.Sugar()},
		},
	)
}

// NewScheduler registers every periodic job with its cron trigger, queue
// and hard timeout.
func NewScheduler(redisAddr string, sched Schedule, hardTimeout time.Duration, log *zap.Logger) (*asynq.Scheduler, error) {
	loc := time.UTC
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr},
		&asynq.SchedulerOpts{
			Location: loc,
			Logger:   zapLogger{log.Sugar()},
		},
	)

	for _, job := range sched.Jobs {
		task := asynq.NewTask(job.TaskType, nil)
		entryID, err := scheduler.Register(job.CronSpec, task,
			asynq.Queue(job.Queue),
			asynq.Timeout(hardTimeout),
			asynq.MaxRetry(3),
		)
		if err != nil {
			return nil, fmt.Errorf("register periodic job %q: %w", job.Name, err)
		}
		log.Info("registered periodic job",
			zap.String("name", job.Name),
			zap.String("cron", job.CronSpec),
			zap.String("queue", job.Queue),
			zap.String("entry_id", entryID))
	}

	return scheduler, nil
}

// zapLogger adapts zap to asynq's logging interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(args ...interface{}) { l.s.Debug(args...) }
func (l zapLogger) Info(args ...interface{})  { l.s.Info(args...) }
func (l zapLogger) Warn(args ...interface{})  { l.s.Warn(args...) }
func (l zapLogger) Error(args ...interface{}) { l.s.Error(args...) }
func (l zapLogger) Fatal(args ...interface{}) { l.s.Fatal(args...) }
