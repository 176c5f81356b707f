package tasks

import (
	"errors"

	"github.com/hibiken/asynq"
)

// Глобальный клиент очередей для веб-процесса, по образцу database.DB.
var client *asynq.Client

func InitClient(redisAddr string) {
	client = asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
}

// EnqueueSummarize ставит одиночную AI-задачу вне расписания.
func EnqueueSummarize(opportunityID uint) error {
	if client == nil {
		return errors.New("task client is not initialized")
	}
	_, err := client.Enqueue(NewSummarizeTask(opportunityID),
		asynq.Queue(QueueAI),
		asynq.MaxRetry(3),
	)
	return err
}
