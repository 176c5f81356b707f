// Package tasks defines the background job layer: task types, the periodic
// schedule, queue routing and the asynq worker wiring. Delivery is
// at-least-once with late acknowledgment, so every handler body is written
// to be safely re-runnable.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names, routed to queues by the schedule below.
const (
	TypeSyncOpportunities  = "opportunities:sync"
	TypeProcessDocuments   = "documents:process"
	TypeEvaluateCompliance = "compliance:evaluate"
	TypeSummarize          = "ai:summarize"
	TypeCleanupSessions    = "sessions:cleanup"
)

// Execution queues, one per processing domain.
const (
	QueueOpportunities = "opportunities"
	QueueDocuments     = "documents"
	QueueAI            = "ai"
	QueueCompliance    = "compliance"
	QueueMaintenance   = "maintenance"
)

// PeriodicJob is one named cron-triggered job and its routing.
type PeriodicJob struct {
	Name     string
	CronSpec string
	TaskType string
	Queue    string
}

// Schedule is the process-wide scheduling configuration: built once at
// startup and passed by reference to the scheduler and the worker server,
// never mutated afterwards.
type Schedule struct {
	Jobs []PeriodicJob

	// QueuePriorities weights worker slots per queue.
	QueuePriorities map[string]int
}

// DefaultSchedule mirrors the production beat schedule: hourly sam.gov
// sync, rolling document/AI/compliance sweeps, daily session cleanup.
func DefaultSchedule() Schedule {
	return Schedule{
		Jobs: []PeriodicJob{
			{Name: "sam-gov-sync", CronSpec: "0 * * * *", TaskType: TypeSyncOpportunities, Queue: QueueOpportunities},
			{Name: "process-pending-documents", CronSpec: "*/30 * * * *", TaskType: TypeProcessDocuments, Queue: QueueDocuments},
			{Name: "ai-summarization", CronSpec: "*/15 * * * *", TaskType: TypeSummarize, Queue: QueueAI},
			{Name: "compliance-sweep", CronSpec: "10,40 * * * *", TaskType: TypeEvaluateCompliance, Queue: QueueCompliance},
			{Name: "cleanup-sessions", CronSpec: "0 2 * * *", TaskType: TypeCleanupSessions, Queue: QueueMaintenance},
		},
		QueuePriorities: map[string]int{
			QueueOpportunities: 3,
			QueueDocuments:     3,
			QueueAI:            2,
			QueueCompliance:    2,
			QueueMaintenance:   1,
		},
	}
}

// SummarizePayload optionally narrows an AI run to a single opportunity;
// a zero payload means "sweep everything pending".
type SummarizePayload struct {
	OpportunityID uint `json:"opportunity_id,omitempty"`
}

func (p SummarizePayload) Marshal() []byte {
	raw, _ := json.Marshal(p)
	return raw
}

// NewSummarizeTask targets the AI job at a single opportunity instead of the
// full pending sweep.
func NewSummarizeTask(opportunityID uint) *asynq.Task {
	return asynq.NewTask(TypeSummarize, SummarizePayload{OpportunityID: opportunityID}.Marshal())
}
