package models

import "time"

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxDispatched OutboxStatus = "dispatched"
	OutboxFailed     OutboxStatus = "failed"
)

type OutboxKind string

const (
	OutboxProjectTrigger OutboxKind = "project-trigger"
	OutboxNotification   OutboxKind = "notification"
)

// OutboxEvent is a side effect of a task mutation, written in the same
// logical operation and dispatched asynchronously. Completion never fails
// because a downstream service is unavailable.
type OutboxEvent struct {
	ID        string            `json:"id" bson:"_id"`
	Kind      OutboxKind        `json:"kind" bson:"kind"`
	TaskID    string            `json:"taskId" bson:"taskId"`
	Payload   map[string]string `json:"payload" bson:"payload"`
	Status    OutboxStatus      `json:"status" bson:"status"`
	Attempts  int               `json:"attempts" bson:"attempts"`
	LastError string            `json:"lastError,omitempty" bson:"lastError,omitempty"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
}
