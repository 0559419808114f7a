package models

import "time"

// Task mirrors the shared task document, restricted to the fields the
// objection router reads and writes.
type Task struct {
	ID             string     `json:"id" bson:"_id"`
	ProjectID      string     `json:"projectId,omitempty" bson:"projectId,omitempty"`
	StepNo         int        `json:"stepNo,omitempty" bson:"stepNo,omitempty"`
	AssignedTo     []string   `json:"assignedTo" bson:"assignedTo"`
	AssignedBy     string     `json:"assignedBy" bson:"assignedBy"`
	Description    string     `json:"description" bson:"description"`
	Method         string     `json:"method,omitempty" bson:"method,omitempty"`
	TutorialLink   string     `json:"tutorialLink,omitempty" bson:"tutorialLink,omitempty"`
	Department     string     `json:"department,omitempty" bson:"department,omitempty"`
	PlannedDueDate time.Time  `json:"plannedDueDate,omitempty" bson:"plannedDueDate,omitempty"`
	Status         string     `json:"status" bson:"status"`
	ActionTaken    string     `json:"actionTaken,omitempty" bson:"actionTaken,omitempty"`
	CompletedOn    *time.Time `json:"completedOn,omitempty" bson:"completedOn,omitempty"`
	Score          float64    `json:"score" bson:"score"`
	Visible        bool       `json:"visible" bson:"visible"`
	CreatedOn      time.Time  `json:"createdOn" bson:"createdOn"`
	Version        int64      `json:"version" bson:"version"`
}

// Task status values shared with the tasks service.
const (
	TaskPending = "pending"
	TaskDone    = "done"
	TaskHold    = "hold"
)

const (
	ActionTerminated = "terminated"
	ActionReplaced   = "replaced"
)

// IsStep reports whether the task belongs to a materialized project.
func (t *Task) IsStep() bool {
	return t.ProjectID != "" && t.StepNo > 0
}
