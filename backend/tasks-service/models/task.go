package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in progress"
	StatusDone       TaskStatus = "done"
	StatusRevise     TaskStatus = "revise"
	StatusHold       TaskStatus = "hold"
)

type OnTimeStatus string

const (
	OnTime    OnTimeStatus = "on time"
	NotOnTime OnTimeStatus = "not on time"
)

// Terminal annotations recorded when an objection review stops a task without
// completion credit.
const (
	ActionTerminated = "terminated"
	ActionReplaced   = "replaced"
)

// NormalizeStatus maps the status string variants used by older clients
// ("Done", "completed", "Revision", "On Hold", ...) onto the closed enum.
// The second return value is false for strings that match no known status.
func NormalizeStatus(raw string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, true
	case "in progress", "in-progress", "inprogress":
		return StatusInProgress, true
	case "done", "completed", "complete":
		return StatusDone, true
	case "revise", "revision":
		return StatusRevise, true
	case "hold", "on hold":
		return StatusHold, true
	default:
		return "", false
	}
}

type ChecklistItem struct {
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Attachment struct {
	Name       string    `json:"name" bson:"name"`
	URL        string    `json:"url" bson:"url"`
	UploadedOn time.Time `json:"uploadedOn" bson:"uploadedOn"`
}

// StepRef points at one step of a materialized project.
type StepRef struct {
	ProjectID string `json:"projectId" bson:"projectId"`
	StepNo    int    `json:"stepNo" bson:"stepNo"`
}

// Task is either an ad-hoc delegation ("TSK-n" ids) or one materialized step
// of a project ("STP-n" ids, ProjectID/StepNo set).
type Task struct {
	ID           string   `json:"id" bson:"_id"`
	ProjectID    string   `json:"projectId,omitempty" bson:"projectId,omitempty"`
	StepNo       int      `json:"stepNo,omitempty" bson:"stepNo,omitempty"`
	TotalSteps   int      `json:"totalSteps,omitempty" bson:"totalSteps,omitempty"`
	AssignedTo   []string `json:"assignedTo" bson:"assignedTo"`
	AssignedBy   string   `json:"assignedBy" bson:"assignedBy"`
	Description  string   `json:"description" bson:"description"`
	Method       string   `json:"method,omitempty" bson:"method,omitempty"`
	TutorialLink string   `json:"tutorialLink,omitempty" bson:"tutorialLink,omitempty"`
	Department   string   `json:"department,omitempty" bson:"department,omitempty"`

	PlannedDueDate  time.Time  `json:"plannedDueDate,omitempty" bson:"plannedDueDate,omitempty"`
	ProposedDueDate *time.Time `json:"proposedDueDate,omitempty" bson:"proposedDueDate,omitempty"`

	Status            TaskStatus           `json:"status" bson:"status"`
	CompletedOn       *time.Time           `json:"completedOn,omitempty" bson:"completedOn,omitempty"`
	CompletionsByUser map[string]time.Time `json:"completionsByUser,omitempty" bson:"completionsByUser,omitempty"`
	OnTimeStatus      OnTimeStatus         `json:"onTimeStatus,omitempty" bson:"onTimeStatus,omitempty"`
	ActionTaken       string               `json:"actionTaken,omitempty" bson:"actionTaken,omitempty"`

	Checklist   []ChecklistItem `json:"checklist,omitempty" bson:"checklist,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty" bson:"attachments,omitempty"`

	TriggersTemplateID string   `json:"triggersTemplateId,omitempty" bson:"triggersTemplateId,omitempty"`
	DependentStep      *StepRef `json:"dependentStep,omitempty" bson:"dependentStep,omitempty"`

	RevisionCount  int     `json:"revisionCount" bson:"revisionCount"`
	RevisionReason string  `json:"revisionReason,omitempty" bson:"revisionReason,omitempty"`
	ScoreImpacted  bool    `json:"scoreImpacted" bson:"scoreImpacted"`
	Score          float64 `json:"score" bson:"score"`

	// Visible is owned by the projects service for step tasks: steps stay
	// hidden until their planned date is set. It must survive round trips
	// through this view because updates replace the whole document.
	Visible bool `json:"visible" bson:"visible"`

	CreatedOn time.Time `json:"createdOn" bson:"createdOn"`
	Version   int64     `json:"version" bson:"version"`
}

// IsMultiAssignee reports whether the task uses WHO semantics, where every
// assignee has to complete before the task is done.
func (t *Task) IsMultiAssignee() bool {
	return len(t.AssignedTo) > 1
}

// IsStep reports whether the task is a materialized project step.
func (t *Task) IsStep() bool {
	return t.ProjectID != "" && t.StepNo > 0
}

// ChecklistComplete reports whether every checklist item is checked. A task
// without a checklist is trivially complete.
func (t *Task) ChecklistComplete() bool {
	for _, item := range t.Checklist {
		if !item.Completed {
			return false
		}
	}
	return true
}
