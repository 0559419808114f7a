package models

import "time"

// StepTask mirrors the task document layout written into the shared tasks
// collection, restricted to the fields the projects service sets. Each
// service keeps its own view of the documents it touches.
type StepTask struct {
	ID                 string    `json:"id" bson:"_id"`
	ProjectID          string    `json:"projectId" bson:"projectId"`
	StepNo             int       `json:"stepNo" bson:"stepNo"`
	TotalSteps         int       `json:"totalSteps" bson:"totalSteps"`
	AssignedTo         []string  `json:"assignedTo" bson:"assignedTo"`
	AssignedBy         string    `json:"assignedBy" bson:"assignedBy"`
	Description        string    `json:"description" bson:"description"`
	Method             string    `json:"method,omitempty" bson:"method,omitempty"`
	TutorialLink       string    `json:"tutorialLink,omitempty" bson:"tutorialLink,omitempty"`
	Department         string    `json:"department,omitempty" bson:"department,omitempty"`
	PlannedDueDate     time.Time `json:"plannedDueDate,omitempty" bson:"plannedDueDate,omitempty"`
	Status             string    `json:"status" bson:"status"`
	TriggersTemplateID string    `json:"triggersTemplateId,omitempty" bson:"triggersTemplateId,omitempty"`
	Visible            bool      `json:"visible" bson:"visible"`
	Score              float64   `json:"score" bson:"score"`
	CreatedOn          time.Time `json:"createdOn" bson:"createdOn"`
	Version            int64     `json:"version" bson:"version"`
}
