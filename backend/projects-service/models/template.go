package models

import "time"

// StepTemplate is one stage of a flow template. AssignedTo is the WHO field
// and may name several users.
type StepTemplate struct {
	StepNo             int      `json:"stepNo" bson:"stepNo"`
	Description        string   `json:"description" bson:"description"`
	Method             string   `json:"method,omitempty" bson:"method,omitempty"`
	TutorialLink       string   `json:"tutorialLink,omitempty" bson:"tutorialLink,omitempty"`
	AssignedTo         []string `json:"assignedTo" bson:"assignedTo"`
	OffsetDays         int      `json:"offsetDays" bson:"offsetDays"`
	TriggersTemplateID string   `json:"triggersTemplateId,omitempty" bson:"triggersTemplateId,omitempty"`
}

// FlowTemplate is the reusable definition a project is materialized from.
type FlowTemplate struct {
	ID         string         `json:"id" bson:"_id"`
	Name       string         `json:"name" bson:"name"`
	Department string         `json:"department,omitempty" bson:"department,omitempty"`
	CreatedBy  string         `json:"createdBy" bson:"createdBy"`
	Steps      []StepTemplate `json:"steps" bson:"steps"`
	CreatedOn  time.Time      `json:"createdOn" bson:"createdOn"`
}
