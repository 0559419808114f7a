package models

// StepDependencyRelation records that ToStepID cannot start before
// FromStepID is done.
type StepDependencyRelation struct {
	ProjectID  string `json:"projectId"`
	FromStepID string `json:"fromTaskId"`
	ToStepID   string `json:"toTaskId"`
}
