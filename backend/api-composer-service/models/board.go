package models

import "time"

// BoardStep is one row of the project board: the step task joined with its
// blocked flag from the workflow graph.
type BoardStep struct {
	ID             string    `json:"id"`
	StepNo         int       `json:"stepNo"`
	Description    string    `json:"description"`
	AssignedTo     []string  `json:"assignedTo"`
	Status         string    `json:"status"`
	PlannedDueDate time.Time `json:"plannedDueDate,omitempty"`
	Visible        bool      `json:"visible"`
	Blocked        bool      `json:"blocked"`
	OpenObjections int       `json:"openObjections"`
}

type BoardEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BoardResponse is the composed project board served to the UI in one call.
type BoardResponse struct {
	ProjectID   string      `json:"projectId"`
	ProjectName string      `json:"projectName"`
	Steps       []BoardStep `json:"steps"`
	Edges       []BoardEdge `json:"edges"`
}
