package models

import "strings"

// StepNode is a materialized project step mirrored into the graph. The id is
// the step's task id in the shared task store.
type StepNode struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	StepNo      int    `json:"stepNo"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Blocked     bool   `json:"blocked"`
}

// Step status values stored on the graph nodes. Blocked-flag recomputation
// compares against StatusDone, so every status string entering the graph has
// to be normalized first.
const (
	StatusPending    = "pending"
	StatusInProgress = "in progress"
	StatusDone       = "done"
	StatusRevise     = "revise"
	StatusHold       = "hold"
)

// NormalizeStatus maps the status string variants used by older clients
// ("Done", "completed", "Revision", "On Hold", ...) onto the closed set.
// The second return value is false for strings that match no known status.
func NormalizeStatus(raw string) (string, bool) {
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
