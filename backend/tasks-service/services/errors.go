package services

import "errors"

// Error taxonomy for the task lifecycle. Not-found and invalid-state errors
// are always surfaced to the caller, never retried or corrected internally.
var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrInvalidState            = errors.New("task is not in a state that allows this transition")
	ErrChecklistIncomplete     = errors.New("checklist has unchecked items")
	ErrAlreadyCompletedByActor = errors.New("actor has already completed this task")
	ErrNotAssignee             = errors.New("actor is not an assignee of this task")
	ErrConflict                = errors.New("task was modified concurrently, re-fetch and retry")
	ErrInvalidChecklistItem    = errors.New("checklist item index out of range")
	ErrInvalidArgument         = errors.New("invalid argument")
)
