package services

import "errors"

var (
	ErrObjectionNotFound     = errors.New("objection not found")
	ErrTaskNotFound          = errors.New("task not found")
	ErrForbidden             = errors.New("user is not allowed to act on this objection")
	ErrInvalidState          = errors.New("objection or task is not in a state that allows this operation")
	ErrMissingDetailedAction = errors.New("approval requires a detailed action")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrConflict              = errors.New("concurrent modification detected, retry the operation")
)
