package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownAction  = errors.New("no handler registered for action")
	ErrUnknownTool    = errors.New("unknown tool")
	ErrInvalidPayload = errors.New("invalid action payload")
	ErrQueueFull      = errors.New("queue is at capacity, try again later")
)
