package types

import "errors"

// Pool errors.
var (
	ErrPoolExhausted = errors.New("pool exhausted")
)

// Queue and tree lookup errors. These are expected, non-fatal outcomes.
var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrNotFound    = errors.New("element not found")
	ErrNoChildren  = errors.New("process has no children")
	ErrNotAttached = errors.New("process has no parent")
)

// Core lifecycle errors.
var (
	ErrDetached        = errors.New("core is detached")
	ErrAlreadyAttached = errors.New("core is already attached")
)
