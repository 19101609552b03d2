package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for session store operations
var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// CapabilityError reports that a handler tried to invoke a tool outside its
// allow-list. This is a configuration fault: it aborts the turn and is never
// converted into user-facing text.
type CapabilityError struct {
	Agent string
	Tool  string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability violation: agent %q may not invoke tool %q", e.Agent, e.Tool)
}

// InferenceError reports that the inference collaborator returned an
// unusable decision (malformed tool call, unknown delegate, etc).
type InferenceError struct {
	Reason string
	Err    error
}

func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("inference error: %s", e.Reason)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
