package core

import (
	"github.com/cloudwego/eino/schema"
)

// Session is the per-conversation state container. It is identified by the
// composite key (app name, user ID, session ID) and lives for the lifetime
// of the process in the default store.
type Session struct {
	AppName   string            `json:"app_name"`
	UserID    string            `json:"user_id"`
	ID        string            `json:"id"`
	State     map[string]any    `json:"state"`
	Events    []*schema.Message `json:"events"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
}

// SessionKey builds the composite key used by the session stores.
func SessionKey(appName, userID, sessionID string) string {
	return appName + ":" + userID + ":" + sessionID
}

// Key returns the composite key of this session.
func (s *Session) Key() string {
	return SessionKey(s.AppName, s.UserID, s.ID)
}

// CloneState returns a shallow copy of the session state. Turns operate on
// a snapshot so a tool never observes writes committed mid-turn.
func (s *Session) CloneState() map[string]any {
	snapshot := make(map[string]any, len(s.State))
	for k, v := range s.State {
		snapshot[k] = v
	}
	return snapshot
}

// FailureKind classifies tool-level failures
type FailureKind string

const (
	FailureNotFound   FailureKind = "not_found"
	FailureValidation FailureKind = "validation"
)

// ToolError is the structured error carried inside a failed ToolResult.
// Tool failures are data, never uncaught faults.
type ToolError struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (e *ToolError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ToolResult is the outcome of a single tool invocation: either a payload
// with an optional state delta, or a structured error.
type ToolResult struct {
	Payload    map[string]any `json:"payload,omitempty"`
	StateDelta map[string]any `json:"state_delta,omitempty"`
	Err        *ToolError     `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r ToolResult) OK() bool {
	return r.Err == nil
}

// Success builds a successful ToolResult. delta may be nil for tools that
// write no state.
func Success(payload, delta map[string]any) ToolResult {
	return ToolResult{Payload: payload, StateDelta: delta}
}

// Failure builds a failed ToolResult with the given kind and message.
func Failure(kind FailureKind, message string) ToolResult {
	return ToolResult{Err: &ToolError{Kind: kind, Message: message}}
}

// RouteKind is the tag of a RoutingDecision
type RouteKind string

const (
	RouteSelf     RouteKind = "self"     // coordinator handles the turn with its own tool
	RouteDelegate RouteKind = "delegate" // hand off to a named sub-agent
	RouteDecline  RouteKind = "decline"  // no handler matches the utterance
)

// RoutingDecision is produced once per turn by the inference engine and is
// immutable for the remainder of that turn.
type RoutingDecision struct {
	Kind      RouteKind      `json:"kind"`
	Target    string         `json:"target,omitempty"` // sub-agent name for RouteDelegate
	ToolName  string         `json:"tool_name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}
