package agent

import (
	"context"
	"fmt"
	"sync"

	"weather_agent_poc/internal/core"
	"weather_agent_poc/internal/session"
	"weather_agent_poc/internal/tools"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// DeclineText is the fixed response for turns no handler can take.
const DeclineText = "Sorry, I can't handle that request."

// RunnerConfig wires the runner's collaborators.
type RunnerConfig struct {
	Agent    *Agent
	Registry *tools.Registry
	Store    session.Store
	Engine   InferenceEngine
	Logger   zerolog.Logger
}

// Runner is the conversation driver. It executes one utterance-to-text
// turn at a time per session: route, invoke at most one tool, commit state
// writes, capture the output key and return the final text.
type Runner struct {
	agent    *Agent
	registry *tools.Registry
	store    session.Store
	engine   InferenceEngine
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRunner validates the capability table and creates a runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Agent == nil {
		return nil, fmt.Errorf("runner requires an agent")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("runner requires a tool registry")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("runner requires a session store")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("runner requires an inference engine")
	}
	if err := cfg.Agent.Validate(cfg.Registry); err != nil {
		return nil, err
	}

	return &Runner{
		agent:    cfg.Agent,
		registry: cfg.Registry,
		store:    cfg.Store,
		engine:   cfg.Engine,
		log:      cfg.Logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// sessionLock returns the single-flight mutex for a composite session key.
// Turns on the same session are strictly sequential; different sessions
// run independently.
func (r *Runner) sessionLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

// Run executes one turn against a session and returns the final text.
//
// Tool failures come back as apologetic text; CapabilityError and
// InferenceError come back as Go errors because they signal broken
// configuration or an unusable collaborator, not user-facing conditions.
func (r *Runner) Run(ctx context.Context, appName, userID, sessionID, utterance string) (string, error) {
	key := core.SessionKey(appName, userID, sessionID)
	lock := r.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	sess, err := r.store.Get(ctx, appName, userID, sessionID)
	if err != nil {
		return "", err
	}

	snapshot := sess.CloneState()

	decision, err := r.engine.Infer(ctx, Request{
		Utterance: utterance,
		State:     snapshot,
		Agent:     r.agent,
	})
	if err != nil {
		return "", err
	}

	r.log.Debug().
		Str("session", key).
		Str("route", string(decision.Kind)).
		Str("tool", decision.ToolName).
		Str("target", decision.Target).
		Msg("Routing decision")

	var resolved *Agent
	switch decision.Kind {
	case core.RouteDecline:
		return r.finalize(ctx, sess, utterance, DeclineText)
	case core.RouteSelf:
		resolved = r.agent
	case core.RouteDelegate:
		resolved = r.agent.FindSubAgent(decision.Target)
		if resolved == nil {
			return "", &core.InferenceError{Reason: fmt.Sprintf("delegation to unknown agent %q", decision.Target)}
		}
	default:
		return "", &core.InferenceError{Reason: fmt.Sprintf("unknown routing decision %q", decision.Kind)}
	}

	if decision.ToolName == "" {
		return "", &core.InferenceError{Reason: "routed turn without a tool name"}
	}

	// Capability isolation: the chosen tool must be on the resolved
	// handler's allow-list. A mismatch is a configuration fault and must
	// not silently proceed.
	if !resolved.Allows(decision.ToolName) {
		return "", &core.CapabilityError{Agent: resolved.Name, Tool: decision.ToolName}
	}
	tool, ok := r.registry.Get(decision.ToolName)
	if !ok {
		return "", &core.CapabilityError{Agent: resolved.Name, Tool: decision.ToolName}
	}

	result := tool.Fn(ctx, decision.Arguments, snapshot)

	// Writes commit only after a tool reports Success; a cancelled turn
	// commits nothing.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !result.OK() {
		r.log.Warn().
			Str("session", key).
			Str("tool", tool.Name).
			Str("kind", string(result.Err.Kind)).
			Msg("Tool failed")
		apology := fmt.Sprintf("I'm sorry, I couldn't do that: %s", result.Err.Message)
		return r.finalize(ctx, sess, utterance, apology)
	}

	finalText := reportText(result.Payload)

	if len(result.StateDelta) > 0 {
		if err := r.store.ApplyStateWrite(ctx, sess, result.StateDelta); err != nil {
			return "", fmt.Errorf("failed to commit tool state write: %w", err)
		}
	}

	// Output-key capture happens after the tool's own write and overwrites
	// any prior value. Only the resolved handler's key applies, so
	// specialist turns leave the coordinator's key untouched.
	if resolved.OutputKey != "" {
		capture := map[string]any{resolved.OutputKey: finalText}
		if err := r.store.ApplyStateWrite(ctx, sess, capture); err != nil {
			return "", fmt.Errorf("failed to capture output key: %w", err)
		}
	}

	return r.finalize(ctx, sess, utterance, finalText)
}

// finalize records the turn in session history and returns the final text.
func (r *Runner) finalize(ctx context.Context, sess *core.Session, utterance, finalText string) (string, error) {
	events := []*schema.Message{
		schema.UserMessage(utterance),
		schema.AssistantMessage(finalText, nil),
	}
	if err := r.store.AppendEvents(ctx, sess, events...); err != nil {
		return "", fmt.Errorf("failed to append turn events: %w", err)
	}
	return finalText, nil
}

// reportText extracts the user-facing text from a tool payload.
func reportText(payload map[string]any) string {
	if text, ok := payload[tools.PayloadReport].(string); ok && text != "" {
		return text
	}
	return fmt.Sprint(payload)
}
