package agent

import (
	"context"
	"fmt"
	"strings"

	"weather_agent_poc/internal/core"
	"weather_agent_poc/internal/tools"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Request is the input to one inference call: the utterance, a read-only
// snapshot of session state and the agent whose capability table is in
// effect.
type Request struct {
	Utterance string
	State     map[string]any
	Agent     *Agent
}

// InferenceEngine is the external natural-language collaborator behind a
// fixed contract. It decides per turn whether the agent handles the
// utterance itself, delegates to a specialist, or declines. Implementations
// are swappable so routing logic is testable without a live model.
type InferenceEngine interface {
	Infer(ctx context.Context, req Request) (core.RoutingDecision, error)
}

// transferToolName is the synthetic tool the model calls to delegate a
// turn to a sub-agent.
const transferToolName = "transfer_to_agent"

// ModelEngine drives routing through an eino tool-calling chat model: the
// agent's tool schemas plus one transfer tool are bound, and the model's
// first tool call becomes the routing decision. No tool call means the
// agent declines the turn.
type ModelEngine struct {
	chatModel model.ToolCallingChatModel
	registry  *tools.Registry
}

// NewModelEngine creates an inference engine backed by the given chat model.
func NewModelEngine(chatModel model.ToolCallingChatModel, registry *tools.Registry) *ModelEngine {
	return &ModelEngine{chatModel: chatModel, registry: registry}
}

// Infer asks the model for a single tool call and maps it onto a
// RoutingDecision. Malformed model output is reported as InferenceError.
func (e *ModelEngine) Infer(ctx context.Context, req Request) (core.RoutingDecision, error) {
	if req.Agent == nil {
		return core.RoutingDecision{}, fmt.Errorf("inference request has no agent")
	}

	infos, err := e.registry.Infos(req.Agent.Tools)
	if err != nil {
		return core.RoutingDecision{}, err
	}
	if len(req.Agent.SubAgents) > 0 {
		infos = append(infos, transferToolInfo(req.Agent))
	}

	bound, err := e.chatModel.WithTools(infos)
	if err != nil {
		return core.RoutingDecision{}, &core.InferenceError{Reason: "failed to bind tools", Err: err}
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt(req)),
		schema.UserMessage(req.Utterance),
	}

	resp, err := bound.Generate(ctx, messages)
	if err != nil {
		return core.RoutingDecision{}, &core.InferenceError{Reason: "model call failed", Err: err}
	}

	// No tool call: the model saw nothing it can handle.
	if len(resp.ToolCalls) == 0 {
		return core.RoutingDecision{Kind: core.RouteDecline}, nil
	}

	return e.decisionFromToolCall(req.Agent, resp.ToolCalls[0])
}

// decisionFromToolCall maps the model's tool call onto the routing variant.
// At most one tool resolves a turn, so only the first call is considered.
func (e *ModelEngine) decisionFromToolCall(agent *Agent, call schema.ToolCall) (core.RoutingDecision, error) {
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := sonic.UnmarshalString(raw, &args); err != nil {
			return core.RoutingDecision{}, &core.InferenceError{
				Reason: fmt.Sprintf("malformed arguments for tool %q", call.Function.Name),
				Err:    err,
			}
		}
	}

	if call.Function.Name != transferToolName {
		return core.RoutingDecision{
			Kind:      core.RouteSelf,
			ToolName:  call.Function.Name,
			Arguments: args,
		}, nil
	}

	target, _ := args["agent_name"].(string)
	if target == "" {
		return core.RoutingDecision{}, &core.InferenceError{Reason: "transfer_to_agent call without agent_name"}
	}

	sub := agent.FindSubAgent(target)
	if sub == nil || len(sub.Tools) == 0 {
		return core.RoutingDecision{}, &core.InferenceError{
			Reason: fmt.Sprintf("transfer to unknown delegate %q", target),
		}
	}

	// Remaining transfer arguments flow through to the specialist's tool
	// (e.g. an extracted name for the greeting).
	delete(args, "agent_name")

	return core.RoutingDecision{
		Kind:      core.RouteDelegate,
		Target:    target,
		ToolName:  sub.Tools[0],
		Arguments: args,
	}, nil
}

func transferToolInfo(agent *Agent) *schema.ToolInfo {
	names := make([]string, 0, len(agent.SubAgents))
	for _, sub := range agent.SubAgents {
		names = append(names, fmt.Sprintf("%s (%s)", sub.Name, sub.Description))
	}

	return &schema.ToolInfo{
		Name: transferToolName,
		Desc: "Transfer the conversation to a specialist agent. Include any arguments the specialist's tool needs, such as the user's name for a greeting.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"agent_name": {
				Type:     schema.String,
				Desc:     "The specialist to hand off to. One of: " + strings.Join(names, "; "),
				Required: true,
			},
			"name": {
				Type: schema.String,
				Desc: "The user's name, if they gave one",
			},
		}),
	}
}

func systemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(req.Agent.Instruction)

	if len(req.Agent.SubAgents) > 0 {
		b.WriteString("\n\nSpecialist agents available via 'transfer_to_agent':\n")
		for _, sub := range req.Agent.SubAgents {
			b.WriteString(fmt.Sprintf("- %s: %s\n", sub.Name, sub.Description))
		}
	}

	if len(req.State) > 0 {
		if stateJSON, err := sonic.MarshalString(req.State); err == nil {
			b.WriteString("\nCurrent session state: ")
			b.WriteString(stateJSON)
		}
	}

	return b.String()
}
