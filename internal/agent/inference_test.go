package agent

import (
	"context"
	"errors"
	"testing"

	"weather_agent_poc/internal/core"
	"weather_agent_poc/internal/tools"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatModel returns a canned response and records what was bound and
// sent, standing in for the eino chat model.
type fakeChatModel struct {
	resp       *schema.Message
	err        error
	boundTools []*schema.ToolInfo
	messages   []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = in
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) WithTools(toolInfos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	f.boundTools = toolInfos
	return f, nil
}

func toolCallResponse(name, arguments string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{Function: schema.FunctionCall{Name: name, Arguments: arguments}},
		},
	}
}

func newEngineFixture(resp *schema.Message, err error) (*ModelEngine, *fakeChatModel) {
	fake := &fakeChatModel{resp: resp, err: err}
	return NewModelEngine(fake, tools.DefaultRegistry()), fake
}

func TestInferSelfToolCall(t *testing.T) {
	engine, _ := newEngineFixture(toolCallResponse(tools.ToolGetWeatherStateful, `{"city":"London"}`), nil)

	decision, err := engine.Infer(context.Background(), Request{
		Utterance: "What's the weather in London?",
		Agent:     NewWeatherTeam(),
	})
	require.NoError(t, err)

	assert.Equal(t, core.RouteSelf, decision.Kind)
	assert.Equal(t, tools.ToolGetWeatherStateful, decision.ToolName)
	assert.Equal(t, "London", decision.Arguments["city"])
}

func TestInferTransferBecomesDelegate(t *testing.T) {
	engine, _ := newEngineFixture(
		toolCallResponse(transferToolName, `{"agent_name":"greeting_agent","name":"Bob"}`), nil)

	decision, err := engine.Infer(context.Background(), Request{
		Utterance: "Hi, I'm Bob!",
		Agent:     NewWeatherTeam(),
	})
	require.NoError(t, err)

	assert.Equal(t, core.RouteDelegate, decision.Kind)
	assert.Equal(t, GreetingName, decision.Target)
	// The delegate's single allow-listed tool is resolved for it.
	assert.Equal(t, tools.ToolSayHello, decision.ToolName)
	assert.Equal(t, "Bob", decision.Arguments["name"])
	assert.NotContains(t, decision.Arguments, "agent_name")
}

func TestInferNoToolCallDeclines(t *testing.T) {
	engine, _ := newEngineFixture(schema.AssistantMessage("I can't help with that.", nil), nil)

	decision, err := engine.Infer(context.Background(), Request{
		Utterance: "Write me a poem",
		Agent:     NewWeatherTeam(),
	})
	require.NoError(t, err)
	assert.Equal(t, core.RouteDecline, decision.Kind)
}

func TestInferMalformedArguments(t *testing.T) {
	engine, _ := newEngineFixture(toolCallResponse(tools.ToolGetWeatherStateful, `{"city":`), nil)

	_, err := engine.Infer(context.Background(), Request{Utterance: "weather", Agent: NewWeatherTeam()})

	var infErr *core.InferenceError
	assert.ErrorAs(t, err, &infErr)
}

func TestInferTransferToUnknownAgent(t *testing.T) {
	engine, _ := newEngineFixture(toolCallResponse(transferToolName, `{"agent_name":"billing_agent"}`), nil)

	_, err := engine.Infer(context.Background(), Request{Utterance: "pay my bill", Agent: NewWeatherTeam()})

	var infErr *core.InferenceError
	assert.ErrorAs(t, err, &infErr)
}

func TestInferTransferWithoutTarget(t *testing.T) {
	engine, _ := newEngineFixture(toolCallResponse(transferToolName, `{}`), nil)

	_, err := engine.Infer(context.Background(), Request{Utterance: "hi", Agent: NewWeatherTeam()})

	var infErr *core.InferenceError
	assert.ErrorAs(t, err, &infErr)
}

func TestInferModelFailure(t *testing.T) {
	engine, _ := newEngineFixture(nil, errors.New("upstream timeout"))

	_, err := engine.Infer(context.Background(), Request{Utterance: "weather", Agent: NewWeatherTeam()})

	var infErr *core.InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Contains(t, infErr.Error(), "upstream timeout")
}

func TestInferBindsAgentToolsPlusTransfer(t *testing.T) {
	engine, fake := newEngineFixture(schema.AssistantMessage("ok", nil), nil)

	_, err := engine.Infer(context.Background(), Request{Utterance: "hi", Agent: NewWeatherTeam()})
	require.NoError(t, err)

	var names []string
	for _, info := range fake.boundTools {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{tools.ToolGetWeatherStateful, transferToolName}, names)
}

func TestInferPromptCarriesStateAndInstruction(t *testing.T) {
	engine, fake := newEngineFixture(schema.AssistantMessage("ok", nil), nil)

	_, err := engine.Infer(context.Background(), Request{
		Utterance: "Weather in Tokyo?",
		State:     map[string]any{tools.StateKeyTemperatureUnit: tools.UnitFahrenheit},
		Agent:     NewWeatherTeam(),
	})
	require.NoError(t, err)

	require.Len(t, fake.messages, 2)
	system := fake.messages[0]
	assert.Equal(t, schema.System, system.Role)
	assert.Contains(t, system.Content, "greeting_agent")
	assert.Contains(t, system.Content, tools.UnitFahrenheit)
	assert.Equal(t, "Weather in Tokyo?", fake.messages[1].Content)
}
