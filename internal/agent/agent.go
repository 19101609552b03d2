package agent

import (
	"fmt"

	"weather_agent_poc/internal/tools"
)

// OutputKeyLastWeatherReport is the session state key the coordinator's
// final report is captured under after a successful turn.
const OutputKeyLastWeatherReport = "last_weather_report"

// Agent names
const (
	CoordinatorName = "weather_agent"
	GreetingName    = "greeting_agent"
	FarewellName    = "farewell_agent"
)

// Agent is a bounded-capability responder: it may only invoke tools on its
// allow-list, and delegation is single-level (sub-agents have none of
// their own).
type Agent struct {
	Name        string
	Description string
	Instruction string
	// Tools is the ordered allow-list of tool names this agent may invoke.
	Tools []string
	// SubAgents are the specialists this agent may delegate to.
	SubAgents []*Agent
	// OutputKey, when set, captures the agent's final report into session
	// state after a successful turn.
	OutputKey string
}

// Allows reports whether tool is on this agent's allow-list.
func (a *Agent) Allows(tool string) bool {
	for _, t := range a.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// FindSubAgent resolves a delegate by name, or nil.
func (a *Agent) FindSubAgent(name string) *Agent {
	for _, sub := range a.SubAgents {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// Validate checks the capability table against the registry so a broken
// configuration is caught at startup instead of mid-turn.
func (a *Agent) Validate(registry *tools.Registry) error {
	for _, name := range a.Tools {
		if _, ok := registry.Get(name); !ok {
			return fmt.Errorf("agent %q references unregistered tool %q", a.Name, name)
		}
	}
	for _, sub := range a.SubAgents {
		if len(sub.SubAgents) > 0 {
			return fmt.Errorf("sub-agent %q must not have its own sub-agents", sub.Name)
		}
		if err := sub.Validate(registry); err != nil {
			return err
		}
	}
	return nil
}

// NewBasicWeatherAgent builds the single-agent variant: stateless weather
// lookups, no delegation, no output-key capture.
func NewBasicWeatherAgent() *Agent {
	return &Agent{
		Name:        "weather_agent_basic",
		Description: "Provides weather information for a specific city.",
		Instruction: "You are a helpful weather assistant. When the user asks for the weather in a specific city, use the 'get_weather' tool. If the tool returns an error, inform the user politely.",
		Tools:       []string{tools.ToolGetWeather},
	}
}

// NewWeatherTeam builds the coordinator with its greeting and farewell
// specialists. The coordinator owns the stateful weather tool and the
// output-key capture; each specialist is bound to exactly one tool.
func NewWeatherTeam() *Agent {
	greeting := &Agent{
		Name:        GreetingName,
		Description: "Handles simple greetings and hellos using the 'say_hello' tool.",
		Instruction: "You are the Greeting Agent. Your ONLY task is to provide a friendly greeting using the 'say_hello' tool. If the user provides their name, pass it to the tool. Do nothing else.",
		Tools:       []string{tools.ToolSayHello},
	}

	farewell := &Agent{
		Name:        FarewellName,
		Description: "Handles simple farewells and goodbyes using the 'say_goodbye' tool.",
		Instruction: "You are the Farewell Agent. Your ONLY task is to provide a polite goodbye message using the 'say_goodbye' tool. Do not perform any other actions.",
		Tools:       []string{tools.ToolSayGoodbye},
	}

	return &Agent{
		Name:        CoordinatorName,
		Description: "Main agent: provides weather (state-aware unit), delegates greetings/farewells, saves the report to state.",
		Instruction: "You are the main Weather Agent coordinating a team. Provide weather using 'get_weather_stateful'; the tool formats the temperature based on the preference stored in state. Delegate simple greetings to 'greeting_agent' and farewells to 'farewell_agent'. Handle only weather requests, greetings and farewells.",
		Tools:       []string{tools.ToolGetWeatherStateful},
		SubAgents:   []*Agent{greeting, farewell},
		OutputKey:   OutputKeyLastWeatherReport,
	}
}
