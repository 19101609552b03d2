package tools

import (
	"context"
	"fmt"

	"weather_agent_poc/internal/core"

	"github.com/cloudwego/eino/schema"
)

// PayloadReport is the payload field every tool places its user-facing
// text under. The driver reads it to produce the final turn text.
const PayloadReport = "report"

// Func is the tool invocation contract: extracted arguments plus a
// read-only state snapshot in, ToolResult out. Failures are returned as
// data inside the result, never as a panic.
type Func func(ctx context.Context, args map[string]any, state map[string]any) core.ToolResult

// Tool couples a tool function with the schema the inference engine binds.
type Tool struct {
	Name   string
	Desc   string
	Params map[string]*schema.ParameterInfo
	Fn     Func
}

// Registry maps tool names to tools. Handlers reference tools by name
// through their allow-lists.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are a configuration fault.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Fn == nil {
		return fmt.Errorf("tool %q has no function", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q is already registered", t.Name)
	}

	r.tools[t.Name] = t
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Infos returns eino tool schemas for the named tools, preserving order.
// Unknown names are a configuration fault.
func (r *Registry) Infos(names []string) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("tool %q is not registered", name)
		}
		info := &schema.ToolInfo{Name: t.Name, Desc: t.Desc}
		if len(t.Params) > 0 {
			info.ParamsOneOf = schema.NewParamsOneOfByParams(t.Params)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// DefaultRegistry returns a registry with the full weather team tool set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []Tool{
		WeatherTool(),
		StatefulWeatherTool(),
		HelloTool(),
		GoodbyeTool(),
	} {
		// Register only fails on duplicates or empty names; the built-in
		// set is static so a failure here is a programming error.
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
