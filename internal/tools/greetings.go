package tools

import (
	"context"
	"fmt"
	"strings"

	"weather_agent_poc/internal/core"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolSayHello   = "say_hello"
	ToolSayGoodbye = "say_goodbye"
)

// GenericGreeting is used when the user did not give a name.
const GenericGreeting = "Hello there!"

// FarewellText is the fixed polite closing.
const FarewellText = "Goodbye! Have a great day."

// HelloTool greets the user, by name when one was extracted. It performs
// no state write.
func HelloTool() Tool {
	return Tool{
		Name: ToolSayHello,
		Desc: "Provide a friendly greeting to the user.",
		Params: map[string]*schema.ParameterInfo{
			"name": {
				Type: schema.String,
				Desc: "The name of the person to greet, if they gave one",
			},
		},
		Fn: sayHello,
	}
}

func sayHello(ctx context.Context, args map[string]any, state map[string]any) core.ToolResult {
	greeting := GenericGreeting
	if name, _ := args["name"].(string); strings.TrimSpace(name) != "" {
		greeting = fmt.Sprintf("Hello, %s!", strings.TrimSpace(name))
	}
	return core.Success(map[string]any{PayloadReport: greeting}, nil)
}

// GoodbyeTool always returns the fixed farewell, ignoring arguments. It
// performs no state write.
func GoodbyeTool() Tool {
	return Tool{
		Name: ToolSayGoodbye,
		Desc: "Provide a polite goodbye message when the user is leaving.",
		Fn:   sayGoodbye,
	}
}

func sayGoodbye(ctx context.Context, args map[string]any, state map[string]any) core.ToolResult {
	return core.Success(map[string]any{PayloadReport: FarewellText}, nil)
}
