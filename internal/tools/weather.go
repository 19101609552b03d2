package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"weather_agent_poc/internal/core"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Session state keys written/read by the weather tools
const (
	StateKeyTemperatureUnit = "user_preference_temperature_unit"
	StateKeyLastCity        = "last_city_checked_stateful"
)

// Temperature unit preference values
const (
	UnitCelsius    = "Celsius"
	UnitFahrenheit = "Fahrenheit"
)

const (
	ToolGetWeather         = "get_weather"
	ToolGetWeatherStateful = "get_weather_stateful"
)

type cityWeather struct {
	condition string
	tempC     float64
}

// Fixture table of known cities. Lookups are keyed by the normalized form.
var weatherByCity = map[string]cityWeather{
	"new york": {condition: "sunny", tempC: 25},
	"london":   {condition: "cloudy", tempC: 15},
	"tokyo":    {condition: "light rain", tempC: 18},
}

var titleCaser = cases.Title(language.English)

// normalizeCity trims surrounding whitespace and case-folds so any casing
// of a registered city resolves to the canonical entry.
func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

func cityArg(args map[string]any) (string, *core.ToolError) {
	raw, _ := args["city"].(string)
	if strings.TrimSpace(raw) == "" {
		return "", &core.ToolError{Kind: core.FailureValidation, Message: "missing required argument: city"}
	}
	return raw, nil
}

// WeatherTool is the stateless weather lookup: city in, report in Celsius
// out. No state reads, no state writes.
func WeatherTool() Tool {
	return Tool{
		Name: ToolGetWeather,
		Desc: "Look up the current weather report for a specific city.",
		Params: map[string]*schema.ParameterInfo{
			"city": {
				Type:     schema.String,
				Desc:     "The name of the city, e.g. London",
				Required: true,
			},
		},
		Fn: getWeather,
	}
}

func getWeather(ctx context.Context, args map[string]any, state map[string]any) core.ToolResult {
	city, terr := cityArg(args)
	if terr != nil {
		return core.ToolResult{Err: terr}
	}

	w, ok := weatherByCity[normalizeCity(city)]
	if !ok {
		return core.Failure(core.FailureNotFound, fmt.Sprintf("no weather data for '%s'", city))
	}

	report := fmt.Sprintf("The weather in %s is %s with a temperature of %.0f°C.",
		titleCaser.String(normalizeCity(city)), w.condition, w.tempC)

	return core.Success(map[string]any{PayloadReport: report}, nil)
}

// StatefulWeatherTool is the state-aware weather lookup. It reads the
// user's temperature unit preference from the session snapshot and records
// the last city checked as a state write.
func StatefulWeatherTool() Tool {
	return Tool{
		Name: ToolGetWeatherStateful,
		Desc: "Look up the current weather report for a specific city, formatted with the user's preferred temperature unit.",
		Params: map[string]*schema.ParameterInfo{
			"city": {
				Type:     schema.String,
				Desc:     "The name of the city, e.g. London",
				Required: true,
			},
		},
		Fn: getWeatherStateful,
	}
}

func getWeatherStateful(ctx context.Context, args map[string]any, state map[string]any) core.ToolResult {
	city, terr := cityArg(args)
	if terr != nil {
		return core.ToolResult{Err: terr}
	}

	normalized := normalizeCity(city)
	w, ok := weatherByCity[normalized]
	if !ok {
		return core.Failure(core.FailureNotFound, fmt.Sprintf("no weather data for '%s'", city))
	}

	// Unrecognized preference values fall back to Celsius.
	unit := UnitCelsius
	if pref, ok := state[StateKeyTemperatureUnit].(string); ok && pref == UnitFahrenheit {
		unit = UnitFahrenheit
	}

	var report string
	if unit == UnitFahrenheit {
		fahrenheit := math.Round((w.tempC*9/5+32)*10) / 10
		report = fmt.Sprintf("The weather in %s is %s with a temperature of %.1f°F.",
			titleCaser.String(normalized), w.condition, fahrenheit)
	} else {
		report = fmt.Sprintf("The weather in %s is %s with a temperature of %.0f°C.",
			titleCaser.String(normalized), w.condition, w.tempC)
	}

	return core.Success(
		map[string]any{PayloadReport: report},
		map[string]any{StateKeyLastCity: normalized},
	)
}
