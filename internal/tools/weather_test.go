package tools

import (
	"context"
	"fmt"
	"testing"

	"weather_agent_poc/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeatherLookupNormalization(t *testing.T) {
	ctx := context.Background()
	canonical := getWeather(ctx, map[string]any{"city": "london"}, nil)
	require.True(t, canonical.OK())

	variants := []string{"London", "  london  ", "LONDON", "LoNdOn", "\tLondon\n"}
	for _, v := range variants {
		res := getWeather(ctx, map[string]any{"city": v}, nil)
		require.True(t, res.OK(), "variant %q should resolve", v)
		assert.Equal(t, canonical.Payload[PayloadReport], res.Payload[PayloadReport], "variant %q", v)
	}
}

func TestWeatherKnownCities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		city string
		want string
	}{
		{"London", "The weather in London is cloudy with a temperature of 15°C."},
		{"new york", "The weather in New York is sunny with a temperature of 25°C."},
		{"Tokyo", "The weather in Tokyo is light rain with a temperature of 18°C."},
	}

	for _, tt := range tests {
		res := getWeather(ctx, map[string]any{"city": tt.city}, nil)
		require.True(t, res.OK(), "city %q", tt.city)
		assert.Equal(t, tt.want, res.Payload[PayloadReport])
		assert.Empty(t, res.StateDelta)
	}
}

func TestWeatherUnknownCity(t *testing.T) {
	res := getWeather(context.Background(), map[string]any{"city": "Paris"}, nil)

	require.False(t, res.OK())
	assert.Equal(t, core.FailureNotFound, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "Paris")
	assert.Empty(t, res.StateDelta)
}

func TestWeatherMissingCity(t *testing.T) {
	for _, args := range []map[string]any{nil, {}, {"city": "   "}, {"city": 42}} {
		res := getWeather(context.Background(), args, nil)
		require.False(t, res.OK())
		assert.Equal(t, core.FailureValidation, res.Err.Kind)
	}
}

func TestStatefulWeatherDefaultsToCelsius(t *testing.T) {
	ctx := context.Background()

	// No preference at all, and an unrecognized preference, both report
	// Celsius.
	for _, state := range []map[string]any{nil, {}, {StateKeyTemperatureUnit: "Kelvin"}, {StateKeyTemperatureUnit: 7}} {
		res := getWeatherStateful(ctx, map[string]any{"city": "London"}, state)
		require.True(t, res.OK())
		assert.Contains(t, res.Payload[PayloadReport], "15°C")
	}
}

func TestStatefulWeatherFahrenheitConversion(t *testing.T) {
	ctx := context.Background()
	state := map[string]any{StateKeyTemperatureUnit: UnitFahrenheit}

	tests := []struct {
		city  string
		tempC float64
	}{
		{"New York", 25},
		{"London", 15},
		{"Tokyo", 18},
	}

	for _, tt := range tests {
		res := getWeatherStateful(ctx, map[string]any{"city": tt.city}, state)
		require.True(t, res.OK(), "city %q", tt.city)

		report, _ := res.Payload[PayloadReport].(string)
		expected := fmt.Sprintf("%.1f°F", tt.tempC*9/5+32)
		assert.Contains(t, report, expected, "city %q", tt.city)
		assert.NotContains(t, report, "°C")
	}
}

func TestStatefulWeatherWritesLastCity(t *testing.T) {
	res := getWeatherStateful(context.Background(), map[string]any{"city": "  NEW YORK "}, nil)

	require.True(t, res.OK())
	assert.Equal(t, "new york", res.StateDelta[StateKeyLastCity])
}

func TestStatefulWeatherUnknownCityNoStateWrite(t *testing.T) {
	res := getWeatherStateful(context.Background(), map[string]any{"city": "Paris"}, nil)

	require.False(t, res.OK())
	assert.Equal(t, core.FailureNotFound, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "Paris")
	assert.Empty(t, res.StateDelta)
}
