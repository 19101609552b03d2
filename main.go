package main

import (
	"context"
	"errors"
	"fmt"

	"weather_agent_poc/internal/agent"
	"weather_agent_poc/internal/config"
	"weather_agent_poc/internal/core"
	"weather_agent_poc/internal/logger"
	"weather_agent_poc/internal/session"
	"weather_agent_poc/internal/tools"

	"github.com/joho/godotenv"
)

const (
	appName   = "weather_tutorial_session_state"
	userID    = "user_state_demo"
	sessionID = "session_state_demo_001"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: no .env file loaded: %v\n", err)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		return
	}
	log := logger.Get()

	ctx := context.Background()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build session store")
	}
	defer cleanup()

	chatModel, err := agent.NewChatModel(ctx, cfg.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chat model")
	}

	registry := tools.DefaultRegistry()
	team := agent.NewWeatherTeam()

	runner, err := agent.NewRunner(agent.RunnerConfig{
		Agent:    team,
		Registry: registry,
		Store:    store,
		Engine:   agent.NewModelEngine(chatModel, registry),
		Logger:   *log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create runner")
	}

	// The user prefers Celsius initially.
	initialState := map[string]any{
		tools.StateKeyTemperatureUnit: tools.UnitCelsius,
	}
	sess, err := store.Create(ctx, appName, userID, sessionID, initialState)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}
	fmt.Printf("\n--- Initial Session State ---\n%v\n", sess.State)

	runTurn(ctx, runner, "What's the weather in London?")

	// Flip the preference through the sanctioned write path, then the
	// next weather turn reports in Fahrenheit.
	fmt.Println("\n--- Updating State: Setting unit to Fahrenheit ---")
	if err := store.ApplyStateWrite(ctx, sess, map[string]any{
		tools.StateKeyTemperatureUnit: tools.UnitFahrenheit,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to update preference")
	}

	runTurn(ctx, runner, "Tell me the weather in New York.")
	runTurn(ctx, runner, "Hi!")
	runTurn(ctx, runner, "How about Paris?")
	runTurn(ctx, runner, "Thanks, bye!")

	final, err := store.Get(ctx, appName, userID, sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to retrieve final session")
	}
	fmt.Println("\n--- Inspecting Final Session State ---")
	fmt.Printf("Final Preference: %v\n", final.State[tools.StateKeyTemperatureUnit])
	fmt.Printf("Final Last Weather Report: %v\n", final.State[agent.OutputKeyLastWeatherReport])
	fmt.Printf("Final Last City Checked: %v\n", final.State[tools.StateKeyLastCity])
}

func buildStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Redis.URL != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisStore, func() { redisStore.Close() }, nil
	}
	return session.NewMemoryStore(), func() {}, nil
}

func runTurn(ctx context.Context, runner *agent.Runner, utterance string) {
	fmt.Printf("\n>>> User: %s\n", utterance)

	finalText, err := runner.Run(ctx, appName, userID, sessionID, utterance)
	if err != nil {
		// A capability violation means the team configuration is broken;
		// there is no point continuing the conversation.
		var capErr *core.CapabilityError
		if errors.As(err, &capErr) {
			logger.Get().Fatal().Err(capErr).Msg("Broken capability configuration")
		}
		fmt.Printf("<<< turn failed: %v\n", err)
		return
	}

	fmt.Printf("<<< Agent: %s\n", finalText)
}
