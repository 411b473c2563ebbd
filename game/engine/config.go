package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// ValidateScenarioConfig validates a scenario for correctness before any move runs
func ValidateScenarioConfig(config *ScenarioConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Layout) < MinGridSize || len(config.Layout) > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d",
			MinGridSize, MaxGridSize, len(config.Layout))
	}
	width := len([]rune(config.Layout[0]))
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("config validation: layout rows must have between %d and %d cells, got %d",
			MinGridSize, MaxGridSize, width)
	}

	grid, err := NewGrid(config.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if config.Wide && grid.IsWide() {
		return fmt.Errorf("config validation: wide is set but the layout is already double-width")
	}

	if len(config.Moves) > MaxScriptLen {
		return fmt.Errorf("config validation: moves must be at most %d characters, got %d", MaxScriptLen, len(config.Moves))
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}

	return nil
}

// LoadScenarioConfig loads a scenario from a JSON file
func LoadScenarioConfig(filename string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config ScenarioConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateScenarioConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultScenario returns the built-in scenario used when no config is available
func DefaultScenario() *ScenarioConfig {
	return &ScenarioConfig{
		Name:        "Small Warehouse",
		Description: "Eight by eight warehouse with six crates",
		Layout: []string{
			"########",
			"#..O.O.#",
			"##@.O..#",
			"#...O..#",
			"#.#.O..#",
			"#...O..#",
			"#......#",
			"########",
		},
		Moves: "<^^>>>vv<v>>v<<",
		Messages: ScenarioMessages{
			Welcome:    "Welcome to the warehouse! Push every crate where it belongs.",
			Moved:      "Moved %s.",
			Blocked:    "Blocked moving %s.",
			ScriptDone: "Script finished. GPS sum: %d",
		},
	}
}

// BuildGrid constructs the starting grid for a scenario, widening it when requested
func BuildGrid(config *ScenarioConfig, wide bool) (*Grid, error) {
	grid, err := NewGrid(config.Layout)
	if err != nil {
		return nil, err
	}
	if wide || config.Wide {
		return grid.Widen()
	}
	return grid, nil
}

// InitGameStateFromConfig creates a fresh state for a scenario
func InitGameStateFromConfig(config *ScenarioConfig, wide bool) (*GameState, error) {
	if config == nil {
		config = DefaultScenario()
	}

	grid, err := BuildGrid(config, wide)
	if err != nil {
		return nil, err
	}

	script := ParseMoves(config.Moves)
	return &GameState{
		Grid:              grid,
		RobotPos:          grid.RobotPosition(),
		Wide:              grid.IsWide() || wide || config.Wide,
		Score:             Score(grid),
		Crates:            len(grid.Crates()),
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		ScriptLength:      len(script),
		ScriptDone:        len(script) == 0,
		MoveHistory:       []MoveHistoryEntry{},
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}, nil
}
