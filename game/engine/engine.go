package engine

import (
	"fmt"
	"strings"
	"time"
)

// Engine provides the main interface for simulation operations
type Engine interface {
	// State management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	GetScore() int
	GetRobotPosition() Coordinate

	// Movement operations
	Move(direction Direction) MoveOutcome
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction
	BulkMove(moves []Direction) []MoveOutcome

	// Scripted move list
	Step() (MoveOutcome, bool)
	RunScript() int
	ScriptDone() bool

	// Configuration
	GetConfig() *ScenarioConfig
	SetConfig(config *ScenarioConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access the way the service layer does.
type GameEngine struct {
	state  *GameState
	config *ScenarioConfig
	wide   bool
	script []Direction
}

// NewEngine creates an engine for a scenario. wide widens the layout before the first move.
func NewEngine(config *ScenarioConfig, wide bool) (*GameEngine, error) {
	if err := ValidateScenarioConfig(config); err != nil {
		return nil, err
	}

	state, err := InitGameStateFromConfig(config, wide)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		state:  state,
		config: config,
		wide:   wide,
		script: ParseMoves(config.Moves),
	}, nil
}

// NewEngineWithDefaults creates an engine for the built-in scenario
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultScenario(), false)
	if err != nil {
		panic(fmt.Sprintf("default scenario is invalid: %v", err))
	}
	return e
}

// GetState returns the current state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Grid == nil {
		return fmt.Errorf("state grid cannot be nil")
	}
	if state.ScriptCursor < 0 || state.ScriptCursor > len(e.script) {
		return fmt.Errorf("script cursor %d out of range [0,%d]", state.ScriptCursor, len(e.script))
	}
	state.RobotPos = state.Grid.RobotPosition()
	e.state = state
	return nil
}

// IsWide reports whether the engine simulates double-width crates
func (e *GameEngine) IsWide() bool {
	return e.state.Wide
}

// Reset restores the scenario's starting grid and rewinds the script
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	state, err := InitGameStateFromConfig(e.config, e.wide)
	if err != nil {
		// the config was validated on construction, so this only trips on programmer error
		panic(fmt.Sprintf("reset: %v", err))
	}
	e.state = state

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// GetScore returns the GPS sum of the current grid
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetRobotPosition returns the robot's coordinate
func (e *GameEngine) GetRobotPosition() Coordinate {
	return e.state.Grid.RobotPosition()
}

// Move pushes the robot one step and records the command. An undefined
// direction panics before anything is recorded.
func (e *GameEngine) Move(direction Direction) MoveOutcome {
	return e.move(direction, false)
}

func (e *GameEngine) move(direction Direction, scripted bool) MoveOutcome {
	grid := e.state.Grid
	from := grid.RobotPosition()
	cells, ok := PushPlan(grid, direction)

	outcome := Blocked
	crates := 0
	if ok {
		for _, c := range cells {
			if t, _ := grid.TileAt(c); t.IsAnchor() {
				crates++
			}
		}
		commit(grid, direction, cells)
		outcome = Moved
	}

	e.state.RobotPos = grid.RobotPosition()
	e.state.Score = Score(grid)
	if outcome == Moved {
		e.state.MovedCount++
		e.state.Message = formatMessage(e.config.Messages.Moved, direction.String(), fmt.Sprintf("Moved %s.", direction))
	} else {
		e.state.BlockedCount++
		e.state.Message = formatMessage(e.config.Messages.Blocked, direction.String(), fmt.Sprintf("Blocked moving %s.", direction))
	}

	e.addMoveToHistory(direction, from, e.state.RobotPos, outcome, crates, scripted)
	return outcome
}

// CanMove runs the feasibility probe without touching the grid
func (e *GameEngine) CanMove(direction Direction) bool {
	return CanPush(e.state.Grid, direction)
}

// GetPossibleMoves returns every direction that would not be blocked
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, d := range AllDirections {
		if e.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// BulkMove applies moves in order. A blocked move does not stop the sequence;
// it is a normal simulation result.
func (e *GameEngine) BulkMove(moves []Direction) []MoveOutcome {
	results := make([]MoveOutcome, 0, len(moves))
	for _, d := range moves {
		results = append(results, e.Move(d))
	}
	return results
}

// Step applies the next scripted move. The bool is false once the script is exhausted.
func (e *GameEngine) Step() (MoveOutcome, bool) {
	if e.state.ScriptCursor >= len(e.script) {
		e.finishScript()
		return Blocked, false
	}
	d := e.script[e.state.ScriptCursor]
	e.state.ScriptCursor++
	outcome := e.move(d, true)
	if e.state.ScriptCursor >= len(e.script) {
		e.finishScript()
	}
	return outcome, true
}

// RunScript applies every remaining scripted move and returns how many ran
func (e *GameEngine) RunScript() int {
	ran := 0
	for {
		if _, ok := e.Step(); !ok {
			return ran
		}
		ran++
	}
}

// ScriptDone reports whether every scripted move has been applied
func (e *GameEngine) ScriptDone() bool {
	return e.state.ScriptCursor >= len(e.script)
}

// RemainingScript returns the scripted moves not yet applied
func (e *GameEngine) RemainingScript() []Direction {
	return e.script[e.state.ScriptCursor:]
}

func (e *GameEngine) finishScript() {
	if e.state.ScriptDone {
		return
	}
	e.state.ScriptDone = true
	e.state.Message = formatMessage(e.config.Messages.ScriptDone, e.state.Score,
		fmt.Sprintf("Script finished. GPS sum: %d", e.state.Score))
}

// GetConfig returns the current scenario
func (e *GameEngine) GetConfig() *ScenarioConfig {
	return e.config
}

// SetConfig switches scenario and starts over
func (e *GameEngine) SetConfig(config *ScenarioConfig) error {
	if err := ValidateScenarioConfig(config); err != nil {
		return err
	}

	state, err := InitGameStateFromConfig(config, e.wide)
	if err != nil {
		return err
	}

	e.config = config
	e.script = ParseMoves(config.Moves)
	e.state = state
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// addMoveToHistory appends to the cumulative and the current-segment history
func (e *GameEngine) addMoveToHistory(action Direction, from, to Coordinate, outcome MoveOutcome, crates int, scripted bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: from,
		ToPosition:   to,
		Outcome:      outcome,
		CratesPushed: crates,
		ScoreAfter:   e.state.Score,
		Scripted:     scripted,
		Timestamp:    time.Now().Unix(),
		MoveNumber:   e.state.TotalMoves + 1,
	}
	e.state.MoveHistory = append(e.state.MoveHistory, entry)
	e.state.TotalMoves++

	e.state.CurrentMoves = append(e.state.CurrentMoves, entry)
	e.state.CurrentMovesCount++
}

// formatMessage fills a configured template, falling back when none is set
func formatMessage(template string, arg interface{}, fallback string) string {
	if template == "" {
		return fallback
	}
	if strings.Contains(template, "%") {
		return fmt.Sprintf(template, arg)
	}
	return template
}
