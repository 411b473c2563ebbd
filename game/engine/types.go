package engine

const (
	// Validation constants
	MinGridSize  = 3
	MaxGridSize  = 200
	MaxScriptLen = 100000
	MaxBulkMoves = 500

	WebSocketBufferSize = 256
)

// ScenarioMessages are the player-facing texts for a scenario
type ScenarioMessages struct {
	Welcome    string `json:"welcome"`
	Moved      string `json:"moved"`
	Blocked    string `json:"blocked"`
	ScriptDone string `json:"script_done"`
}

// ScenarioConfig represents a warehouse scenario loaded from a config file
type ScenarioConfig struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Layout      []string         `json:"layout"`
	Moves       string           `json:"moves,omitempty"`
	Wide        bool             `json:"wide,omitempty"`
	Messages    ScenarioMessages `json:"messages"`
}

// GameState represents the complete simulation state of one session
type GameState struct {
	Grid       *Grid      `json:"grid"`
	RobotPos   Coordinate `json:"robot_pos"`
	Wide       bool       `json:"wide"`
	Score      int        `json:"score"`
	Crates     int        `json:"crates"`
	Message    string     `json:"message"`
	ConfigName string     `json:"config_name"`

	// Script progress through the scenario's move list
	ScriptCursor int  `json:"script_cursor"`
	ScriptLength int  `json:"script_length"`
	ScriptDone   bool `json:"script_done"`

	MovedCount   int `json:"moved_count"`
	BlockedCount int `json:"blocked_count"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper view (not required for core logic)
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// MoveHistoryEntry represents a single command in the session history
type MoveHistoryEntry struct {
	Action       Direction   `json:"action"`
	FromPosition Coordinate  `json:"from_position"`
	ToPosition   Coordinate  `json:"to_position"`
	Outcome      MoveOutcome `json:"outcome"`
	CratesPushed int         `json:"crates_pushed"`
	ScoreAfter   int         `json:"score_after"`
	Scripted     bool        `json:"scripted,omitempty"`
	Timestamp    int64       `json:"timestamp"`
	MoveNumber   int         `json:"move_number"`
}

// Clone returns a deep copy of the state. Callers that hand a state to
// another goroutine (encoders, broadcasts) must pass a clone, never the
// engine's live state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Grid != nil {
		c.Grid = s.Grid.Clone()
	}
	c.MoveHistory = cloneEntries(s.MoveHistory)
	c.CurrentMoves = cloneEntries(s.CurrentMoves)
	if s.LocalView3x3 != nil {
		c.LocalView3x3 = append([]string{}, s.LocalView3x3...)
	}
	return &c
}

func cloneEntries(entries []MoveHistoryEntry) []MoveHistoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]MoveHistoryEntry, len(entries))
	copy(out, entries)
	return out
}
