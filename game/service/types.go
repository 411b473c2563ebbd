package service

import (
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// SessionInfo provides information about a session
type SessionInfo struct {
	ID             string                 `json:"id"`
	ConfigName     string                 `json:"config_name"`
	Wide           bool                   `json:"wide"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	GameState      *engine.GameState      `json:"game_state"`
	GameConfig     *engine.ScenarioConfig `json:"game_config"`
}

// MoveResult contains the result of a single command
type MoveResult struct {
	Success     bool              `json:"success"`
	Outcome     string            `json:"outcome"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of a command sequence. Blocked commands
// do not stop the sequence.
type BulkMoveResult struct {
	RequestedMoves int               `json:"requested_moves"`
	MovesExecuted  int               `json:"moves_executed"`
	MovedCount     int               `json:"moved_count"`
	BlockedCount   int               `json:"blocked_count"`
	CratesPushed   int               `json:"crates_pushed"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos   engine.Coordinate `json:"start_pos"`
	EndPos     engine.Coordinate `json:"end_pos"`
	StartScore int               `json:"start_score"`
	EndScore   int               `json:"end_score"`
	ScoreDelta int               `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	ScriptDone    bool     `json:"script_done,omitempty"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed command
type StepInfo struct {
	Idx          int               `json:"idx"`
	Dir          string            `json:"dir"`
	From         engine.Coordinate `json:"from"`
	To           engine.Coordinate `json:"to"`
	Outcome      string            `json:"outcome"`
	CratesPushed int               `json:"crates_pushed,omitempty"`
	ScoreAfter   int               `json:"score_after"`
	Scripted     bool              `json:"scripted,omitempty"`
}

// AttemptInfo describes the cell a blocked command tried to enter
type AttemptInfo struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Tile string `json:"tile"`
	Char string `json:"char"`
}

// GameEvent represents something that happened during a command
type GameEvent struct {
	Type      string            `json:"type"` // "move", "push", "blocked", "reset", "script_done"
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Position  engine.Coordinate `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ScoreInfo breaks the GPS sum down per crate
type ScoreInfo struct {
	SessionID string       `json:"session_id"`
	Score     int          `json:"score"`
	Wide      bool         `json:"wide"`
	Crates    []CrateScore `json:"crates"`
}

// CrateScore is one crate's contribution to the GPS sum
type CrateScore struct {
	Position engine.Coordinate `json:"position"`
	GPS      int               `json:"gps"`
}

// ConfigInfo provides information about a scenario file
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	Format       string `json:"format"` // "json", "hcl" or "txt"
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Crates       int    `json:"crates"`
	ScriptLength int    `json:"script_length"`
	Wide         bool   `json:"wide,omitempty"`
}
