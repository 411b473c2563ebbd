package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a scenario display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		Wide:           sess.Engine.IsWide(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// CreateSession starts a robot in a fresh copy of the named scenario
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, wide bool) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.ScenarioConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a 4-character ID
	session, err := s.sessions.Create("", config, wide)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information. It takes the write lock because
// it touches the session's access time.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single command for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	outcome := sess.Engine.Move(d)
	entry := sess.Engine.GetLastMove()
	state := sess.Engine.GetState()
	state.LocalView3x3 = state.Grid.LocalView()
	step := stepFromEntry(1, entry)

	result := &MoveResult{
		Success:   outcome == engine.Moved,
		Outcome:   outcome.String(),
		GameState: state.Clone(),
		Message:   state.Message,
		Events:    append(events, eventsForStep(entry)...),
		Step:      &step,
	}
	if outcome == engine.Blocked {
		result.AttemptedTo = attemptedCell(state.Grid, entry.FromPosition, d)
	}

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after move: %v\n", sessionID, err)
	}

	return result, nil
}

// BulkMove executes commands in order. A blocked command is recorded and the
// sequence carries on, exactly as a scripted run would.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	directions, err := ParseMoveList(moves)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(directions),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	// Limit moves to prevent abuse
	if len(directions) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		directions = directions[:engine.MaxBulkMoves]
	}

	start := sess.Engine.GetState()
	result.StartPos = start.RobotPos
	result.StartScore = start.Score

	for i, d := range directions {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Message = fmt.Sprintf("stopped after %d moves: %v", result.MovesExecuted, err)
			break
		}

		sess.Engine.Move(d)
		entry := sess.Engine.GetLastMove()
		s.record(result, stepFromEntry(i+1, entry), true)
		result.Events = append(result.Events, eventsForStep(entry)...)
	}

	s.finish(result, sess)

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after bulk moves: %v\n", sessionID, err)
	}

	return result, nil
}

// RunScript advances the scenario's scripted move list. steps <= 0 runs everything that is left.
func (s *gameServiceImpl) RunScript(ctx context.Context, sessionID string, steps int) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	remaining := len(sess.Engine.RemainingScript())
	if steps <= 0 || steps > remaining {
		steps = remaining
	}

	start := sess.Engine.GetState()
	result := &BulkMoveResult{
		RequestedMoves: steps,
		Events:         make([]GameEvent, 0),
		Success:        true,
		StartPos:       start.RobotPos,
		StartScore:     start.Score,
	}

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Message = fmt.Sprintf("stopped after %d moves: %v", result.MovesExecuted, err)
			break
		}
		if _, ok := sess.Engine.Step(); !ok {
			break
		}
		// the trace is capped; counters still cover every move
		s.record(result, stepFromEntry(i+1, sess.Engine.GetLastMove()), len(result.Steps) < engine.MaxBulkMoves)
	}

	if sess.Engine.ScriptDone() {
		result.Events = append(result.Events, GameEvent{
			Type:      "script_done",
			Message:   fmt.Sprintf("Script finished. GPS sum: %d", sess.Engine.GetScore()),
			Timestamp: time.Now(),
			Position:  sess.Engine.GetRobotPosition(),
		})
	}

	s.finish(result, sess)

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after script run: %v\n", sessionID, err)
	}

	return result, nil
}

func (s *gameServiceImpl) record(result *BulkMoveResult, step StepInfo, trace bool) {
	result.MovesExecuted++
	if step.Outcome == engine.Moved.String() {
		result.MovedCount++
	} else {
		result.BlockedCount++
	}
	result.CratesPushed += step.CratesPushed
	if trace {
		result.Steps = append(result.Steps, step)
	}
}

func (s *gameServiceImpl) finish(result *BulkMoveResult, sess *Session) {
	end := sess.Engine.GetState()
	end.LocalView3x3 = end.Grid.LocalView()

	result.GameState = end.Clone()
	result.EndPos = end.RobotPos
	result.EndScore = end.Score
	result.ScoreDelta = end.Score - result.StartScore
	result.ScriptDone = end.ScriptDone
	if result.Message == "" {
		result.Message = end.Message
	}
	result.PossibleMoves = directionNames(sess.Engine.GetPossibleMoves())
	result.LocalView3x3 = result.GameState.LocalView3x3
}

// Reset restores a session's starting warehouse
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()
	state.LocalView3x3 = state.Grid.LocalView()

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after reset: %v\n", sessionID, err)
	}

	return state.Clone(), nil
}

// GetGameState retrieves a snapshot of the current state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.GetState()
	state.LocalView3x3 = state.Grid.LocalView()
	return state.Clone(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = make([]engine.MoveHistoryEntry, end-start)
		copy(moves, history[start:end])
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// GetScore returns the GPS sum with a per-crate breakdown
func (s *gameServiceImpl) GetScore(ctx context.Context, sessionID string) (*ScoreInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	grid := sess.Engine.GetState().Grid
	info := &ScoreInfo{
		SessionID: sess.ID,
		Score:     engine.Score(grid),
		Wide:      sess.Engine.IsWide(),
		Crates:    []CrateScore{},
	}
	for _, c := range grid.Crates() {
		info.Crates = append(info.Crates, CrateScore{Position: c, GPS: engine.GPS(c)})
	}
	return info, nil
}

// ListConfigs returns available scenarios
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scenario
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.ScenarioConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a scenario to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.ScenarioConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ParseMoveList turns request moves into directions. Each entry is either a
// direction word ("up", "l") or a run of arrow symbols ("<^^>").
func ParseMoveList(moves []string) ([]engine.Direction, error) {
	var directions []engine.Direction
	for i, m := range moves {
		d, err := engine.ParseDirection(m)
		if err == nil {
			directions = append(directions, d)
			continue
		}
		run := strings.TrimSpace(m)
		if run == "" || strings.Trim(run, "^v<>") != "" {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		directions = append(directions, engine.ParseMoves(run)...)
	}
	return directions, nil
}

func stepFromEntry(idx int, entry *engine.MoveHistoryEntry) StepInfo {
	return StepInfo{
		Idx:          idx,
		Dir:          entry.Action.String(),
		From:         entry.FromPosition,
		To:           entry.ToPosition,
		Outcome:      entry.Outcome.String(),
		CratesPushed: entry.CratesPushed,
		ScoreAfter:   entry.ScoreAfter,
		Scripted:     entry.Scripted,
	}
}

func eventsForStep(entry *engine.MoveHistoryEntry) []GameEvent {
	now := time.Now()
	if entry.Outcome == engine.Blocked {
		return []GameEvent{{
			Type:      "blocked",
			Message:   fmt.Sprintf("Blocked moving %s at %s", entry.Action, entry.FromPosition),
			Timestamp: now,
			Position:  entry.FromPosition,
		}}
	}

	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to %s", entry.Action, entry.ToPosition),
		Timestamp: now,
		Position:  entry.ToPosition,
	}}
	if entry.CratesPushed > 0 {
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed %d crate(s) %s. GPS sum: %d", entry.CratesPushed, entry.Action, entry.ScoreAfter),
			Timestamp: now,
			Position:  entry.ToPosition.Step(entry.Action),
		})
	}
	return events
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Warehouse reset to its starting layout",
		Timestamp: time.Now(),
	}
}

// attemptedCell reports the cell directly in front of the robot for a blocked command
func attemptedCell(grid *engine.Grid, from engine.Coordinate, d engine.Direction) *AttemptInfo {
	target := from.Step(d)
	info := &AttemptInfo{X: target.X, Y: target.Y, Tile: "out_of_bounds", Char: string(engine.Wall.Rune())}
	if tile, ok := grid.TileAt(target); ok {
		info.Tile = tile.String()
		info.Char = string(tile.Rune())
	}
	return info
}

func directionNames(ds []engine.Direction) []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.String())
	}
	return names
}
