package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// GameService defines all warehouse operations exposed to the transports
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, wide bool) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Robot commands
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	RunScript(ctx context.Context, sessionID string, steps int) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetScore(ctx context.Context, sessionID string) (*ScoreInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.ScenarioConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.ScenarioConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.ScenarioConfig, wide bool) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.ScenarioConfig, wide bool) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles scenario loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.ScenarioConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.ScenarioConfig
	SaveConfig(name string, config *engine.ScenarioConfig) error
}

// Session is one robot in one warehouse
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.ScenarioConfig
	Wide           bool
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
