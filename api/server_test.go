package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Robot commands
	MoveFunc      func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc  func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	RunScriptFunc func(ctx context.Context, sessionID string, steps int) (*service.BulkMoveResult, error)
	ResetFunc     func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	GetScoreFunc       func(ctx context.Context, sessionID string) (*service.ScoreInfo, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.ScenarioConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.ScenarioConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName, wide)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, Wide: wide, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, Outcome: "moved", GameState: testState()}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: testState()}, nil
}

func (m *MockGameService) RunScript(ctx context.Context, sessionID string, steps int) (*service.BulkMoveResult, error) {
	if m.RunScriptFunc != nil {
		return m.RunScriptFunc(ctx, sessionID, steps)
	}
	return &service.BulkMoveResult{Success: true, GameState: testState()}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return testState(), nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return testState(), nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) GetScore(ctx context.Context, sessionID string) (*service.ScoreInfo, error) {
	if m.GetScoreFunc != nil {
		return m.GetScoreFunc(ctx, sessionID)
	}
	return &service.ScoreInfo{SessionID: sessionID, Score: 1624}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.ScenarioConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	scenario := engine.DefaultScenario()
	scenario.Name = configName
	return scenario, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.ScenarioConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers

func testState() *engine.GameState {
	state, err := engine.InitGameStateFromConfig(engine.DefaultScenario(), false)
	if err != nil {
		panic(err)
	}
	return state
}

func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: \"x\"", engine.ErrInvalidDirection), http.StatusBadRequest},
		{fmt.Errorf("session abc: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: small", config.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad", config.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("config 'nope' not found. Available configs: [small]"), http.StatusNotFound},
		{context.Canceled, http.StatusRequestTimeout},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %q", resp["status"])
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Create session with default config",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
					if configName != "" || wide {
						t.Errorf("Expected defaults, got %q wide=%v", configName, wide)
					}
					return &service.SessionInfo{ID: "a1b2", ConfigName: "small"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "a1b2" {
					t.Errorf("Expected session ID a1b2, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create wide session by config_id",
			requestBody: map[string]interface{}{"config_id": "small", "config_name": "ignored", "wide": true},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
					if configName != "small" || !wide {
						t.Errorf("Expected small wide, got %q wide=%v", configName, wide)
					}
					return &service.SessionInfo{ID: "c3d4", ConfigName: configName, Wide: wide}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if !resp.Wide {
					t.Error("Expected wide session")
				}
			},
		},
		{
			name:        "Legacy config_name",
			requestBody: map[string]interface{}{"config_name": "diamond"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
					if configName != "diamond" {
						t.Errorf("Expected diamond, got %q", configName)
					}
					return &service.SessionInfo{ID: "e5f6", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]interface{}{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'nope' not found. Available configs: [small]")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, wide bool) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); msg != "service error" {
					t.Errorf("Expected error message 'service error', got %s", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateSessionMalformedBody(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{broken"))
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-1 * time.Minute)},
			{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-3 * time.Minute)},
			{ID: "new", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now.Add(-2 * time.Minute)},
		}
	}

	tests := []struct {
		name      string
		query     string
		wantOrder []string
		wantTotal int
	}{
		{"default sorts by access desc", "", []string{"old", "new", "mid"}, 3},
		{"created asc", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"created desc with limit", "?sort=created&limit=2", []string{"new", "mid"}, 3},
		{"ignores bad limit", "?limit=abc", []string{"old", "new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal || resp.Count != len(tt.wantOrder) {
				t.Errorf("Expected count %d total %d, got %d/%d", len(tt.wantOrder), tt.wantTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.wantOrder {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Fatalf("Expected order %v, got %+v", tt.wantOrder, resp.Sessions)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	missing := fmt.Errorf("session %s: %w", "zzzz", session.ErrSessionNotFound)

	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "zzzz" {
				return nil, missing
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "small"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "zzzz" {
				return session.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/api/sessions/a1b2", http.StatusOK},
		{"GET", "/api/sessions/zzzz", http.StatusNotFound},
		{"DELETE", "/api/sessions/a1b2", http.StatusOK},
		{"DELETE", "/api/sessions/zzzz", http.StatusNotFound},
		{"PUT", "/api/sessions/a1b2", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}

// Robot Command Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Valid move up",
			sessionID:   "a1b2",
			requestBody: map[string]interface{}{"direction": "up"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					if direction != "up" {
						t.Errorf("Expected direction 'up', got %s", direction)
					}
					state := testState()
					engine.Apply(state.Grid, engine.Up)
					state.RobotPos = state.Grid.RobotPosition()
					return &service.MoveResult{
						Success:   true,
						Outcome:   "moved",
						GameState: state,
						Step:      &service.StepInfo{Idx: 1, Dir: "up", From: engine.Coordinate{X: 2, Y: 2}, To: state.RobotPos, Outcome: "moved"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success {
					t.Error("Expected success to be true")
				}
				if resp.GameState.RobotPos != (engine.Coordinate{X: 2, Y: 1}) {
					t.Errorf("Expected robot at (2,1), got %s", resp.GameState.RobotPos)
				}
			},
		},
		{
			name:        "Blocked move with reset",
			sessionID:   "a1b2",
			requestBody: map[string]interface{}{"direction": "<", "reset": true},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					if !reset {
						t.Error("Expected reset to be true")
					}
					return &service.MoveResult{
						Success:     false,
						Outcome:     "blocked",
						GameState:   testState(),
						AttemptedTo: &service.AttemptInfo{X: 1, Y: 2, Tile: "wall", Char: "#"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if resp.Outcome != "blocked" || resp.AttemptedTo == nil || resp.AttemptedTo.Tile != "wall" {
					t.Errorf("Expected a blocked result against a wall, got %+v", resp)
				}
			},
		},
		{
			name:        "Invalid direction",
			sessionID:   "a1b2",
			requestBody: map[string]interface{}{"direction": "sideways"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("%w: %q", engine.ErrInvalidDirection, direction)
				}
			},
			expectedStatus: http.StatusBadRequest,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); !strings.Contains(msg, "sideways") {
					t.Errorf("Expected the bad direction in the error, got %s", msg)
				}
			},
		},
		{
			name:           "Malformed body",
			sessionID:      "a1b2",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Session not found",
			sessionID:   "zzzz",
			requestBody: map[string]interface{}{"direction": "up"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); msg != "session zzzz: session not found" {
					t.Errorf("Unexpected error %q", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions/"+tt.sessionID+"/move", tt.requestBody)
			req = mux.SetURLVars(req, map[string]string{"id": tt.sessionID})

			server.handleMove(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:        "Moves are passed through",
			requestBody: map[string]interface{}{"moves": []string{"<^^", "right"}, "reset": true},
			setupMock: func(m *MockGameService) {
				m.BulkMoveFunc = func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
					if len(moves) != 2 || moves[0] != "<^^" || !reset {
						t.Errorf("Unexpected arguments %v reset=%v", moves, reset)
					}
					return &service.BulkMoveResult{RequestedMoves: 4, MovesExecuted: 4, GameState: testState()}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Empty moves",
			requestBody:    map[string]interface{}{"moves": []string{}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Bad move",
			requestBody: map[string]interface{}{"moves": []string{"jump"}},
			setupMock: func(m *MockGameService) {
				m.BulkMoveFunc = func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
					return nil, fmt.Errorf("move 1: %w: %q", engine.ErrInvalidDirection, moves[0])
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/a1b2/bulk-move", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      interface{}
		wantSteps int
		wantCode  int
	}{
		{"everything", "/api/sessions/a1b2/run", nil, 0, http.StatusOK},
		{"steps in body", "/api/sessions/a1b2/run", map[string]int{"steps": 5}, 5, http.StatusOK},
		{"steps in query", "/api/sessions/a1b2/run?steps=3", nil, 3, http.StatusOK},
		{"bad query", "/api/sessions/a1b2/run?steps=x", nil, 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockService := &MockGameService{
				RunScriptFunc: func(ctx context.Context, sessionID string, steps int) (*service.BulkMoveResult, error) {
					called = true
					if steps != tt.wantSteps {
						t.Errorf("Expected %d steps, got %d", tt.wantSteps, steps)
					}
					return &service.BulkMoveResult{MovesExecuted: 15, ScriptDone: true, EndScore: 2028, GameState: testState()}, nil
				},
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", tt.path, tt.body))

			if w.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d", tt.wantCode, w.Code)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Errorf("RunScript called = %v", called)
			}
		})
	}
}

func TestResetStateRenderScore(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/a1b2/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}
	var resetResp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resetResp)
	if resetResp.State == nil || resetResp.State.Score != 1624 {
		t.Errorf("Expected reset state with score 1624, got %+v", resetResp.State)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/a1b2/state", nil))
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.Grid == nil || state.Grid.Width() != 8 {
		t.Errorf("Expected an 8-wide grid in the state, got %+v", state.Grid)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/a1b2/render", nil))
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 8 || lines[2] != "##@.O..#" {
		t.Errorf("Unexpected render:\n%s", w.Body.String())
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/a1b2/score", nil))
	var score service.ScoreInfo
	parseResponse(t, w, &score)
	if score.Score != 1624 || score.SessionID != "a1b2" {
		t.Errorf("Unexpected score %+v", score)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=0&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		var got service.HistoryOptions
		mockService := &MockGameService{
			GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
				got = opts
				return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
			},
		}

		server := setupTestServer(t, mockService)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/a1b2/history"+tt.query, nil))

		if w.Code != http.StatusOK {
			t.Errorf("%q: expected 200, got %d", tt.query, w.Code)
		}
		if got != tt.want {
			t.Errorf("%q: expected options %+v, got %+v", tt.query, tt.want, got)
		}
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved *engine.ScenarioConfig
	var savedID string
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "small", Name: "Small Warehouse", Format: "json"}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.ScenarioConfig, error) {
			if configName != "small" {
				return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configName)
			}
			return engine.DefaultScenario(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.ScenarioConfig) error {
			savedID, saved = configName, cfg
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 1 || list[0].ConfigID != "small" {
		t.Errorf("Unexpected config list %+v", list)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/small", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	body := map[string]interface{}{
		"config_id":   "tiny",
		"name":        "Tiny",
		"description": "three by five",
		"layout":      []string{"#####", "#@O.#", "#####"},
		"moves":       ">",
		"messages":    map[string]string{"welcome": "hi"},
	}
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", body))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "tiny" || saved == nil || saved.Name != "Tiny" || len(saved.Layout) != 3 || saved.Moves != ">" {
		t.Errorf("Unexpected saved config %q %+v", savedID, saved)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", map[string]string{"description": "no name"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a nameless config, got %d", w.Code)
	}
}

func TestUnifiedSessions(t *testing.T) {
	state := testState()
	all := []*service.SessionInfo{
		{ID: "b", ConfigName: "small", GameState: state},
		{ID: "a", ConfigName: "small", GameState: state},
		{ID: "c", ConfigName: "diamond", GameState: state},
	}
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			for _, s := range all {
				if s.ID == sessionID {
					return s, nil
				}
			}
			return nil, session.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a", "b", "c"}},
		{"?configName=small", []string{"a", "b"}},
		{"?sessionIds=c,%20missing,a", []string{"a", "c"}},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))

		var resp struct {
			TotalCrates int `json:"total_crates"`
			Sessions    []struct {
				SessionID string `json:"session_id"`
			} `json:"sessions"`
		}
		parseResponse(t, w, &resp)

		var got []string
		for _, s := range resp.Sessions {
			got = append(got, s.SessionID)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%q: expected %v, got %v", tt.query, tt.want, got)
		}
		if resp.TotalCrates != 6 {
			t.Errorf("%q: expected 6 crates, got %d", tt.query, resp.TotalCrates)
		}
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, session.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			server.handleWebSocket(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	t.Run("Disabled without a hub", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		w := httptest.NewRecorder()
		server.handleWebSocket(w, httptest.NewRequest("GET", "/ws?session=a1b2", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", w.Code)
		}
	})
}

// TestEndToEnd drives the real service stack through HTTP
func TestEndToEnd(t *testing.T) {
	configManager, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	persistence, err := session.NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	gameService := service.NewGameService(session.NewManagerWithPersistence(persistence), configManager)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(NewServer(gameService, hub))
	defer ts.Close()

	post := func(path string, body interface{}, target interface{}) int {
		t.Helper()
		data, _ := json.Marshal(body)
		resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		if target != nil {
			if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
				t.Fatalf("POST %s: decode: %v", path, err)
			}
		}
		return resp.StatusCode
	}

	for _, tc := range []struct {
		config string
		wide   bool
		want   int
	}{
		{"small", false, 2028},
		{"small", true, 1751},
		{"wide_small", false, 618},
		{"diamond", false, 812},
		{"large_example", false, 10092},
	} {
		var info service.SessionInfo
		if code := post("/api/sessions", map[string]interface{}{"config_id": tc.config, "wide": tc.wide}, &info); code != http.StatusCreated {
			t.Fatalf("create %s: status %d", tc.config, code)
		}

		var result service.BulkMoveResult
		if code := post("/api/sessions/"+info.ID+"/run", nil, &result); code != http.StatusOK {
			t.Fatalf("run %s: status %d", tc.config, code)
		}
		if result.EndScore != tc.want || !result.ScriptDone {
			t.Errorf("%s (wide=%v): expected final GPS %d, got %d (done=%v)", tc.config, tc.wide, tc.want, result.EndScore, result.ScriptDone)
		}
	}

	var bad map[string]string
	if code := post("/api/sessions/nope/move", map[string]string{"direction": "up"}, &bad); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", code)
	}
	if code := post("/api/sessions", map[string]string{"config_id": "../game/config/testdata"}, &bad); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a config path outside the config dir, got %d: %v", code, bad)
	}
}

// TestConcurrentMoves hammers one session from several clients while the
// results are encoded and broadcast. Run with -race.
func TestConcurrentMoves(t *testing.T) {
	configManager, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	persistence, err := session.NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	gameService := service.NewGameService(session.NewManagerWithPersistence(persistence), configManager)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	server := NewServer(gameService, hub)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions", map[string]interface{}{"config_id": "small"}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)

	const clients, moves = 8, 40
	directions := []string{"up", "right", "down", "left"}

	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < moves; i++ {
				var req *http.Request
				switch i % 4 {
				case 0:
					req = makeRequest("POST", "/api/sessions/"+info.ID+"/bulk-move", map[string]interface{}{"moves": []string{"<^>v"}})
				case 1:
					req = makeRequest("GET", "/api/sessions/"+info.ID+"/state", nil)
				case 2:
					req = makeRequest("GET", "/api/sessions/"+info.ID, nil)
				default:
					req = makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]string{"direction": directions[(c+i)%4]})
				}
				rec := httptest.NewRecorder()
				server.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Errorf("client %d request %d (%s %s): status %d: %s", c, i, req.Method, req.URL.Path, rec.Code, rec.Body.String())
				}
			}
		}(c)
	}
	wg.Wait()

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+info.ID+"/state", nil))
	var state engine.GameState
	parseResponse(t, w, &state)
	if want := clients * moves / 4 * (4 + 1); state.TotalMoves != want {
		t.Errorf("expected %d recorded moves, got %d", want, state.TotalMoves)
	}
	if state.Crates != 6 || len(state.Grid.Crates()) != 6 {
		t.Errorf("crates lost under concurrent moves: %d", len(state.Grid.Crates()))
	}
}
