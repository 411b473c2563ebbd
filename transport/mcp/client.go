package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Warehouse Robot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Warehouse Robot - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Drive the robot (@) around the warehouse. Walking into a crate pushes it, and a
push moves the whole chain of crates in front of the robot or nothing at all.
The score is the GPS sum: 100 * row + column of every crate's left edge.

AVAILABLE TOOLS:
- create_session: Start a robot in a scenario (optionally double-width)
- list_sessions / get_session: Inspect sessions
- game_state: Current grid, robot position and GPS sum
- move: One push attempt (up/down/left/right or ^ v < >)
- bulk_move: Several moves at once; blocked moves are recorded and skipped
- run_script: Play the scenario's scripted moves
- reset_game: Restore the starting warehouse
- move_history: Past moves
- score: GPS sum broken down per crate
- list_configs: Available scenarios
- describe_cell: What sits at a coordinate
- game_instructions: Full rules

NOTE: The 'intent' parameter on move/bulk_move is for you: explain what you expect the push to do.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new warehouse session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to load, see list_configs (optional)",
				},
				"wide": map[string]interface{}{
					"type":        "boolean",
					"description": "Widen the warehouse so every crate is two cells wide",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Robot commands
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current warehouse state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the robot one cell, pushing any crates in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right", "^", "v", "<", ">"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of what you expect this move to do",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute multiple moves in sequence. Each entry is a direction word or a run of ^v<> symbols.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": `Moves such as ["up", "left"] or ["<^^>>"]`,
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of what you expect this sequence to do",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_script",
		Description: "Apply the scenario's scripted moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "How many scripted moves to apply; omit to run the rest",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunScript)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the warehouse to its starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "score",
		Description: "Get the GPS sum and each crate's contribution",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available warehouse scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the cell at a coordinate, including which half of a wide crate it holds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// intArg reads a JSON number argument; MCP clients send numbers as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	} else if configName, _ := args["config_name"].(string); configName != "" {
		body["config_id"] = configName
	}
	if wide, _ := args["wide"].(bool); wide {
		body["wide"] = true
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\nWide: %t\n\n%s",
		session.ID, session.ConfigName, session.Wide, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Wide: %t, GPS: %d, Created: %s)\n",
			s.ID, s.ConfigName, s.Wide, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset, _ := args["reset"].(bool)

	var moves []string
	switch raw := args["moves"].(type) {
	case []interface{}:
		for _, m := range raw {
			if move, ok := m.(string); ok {
				moves = append(moves, move)
			}
		}
	case []string:
		moves = raw
	case string:
		// some clients send a bare symbol run instead of an array
		moves = []string{raw}
	}
	if len(moves) == 0 {
		return mcp.NewToolResultError("moves must contain at least one move"), nil
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionID, _ := args["session_id"].(string)
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/run")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{}
	if steps, ok := intArg(args, "steps"); ok {
		body["steps"] = steps
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionID, _ := args["session_id"].(string)
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// Also show the moves since the last reset from live state
	statePath, _ := sessionPath(args, "/state")
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", statePath, nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/score")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var score service.ScoreInfo
	if err := c.apiCall(ctx, "GET", path, nil, &score); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScore(&score)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Scenarios:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s, %s)\n  %s\n  Grid: %dx%d, Crates: %d, Scripted moves: %d",
			cfg.Name, cfg.ConfigID, cfg.Format, cfg.Description, cfg.Width, cfg.Height, cfg.Crates, cfg.ScriptLength)
		if cfg.Wide {
			b.WriteString(", wide")
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Warehouse Robot - Complete Instructions

OBJECTIVE:
Push crates around a walled warehouse. Every session can be scored at any time
by its GPS sum.

GRID LEGEND:
• # wall, never moves
• . free floor
• @ the robot
• O single-width crate
• [ ] the left and right halves of a double-width crate

MOVEMENT:
• Commands: up, down, left, right (or ^ v < >)
• The robot moves one cell. A crate in the way is pushed, and so is every
  crate that crate touches in the push direction.
• If anything in the pushed chain would hit a wall, nothing moves at all.
  The command is "blocked" and the robot stays where it is.
• Moving off the mapped area counts as hitting a wall.

DOUBLE-WIDTH CRATES:
• A wide crate always moves as one piece.
• Pushing up or down, the robot may touch either half; both halves then need
  room, so one crate can push two crates above it, and so on.
• Pushing left or right, a row of wide crates behaves like a row of single crates.

SCORING:
• GPS of a crate = 100 * row + column, measured from the top-left corner
  (both 0-based) to the crate's left edge.
• The score is the sum over all crates.

SCRIPTED MOVES:
• Every scenario carries a move list. run_script plays it; each entry counts
  even when blocked.
• create_session with wide=true doubles every column first: # becomes ##,
  O becomes [], . becomes .. and @ becomes @.

TIPS:
• Use describe_cell to check which half of a wide crate sits at a coordinate.
• A blocked move is not an error. bulk_move keeps going after one.
• reset_game restores the starting layout; history is kept.

Good luck, and mind the walls!`

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Coordinate{X: x, Y: y})), nil
}

func describeCell(state *engine.GameState, c engine.Coordinate) string {
	if state.Grid == nil {
		return "No grid available"
	}

	tile, ok := state.Grid.TileAt(c)
	if !ok {
		return fmt.Sprintf("Cell %s is outside the %dx%d warehouse and behaves like a wall.",
			c, state.Grid.Width(), state.Grid.Height())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell %s: '%c' (%s)\n", c, tile.Rune(), tile)
	switch tile {
	case engine.Wall:
		b.WriteString("Walls never move. Any push that reaches one is blocked.")
	case engine.Free:
		b.WriteString("Free floor.")
	case engine.Robot:
		b.WriteString("This is the robot.")
	case engine.Box:
		fmt.Fprintf(&b, "Single-width crate worth %d GPS.", engine.GPS(c))
	case engine.BoxLeft:
		fmt.Fprintf(&b, "Left half of a wide crate; the right half is at %s. Worth %d GPS.",
			c.Add(engine.Coordinate{X: 1}), engine.GPS(c))
	case engine.BoxRight:
		left := c.Add(engine.Coordinate{X: -1})
		fmt.Fprintf(&b, "Right half of a wide crate; the left half is at %s. Worth %d GPS.", left, engine.GPS(left))
	}
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nWide: %t\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.Wide,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil || state.Grid == nil {
		return "No game state available"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Robot: %s | GPS: %d | Crates: %d | Script: %d/%d | Moves: %d\n\n",
		state.RobotPos, state.Score, state.Crates, state.ScriptCursor, state.ScriptLength, state.TotalMoves)

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, row := range state.LocalView3x3 {
			b.WriteString(row + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(state.Grid.String())
	b.WriteString("\n")

	if state.ScriptDone && state.ScriptLength > 0 {
		b.WriteString("\nScript complete.")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Moved\n")
	} else {
		b.WriteString("✗ Blocked\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s %s→%s crates=%d gps=%d\n", s.Dir, s.From, s.To, s.CratesPushed, s.ScoreAfter)
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked: next cell (%d,%d) is %s '%s'\n", a.X, a.Y, a.Tile, a.Char)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Executed %d/%d moves (%d moved, %d blocked, %d crate pushes)\n",
		result.MovesExecuted, result.RequestedMoves, result.MovedCount, result.BlockedCount, result.CratesPushed)
	fmt.Fprintf(&b, "GPS: %d → %d (%+d)\n", result.StartScore, result.EndScore, result.ScoreDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if !result.Success && result.Message != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.Message)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	status := "✓"
	if s.Outcome != engine.Moved.String() {
		status = "✗"
	}
	line := fmt.Sprintf("%d. %s %s %s→%s", s.Idx, s.Dir, status, s.From, s.To)
	if s.CratesPushed > 0 {
		line += fmt.Sprintf(" pushed %d", s.CratesPushed)
	}
	return line + fmt.Sprintf(" gps=%d\n", s.ScoreAfter)
}

func formatScore(score *service.ScoreInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GPS sum for %s: %d (%d crates", score.SessionID, score.Score, len(score.Crates))
	if score.Wide {
		b.WriteString(", wide")
	}
	b.WriteString(")\n")
	for _, crate := range score.Crates {
		fmt.Fprintf(&b, "- %s: %d\n", crate.Position, crate.GPS)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) • Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryLine(move.MoveNumber, move))
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	header := fmt.Sprintf("Current Move Segment • Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		return header + "(no moves in current segment)"
	}

	var b strings.Builder
	b.WriteString(header)
	for i, move := range state.CurrentMoves {
		b.WriteString(formatHistoryLine(i+1, move))
	}
	return b.String()
}

func formatHistoryLine(num int, move engine.MoveHistoryEntry) string {
	status := "✓"
	if move.Outcome != engine.Moved {
		status = "✗"
	}
	scripted := ""
	if move.Scripted {
		scripted = " (scripted)"
	}
	return fmt.Sprintf("%d. %s %s%s [GPS: %d]\n", num, move.Action, status, scripted, move.ScoreAfter)
}
