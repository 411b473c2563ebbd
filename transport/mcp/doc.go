// Package mcp exposes the warehouse REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one or two HTTP
// requests against the API server, and the JSON responses are rendered as
// plain text an agent can read (grid rows, per-step traces, GPS breakdowns).
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, describe_cell
//   - move, bulk_move, run_script, reset_game
//   - move_history, score
//   - list_configs, game_instructions
//
// Transport:
//
// GetMCPServer returns the underlying server so callers can serve it over
// stdio (server.ServeStdio) or mount HandleMessage behind an HTTP route.
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
