// Package service provides the business logic layer for the warehouse robot server.
//
// The service package implements:
//   - Multi-session warehouse management
//   - Command parsing for single moves, move lists and scripted runs
//   - Move history pagination and per-crate GPS breakdowns
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and saves scenarios.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns its own engine and grid; the service
// serializes commands so a grid only ever has one mutator.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "small", true)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.BulkMove(ctx, info.ID, []string{"<^^>>>vv"}, false)
//
// A blocked command is a normal result: it is recorded in the history and
// a move list carries on with the next command.
package service
