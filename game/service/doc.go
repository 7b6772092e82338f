// Package service provides the business logic layer for the calm games server.
//
// The service package implements:
//   - Multi-session game management for puzzle and memory games
//   - Preset loading through a ConfigManager
//   - Action processing (tile moves, card flips, resets) with event reporting
//   - Puzzle hints from the shortest-path solver
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engines. Each session owns one engine, either a puzzle.Engine or a
// memory.Engine, chosen by the preset's kind. Engines never return errors for
// illegal input; the service reports those as ActionResult values with
// Accepted set to false and an "ignored" event.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "feelings")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := gameService.MemoryFlip(ctx, info.ID, 3)
//
// Memory decks in GameState are masked: face-down cards carry no symbol.
package service
