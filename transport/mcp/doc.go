// Package mcp exposes the calm games to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the REST
// API, and the JSON response is rendered as plain text an agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: render the board or deck
//   - puzzle_move: slide a tile (puzzle sessions)
//   - memory_flip: flip a card (memory sessions)
//   - reset_game: reshuffle or redeal
//   - puzzle_hint: first move of a shortest solution
//   - list_configs, game_instructions: discovery
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: POST /mcp on the game server, dispatched with HandleMessage
//
// Memory pairs resolve on a timer inside the server, so an agent that flips
// two cards should call game_state afterwards to see the outcome.
package mcp
