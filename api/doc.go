// Package api provides HTTP REST API handlers for the calm games server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session, body {"config_id": "feelings"}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&kind=puzzle|memory|breathing|meditation)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and cancel its pending work
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/puzzle/move - Click a tile, body {"tile": 5}
//   - POST /api/sessions/{id}/memory/flip - Flip a card, body {"card": 3}
//   - POST /api/sessions/{id}/toggle - Start or pause a breathing or meditation timer
//   - POST /api/sessions/{id}/meditation/skip - End a running meditation early
//   - POST /api/sessions/{id}/reset - Reshuffle, redeal or rewind the timer
//   - GET /api/sessions/{id}/hint - Next tile on a shortest solution (puzzle only)
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset
//
// Other:
//   - GET /api/health - Liveness check
//   - GET /metrics - Prometheus metrics
//   - GET /ws?session={id} - WebSocket state updates
//
// Illegal moves and flips are not errors. They return 200 with
// "accepted": false and an "ignored" event, mirroring the engines' no-op
// policy.
//
// Error Handling:
//
// Errors are returned as JSON with a status derived from the service
// sentinel errors: 404 for unknown sessions or presets, 400 for invalid
// presets or a move sent to the wrong game kind, 409 for conflicts such as
// asking a solved puzzle for a hint, 503 when every session ID is in use.
//
//	{"error": "session abcd: session not found"}
package api
