// Package websocket pushes game state to browsers watching a session.
//
// A single Hub goroutine owns the client registry. Clients connect to
// /ws?session=<id>, receive the current state immediately, and then get a
// "state_update" message after every change to that session, whether it came
// from an HTTP request or from a memory pair resolving on its timer.
// BroadcastToSession and BroadcastEvent are safe to call from any goroutine.
//
// The connection is one-way. Messages sent by clients are read and dropped so
// that ping/pong keepalive keeps working.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	hub.BroadcastToSession(sessionID, state)
package websocket
