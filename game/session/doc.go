// Package session provides in-memory session management for the calm games server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Concurrent access control
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns one engine built from the preset's kind: puzzle,
// memory, breathing or meditation. Memory, breathing and meditation engines
// share the manager's scheduler, and OnAsyncChange reports deferred pair
// resolutions and timer ticks so transports can push the new state to
// watchers.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, matched
// case-insensitively. The manager
// ensures IDs are unique and provides collision-resistant generation using
// cryptographic randomness.
//
// Concurrency:
//
// The session manager is thread-safe and supports concurrent operations.
// Multiple goroutines can safely create, retrieve, and modify different
// sessions simultaneously. Internal locking ensures data consistency.
//
// Usage:
//
//	manager := session.NewManager()
//
//	// Create a new session
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Retrieve existing session
//	sess, err = manager.Get(sessionID)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// List all active sessions
//	sessions := manager.List()
//
// Cleanup:
//
// Sessions can be explicitly deleted or may expire based on inactivity.
// Deleting a session closes its engine, so a pair waiting to resolve is
// discarded. Sessions are never persisted and are lost on restart.
package session
