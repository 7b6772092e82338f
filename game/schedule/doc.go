// Package schedule provides cancellable deferred tasks for game engines.
//
// Engines never sleep. When an engine needs to act after a delay (the memory
// game's pair resolution, for example) it asks a Scheduler for a Task and
// keeps the handle so that a reset or teardown can cancel it.
//
// Two implementations are provided:
//
//   - System, backed by time.AfterFunc, for production use.
//   - Manual, a virtual clock that only moves when Advance is called, so
//     tests can step through delays deterministically.
//
// Usage:
//
//	clock := schedule.NewManual()
//	clock.AfterFunc(500*time.Millisecond, func() { fmt.Println("fired") })
//	clock.Advance(499 * time.Millisecond) // nothing happens
//	clock.Advance(time.Millisecond)       // prints "fired"
package schedule
