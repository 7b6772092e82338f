// Package meditation implements the guided meditation timer.
//
// A session moves through three phases. It waits in intro until started,
// then counts a fixed duration down once per second in meditation, and ends
// in complete when the time runs out or the player skips the rest. The
// countdown can be paused and resumed. While it runs the engine picks one of
// a list of prompts by progress, so the prompts are spread evenly over the
// session.
//
// Ticks run on a schedule.Scheduler. Pause, Skip, Reset and Close cancel the
// pending tick and bump a generation counter, so a late tick never touches a
// newer session.
package meditation
