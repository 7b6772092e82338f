// Package memory implements the pair-matching card game.
//
// A deck holds every symbol twice (or any even multiplicity), shuffled
// uniformly. The player flips cards two at a time. When the second card of an
// attempt is flipped the engine schedules a resolution:
//
//   - equal symbols are marked matched after the short match delay and stay
//     face up for the rest of the game;
//   - different symbols are turned face down after the longer mismatch
//     delay, giving the player time to memorize them.
//
// While a resolution is pending every further flip is ignored, so at most two
// cards are ever face up and unresolved.
//
// Resolutions run on a schedule.Scheduler. Reset and Close cancel an
// outstanding resolution and bump a generation counter, so a timer that fires
// late can never touch a newer deck.
//
// Usage:
//
//	clock := schedule.NewManual()
//	eng, err := memory.NewEngine(memory.DefaultSymbols,
//		memory.WithScheduler(clock),
//		memory.WithSeed(1),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	eng.Flip(0)
//	eng.Flip(1)
//	clock.Advance(memory.DefaultMismatchDelay)
//	fmt.Println(eng.Snapshot().Matches)
package memory
