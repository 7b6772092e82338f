// Package breathing implements the paced breathing exercise.
//
// A cycle is three phases: breathe in, hold, breathe out (4, 4 and 6 seconds
// by default). While the exercise runs the engine ticks once per second on a
// schedule.Scheduler, counting the current phase down and moving to the next
// phase when the countdown runs out. Finishing the exhale completes a cycle.
//
// The exercise has no natural end. When a target cycle count is set the
// engine stops and reports completion once that many cycles are done.
//
// Start, Pause and Toggle control the timer. Reset and Close cancel the
// pending tick and bump a generation counter, so a tick that fires late can
// never touch a newer exercise.
//
// Usage:
//
//	clock := schedule.NewManual()
//	eng, err := breathing.NewEngine(breathing.WithScheduler(clock))
//	if err != nil {
//		log.Fatal(err)
//	}
//	eng.Start()
//	clock.Advance(14 * time.Second)
//	fmt.Println(eng.Snapshot().Cycles) // 1
package breathing
