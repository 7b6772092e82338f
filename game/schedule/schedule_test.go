package schedule

import (
	"sync"
	"testing"
	"time"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManual()
	var order []string

	clock.AfterFunc(1000*time.Millisecond, func() { order = append(order, "slow") })
	clock.AfterFunc(500*time.Millisecond, func() { order = append(order, "fast") })
	clock.AfterFunc(500*time.Millisecond, func() { order = append(order, "fast-2") })

	if fired := clock.Advance(499 * time.Millisecond); fired != 0 {
		t.Fatalf("Expected no tasks before deadline, fired %d", fired)
	}
	if fired := clock.Advance(time.Millisecond); fired != 2 {
		t.Fatalf("Expected 2 tasks at 500ms, fired %d", fired)
	}
	if fired := clock.Advance(time.Second); fired != 1 {
		t.Fatalf("Expected 1 task at 1000ms, fired %d", fired)
	}

	expected := []string{"fast", "fast-2", "slow"}
	if len(order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], order[i])
		}
	}
	if clock.Now() != 1500*time.Millisecond {
		t.Errorf("Expected clock at 1.5s, got %v", clock.Now())
	}
}

func TestManual_StopPreventsFiring(t *testing.T) {
	clock := NewManual()
	fired := false
	task := clock.AfterFunc(time.Second, func() { fired = true })

	if !task.Stop() {
		t.Error("Expected first Stop to report true")
	}
	if task.Stop() {
		t.Error("Expected second Stop to report false")
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no pending tasks, got %d", clock.Pending())
	}

	clock.Advance(2 * time.Second)
	if fired {
		t.Error("Stopped task must not fire")
	}
}

func TestManual_StopAfterFire(t *testing.T) {
	clock := NewManual()
	task := clock.AfterFunc(0, func() {})
	clock.Advance(0)
	if task.Stop() {
		t.Error("Stop after firing should report false")
	}
}

func TestManual_TaskSchedulesTask(t *testing.T) {
	clock := NewManual()
	count := 0
	clock.AfterFunc(100*time.Millisecond, func() {
		count++
		clock.AfterFunc(100*time.Millisecond, func() { count++ })
	})

	if fired := clock.Advance(200 * time.Millisecond); fired != 2 {
		t.Errorf("Expected chained task to fire within the same advance, fired %d", fired)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestSystem_AfterFunc(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	System().AfterFunc(time.Millisecond, wg.Done)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("System scheduler did not fire")
	}
}
