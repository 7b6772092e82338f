// Command analyze prints quick, human-readable statistics about the presets in
// the project's configs directory. For puzzle presets it samples seeded
// shuffles and reports the optimal solution length; for memory presets it
// reports the deck size and the fewest attempts a perfect player needs; for
// breathing and meditation presets it reports how long a session lasts.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// PuzzleStats summarizes optimal solution lengths over sampled shuffles.
type PuzzleStats struct {
	Samples      int
	ShuffleMoves int
	Min, Max     int
	Avg          float64
	// AlreadySolved counts shuffles that landed back on the solved layout.
	AlreadySolved int
}

// MemoryStats describes the deck a memory preset deals.
type MemoryStats struct {
	Symbols      int
	Cards        int
	Pairs        int
	PerfectMoves int
	// MinDuration is the shortest possible game: every attempt a match.
	MinDuration time.Duration
}

// BreathingStats describes the pace of a breathing preset.
type BreathingStats struct {
	CycleLength    time.Duration
	CyclesPerMin   float64
	TargetCycles   int
	TargetDuration time.Duration
}

// MeditationStats describes a meditation preset.
type MeditationStats struct {
	Duration time.Duration
	Prompts  int
	// PromptEvery is how long each prompt stays on screen.
	PromptEvery time.Duration
}

var (
	configDir = flag.String("dir", "configs", "directory containing presets")
	samples   = flag.Int("samples", 50, "shuffles sampled per puzzle preset")
	seed      = flag.Uint64("seed", 1, "first seed used for sampling")
)

func main() {
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", *configDir)
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeConfig(file)
	}
}

func analyzeConfig(path string) {
	config, err := preset.Load(path)
	if err != nil {
		fmt.Printf("Error loading preset: %v\n", err)
		return
	}

	fmt.Printf("Name: %s\n", config.Name)
	fmt.Printf("Kind: %s\n", config.Kind)

	switch config.Kind {
	case preset.KindPuzzle:
		stats := analyzePuzzle(config.Puzzle.ShuffleMoves, *samples, *seed)
		fmt.Printf("Shuffle moves: %d\n", stats.ShuffleMoves)
		fmt.Printf("Optimal solution over %d shuffles: min %d, avg %.1f, max %d\n",
			stats.Samples, stats.Min, stats.Avg, stats.Max)
		if stats.AlreadySolved > 0 {
			fmt.Printf("⚠️  %d shuffles returned to the solved layout\n", stats.AlreadySolved)
		} else {
			fmt.Printf("✅ Every sampled shuffle needs at least one move\n")
		}
	case preset.KindMemory:
		stats := analyzeMemory(config.Memory)
		fmt.Printf("Symbols: %d\n", stats.Symbols)
		fmt.Printf("Cards: %d (%d pairs)\n", stats.Cards, stats.Pairs)
		fmt.Printf("Perfect game: %d moves, at least %v\n", stats.PerfectMoves, stats.MinDuration)
	case preset.KindBreathing:
		stats := analyzeBreathing(config.Breathing)
		fmt.Printf("Cycle: %v (%.1f breaths per minute)\n", stats.CycleLength, stats.CyclesPerMin)
		if stats.TargetCycles > 0 {
			fmt.Printf("Target: %d cycles in %v\n", stats.TargetCycles, stats.TargetDuration)
		} else {
			fmt.Printf("Target: open-ended\n")
		}
	case preset.KindMeditation:
		stats := analyzeMeditation(config.Meditation)
		fmt.Printf("Duration: %v\n", stats.Duration)
		fmt.Printf("Prompts: %d, one every %v\n", stats.Prompts, stats.PromptEvery)
	}
}

// analyzePuzzle shuffles n boards with consecutive seeds and solves each one.
func analyzePuzzle(shuffleMoves, n int, firstSeed uint64) PuzzleStats {
	stats := PuzzleStats{Samples: n, ShuffleMoves: shuffleMoves, Min: -1}
	if n <= 0 {
		stats.Min = 0
		return stats
	}

	total := 0
	for i := 0; i < n; i++ {
		engine := puzzle.NewEngine(
			puzzle.WithSeed(firstSeed+uint64(i)),
			puzzle.WithShuffleMoves(shuffleMoves),
		)
		path, ok := puzzle.Solve(engine.Layout())
		if !ok {
			// Shuffles are built from legal moves, so this never happens.
			continue
		}

		length := len(path)
		if length == 0 {
			stats.AlreadySolved++
		}
		if stats.Min < 0 || length < stats.Min {
			stats.Min = length
		}
		if length > stats.Max {
			stats.Max = length
		}
		total += length
	}

	if stats.Min < 0 {
		stats.Min = 0
	}
	stats.Avg = float64(total) / float64(n)
	return stats
}

func analyzeMemory(settings *preset.MemorySettings) MemoryStats {
	cards := len(settings.Symbols) * settings.PairMultiplicity
	pairs := cards / 2
	return MemoryStats{
		Symbols:      len(settings.Symbols),
		Cards:        cards,
		Pairs:        pairs,
		PerfectMoves: pairs,
		MinDuration:  time.Duration(pairs) * settings.Delays().Match,
	}
}

func analyzeBreathing(settings *preset.BreathingSettings) BreathingStats {
	cycle := settings.Pattern().CycleLength()
	stats := BreathingStats{
		CycleLength:    cycle,
		TargetCycles:   settings.TargetCycles,
		TargetDuration: time.Duration(settings.TargetCycles) * cycle,
	}
	if cycle > 0 {
		stats.CyclesPerMin = float64(time.Minute) / float64(cycle)
	}
	return stats
}

func analyzeMeditation(settings *preset.MeditationSettings) MeditationStats {
	prompts := len(settings.Prompts)
	if prompts == 0 {
		prompts = len(meditation.DefaultPrompts)
	}
	return MeditationStats{
		Duration:    settings.Duration(),
		Prompts:     prompts,
		PromptEvery: settings.Duration() / time.Duration(prompts),
	}
}
