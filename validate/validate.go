// Command validate provides a small CLI that validates game preset JSON files
// in the ../configs directory. It checks:
//   - JSON structure, rejecting unknown fields
//   - the preset schema (kind, per-kind settings, messages)
//   - that the preset's engine can actually be built
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config preset.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := preset.Validate(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Kind: %s", config.Kind)

	switch config.Kind {
	case preset.KindPuzzle:
		validatePuzzle(&result, &config)
	case preset.KindMemory:
		validateMemory(&result, &config)
	case preset.KindBreathing:
		validateBreathing(&result, &config)
	case preset.KindMeditation:
		validateMeditation(&result, &config)
	}
	return result
}

// validatePuzzle shuffles a board with the preset's settings and checks it is
// solvable.
func validatePuzzle(result *ValidationResult, config *preset.GameConfig) {
	engine := puzzle.NewEngine(puzzle.WithSeed(1), puzzle.WithShuffleMoves(config.Puzzle.ShuffleMoves))
	if !puzzle.IsSolvable(engine.Layout()) {
		result.fail("Shuffled board is not solvable")
		return
	}
	result.info("Shuffle moves: %d", config.Puzzle.ShuffleMoves)
}

// validateMemory deals the deck and reports its size.
func validateMemory(result *ValidationResult, config *preset.GameConfig) {
	m := config.Memory
	engine, err := memory.NewEngine(m.Symbols,
		memory.WithSeed(1),
		memory.WithPairMultiplicity(m.PairMultiplicity),
		memory.WithDelays(m.Delays()),
	)
	if err != nil {
		result.fail("Cannot deal deck: %v", err)
		return
	}
	defer engine.Close()

	deck := engine.Snapshot()
	if config.Messages.Match == "" || config.Messages.Mismatch == "" {
		result.info("Match/mismatch messages not set, resolutions will be silent")
	}
	result.info("Cards: %d (%d pairs)", len(deck.Cards), deck.Pairs)
	result.info("Delays: match %dms, mismatch %dms", m.MatchDelayMS, m.MismatchDelayMS)
}

// validateBreathing builds the exercise and reports its pace.
func validateBreathing(result *ValidationResult, config *preset.GameConfig) {
	b := config.Breathing
	engine, err := breathing.NewEngine(
		breathing.WithPattern(b.Pattern()),
		breathing.WithTargetCycles(b.TargetCycles),
	)
	if err != nil {
		result.fail("Cannot build exercise: %v", err)
		return
	}
	defer engine.Close()

	result.info("Pattern: %d-%d-%d seconds", b.InhaleSeconds, b.HoldSeconds, b.ExhaleSeconds)
	if b.TargetCycles == 0 {
		result.info("No target cycles, the exercise runs until paused")
	}
}

// validateMeditation builds the session and reports its length.
func validateMeditation(result *ValidationResult, config *preset.GameConfig) {
	m := config.Meditation
	engine, err := meditation.NewEngine(
		meditation.WithDuration(m.Duration()),
		meditation.WithPrompts(m.Prompts),
	)
	if err != nil {
		result.fail("Cannot build session: %v", err)
		return
	}
	defer engine.Close()

	result.info("Duration: %s", meditation.FormatClock(engine.Snapshot().DurationSeconds))
	if len(m.Prompts) == 0 {
		result.info("Using the built-in prompts")
	}
}

// main scans ../configs for *.json files and validates each one, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
