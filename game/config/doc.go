// Package config provides preset management for the calm games server.
//
// The config package handles:
//   - Loading game presets from JSON files
//   - Validation through preset.Validate
//   - Default preset selection
//   - Preset discovery and listing
//
// Preset Format:
//
// Presets are JSON files in the configs directory. Each one names its kind,
// "puzzle" or "memory", and carries the settings for that engine plus the
// messages shown to the player.
//
// Built-in Presets:
//
// The identifiers "puzzle" and "memory" always resolve. A file with the same
// name overrides the built-in copy. The default preset is classic.json when
// present, otherwise the first valid file, otherwise the built-in puzzle.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("feelings")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
