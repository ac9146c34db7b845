// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Process  ProcessConfig  `toml:"process"`
	Display  DisplayConfig  `toml:"display"`
	GoalSeek GoalSeekConfig `toml:"goal-seek"`
}

// ProcessConfig maps the default process parameters.
type ProcessConfig struct {
	Mean      *float64 `toml:"mean"`
	Std       *float64 `toml:"std"`
	LSL       *float64 `toml:"lsl"`
	USL       *float64 `toml:"usl"`
	Target    *float64 `toml:"target"`
	SampleStd *float64 `toml:"sample-std"`
}

// DisplayConfig maps histogram and plot settings.
type DisplayConfig struct {
	Bins          *int     `toml:"bins"`
	FitMultiplier *float64 `toml:"fit-multiplier"`
	PlotHeight    *int     `toml:"plot-height"`
}

// GoalSeekConfig maps goal-seek defaults.
type GoalSeekConfig struct {
	TargetCpk *float64 `toml:"target-cpk"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
