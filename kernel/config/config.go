// Package config loads the tunables spec.md §4.4/§9 leaves to the
// integrator — tick source selection, default time slice, default
// stack size — from a YAML file, in the style of the teacher's
// targets.TargetInfo (gopkg.in/yaml.v3 struct tags, an embedded
// fallback for the zero-config case).
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// TickSource selects which peripheral drives scheduling decisions
// (spec.md §4.4: SysTick or the programmable microsecond timer).
type TickSource string

const (
	TickSourceSysTick TickSource = "systick"
	TickSourceMicro   TickSource = "micro"
)

// Config is the integrator-facing knob set for a Kernel.
type Config struct {
	MaxThreads         int        `yaml:"maxThreads"`
	DefaultStackSize   int        `yaml:"defaultStackSize"`
	DefaultTicks       int32      `yaml:"defaultTimeSlice"`
	TickSource         TickSource `yaml:"tickSource"`
	SliceMicros        uint32     `yaml:"sliceMicros"`
	StrictPriorityScan bool       `yaml:"strictPriorityScan"`
}

// Default returns the embedded baseline configuration.
func Default() (Config, error) {
	var c Config
	if err := yaml.Unmarshal(defaultConfig, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse embedded default: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML config file, starting from Default so
// fields the file omits keep their baseline value. An empty path
// returns Default unchanged.
func Load(path string) (Config, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Default()
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}
