// Package runtimeconfig loads the handful of process-wide tunables the
// rest of this module reads at World-build time: parallel-iteration
// thresholds, the debug-only deadlock guard, and whether to pay for a
// dangling-reference scan on every deletion. Settings are a plain Go
// struct with `yaml:"..."` tags, loaded with yaml.Unmarshal over a
// Default() baseline so omitted fields keep their defaults.
package runtimeconfig

import (
	"os"

	"github.com/archonkit/archon/access"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable a generated application's main package would
// otherwise have to wire into world.NewBuilder and access.SetSplitCutoff
// by hand.
type Config struct {
	// Concurrency is the number of worker goroutines World.Execute runs
	// with. 0 runs every system on the calling goroutine.
	Concurrency int `yaml:"concurrency"`

	// DeadlockCheck enables the executor's debug-only all-idle guard.
	DeadlockCheck bool `yaml:"deadlock_check"`

	// DanglingRefScan enables the end-of-tick referrer-graph walk for
	// surviving strong references into a just-deleted entity.
	DanglingRefScan bool `yaml:"dangling_ref_scan"`

	// ParIterSplitCutoff is the alive-id count below which access.ParIter
	// stops halving a range and iterates it serially. Zero means "leave
	// the access package's own default in place."
	ParIterSplitCutoff int `yaml:"par_iter_split_cutoff"`

	// LogLevel names the minimum zap level a Log tracer built from this
	// config lets through: one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration a World should run with when nothing
// else is specified: no worker goroutines, every debug guard off.
func Default() Config {
	return Config{Concurrency: 0, LogLevel: "info"}
}

// Load reads and parses a YAML configuration file, starting from Default
// so an omitted field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyGlobals pushes the process-wide settings this package owns (today
// just the parallel-iteration split cutoff) into their package-level
// homes. Concurrency/DeadlockCheck/DanglingRefScan are consumed directly
// by world.NewBuilder/WithDeadlockCheck/WithDanglingRefScan instead, since
// those are per-Builder rather than global.
func (c Config) ApplyGlobals() {
	if c.ParIterSplitCutoff > 0 {
		access.SetSplitCutoff(c.ParIterSplitCutoff)
	}
}

// ZapLevel parses LogLevel, defaulting to info on an empty or unrecognized
// string rather than failing a config load over a logging knob.
func (c Config) ZapLevel() zap.AtomicLevel {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zap.NewAtomicLevelAt(lvl)
}
