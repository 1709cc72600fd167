// Package ecsconfig holds the process-wide, scoped-override configuration
// surface described in the spec's external interfaces section: which Mod
// backend to use and how to react to non-invertible/non-residue/unsatisfied
// assumption events. It is modeled on neo-go's pkg/config: a plain struct
// loaded from YAML, plus (since this config is mutated by nested scopes
// rather than read once at startup) a small atomic-pointer holder.
package ecsconfig

import (
	"fmt"
	"os"

	"go.uber.org/atomic"
	"gopkg.in/yaml.v3"
)

// PolicyAction is one of the three reactions to a recoverable arithmetic
// condition (non-invertible element, non-residue, unsatisfied assumption).
type PolicyAction string

// Recognized PolicyAction values.
const (
	ActionError   PolicyAction = "error"
	ActionWarning PolicyAction = "warning"
	ActionIgnore  PolicyAction = "ignore"
)

// Valid reports whether a is one of the recognized policy actions.
func (a PolicyAction) Valid() bool {
	switch a {
	case ActionError, ActionWarning, ActionIgnore:
		return true
	default:
		return false
	}
}

// ModBackend names a concrete Mod implementation.
type ModBackend string

// Recognized ModBackend values.
const (
	ModRaw      ModBackend = "raw"
	ModFixed    ModBackend = "fixed"
	ModSymbolic ModBackend = "symbolic"
)

// Config is the top-level process configuration, loadable from YAML.
type Config struct {
	// ModImplementation selects the Mod backend used by newly constructed elements.
	ModImplementation ModBackend `yaml:"ModImplementation"`
	// NoInverseAction controls the reaction to inverting a non-unit.
	NoInverseAction PolicyAction `yaml:"NoInverseAction"`
	// NonResidueAction controls the reaction to sqrt/cube_root of a non-residue.
	NonResidueAction PolicyAction `yaml:"NonResidueAction"`
	// UnsatisfiedFormulaAssumptionAction controls the reaction to a formula assumption whose value disagrees with an already-bound one (see pkg/formula).
	UnsatisfiedFormulaAssumptionAction PolicyAction `yaml:"UnsatisfiedFormulaAssumptionAction"`
	// UnsatisfiedCoordinateAssumptionAction is defaulted and validated here; no package in this module reads it.
	UnsatisfiedCoordinateAssumptionAction PolicyAction `yaml:"UnsatisfiedCoordinateAssumptionAction"`
	// AssumptionCacheSize bounds the formula-assumption LRU cache (see pkg/formula).
	AssumptionCacheSize int `yaml:"AssumptionCacheSize"`
	// CurveDBPath points at the bbolt-backed standard-curve cache file.
	CurveDBPath string `yaml:"CurveDBPath"`
}

// Default is the configuration used when no override is active.
func Default() Config {
	return Config{
		ModImplementation:                     ModRaw,
		NoInverseAction:                        ActionError,
		NonResidueAction:                       ActionError,
		UnsatisfiedFormulaAssumptionAction:     ActionError,
		UnsatisfiedCoordinateAssumptionAction:  ActionError,
		AssumptionCacheSize:                    1024,
		CurveDBPath:                            "./curvedb.cache",
	}
}

// Validate checks that every policy field carries a recognized value.
func (c Config) Validate() error {
	for name, a := range map[string]PolicyAction{
		"NoInverseAction":                       c.NoInverseAction,
		"NonResidueAction":                      c.NonResidueAction,
		"UnsatisfiedFormulaAssumptionAction":    c.UnsatisfiedFormulaAssumptionAction,
		"UnsatisfiedCoordinateAssumptionAction": c.UnsatisfiedCoordinateAssumptionAction,
	} {
		if !a.Valid() {
			return fmt.Errorf("bad configuration: invalid %s %q", name, a)
		}
	}
	switch c.ModImplementation {
	case ModRaw, ModFixed, ModSymbolic:
	default:
		return fmt.Errorf("bad configuration: invalid ModImplementation %q", c.ModImplementation)
	}
	return nil
}

var current atomic.Value

func init() {
	current.Store(Default())
}

// Current returns the currently active process-wide configuration.
func Current() Config {
	return current.Load().(Config)
}

// Set installs cfg as the current process-wide configuration, returning
// the previous one so a caller can restore it manually if needed.
func Set(cfg Config) Config {
	prev := current.Load().(Config)
	current.Store(cfg)
	return prev
}

// WithConfig installs cfg for the duration of fn and restores the previous
// configuration afterward on every exit path, including panics (the panic
// is re-thrown after the restore). This is the "TemporaryConfig" scope
// named in the spec's concurrency section.
func WithConfig(cfg Config, fn func() error) (err error) {
	prev := Set(cfg)
	defer current.Store(prev)
	return fn()
}

// LoadFile reads a YAML configuration file from path, unmarshalling it
// onto a Default() base so any field left unset in the file keeps its
// default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
