package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/dd"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/runner"
	"github.com/pelletier/go-toml/v2"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Element kinds a target can be reduced as.
const (
	KindAuto  = "auto"
	KindFiles = "files"
	KindLines = "lines"
)

// Strategies a reduction can use.
const (
	StrategyFlat         = "flat"
	StrategyStar         = "star"
	StrategyHierarchical = "hierarchical"
	StrategyComposite    = "composite"
)

var (
	ErrNoTarget       = errors.New("no target to reduce")
	ErrNoCommand      = errors.New("no analysis command; pass one after -- or use --interactive")
	ErrUnknownKind    = errors.New("unknown element kind")
	ErrUnknownVariant = errors.New("unknown strategy")
)

// Config holds everything a reduction run needs. It is read from an optional
// json5, YAML or TOML file first; flags given on the command line override it.
type Config struct {
	Target    string `json:"target" yaml:"target" toml:"target"`
	Kind      string `json:"kind" yaml:"kind" toml:"kind"`
	Strategy  string `json:"strategy" yaml:"strategy" toml:"strategy"`
	Direction string `json:"direction" yaml:"direction" toml:"direction"`
	Mode      string `json:"mode" yaml:"mode" toml:"mode"`
	NoCache   bool   `json:"noCache" yaml:"noCache" toml:"noCache"`

	Command       []string `json:"command" yaml:"command" toml:"command"`
	MinProperty   []string `json:"minProperty" yaml:"minProperty" toml:"minProperty"`
	MaxProperty   []string `json:"maxProperty" yaml:"maxProperty" toml:"maxProperty"`
	Rules         []string `json:"rules" yaml:"rules" toml:"rules"`
	RollbackCheck int      `json:"rollbackCheck" yaml:"rollbackCheck" toml:"rollbackCheck"`
	TimeFactor    float64  `json:"timeFactor" yaml:"timeFactor" toml:"timeFactor"`
	TimeBias      string   `json:"timeBias" yaml:"timeBias" toml:"timeBias"`
	HardCap       string   `json:"hardCap" yaml:"hardCap" toml:"hardCap"`

	WorkDir     string `json:"workDir" yaml:"workDir" toml:"workDir"`
	Output      string `json:"output" yaml:"output" toml:"output"`
	GraphDir    string `json:"graphDir" yaml:"graphDir" toml:"graphDir"`
	MetricsFile string `json:"metricsFile" yaml:"metricsFile" toml:"metricsFile"`
	LogDir      string `json:"logDir" yaml:"logDir" toml:"logDir"`
	Verbose     bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
	Interactive bool   `json:"interactive" yaml:"interactive" toml:"interactive"`
}

// DefaultConfig returns the configuration used when neither a file nor a
// flag says otherwise.
func DefaultConfig() *Config {
	limits := runner.DefaultLimits()
	return &Config{
		Kind:          KindAuto,
		Strategy:      StrategyFlat,
		Direction:     dd.Minimize.String(),
		Mode:          dd.DeltasAndComplements.String(),
		MinProperty:   []string{string(runner.FailureBecauseOfSameException)},
		MaxProperty:   []string{string(runner.VerdictTrue), string(runner.VerdictFalse)},
		RollbackCheck: 5,
		TimeFactor:    limits.Factor,
		TimeBias:      limits.Bias.String(),
		HardCap:       limits.HardCap.String(),
		LogDir:        ".",
	}
}

// LoadConfigFile merges the file at path into c. The format follows the
// extension: .yaml and .yml are YAML, .toml is TOML, anything else is json5.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("parsing YAML config '%s': %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("parsing TOML config '%s': %w", path, err)
		}
	default:
		if err := json5.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing json5 config '%s': %w", path, err)
		}
	}
	return nil
}

// Validate checks the configuration for a non-interactive or interactive run.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}
	if !c.Interactive && len(c.Command) == 0 {
		return ErrNoCommand
	}
	switch c.Kind {
	case KindAuto, KindFiles, KindLines:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	switch c.Strategy {
	case StrategyFlat, StrategyStar, StrategyHierarchical, StrategyComposite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVariant, c.Strategy)
	}
	direction, err := c.ParsedDirection()
	if err != nil {
		return err
	}
	if c.Strategy == StrategyStar && direction == dd.Isolate {
		return fmt.Errorf("strategy %s needs direction minimize or maximize", StrategyStar)
	}
	if _, err := dd.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.RollbackCheck < 0 {
		return fmt.Errorf("rollback check must not be negative, got %d", c.RollbackCheck)
	}
	if _, err := c.Limits(); err != nil {
		return err
	}
	if _, err := c.Rulebook(); err != nil {
		return err
	}
	if _, err := c.Classifier(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ParsedDirection() (dd.Direction, error) {
	return dd.ParseDirection(c.Direction)
}

// Limits converts the time settings.
func (c *Config) Limits() (runner.Limits, error) {
	bias, err := time.ParseDuration(c.TimeBias)
	if err != nil {
		return runner.Limits{}, fmt.Errorf("time bias: %w", err)
	}
	hardCap, err := time.ParseDuration(c.HardCap)
	if err != nil {
		return runner.Limits{}, fmt.Errorf("hard cap: %w", err)
	}
	l := runner.Limits{Factor: c.TimeFactor, Bias: bias, HardCap: hardCap}
	return l, l.Validate()
}

// Rulebook compiles the output rules.
func (c *Config) Rulebook() ([]runner.Rule, error) {
	rules := make([]runner.Rule, 0, len(c.Rules))
	for _, s := range c.Rules {
		r, err := runner.ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Classifier builds the outcome classifier from the two properties.
func (c *Config) Classifier() (*runner.Classifier, error) {
	minProperty, err := runner.ParseAnalysisOutcomes(c.MinProperty)
	if err != nil {
		return nil, fmt.Errorf("min property: %w", err)
	}
	maxProperty, err := runner.ParseAnalysisOutcomes(c.MaxProperty)
	if err != nil {
		return nil, fmt.Errorf("max property: %w", err)
	}
	return runner.NewClassifier(minProperty, maxProperty)
}
