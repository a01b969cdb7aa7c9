// Package config loads tally run configuration with the precedence
// CLI flag > TALLY_* environment > config file > built-in default.
// Flags are applied by the command layer on top of the loaded struct;
// this package owns discovery, file parsing, env binding, and
// validation.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unbound-force/tally/internal/errs"
)

// Config is the full run configuration for tally.
type Config struct {
	// SolutionName labels the report root.
	SolutionName string `mapstructure:"solution_name" yaml:"solution_name"`

	// Inputs lists the metric source files per format.
	Inputs InputsConfig `mapstructure:"inputs" yaml:"inputs"`

	// Filters narrow which parsed symbols enter the report.
	Filters FiltersConfig `mapstructure:"filters" yaml:"filters"`

	// Thresholds is a path to a threshold JSON file, or an inline
	// JSON object (detected by a leading brace). Empty uses the
	// built-in defaults.
	Thresholds string `mapstructure:"thresholds" yaml:"thresholds"`

	// Suppressions is the path to the suppressed-symbols JSON file.
	Suppressions string `mapstructure:"suppressions" yaml:"suppressions"`

	// Output controls where reports land.
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// InputsConfig lists metric source files. Paths are taken as given;
// relative paths resolve against the working directory.
type InputsConfig struct {
	Coverage []string `mapstructure:"coverage" yaml:"coverage"`
	Roslyn   []string `mapstructure:"roslyn" yaml:"roslyn"`
	Sarif    []string `mapstructure:"sarif" yaml:"sarif"`

	// GoCover enables the Go cover profile source.
	GoCover GoCoverConfig `mapstructure:"gocover" yaml:"gocover"`
}

// GoCoverConfig configures the Go coverage source.
type GoCoverConfig struct {
	// Enabled turns the source on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Profile is an existing cover profile. Empty generates one by
	// running go test in ModuleDir.
	Profile string `mapstructure:"profile" yaml:"profile"`

	// ModuleDir is the Go module root. Defaults to the working
	// directory.
	ModuleDir string `mapstructure:"module_dir" yaml:"module_dir"`

	// Packages are go test patterns. Defaults to ./...
	Packages []string `mapstructure:"packages" yaml:"packages"`

	// TestTimeout bounds profile generation, e.g. "5m".
	TestTimeout time.Duration `mapstructure:"test_timeout" yaml:"test_timeout"`
}

// FiltersConfig narrows which symbols enter the report.
type FiltersConfig struct {
	// Assemblies is a comma or semicolon separated list of
	// case-insensitive assembly substrings.
	Assemblies string `mapstructure:"assemblies" yaml:"assemblies"`

	// Types and Members are wildcard patterns (* and ?),
	// case-sensitive, matched against canonical names.
	Types   string `mapstructure:"types" yaml:"types"`
	Members string `mapstructure:"members" yaml:"members"`
}

// OutputConfig controls report destinations.
type OutputConfig struct {
	// Report is the JSON report path.
	Report string `mapstructure:"report" yaml:"report"`

	// Baseline is the prior report to diff against. Empty falls back
	// to the report path itself (the previous run's output).
	Baseline string `mapstructure:"baseline" yaml:"baseline"`

	// HTML, when set, additionally writes an HTML dashboard there.
	HTML string `mapstructure:"html" yaml:"html"`

	// ArchiveDir, when set, receives the superseded report under a
	// timestamped name before the new one is written.
	ArchiveDir string `mapstructure:"archive_dir" yaml:"archive_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SolutionName: "Solution",
		Inputs: InputsConfig{
			GoCover: GoCoverConfig{
				Packages:    []string{"./..."},
				TestTimeout: 5 * time.Minute,
			},
		},
		Output: OutputConfig{
			Report: "tally-report.json",
		},
	}
}

// configKeys lists every settable key. Viper only resolves TALLY_*
// environment variables for keys it knows about, so each one is bound
// explicitly; a key appearing in no config file would otherwise never
// reach Unmarshal.
var configKeys = []string{
	"solution_name",
	"inputs.coverage",
	"inputs.roslyn",
	"inputs.sarif",
	"inputs.gocover.enabled",
	"inputs.gocover.profile",
	"inputs.gocover.module_dir",
	"inputs.gocover.packages",
	"inputs.gocover.test_timeout",
	"filters.assemblies",
	"filters.types",
	"filters.members",
	"thresholds",
	"suppressions",
	"output.report",
	"output.baseline",
	"output.html",
	"output.archive_dir",
}

// candidates are the config file names searched in order.
var candidates = []string{
	".tally.yaml",
	".tally.yml",
	"tally.yaml",
	"tally.yml",
}

// Load reads configuration from path, or from a discovered config
// file when path is empty, layering TALLY_* environment variables on
// top of file values. A missing discovered file is fine; a missing
// explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range configKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, errs.Validation("binding environment key %s: %w", k, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = discover()
	}

	cfg := Default()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, errs.IO("reading config file %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Validation("invalid configuration %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks constraints that cannot be expressed in the
// structure itself.
func (c *Config) Validate() error {
	if c.Output.Report == "" {
		return errs.Validation("output.report must not be empty")
	}
	if c.Inputs.GoCover.TestTimeout < 0 {
		return errs.Validation("inputs.gocover.test_timeout must not be negative")
	}
	return nil
}

// HasInputs reports whether any metric source is configured.
func (c *Config) HasInputs() bool {
	return len(c.Inputs.Coverage) > 0 ||
		len(c.Inputs.Roslyn) > 0 ||
		len(c.Inputs.Sarif) > 0 ||
		c.Inputs.GoCover.Enabled
}

// discover finds a config file in the working directory or above.
func discover() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range candidates {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
