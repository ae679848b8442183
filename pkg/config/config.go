// Package config loads and validates whiff analysis configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Error indicates an invalid or unreadable configuration. The analysis
// run is aborted before any unit is processed when one is returned.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Thresholds holds the numeric limits each detector compares against.
type Thresholds struct {
	LongMethodLines   int `koanf:"long_method_lines" toml:"long_method_lines"`
	ParamCountMax     int `koanf:"param_count_max" toml:"param_count_max"`
	ComplexityMax     int `koanf:"complexity_max" toml:"complexity_max"`
	NestingMax        int `koanf:"nesting_max" toml:"nesting_max"`
	ClassMembersMax   int `koanf:"class_members_max" toml:"class_members_max"`
	ClassLinesMax     int `koanf:"class_lines_max" toml:"class_lines_max"`
	MinDuplicateLines int `koanf:"min_duplicate_lines" toml:"min_duplicate_lines"`
}

// SeverityWeights maps severity levels to health score penalties.
type SeverityWeights struct {
	Low      int `koanf:"low" toml:"low"`
	Medium   int `koanf:"medium" toml:"medium"`
	High     int `koanf:"high" toml:"high"`
	Critical int `koanf:"critical" toml:"critical"`
}

// Config is the root configuration structure.
type Config struct {
	Thresholds      Thresholds      `koanf:"thresholds" toml:"thresholds"`
	SeverityWeights SeverityWeights `koanf:"severity_weights" toml:"severity_weights"`
	Exclude         []string        `koanf:"exclude" toml:"exclude"`
	Detectors       []string        `koanf:"detectors" toml:"detectors"`
	UseGitignore    bool            `koanf:"use_gitignore" toml:"use_gitignore"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			LongMethodLines:   30,
			ParamCountMax:     4,
			ComplexityMax:     10,
			NestingMax:        3,
			ClassMembersMax:   20,
			ClassLinesMax:     300,
			MinDuplicateLines: 6,
		},
		SeverityWeights: SeverityWeights{
			Low:      1,
			Medium:   3,
			High:     7,
			Critical: 15,
		},
		UseGitignore: true,
	}
}

// Load reads configuration from a file, merging values over defaults.
// Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("failed to load %s: %v", path, err)}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("failed to parse %s: %v", path, err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault searches dir for a whiff config file and loads it,
// falling back to defaults when none exists.
func LoadOrDefault(dir string) (*Config, error) {
	candidates := []string{"whiff.toml", "whiff.yaml", "whiff.yml", "whiff.json"}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, &Error{Reason: fmt.Sprintf("unsupported config format: %s", ext)}
	}
}

// Validate checks that all thresholds and weights are usable.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value int
		min   int
	}{
		{"thresholds.long_method_lines", c.Thresholds.LongMethodLines, 0},
		{"thresholds.param_count_max", c.Thresholds.ParamCountMax, 0},
		{"thresholds.complexity_max", c.Thresholds.ComplexityMax, 0},
		{"thresholds.nesting_max", c.Thresholds.NestingMax, 0},
		{"thresholds.class_members_max", c.Thresholds.ClassMembersMax, 0},
		{"thresholds.class_lines_max", c.Thresholds.ClassLinesMax, 0},
		{"thresholds.min_duplicate_lines", c.Thresholds.MinDuplicateLines, 1},
		{"severity_weights.low", c.SeverityWeights.Low, 0},
		{"severity_weights.medium", c.SeverityWeights.Medium, 0},
		{"severity_weights.high", c.SeverityWeights.High, 0},
		{"severity_weights.critical", c.SeverityWeights.Critical, 0},
	}
	for _, ch := range checks {
		if ch.value < ch.min {
			return &Error{Field: ch.field, Reason: fmt.Sprintf("must be at least %d, got %d", ch.min, ch.value)}
		}
	}
	return nil
}

// ShouldExclude reports whether path matches any exclude pattern.
func (c *Config) ShouldExclude(path string) bool {
	for _, pattern := range c.Exclude {
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
		if strings.Contains(path, strings.TrimSuffix(pattern, "/*")) && strings.HasSuffix(pattern, "/*") {
			return true
		}
	}
	return false
}

// DetectorEnabled reports whether a detector should run. An empty
// detectors list enables everything.
func (c *Config) DetectorEnabled(name string) bool {
	if len(c.Detectors) == 0 {
		return true
	}
	for _, d := range c.Detectors {
		if d == name {
			return true
		}
	}
	return false
}
