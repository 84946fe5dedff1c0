// Package config loads the YAML configuration that drives source
// selection: per-target include/exclude regexes, ignore patterns, and
// the default-excludes toggle.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Target holds the per-target overrides named in the configuration.
type Target struct {
	Includes        []string `yaml:"includes"`
	Excludes        []string `yaml:"excludes"`
	IgnorePatterns  []string `yaml:"ignore_patterns"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
}

// Config is the top-level configuration document.
type Config struct {
	Includes        []string          `yaml:"includes"`
	Excludes        []string          `yaml:"excludes"`
	IgnorePatterns  []string          `yaml:"ignore_patterns"`
	DefaultExcludes bool              `yaml:"default_excludes"`
	Targets         map[string]Target `yaml:"targets"`
}

// Default returns a Config with default_excludes enabled and no
// additional filtering, the baseline "just works" configuration.
func Default() *Config {
	return &Config{
		DefaultExcludes: true,
		Targets:         map[string]Target{},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ForTarget merges the top-level settings with a named target's
// overrides, replacing rather than appending: a target section fully
// replaces the corresponding top-level list when present, matching
// "these replace any ambient/global state" (SPEC_FULL.md §9).
func (c *Config) ForTarget(name string) Target {
	t := Target{
		Includes:        c.Includes,
		Excludes:        c.Excludes,
		IgnorePatterns:  c.IgnorePatterns,
		DefaultExcludes: &c.DefaultExcludes,
	}
	override, ok := c.Targets[name]
	if !ok {
		return t
	}
	if override.Includes != nil {
		t.Includes = override.Includes
	}
	if override.Excludes != nil {
		t.Excludes = override.Excludes
	}
	if override.IgnorePatterns != nil {
		t.IgnorePatterns = override.IgnorePatterns
	}
	if override.DefaultExcludes != nil {
		t.DefaultExcludes = override.DefaultExcludes
	}
	return t
}

// CompiledFilter is a Target's include/exclude regexes compiled once.
type CompiledFilter struct {
	Includes        []*regexp.Regexp
	Excludes        []*regexp.Regexp
	IgnorePatterns  []string
	DefaultExcludes bool
}

// Compile compiles a Target's regex lists, failing fast on bad regex
// (a configuration error per SPEC_FULL.md §7: "bad regex... surfaced
// to the caller; not recoverable in-process").
func (t Target) Compile() (*CompiledFilter, error) {
	cf := &CompiledFilter{
		IgnorePatterns: t.IgnorePatterns,
	}
	if t.DefaultExcludes != nil {
		cf.DefaultExcludes = *t.DefaultExcludes
	}
	for _, p := range t.Includes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		cf.Includes = append(cf.Includes, re)
	}
	for _, p := range t.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		cf.Excludes = append(cf.Excludes, re)
	}
	return cf, nil
}

// Allows reports whether relPath passes the include/exclude filters.
// An include list, when non-empty, is a whitelist: the path must match
// at least one entry. Excludes always apply.
func (cf *CompiledFilter) Allows(relPath string) bool {
	if len(cf.Includes) > 0 {
		matched := false
		for _, re := range cf.Includes {
			if re.MatchString(relPath) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range cf.Excludes {
		if re.MatchString(relPath) {
			return false
		}
	}
	return true
}
