package model

import "regexp"

// DefaultExcludes is the built-in set of path-suffix/fragment patterns
// rejected from training and reporting: binary formats with a known
// extension, fonts, config files, and known-irrelevant artifacts.
// Carried over from the original's default_excludes list (model.rs /
// config/default_excludes.rs).
var DefaultExcludes = []string{
	`\.ico$`, `\.png$`, `\.clf$`, `\.tar$`, `\.tar\.bzip2$`,
	`\.subunit$`, `\.sqlite$`, `\.db$`, `\.bin$`, `\.pcap\.log\.txt$`,
	`\.pkl$`, `\.jar$`,
	`\.eot$`, `\.otf$`, `\.woff$`, `\.woff2$`, `\.ttf$`,
	`\.yaml$`, `\.ini$`, `\.conf$`,
	`job-output\.json$`, `zuul-manifest\.json$`, `\.html$`,
	`cacerts$`, `local/creds$`, `/authkey$`, `mysql/tc\.log\.txt$`, `log/\.tmp$`,
	`object\.builder$`, `account\.builder$`, `container\.builder$`,
	`/etc/`, `/proc/`, `/sys/`,
	`/\.`,
}

// TargetConfig governs per-target filtering: which sources are
// trainable/reportable at all (Excludes/Includes, matched against the
// relative path with a trailing ".gz" trimmed) and which raw lines are
// skipped outright (IgnorePatterns, matched against the full line).
type TargetConfig struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
	ignore   []*regexp.Regexp
}

// NewTargetConfig compiles a TargetConfig from user-supplied include,
// exclude, and ignore-line patterns. When useDefaultExcludes is true,
// DefaultExcludes is appended to excludes.
func NewTargetConfig(includes, excludes, ignorePatterns []string, useDefaultExcludes bool) (*TargetConfig, error) {
	cfg := &TargetConfig{}
	for _, p := range includes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		cfg.includes = append(cfg.includes, re)
	}
	all := excludes
	if useDefaultExcludes {
		all = append(append([]string{}, excludes...), DefaultExcludes...)
	}
	for _, p := range all {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		cfg.excludes = append(cfg.excludes, re)
	}
	for _, p := range ignorePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		cfg.ignore = append(cfg.ignore, re)
	}
	return cfg, nil
}

// DefaultTargetConfig is a TargetConfig with no user overrides, just
// the built-in exclusion list.
func DefaultTargetConfig() *TargetConfig {
	cfg, err := NewTargetConfig(nil, nil, nil, true)
	if err != nil {
		// DefaultExcludes is a fixed, known-valid literal set.
		panic(err)
	}
	return cfg
}

// IsSourceValid reports whether a source should be trained on or
// reported against: it must match every include pattern (if any are
// set) and no exclude pattern.
func (c *TargetConfig) IsSourceValid(source Source) bool {
	fp := trimGzSuffix(source.Relative())
	if len(c.includes) > 0 {
		matched := false
		for _, re := range c.includes {
			if re.MatchString(fp) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range c.excludes {
		if re.MatchString(fp) {
			return false
		}
	}
	return true
}

// IsIgnoredLine reports whether a raw log line matches a configured
// ignore pattern and should be skipped before tokenization.
func (c *TargetConfig) IsIgnoredLine(line string) bool {
	for _, re := range c.ignore {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func trimGzSuffix(s string) string {
	const suffix = ".gz"
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}
