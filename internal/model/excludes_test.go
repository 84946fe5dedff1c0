package model

import "testing"

func TestDefaultTargetConfigExcludesKnownPaths(t *testing.T) {
	cfg := DefaultTargetConfig()
	excluded := []string{
		"screenshots/image.png",
		"var/lib/mysql/tc.log.txt",
		"var/etc/hosts",
		"var/proc/cpuinfo",
		"var/.git/config",
		"job-output.json",
	}
	for _, p := range excluded {
		if cfg.IsSourceValid(Source{Path: p}) {
			t.Errorf("expected %q to be excluded", p)
		}
	}
}

func TestDefaultTargetConfigAllowsOrdinaryLogs(t *testing.T) {
	cfg := DefaultTargetConfig()
	allowed := []string{
		"controller/logs/screen-n-api.txt",
		"job-output.txt",
		"syslog",
	}
	for _, p := range allowed {
		if !cfg.IsSourceValid(Source{Path: p}) {
			t.Errorf("expected %q to be allowed", p)
		}
	}
}

func TestTargetConfigGzSuffixTrimmedBeforeMatch(t *testing.T) {
	cfg := DefaultTargetConfig()
	if cfg.IsSourceValid(Source{Path: "screenshots/image.png.gz"}) {
		t.Errorf("expected .png.gz to still be excluded once suffix is trimmed")
	}
}

func TestTargetConfigIncludes(t *testing.T) {
	cfg, err := NewTargetConfig([]string{`controller/`}, nil, nil, false)
	if err != nil {
		t.Fatalf("NewTargetConfig: %v", err)
	}
	if !cfg.IsSourceValid(Source{Path: "controller/logs/screen-n-api.txt"}) {
		t.Errorf("expected matching include to pass")
	}
	if cfg.IsSourceValid(Source{Path: "compute1/logs/screen-n-cpu.txt"}) {
		t.Errorf("expected non-matching include to fail")
	}
}

func TestTargetConfigIgnoredLine(t *testing.T) {
	cfg, err := NewTargetConfig(nil, nil, []string{`^DEBUG`}, false)
	if err != nil {
		t.Fatalf("NewTargetConfig: %v", err)
	}
	if !cfg.IsIgnoredLine("DEBUG noisy line") {
		t.Errorf("expected DEBUG line to be ignored")
	}
	if cfg.IsIgnoredLine("ERROR something broke") {
		t.Errorf("expected ERROR line to pass through")
	}
}
