package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// validConfig points every path at something that exists so individual
// tests can break exactly one thing. The tools point at stub binaries
// because the test machine need not have rsync or ssh installed.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Source.Path = t.TempDir()
	cfg.Destination.Host = "backup01"
	cfg.Destination.Path = "/srv/backups/web"
	cfg.Backup.Prefix = "web-"
	cfg.Tools.Rsync = stubBinary(t, "rsync")
	cfg.Tools.SSH = stubBinary(t, "ssh")
	return cfg
}

func stubBinary(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing stub %s: %v", name, err)
	}
	return p
}

func hasWarning(warns []string, substr string) bool {
	for _, w := range warns {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidateCleanConfig(t *testing.T) {
	warns, err := validConfig(t).Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings on a clean config: %v", warns)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing source", func(c *Config) { c.Source.Path = "" }},
		{"missing host", func(c *Config) { c.Destination.Host = "" }},
		{"missing destination path", func(c *Config) { c.Destination.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			if _, err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted an unusable config")
			}
		})
	}
}

func TestValidateClampsRetention(t *testing.T) {
	cfg := validConfig(t)
	cfg.Destination.Retention.Keep = 0

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "below 1") {
		t.Fatalf("no clamp warning in %v", warns)
	}
	if cfg.Destination.Retention.Keep != 1 {
		t.Fatalf("keep = %d, want 1", cfg.Destination.Retention.Keep)
	}
}

func TestValidateMissingSourceWarns(t *testing.T) {
	cfg := validConfig(t)
	cfg.Source.Path = filepath.Join(t.TempDir(), "gone")

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "not accessible") {
		t.Fatalf("no source warning in %v", warns)
	}
}

func TestValidateFallsBackOnMissingTools(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tools.Rsync = filepath.Join(t.TempDir(), "no-rsync")
	cfg.Tools.SSH = filepath.Join(t.TempDir(), "no-ssh")

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "sync tool") || !hasWarning(warns, "ssh tool") {
		t.Fatalf("missing tool warnings in %v", warns)
	}
	if cfg.Tools.Rsync != "rsync" || cfg.Tools.SSH != "ssh" {
		t.Fatalf("tools = %+v, want defaults restored", cfg.Tools)
	}
}

func TestValidateAcceptsExistingToolPath(t *testing.T) {
	cfg := validConfig(t)
	bin := stubBinary(t, "myrsync")
	cfg.Tools.Rsync = bin

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if hasWarning(warns, "sync tool") {
		t.Fatalf("existing tool rejected: %v", warns)
	}
	if cfg.Tools.Rsync != bin {
		t.Fatalf("rsync = %q, want %q", cfg.Tools.Rsync, bin)
	}
}

func TestValidateClearsMissingFiles(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tools.SSHKey = filepath.Join(t.TempDir(), "no-key")
	cfg.Backup.ExcludeFile = filepath.Join(t.TempDir(), "no-excludes")

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "ssh key") || !hasWarning(warns, "exclude file") {
		t.Fatalf("missing file warnings in %v", warns)
	}
	if cfg.Tools.SSHKey != "" || cfg.Backup.ExcludeFile != "" {
		t.Fatalf("missing files not cleared: key=%q exclude=%q", cfg.Tools.SSHKey, cfg.Backup.ExcludeFile)
	}
}

func TestValidateWarnsOnIdleLogExcludes(t *testing.T) {
	cfg := validConfig(t)
	cfg.Backup.LogExcludes = true

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "logExcludes has no effect") {
		t.Fatalf("no logExcludes warning in %v", warns)
	}
	if !cfg.Backup.LogExcludes {
		t.Fatal("Validate rewrote LogExcludes instead of warning")
	}

	// The warning also fires when the configured exclude file was
	// cleared for being missing.
	cfg = validConfig(t)
	cfg.Backup.LogExcludes = true
	cfg.Backup.ExcludeFile = filepath.Join(t.TempDir(), "gone")

	warns, err = cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "logExcludes has no effect") {
		t.Fatalf("no logExcludes warning after clearing in %v", warns)
	}
}

func TestValidateWarnsOnEmptyPrefix(t *testing.T) {
	cfg := validConfig(t)
	cfg.Backup.Prefix = ""

	warns, err := cfg.Validate()
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !hasWarning(warns, "prefix") {
		t.Fatalf("no prefix warning in %v", warns)
	}
}

func TestValidateRejectsUnknownReloadMode(t *testing.T) {
	cfg := validConfig(t)
	cfg.ConfigReload.Mode = "inotifywait"

	if _, err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted an unknown reload mode")
	}
}

func TestValidateNormalizesRetry(t *testing.T) {
	cfg := validConfig(t)
	cfg.Retry.Attempts = 0
	cfg.Retry.Backoff = 0

	if _, err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Retry.Attempts != 1 || cfg.Retry.Backoff <= 0 {
		t.Fatalf("retry = %+v, want normalized", cfg.Retry)
	}
}
