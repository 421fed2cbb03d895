package config

import "time"

type Config struct {
	Source       SourceConfig      `yaml:"source"`
	Destination  DestinationConfig `yaml:"destination"`
	Tools        ToolsConfig       `yaml:"tools"`
	Backup       BackupConfig      `yaml:"backup"`
	Retry        RetryConfig       `yaml:"retry"`
	Schedule     ScheduleConfig    `yaml:"schedule"`
	ConfigReload ReloadConfig      `yaml:"configReload"`
	Logging      LoggingConfig     `yaml:"logging"`
	DryRun       bool              `yaml:"dryRun"`
}

type SourceConfig struct {
	Path string `yaml:"path"`
}

type DestinationConfig struct {
	Host      string          `yaml:"host"`
	User      string          `yaml:"user"`
	Path      string          `yaml:"path"`
	Retention RetentionConfig `yaml:"retention"`
}

type RetentionConfig struct {
	Keep int `yaml:"keep"`
}

// ToolsConfig names the external binaries. RsyncFlags is one grouped
// token ("-az"), passed to the tool as a single argument.
type ToolsConfig struct {
	Rsync      string `yaml:"rsync"`
	RsyncFlags string `yaml:"rsyncFlags"`
	SSH        string `yaml:"ssh"`
	SSHKey     string `yaml:"sshKey"`
}

type BackupConfig struct {
	Prefix      string `yaml:"prefix"`
	ExcludeFile string `yaml:"excludeFile"`
	LogExcludes bool   `yaml:"logExcludes"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Mode           string        `yaml:"mode"` // "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`
	DebounceWindow time.Duration `yaml:"debounceWindow"`
}

type LoggingConfig struct {
	Verbosity int `yaml:"verbosity"` // 0 warnings, 1 info, 2 debug
}

// Default returns the configuration used when no file sets a value.
// The bare binary names resolve through PATH at spawn time.
func Default() *Config {
	return &Config{
		Destination: DestinationConfig{
			Retention: RetentionConfig{Keep: 1},
		},
		Tools: ToolsConfig{
			Rsync:      "rsync",
			RsyncFlags: "-az",
			SSH:        "ssh",
		},
		Retry: RetryConfig{
			Attempts: 1,
			Backoff:  2 * time.Second,
		},
		ConfigReload: ReloadConfig{
			Mode:           "auto",
			PollInterval:   5 * time.Second,
			DebounceWindow: 500 * time.Millisecond,
		},
	}
}
