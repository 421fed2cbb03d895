package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Validate checks the configuration once, up front. Problems the
// session cannot work around come back as the error; everything
// recoverable is normalized in place and reported in the warning list.
func (c *Config) Validate() ([]string, error) {
	var warns []string

	if c.Source.Path == "" {
		return nil, errors.New("source path is required")
	}
	if c.Destination.Host == "" {
		return nil, errors.New("destination host is required")
	}
	if c.Destination.Path == "" {
		return nil, errors.New("destination path is required")
	}

	if _, err := os.Stat(c.Source.Path); err != nil {
		warns = append(warns, fmt.Sprintf("source %s is not accessible: %v", c.Source.Path, err))
	}

	if c.Destination.Retention.Keep < 1 {
		warns = append(warns, fmt.Sprintf("retention keep %d is below 1, keeping 1 snapshot",
			c.Destination.Retention.Keep))
		c.Destination.Retention.Keep = 1
	}

	def := Default()
	if _, err := exec.LookPath(c.Tools.Rsync); err != nil {
		warns = append(warns, fmt.Sprintf("sync tool %s not found, using %s", c.Tools.Rsync, def.Tools.Rsync))
		c.Tools.Rsync = def.Tools.Rsync
	}
	if _, err := exec.LookPath(c.Tools.SSH); err != nil {
		warns = append(warns, fmt.Sprintf("ssh tool %s not found, using %s", c.Tools.SSH, def.Tools.SSH))
		c.Tools.SSH = def.Tools.SSH
	}

	if c.Tools.SSHKey != "" {
		if _, err := os.Stat(c.Tools.SSHKey); err != nil {
			warns = append(warns, fmt.Sprintf("ssh key %s not found, ignoring it", c.Tools.SSHKey))
			c.Tools.SSHKey = ""
		}
	}
	if c.Backup.ExcludeFile != "" {
		if _, err := os.Stat(c.Backup.ExcludeFile); err != nil {
			warns = append(warns, fmt.Sprintf("exclude file %s not found, ignoring it", c.Backup.ExcludeFile))
			c.Backup.ExcludeFile = ""
		}
	}
	if c.Backup.LogExcludes && c.Backup.ExcludeFile == "" {
		warns = append(warns, "logExcludes has no effect without an exclude file")
	}
	if c.Backup.Prefix == "" {
		warns = append(warns, "prefix not specified, snapshots will be named by timestamp only")
	}

	if c.Retry.Attempts < 1 {
		c.Retry.Attempts = 1
	}
	if c.Retry.Backoff <= 0 {
		c.Retry.Backoff = def.Retry.Backoff
	}

	switch c.ConfigReload.Mode {
	case "", "auto", "poll", "fsnotify":
	default:
		return nil, fmt.Errorf("unknown reload mode %q", c.ConfigReload.Mode)
	}
	if c.ConfigReload.PollInterval <= 0 {
		c.ConfigReload.PollInterval = def.ConfigReload.PollInterval
	}
	if c.ConfigReload.DebounceWindow <= 0 {
		c.ConfigReload.DebounceWindow = def.ConfigReload.DebounceWindow
	}

	return warns, nil
}
