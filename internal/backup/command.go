package backup

import (
	"bufio"
	"path"
	"strings"
)

// syncCommand builds the transfer tool's argv. The flags value is a
// single grouped token ("-az"), passed to the tool as one argument.
func (m *Manager) syncCommand(name, linkDest string) []string {
	argv := []string{m.rsyncBin, "-v"}
	if m.rsyncFlags != "" {
		argv = append(argv, m.rsyncFlags)
	}
	if m.dryRun {
		argv = append(argv, "-n")
	}
	if m.sshKey != "" {
		argv = append(argv, "-e", m.sshBin+" -i "+m.sshKey)
	}
	if m.excludeFile != "" {
		argv = append(argv, "--exclude-from="+m.excludeFile)
	}
	if linkDest != "" {
		argv = append(argv, "--link-dest="+linkDest)
	}
	if m.logExcludes && m.excludeFile != "" {
		// Double verbosity makes the tool name every entry it skips.
		argv = append(argv, "-vv")
	}
	return append(argv, m.src, m.sh.Target()+":"+path.Join(m.destPath, name))
}

// reportExcluded surfaces the entries the transfer skipped because of
// the exclude file. rsync -vv prints one "hiding" line per skipped
// entry on stdout.
func (m *Manager) reportExcluded(name, stdout string) {
	if !m.logExcludes || m.excludeFile == "" {
		return
	}

	var count int
	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, "hiding file") ||
			strings.Contains(line, "hiding directory") ||
			strings.Contains(line, "excluding") {
			m.log.Debug("excluded: %s", line)
			count++
		}
	}
	if count > 0 {
		m.log.Info("%d entries excluded from %s", count, name)
	}
}

func joinArgv(argv []string) string {
	return strings.Join(argv, " ")
}
