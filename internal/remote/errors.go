package remote

import (
	"fmt"
	"strings"
)

// CommandError reports a remote command that exited non-zero.
type CommandError struct {
	Cmd    string
	Code   int
	Stderr string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("remote command %q exited %d", e.Cmd, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// sshExitTransport is the status ssh itself exits with when it cannot
// reach or authenticate to the host. A remote command's own status is
// never 255.
const sshExitTransport = 255

func isTransient(code int) bool {
	return code == sshExitTransport
}
