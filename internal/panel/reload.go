package panel

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ReloadError carries the command's stderr.
type ReloadError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ReloadError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

// CommandReloader runs a shell command such as "nginx -t && systemctl reload nginx".
type CommandReloader struct {
	command string
	timeout time.Duration
}

func NewCommandReloader(command string, timeout time.Duration) *CommandReloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CommandReloader{command: command, timeout: timeout}
}

// Reload runs the command and returns its trimmed stdout.
func (r *CommandReloader) Reload(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ReloadError{
			Command: r.command,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
