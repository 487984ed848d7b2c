package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Restart defaults.
const (
	// DefaultCommandTimeout bounds the restart command.
	DefaultCommandTimeout = 30 * time.Second

	// DefaultGrace is how long to wait for a successful restart command to
	// take the process down before exiting anyway.
	DefaultGrace = 30 * time.Second

	// RestartExitCode is the status used when the process exits to be
	// restarted by its supervisor (EX_TEMPFAIL).
	RestartExitCode = 75
)

// Logger defines the logging interface used by the restarter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandRestarter restarts the device by running a command such as
// "systemctl reboot". Without a command, or if the command fails, the
// process exits with RestartExitCode and relies on its supervisor.
type CommandRestarter struct {
	command []string
	timeout time.Duration
	grace   time.Duration
	exit    func(code int)
	logger  Logger
}

// NewCommandRestarter creates a restarter running command. An empty
// command means exit only.
func NewCommandRestarter(command []string) *CommandRestarter {
	return &CommandRestarter{
		command: command,
		timeout: DefaultCommandTimeout,
		grace:   DefaultGrace,
		exit:    os.Exit,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the restarter.
func (r *CommandRestarter) SetLogger(logger Logger) {
	r.logger = logger
}

// Restart runs the restart command and then exits the process. It only
// returns if the exit function does.
func (r *CommandRestarter) Restart(ctx context.Context, reason string) error {
	r.logger.Warn("restarting device", "reason", reason, "command", strings.Join(r.command, " "))

	if len(r.command) == 0 {
		r.exit(RestartExitCode)
		return nil
	}

	if err := r.run(ctx); err != nil {
		r.logger.Error("restart command failed, exiting", "error", err)
		r.exit(RestartExitCode)
		return err
	}

	// The command succeeded; the host is going down around us.
	select {
	case <-ctx.Done():
	case <-time.After(r.grace):
		r.logger.Warn("still running after restart command, exiting", "grace", r.grace)
	}
	r.exit(RestartExitCode)
	return nil
}

func (r *CommandRestarter) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...) //nolint:gosec // Command comes from the device config
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Debug("restart command output", "output", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("running %s: %w", r.command[0], err)
	}
	return nil
}
