// Package hooks executes ordered lists of external shell commands at
// defined points in the deploy and rollback lifecycle.
//
// The runner's only contract is ordering and failure detection: commands
// run one at a time through the shell, the first non-zero exit stops the
// list, and already-run commands are never undone. Hooks are the
// operator's responsibility to make idempotent.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error describes a hook command that exited non-zero.
// It carries which list the command belonged to, the command itself, the
// exit status, and the command's combined output.
type Error struct {
	// List is the hook list name (pre_deploy, post_deploy, ...).
	List string

	// Command is the shell command string that failed.
	Command string

	// ExitCode is the command's exit status. -1 means the command did not
	// run to completion (spawn failure or context cancellation).
	ExitCode int

	// Output is the command's combined stdout and stderr.
	Output string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s hook %q exited with status %d", e.List, e.Command, e.ExitCode)
}

// Runner executes hook command lists.
type Runner struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkDir sets the working directory hook commands run in.
// Defaults to the caller's working directory.
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithLogger sets the logger used for hook progress and output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a hook Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes each command in the list, in order, as an independent shell
// process. An empty list is a trivial success. The first command that exits
// non-zero stops execution and the returned error is a *Error; remaining
// commands in the list do not run.
//
// Run is synchronous: it does not return until every command has finished
// or one has failed.
func (r *Runner) Run(ctx context.Context, list string, commands []string) error {
	for _, command := range commands {
		r.logger.Info("running hook", "list", list, "command", command)

		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = r.dir

		out, err := cmd.CombinedOutput()
		output := strings.TrimRight(string(out), "\n")
		if output != "" {
			r.logger.Debug("hook output", "list", list, "output", output)
		}

		if err != nil {
			hookErr := &Error{
				List:     list,
				Command:  command,
				ExitCode: exitCode(err),
				Output:   output,
			}
			r.logger.Error("hook failed",
				"list", list,
				"command", command,
				"exit_code", hookErr.ExitCode)
			if ctx.Err() != nil {
				return errors.WithSecondaryError(hookErr, ctx.Err())
			}
			return hookErr
		}
	}

	return nil
}

// exitCode extracts the exit status from an exec error.
// Returns -1 for commands that never ran to completion.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
