package rsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/jamesainslie/syncbench/pkg/syncbench/logging"
)

var logger = logging.Get("rsync")

// Result describes a finished invocation.
type Result struct {
	Args     []string      `json:"args"`
	Elapsed  time.Duration `json:"elapsed"`
	ExitCode int           `json:"exit_code"`
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout io.Writer) (Result, error)
}

// ExecRunner runs commands as child processes without a shell.
type ExecRunner struct {
	// Stderr receives the child's stderr. Nil discards it.
	Stderr io.Writer
}

// Run starts the command and waits for it. A non-zero exit status is
// reported in the Result, not as an error. Errors are returned only when the
// process could not be started or the context was cancelled.
func (r ExecRunner) Run(ctx context.Context, cmd Command, stdout io.Writer) (Result, error) {
	args := cmd.Args()
	res := Result{Args: args}
	if len(args) == 0 {
		return res, errors.New("empty command")
	}

	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdout = stdout
	c.Stderr = r.Stderr

	logger.Debug("running", "argv", strings.Join(args, " "))
	start := time.Now()
	err := c.Run()
	res.Elapsed = time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			res.ExitCode = -1
			return res, fmt.Errorf("running %s: %w", args[0], err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.ExitCode = exitErr.ExitCode()
			return res, ctxErr
		}
		res.ExitCode = exitErr.ExitCode()
		logger.Warn("transfer exited non-zero", "argv", strings.Join(args, " "), "exit", res.ExitCode)
	}

	logger.Info("transfer finished", "src", cmd.Options.Source, "dst", cmd.Options.Destination,
		"elapsed", res.Elapsed, "exit", res.ExitCode)
	return res, nil
}
