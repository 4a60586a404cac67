// Package publish runs the user's publish command with the PR dist-tag.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/holon-run/prvoyager/pkg/log"
)

// Flags appended to every publish command. --no-git-checks lets pnpm publish
// from the dirty tree left by the manifest rewrite.
const (
	NoGitChecksFlag = "--no-git-checks"
	TagFlag         = "--tag"
)

// CommandError reports a publish command that could not be started or exited
// non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("publish command %q failed with exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("publish command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Args splits script on whitespace and appends the fixed publish flags.
func Args(script, tag string) (string, []string, error) {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return "", nil, errors.New("publish script is empty")
	}
	args := append([]string{}, fields[1:]...)
	args = append(args, NoGitChecksFlag, TagFlag, tag)
	return fields[0], args, nil
}

// Runner executes a command in dir, streaming its output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// Invoker publishes from Dir.
type Invoker struct {
	Dir    string
	Runner Runner
}

// NewInvoker creates an invoker that executes real processes in dir.
func NewInvoker(dir string) *Invoker {
	return &Invoker{Dir: dir, Runner: ExecRunner{}}
}

// Publish runs script with --no-git-checks --tag <tag> and returns the tag.
// There is no retry: a failing command fails the run.
func (i *Invoker) Publish(ctx context.Context, script, tag string) (string, error) {
	name, args, err := Args(script, tag)
	if err != nil {
		return "", err
	}

	commandLine := strings.Join(append([]string{name}, args...), " ")
	log.Progress("running publish command", "command", commandLine, "dir", i.Dir)

	if err := i.Runner.Run(ctx, i.Dir, name, args...); err != nil {
		cmdErr := &CommandError{Command: commandLine, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return tag, nil
}
