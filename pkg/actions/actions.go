// Package actions implements the parts of the GitHub Actions runner protocol
// prvoyager uses: step outputs, workflow command annotations and the event
// payload. Inputs arrive as INPUT_* variables and are read by pkg/config.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetWriter redirects workflow commands and returns a function restoring the
// previous writer.
func SetWriter(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return func() {
		mu.Lock()
		defer mu.Unlock()
		out = prev
	}
}

// IsActions reports whether the process runs inside a GitHub Actions job.
func IsActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Warning emits a ::warning:: annotation.
func Warning(msg string) {
	issue("warning", msg)
}

// Error emits an ::error:: annotation.
func Error(msg string) {
	issue("error", msg)
}

// Notice emits a ::notice:: annotation.
func Notice(msg string) {
	issue("notice", msg)
}

// AddMask asks the runner to mask value in all later log output.
func AddMask(value string) {
	if value == "" {
		return
	}
	issue("add-mask", value)
}

// SetFailed reports the run failure. The caller sets the exit code.
func SetFailed(msg string) {
	Error(msg)
}

func issue(command, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "::%s::%s\n", command, escapeData(msg))
}

// SetOutput records a step output. With GITHUB_OUTPUT set the value is
// appended to that file in heredoc form; otherwise the legacy set-output
// command is written.
func SetOutput(name, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "::set-output name=%s::%s\n", escapeProperty(name), escapeData(value))
		return nil
	}

	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("output %q contains the heredoc delimiter", name)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter); err != nil {
		return fmt.Errorf("failed to write output %q: %w", name, err)
	}
	return nil
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}
