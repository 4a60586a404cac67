// Package preflight checks, before any manifest is rewritten, that a run can
// publish at all.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/holon-run/prvoyager/pkg/log"
	"github.com/holon-run/prvoyager/pkg/npmrc"
	"github.com/holon-run/prvoyager/pkg/workspace"
)

// CheckLevel represents the severity level of a preflight check
type CheckLevel int

const (
	// LevelError indicates a critical failure that prevents execution
	LevelError CheckLevel = iota
	// LevelWarn indicates a warning that should be addressed but doesn't block execution
	LevelWarn
	// LevelInfo indicates informational output
	LevelInfo
)

// CheckResult represents the result of a single preflight check
type CheckResult struct {
	Name    string
	Level   CheckLevel
	Message string
	Error   error
}

// Check represents a single preflight check
type Check interface {
	Name() string
	Run(ctx context.Context) CheckResult
}

// Checker runs a collection of preflight checks
type Checker struct {
	checks []Check
}

// Config configures the preflight checker. Empty fields disable the checks
// that need them.
type Config struct {
	// PublishScript is checked for an executable first word.
	PublishScript string
	// WorkspacePath must be a directory with a package.json.
	WorkspacePath string
	// NPMToken, HomeDir and ProjectDir feed the registry credential check.
	NPMToken   string
	HomeDir    string
	ProjectDir string
}

// NewChecker creates a new preflight checker with the given configuration
func NewChecker(cfg Config) *Checker {
	c := &Checker{}
	if cfg.PublishScript != "" {
		c.checks = append(c.checks, &PublishCommandCheck{Script: cfg.PublishScript})
	}
	if cfg.WorkspacePath != "" {
		c.checks = append(c.checks, &WorkspaceCheck{Path: cfg.WorkspacePath})
	}
	if cfg.HomeDir != "" || cfg.ProjectDir != "" {
		c.checks = append(c.checks, &RegistryAuthCheck{
			Token:      cfg.NPMToken,
			HomeDir:    cfg.HomeDir,
			ProjectDir: cfg.ProjectDir,
		})
	}
	return c
}

// Checks returns the registered checks in run order.
func (c *Checker) Checks() []Check {
	return c.checks
}

// Run executes all checks and returns an error listing every failed one.
func (c *Checker) Run(ctx context.Context) error {
	log.Progress("running preflight checks")

	var failed []string
	for _, check := range c.checks {
		result := check.Run(ctx)
		switch result.Level {
		case LevelError:
			log.Error("preflight check failed", "check", result.Name, "message", result.Message)
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Message))
		case LevelWarn:
			log.Warn("preflight check warning", "check", result.Name, "message", result.Message)
		case LevelInfo:
			log.Debug("preflight check", "check", result.Name, "message", result.Message)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("preflight checks failed:\n  - %s", strings.Join(failed, "\n  - "))
	}
	log.Progress("preflight checks passed")
	return nil
}

// PublishCommandCheck checks that the publish command can be executed.
type PublishCommandCheck struct {
	Script string
}

func (c *PublishCommandCheck) Name() string {
	return "publish-command"
}

func (c *PublishCommandCheck) Run(ctx context.Context) CheckResult {
	fields := strings.Fields(c.Script)
	if len(fields) == 0 {
		return CheckResult{Name: c.Name(), Level: LevelError, Message: "publish command is empty"}
	}

	path, err := exec.LookPath(fields[0])
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("%s not found in PATH. Install it or set up the package manager before this step", fields[0]),
			Error:   err,
		}
	}
	return CheckResult{Name: c.Name(), Level: LevelInfo, Message: fmt.Sprintf("%s found at %s", fields[0], path)}
}

// WorkspaceCheck checks that the project directory holds a root package.
type WorkspaceCheck struct {
	Path string
}

func (c *WorkspaceCheck) Name() string {
	return "workspace"
}

func (c *WorkspaceCheck) Run(ctx context.Context) CheckResult {
	info, err := os.Stat(c.Path)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("project directory %s is not accessible", c.Path),
			Error:   err,
		}
	}
	if !info.IsDir() {
		return CheckResult{Name: c.Name(), Level: LevelError, Message: fmt.Sprintf("%s is not a directory", c.Path)}
	}

	manifest := filepath.Join(c.Path, workspace.ManifestFile)
	if _, err := os.Stat(manifest); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Level:   LevelError,
			Message: fmt.Sprintf("no %s in %s", workspace.ManifestFile, c.Path),
			Error:   err,
		}
	}
	return CheckResult{Name: c.Name(), Level: LevelInfo, Message: fmt.Sprintf("root package found in %s", c.Path)}
}

// RegistryAuthCheck warns when no registry credential is visible. It never
// fails: scoped registries and OIDC trusted publishing authenticate in ways
// this check cannot see.
type RegistryAuthCheck struct {
	Token      string
	HomeDir    string
	ProjectDir string
}

func (c *RegistryAuthCheck) Name() string {
	return "registry-auth"
}

func (c *RegistryAuthCheck) Run(ctx context.Context) CheckResult {
	if c.Token != "" {
		return CheckResult{Name: c.Name(), Level: LevelInfo, Message: "NPM_TOKEN is set"}
	}

	p := &npmrc.Provisioner{HomeDir: c.HomeDir, ProjectDir: c.ProjectDir}
	for _, path := range p.Candidates() {
		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return CheckResult{Name: c.Name(), Level: LevelWarn, Message: fmt.Sprintf("cannot read %s", path), Error: err}
		}
		if npmrc.HasAuthLine(content) {
			return CheckResult{Name: c.Name(), Level: LevelInfo, Message: fmt.Sprintf("auth token found in %s", path)}
		}
	}

	if os.Getenv("ACTIONS_ID_TOKEN_REQUEST_URL") != "" {
		return CheckResult{Name: c.Name(), Level: LevelInfo, Message: "no NPM_TOKEN; OIDC id-token is available for trusted publishing"}
	}
	return CheckResult{
		Name:    c.Name(),
		Level:   LevelWarn,
		Message: "no NPM_TOKEN, no .npmrc auth token and no OIDC id-token permission; publishing to npmjs.org will likely fail",
	}
}
